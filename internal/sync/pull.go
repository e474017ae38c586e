package sync

import (
	"context"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
)

// syncDown walks the server's catalog and sales pages and applies them
// locally. Rows still marked pending are skipped untouched; they carry
// local changes the server has not seen yet.
func (e *Engine) syncDown(ctx context.Context, result *Result) error {
	if err := e.pullProducts(ctx, result); err != nil {
		return err
	}
	return e.pullSales(ctx, result)
}

func (e *Engine) pullProducts(ctx context.Context, result *Result) error {
	for page := 1; ; page++ {
		remote, meta, err := e.client.ListProducts(ctx, page, pullPageSize)
		if err != nil {
			return err
		}

		for _, p := range remote {
			local, err := e.store.GetProduct(ctx, p.ID)
			if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
			if local != nil && local.SyncStatus == models.SyncPending {
				result.Skipped++
				continue
			}

			var quantity *int
			if p.Inventory != nil {
				q := p.Inventory.Quantity
				quantity = &q
			}
			if err := e.store.UpsertRemoteProduct(ctx, p, quantity); err != nil {
				return err
			}
			result.Pulled++
		}

		if meta == nil || page >= meta.TotalPages {
			return nil
		}
	}
}

func (e *Engine) pullSales(ctx context.Context, result *Result) error {
	for page := 1; ; page++ {
		remote, meta, err := e.client.ListSales(ctx, page, pullPageSize)
		if err != nil {
			return err
		}

		for _, s := range remote {
			local, err := e.store.GetSale(ctx, s.ID)
			if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
				return err
			}
			if local != nil && local.Sale.SyncStatus == models.SyncPending {
				result.Skipped++
				continue
			}

			sale := s
			sale.UserID = ""
			sale.SyncStatus = models.SyncSynced
			items := sale.Items
			sale.Items = nil
			if err := e.store.ReplaceSale(ctx, &sale, items); err != nil {
				return err
			}
			result.Pulled++
		}

		if meta == nil || page >= meta.TotalPages {
			return nil
		}
	}
}
