package sync

import (
	"context"
	"log"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
)

// syncUp pushes pending local rows to the server: products first so
// sales and inventory can reference them, then sales, then absolute
// stock counts. One bad row does not stop the rest; a dead network
// aborts the whole run.
func (e *Engine) syncUp(ctx context.Context, result *Result) error {
	if err := e.pushProducts(ctx, result); err != nil {
		return err
	}
	if err := e.pushSales(ctx, result); err != nil {
		return err
	}
	return e.pushInventory(ctx, result)
}

func (e *Engine) pushProducts(ctx context.Context, result *Result) error {
	pending, err := e.store.PendingProducts(ctx)
	if err != nil {
		return err
	}

	for _, p := range pending {
		quantity := 0
		if full, err := e.store.GetProduct(ctx, p.ID); err == nil && full.Inventory != nil {
			quantity = full.Inventory.Quantity
		}

		err := e.client.CreateProduct(ctx, api.ProductPush{
			ID:            p.ID,
			Name:          p.Name,
			Barcode:       p.Barcode,
			Category:      p.Category,
			SellingPrice:  p.SellingPrice,
			PurchasePrice: p.PurchasePrice,
			Quantity:      quantity,
		})
		switch {
		case err == nil:
			result.Pushed++
		case apperr.IsKind(err, apperr.KindConflict):
			// Already on the server; the push delivered nothing
			// new but the row is reconciled.
			result.Pushed++
		case apperr.IsKind(err, apperr.KindNetwork):
			return err
		default:
			log.Printf("⚠️ Product %s push rejected: %v", p.ID, err)
			result.Failed++
			continue
		}

		if err := e.store.MarkProductSynced(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushSales(ctx context.Context, result *Result) error {
	pending, err := e.store.PendingSales(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	batch := make([]api.SalePush, 0, len(pending))
	for _, s := range pending {
		batch = append(batch, api.SalePush{
			ID:          s.Sale.ID,
			TotalAmount: s.Sale.TotalAmount,
			CreatedAt:   s.Sale.CreatedAt,
			Items:       s.Items,
		})
	}

	results, err := e.client.SyncSales(ctx, batch)
	if err != nil {
		return err
	}

	for _, r := range results {
		switch r.Status {
		case api.SaleSynced, api.SaleAlreadySynced:
			if err := e.store.MarkSaleSynced(ctx, r.ID); err != nil {
				return err
			}
			result.Pushed++
		default:
			log.Printf("⚠️ Sale %s rejected by server: %s", r.ID, r.Error)
			result.Failed++
		}
	}
	return nil
}

func (e *Engine) pushInventory(ctx context.Context, result *Result) error {
	pending, err := e.store.PendingInventory(ctx)
	if err != nil {
		return err
	}

	for _, inv := range pending {
		err := e.client.SetInventory(ctx, inv.ProductID, inv.Quantity)
		switch {
		case err == nil:
			if err := e.store.MarkInventorySynced(ctx, inv.ProductID); err != nil {
				return err
			}
			result.Pushed++
		case apperr.IsKind(err, apperr.KindNetwork):
			return err
		default:
			// Usually the product has not landed on the server
			// yet; the row stays pending for the next run.
			log.Printf("⚠️ Inventory for %s push rejected: %v", inv.ProductID, err)
			result.Failed++
		}
	}
	return nil
}
