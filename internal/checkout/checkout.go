// Package checkout turns a cart into a recorded sale. The same plan
// runs on the device (against the local store, queued for sync) and on
// the server (against the authoritative store); both fail closed, so a
// sale either lands with all its items and stock decrements or not at
// all.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/utils"
)

// Item is one cart line. Quantity must be positive.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Plan is a validated, priced sale ready to be written.
type Plan struct {
	Sale       models.Sale
	Items      []models.SaleItem
	Decrements map[string]int
}

// Build validates cart items against the given product set and prices
// the sale. Prices are captured at this moment; later catalog edits do
// not rewrite history.
func Build(userID string, products []models.Product, items []Item, saleID string, now time.Time) (*Plan, error) {
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindValidation, "Sale must contain at least one item")
	}

	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	plan := &Plan{
		Sale: models.Sale{
			ID:         saleID,
			UserID:     userID,
			CreatedAt:  now,
			SyncStatus: models.SyncPending,
		},
		Decrements: make(map[string]int, len(items)),
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperr.Newf(apperr.KindValidation, "Invalid quantity for product: %s", item.ProductID)
		}
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, apperr.New(apperr.KindValidation, "One or more products not found")
		}
		available := 0
		if p.Inventory != nil {
			available = p.Inventory.Quantity
		}
		requested := plan.Decrements[item.ProductID] + item.Quantity
		if available < requested {
			return nil, apperr.New(apperr.KindValidation,
				fmt.Sprintf("Insufficient stock for product: %s. Available: %d", p.Name, available))
		}

		plan.Decrements[item.ProductID] = requested
		plan.Items = append(plan.Items, models.SaleItem{
			ID:          utils.NewID(),
			SaleID:      saleID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtSale: p.SellingPrice,
		})
		plan.Sale.TotalAmount += p.SellingPrice * float64(item.Quantity)
	}

	return plan, nil
}

// Remote is the server-side checkout surface, satisfied by the API
// client.
type Remote interface {
	Checkout(ctx context.Context, items []Item) (*models.Sale, error)
}

// Transactor executes checkouts against a Store.
type Transactor struct {
	store store.Store
	newID func() string
	now   func() time.Time
}

func NewTransactor(st store.Store) *Transactor {
	return &Transactor{
		store: st,
		newID: utils.NewID,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Checkout records a new sale. Inventory rows touched by the sale take
// the given sync status: pending on the device, synced on the server.
func (t *Transactor) Checkout(ctx context.Context, userID string, items []Item, invStatus models.SyncStatus) (*store.SaleWithItems, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := t.store.ProductsByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	plan, err := Build(userID, products, items, t.newID(), t.now())
	if err != nil {
		return nil, err
	}
	plan.Sale.SyncStatus = models.SyncPending
	if invStatus == models.SyncSynced {
		plan.Sale.SyncStatus = models.SyncSynced
	}

	if err := t.store.RecordSale(ctx, &plan.Sale, plan.Items, plan.Decrements, invStatus); err != nil {
		return nil, err
	}
	return &store.SaleWithItems{Sale: plan.Sale, Items: plan.Items}, nil
}

// CheckoutOnline runs the sale on the server and mirrors the result
// into the local store as already synced, so the next cycle has nothing
// to push for it.
func (t *Transactor) CheckoutOnline(ctx context.Context, remote Remote, items []Item) (*store.SaleWithItems, error) {
	sale, err := remote.Checkout(ctx, items)
	if err != nil {
		return nil, err
	}

	decrements := make(map[string]int, len(sale.Items))
	for _, item := range sale.Items {
		decrements[item.ProductID] += item.Quantity
	}

	saleItems := sale.Items
	header := *sale
	header.UserID = ""
	header.SyncStatus = models.SyncSynced
	header.Items = nil

	if err := t.store.RecordSale(ctx, &header, saleItems, decrements, models.SyncSynced); err != nil {
		return nil, err
	}
	return &store.SaleWithItems{Sale: header, Items: saleItems}, nil
}
