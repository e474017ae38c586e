package checkout

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store/memory"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/utils"
)

func seedProduct(t *testing.T, st store.Store, name string, price float64, qty int) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:           utils.NewID(),
		UserID:       "u1",
		Name:         name,
		Barcode:      "bc-" + name,
		SellingPrice: price,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := st.CreateProduct(context.Background(), p, qty); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return p
}

func TestCheckoutHappyPath(t *testing.T) {
	st := memory.New()
	rice := seedProduct(t, st, "Rice 5kg", 4500, 10)
	oil := seedProduct(t, st, "Groundnut Oil", 1200, 4)

	tr := NewTransactor(st)
	sale, err := tr.Checkout(context.Background(), "u1", []Item{
		{ProductID: rice.ID, Quantity: 2},
		{ProductID: oil.ID, Quantity: 1},
	}, models.SyncPending)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if sale.Sale.TotalAmount != 2*4500+1200 {
		t.Fatalf("total = %v, want 10200", sale.Sale.TotalAmount)
	}
	if len(sale.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sale.Items))
	}
	if sale.Sale.SyncStatus != models.SyncPending {
		t.Fatalf("sale sync status = %s, want pending", sale.Sale.SyncStatus)
	}

	got, err := st.GetProduct(context.Background(), rice.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Inventory.Quantity != 8 {
		t.Fatalf("rice stock = %d, want 8", got.Inventory.Quantity)
	}
	if got.Inventory.SyncStatus != models.SyncPending {
		t.Fatalf("inventory status = %s, want pending", got.Inventory.SyncStatus)
	}
}

func TestCheckoutUnknownProduct(t *testing.T) {
	st := memory.New()
	rice := seedProduct(t, st, "Rice 5kg", 4500, 10)

	tr := NewTransactor(st)
	_, err := tr.Checkout(context.Background(), "u1", []Item{
		{ProductID: rice.ID, Quantity: 1},
		{ProductID: "missing", Quantity: 1},
	}, models.SyncPending)

	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err.Error() != "One or more products not found" {
		t.Fatalf("message = %q", err.Error())
	}

	// Whole cart rejected: no partial decrement.
	got, _ := st.GetProduct(context.Background(), rice.ID)
	if got.Inventory.Quantity != 10 {
		t.Fatalf("rice stock = %d, want untouched 10", got.Inventory.Quantity)
	}
}

func TestCheckoutInsufficientStock(t *testing.T) {
	st := memory.New()
	oil := seedProduct(t, st, "Groundnut Oil", 1200, 3)

	tr := NewTransactor(st)
	_, err := tr.Checkout(context.Background(), "u1", []Item{
		{ProductID: oil.ID, Quantity: 5},
	}, models.SyncPending)

	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	want := "Insufficient stock for product: Groundnut Oil. Available: 3"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestCheckoutRepeatedLineExceedsStock(t *testing.T) {
	st := memory.New()
	oil := seedProduct(t, st, "Groundnut Oil", 1200, 3)

	tr := NewTransactor(st)
	_, err := tr.Checkout(context.Background(), "u1", []Item{
		{ProductID: oil.ID, Quantity: 2},
		{ProductID: oil.ID, Quantity: 2},
	}, models.SyncPending)

	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for summed lines, got %v", err)
	}
	if !strings.Contains(err.Error(), "Available: 3") {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	tr := NewTransactor(memory.New())
	_, err := tr.Checkout(context.Background(), "u1", nil, models.SyncPending)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type fakeRemote struct {
	sale *models.Sale
	err  error
}

func (f *fakeRemote) Checkout(_ context.Context, _ []Item) (*models.Sale, error) {
	return f.sale, f.err
}

func TestCheckoutOnlineMirrorsSaleLocally(t *testing.T) {
	st := memory.New()
	rice := seedProduct(t, st, "Rice 5kg", 4500, 10)

	remote := &fakeRemote{sale: &models.Sale{
		ID:          "srv-sale-1",
		UserID:      "u1",
		TotalAmount: 9000,
		CreatedAt:   time.Now().UTC(),
		SyncStatus:  models.SyncSynced,
		Items: []models.SaleItem{
			{ID: "it1", SaleID: "srv-sale-1", ProductID: rice.ID, Quantity: 2, PriceAtSale: 4500},
		},
	}}

	tr := NewTransactor(st)
	sale, err := tr.CheckoutOnline(context.Background(), remote, []Item{{ProductID: rice.ID, Quantity: 2}})
	if err != nil {
		t.Fatalf("CheckoutOnline: %v", err)
	}
	if sale.Sale.SyncStatus != models.SyncSynced {
		t.Fatalf("online sale status = %s, want synced", sale.Sale.SyncStatus)
	}

	local, err := st.GetSale(context.Background(), "srv-sale-1")
	if err != nil {
		t.Fatalf("sale not mirrored locally: %v", err)
	}
	if local.Sale.SyncStatus != models.SyncSynced || len(local.Items) != 1 {
		t.Fatalf("local copy = %+v", local)
	}

	// The decrement lands locally too, already reconciled.
	got, _ := st.GetProduct(context.Background(), rice.ID)
	if got.Inventory.Quantity != 8 || got.Inventory.SyncStatus != models.SyncSynced {
		t.Fatalf("inventory = %+v", got.Inventory)
	}

	pending, _ := st.PendingSales(context.Background())
	if len(pending) != 0 {
		t.Fatalf("online sale must leave nothing pending, got %d", len(pending))
	}
}

func TestCheckoutOnlineRemoteFailure(t *testing.T) {
	st := memory.New()
	rice := seedProduct(t, st, "Rice 5kg", 4500, 10)

	remote := &fakeRemote{err: apperr.New(apperr.KindValidation, "Insufficient stock for product: Rice 5kg. Available: 1")}
	tr := NewTransactor(st)
	_, err := tr.CheckoutOnline(context.Background(), remote, []Item{{ProductID: rice.ID, Quantity: 2}})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected remote error passthrough, got %v", err)
	}

	got, _ := st.GetProduct(context.Background(), rice.ID)
	if got.Inventory.Quantity != 10 {
		t.Fatalf("failed online checkout moved stock: %d", got.Inventory.Quantity)
	}
}

func TestBuildCapturesPriceAtSale(t *testing.T) {
	qty := 5
	p := models.Product{
		ID:           "p1",
		Name:         "Sugar",
		SellingPrice: 800,
		Inventory:    &models.Inventory{ProductID: "p1", Quantity: qty},
	}

	plan, err := Build("u1", []models.Product{p}, []Item{{ProductID: "p1", Quantity: 2}}, "s1", time.Now().UTC())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if plan.Items[0].PriceAtSale != 800 {
		t.Fatalf("priceAtSale = %v, want 800", plan.Items[0].PriceAtSale)
	}
	if plan.Decrements["p1"] != 2 {
		t.Fatalf("decrement = %d, want 2", plan.Decrements["p1"])
	}
}
