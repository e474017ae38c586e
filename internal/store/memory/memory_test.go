package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

func newProduct(id, owner, name, barcode string, price float64) *models.Product {
	now := time.Now().UTC()
	return &models.Product{
		ID:           id,
		UserID:       owner,
		Name:         name,
		Barcode:      barcode,
		SellingPrice: price,
		CreatedAt:    now,
		UpdatedAt:    now,
		SyncStatus:   models.SyncPending,
	}
}

func TestCreateProductAssignsInventory(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 1000), 7); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	got, err := s.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Inventory == nil || got.Inventory.Quantity != 7 {
		t.Fatalf("inventory = %+v", got.Inventory)
	}
	if got.Inventory.ID != "inv_p1" {
		t.Fatalf("inventory id = %q", got.Inventory.ID)
	}
}

func TestCreateProductBarcodeConflictPerOwner(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateProduct(ctx, newProduct("p1", "shop-a", "Rice", "111", 1000), 1); err != nil {
		t.Fatalf("first create: %v", err)
	}

	err := s.CreateProduct(ctx, newProduct("p2", "shop-a", "Rice again", "111", 1000), 1)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for same owner, got %v", err)
	}

	// A different shop may reuse the barcode.
	if err := s.CreateProduct(ctx, newProduct("p3", "shop-b", "Rice", "111", 1000), 1); err != nil {
		t.Fatalf("cross-owner create: %v", err)
	}
}

func TestSoftDeleteHidesFromListing(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 1000), 1)

	if err := s.SoftDeleteProduct(ctx, "p1"); err != nil {
		t.Fatalf("SoftDeleteProduct: %v", err)
	}

	products, total, _ := s.ListProducts(ctx, store.ProductFilter{}, store.Page{})
	if total != 0 || len(products) != 0 {
		t.Fatalf("deleted product still listed: %d", total)
	}

	// The row survives for sync and history lookups.
	got, err := s.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProduct after delete: %v", err)
	}
	if !got.Deleted || got.SyncStatus != models.SyncPending {
		t.Fatalf("row = %+v", got)
	}
}

func TestSearchMatchesNameCategoryBarcode(t *testing.T) {
	s := New()
	ctx := context.Background()
	rice := newProduct("p1", "", "Rice 5kg", "9001", 1000)
	rice.Category = "Grains"
	s.CreateProduct(ctx, rice, 1)
	s.CreateProduct(ctx, newProduct("p2", "", "Groundnut Oil", "9002", 1200), 1)

	for _, q := range []string{"rice", "GRAIN", "9001"} {
		products, _, _ := s.ListProducts(ctx, store.ProductFilter{Search: q}, store.Page{})
		if len(products) != 1 || products[0].ID != "p1" {
			t.Fatalf("search %q = %+v", q, products)
		}
	}
}

func TestRecordSaleAtomicDecrement(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 1000), 5)

	sale := &models.Sale{ID: "s1", TotalAmount: 2000, CreatedAt: time.Now().UTC(), SyncStatus: models.SyncPending}
	items := []models.SaleItem{{ID: "it1", SaleID: "s1", ProductID: "p1", Quantity: 2, PriceAtSale: 1000}}

	if err := s.RecordSale(ctx, sale, items, map[string]int{"p1": 2}, models.SyncPending); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	got, _ := s.GetProduct(ctx, "p1")
	if got.Inventory.Quantity != 3 {
		t.Fatalf("quantity = %d, want 3", got.Inventory.Quantity)
	}

	err := s.RecordSale(ctx, sale, items, map[string]int{"p1": 2}, models.SyncPending)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on duplicate sale id, got %v", err)
	}
	got, _ = s.GetProduct(ctx, "p1")
	if got.Inventory.Quantity != 3 {
		t.Fatalf("rejected sale moved stock: %d", got.Inventory.Quantity)
	}
}

func TestPendingQueriesAndMarks(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 5), 5)

	pending, _ := s.PendingProducts(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending products = %d", len(pending))
	}
	if err := s.MarkProductSynced(ctx, "p1"); err != nil {
		t.Fatalf("MarkProductSynced: %v", err)
	}
	pending, _ = s.PendingProducts(ctx)
	if len(pending) != 0 {
		t.Fatalf("still pending after mark: %d", len(pending))
	}

	// A later edit re-queues the row.
	name := "Rice Premium"
	if _, err := s.UpdateProduct(ctx, "p1", store.ProductUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	pending, _ = s.PendingProducts(ctx)
	if len(pending) != 1 {
		t.Fatalf("edit did not re-queue: %d", len(pending))
	}
}

func TestUpsertRemoteProductLandsSynced(t *testing.T) {
	s := New()
	ctx := context.Background()

	qty := 12
	remote := models.Product{
		ID: "p1", UserID: "shop-1", Name: "Rice", Barcode: "111",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		SyncStatus: models.SyncPending,
	}
	if err := s.UpsertRemoteProduct(ctx, remote, &qty); err != nil {
		t.Fatalf("UpsertRemoteProduct: %v", err)
	}

	got, _ := s.GetProduct(ctx, "p1")
	if got.SyncStatus != models.SyncSynced {
		t.Fatalf("pulled row status = %s, want synced", got.SyncStatus)
	}
	if got.UserID != "" {
		t.Fatalf("owner id must not persist locally, got %q", got.UserID)
	}
	if got.Inventory.Quantity != 12 || got.Inventory.SyncStatus != models.SyncSynced {
		t.Fatalf("inventory = %+v", got.Inventory)
	}
}

func TestSetAndAdjustQuantity(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 5), 5)

	inv, err := s.AdjustQuantity(ctx, "p1", 3, models.SyncPending)
	if err != nil || inv.Quantity != 8 {
		t.Fatalf("AdjustQuantity = %+v, %v", inv, err)
	}

	inv, err = s.SetQuantity(ctx, "p1", 2, models.SyncSynced)
	if err != nil || inv.Quantity != 2 || inv.SyncStatus != models.SyncSynced {
		t.Fatalf("SetQuantity = %+v, %v", inv, err)
	}

	if _, err := s.AdjustQuantity(ctx, "ghost", 1, models.SyncPending); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found for unknown product, got %v", err)
	}
}

func TestLowStockOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 5), 4)
	s.CreateProduct(ctx, newProduct("p2", "", "Salt", "222", 5), 1)
	s.CreateProduct(ctx, newProduct("p3", "", "Oil", "333", 5), 40)

	rows, err := s.LowStock(ctx, "", 5)
	if err != nil {
		t.Fatalf("LowStock: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Product.ID != "p2" || rows[1].Product.ID != "p1" {
		t.Fatalf("ordering = %s, %s", rows[0].Product.ID, rows[1].Product.ID)
	}
}

func TestReplaceSaleReinsertsItems(t *testing.T) {
	s := New()
	ctx := context.Background()

	sale := &models.Sale{ID: "s1", TotalAmount: 1000, CreatedAt: time.Now().UTC(), SyncStatus: models.SyncSynced}
	items := []models.SaleItem{{ID: "it1", SaleID: "s1", ProductID: "p1", Quantity: 1, PriceAtSale: 1000}}
	if err := s.ReplaceSale(ctx, sale, items); err != nil {
		t.Fatalf("first ReplaceSale: %v", err)
	}

	sale.TotalAmount = 2000
	newItems := []models.SaleItem{
		{ID: "it2", SaleID: "s1", ProductID: "p1", Quantity: 2, PriceAtSale: 1000},
	}
	if err := s.ReplaceSale(ctx, sale, newItems); err != nil {
		t.Fatalf("second ReplaceSale: %v", err)
	}

	got, err := s.GetSale(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if got.Sale.TotalAmount != 2000 {
		t.Fatalf("total = %v", got.Sale.TotalAmount)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "it2" {
		t.Fatalf("items not replaced: %+v", got.Items)
	}
}

func TestStatsCountsTodayOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.CreateProduct(ctx, newProduct("p1", "", "Rice", "111", 5), 50)

	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	s.SetNow(func() time.Time { return now })

	today := &models.Sale{ID: "s1", TotalAmount: 500, CreatedAt: now, SyncStatus: models.SyncSynced}
	yesterday := &models.Sale{ID: "s2", TotalAmount: 900, CreatedAt: now.Add(-24 * time.Hour), SyncStatus: models.SyncSynced}
	s.ReplaceSale(ctx, today, nil)
	s.ReplaceSale(ctx, yesterday, nil)

	stats, err := s.Stats(ctx, "", 5)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TodaySales != 500 {
		t.Fatalf("todaySales = %v, want 500", stats.TodaySales)
	}
	if stats.ProductCount != 1 || stats.LowStockCount != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}
