package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/checkout"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store/memory"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/sync"
)

func newTestRouter(t *testing.T) (*mux.Router, *memory.Store) {
	t.Helper()
	st := memory.New()
	client := api.NewClient("http://127.0.0.1:1", sync.TokenFromStore(st))
	engine := sync.NewEngine(st, client, time.Minute)
	return newLocalRouter(st, checkout.NewTransactor(st), engine), st
}

func do(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLocalCreateAndLookupProduct(t *testing.T) {
	router, st := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/products", map[string]interface{}{
		"name": "Rice 5kg", "barcode": "6151100000011", "sellingPrice": 4500.0, "quantity": 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Product
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.SyncStatus != models.SyncPending {
		t.Fatalf("new local rows must queue for push, got %s", created.SyncStatus)
	}
	if created.Inventory == nil || created.Inventory.Quantity != 10 {
		t.Fatalf("inventory = %+v", created.Inventory)
	}

	rec = do(t, router, http.MethodGet, "/products/barcode/6151100000011", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("barcode lookup status = %d", rec.Code)
	}
	rec = do(t, router, http.MethodGet, "/products/barcode/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing barcode status = %d, want 404", rec.Code)
	}

	pending, _ := st.PendingProducts(context.Background())
	if len(pending) != 1 {
		t.Fatalf("pending products = %d, want 1", len(pending))
	}
}

func TestLocalCreateProductRejectsMissingName(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/products", map[string]interface{}{
		"barcode": "111", "sellingPrice": 100.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLocalCheckoutQueuesSale(t *testing.T) {
	router, st := newTestRouter(t)
	ctx := context.Background()

	create := do(t, router, http.MethodPost, "/products", map[string]interface{}{
		"name": "Rice 5kg", "barcode": "111", "sellingPrice": 4500.0, "quantity": 5,
	})
	var p models.Product
	json.Unmarshal(create.Body.Bytes(), &p)

	rec := do(t, router, http.MethodPost, "/sales/checkout", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": p.ID, "quantity": 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout status = %d: %s", rec.Code, rec.Body.String())
	}
	var sale models.Sale
	json.Unmarshal(rec.Body.Bytes(), &sale)
	if sale.TotalAmount != 9000 {
		t.Fatalf("total = %v, want 9000", sale.TotalAmount)
	}
	if sale.SyncStatus != models.SyncPending {
		t.Fatalf("offline sale must queue for push, got %s", sale.SyncStatus)
	}

	got, _ := st.GetProduct(ctx, p.ID)
	if got.Inventory.Quantity != 3 {
		t.Fatalf("stock = %d, want 3", got.Inventory.Quantity)
	}

	pending, _ := st.PendingSales(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending sales = %d, want 1", len(pending))
	}
}

func TestLocalCheckoutUnknownProduct(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/sales/checkout", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": "ghost", "quantity": 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLocalRestock(t *testing.T) {
	router, st := newTestRouter(t)
	ctx := context.Background()

	create := do(t, router, http.MethodPost, "/products", map[string]interface{}{
		"name": "Rice 5kg", "barcode": "111", "sellingPrice": 4500.0, "quantity": 3,
	})
	var p models.Product
	json.Unmarshal(create.Body.Bytes(), &p)

	rec := do(t, router, http.MethodPost, "/inventory/restock", map[string]interface{}{
		"productId": p.ID, "quantity": 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("restock status = %d: %s", rec.Code, rec.Body.String())
	}

	got, _ := st.GetProduct(ctx, p.ID)
	if got.Inventory.Quantity != 7 {
		t.Fatalf("stock = %d, want 7", got.Inventory.Quantity)
	}
	if got.Inventory.SyncStatus != models.SyncPending {
		t.Fatalf("restock must queue for push, got %s", got.Inventory.SyncStatus)
	}

	rec = do(t, router, http.MethodPost, "/inventory/restock", map[string]interface{}{
		"productId": p.ID, "quantity": -1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative restock status = %d, want 400", rec.Code)
	}
}
