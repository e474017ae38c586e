package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/checkout"
)

func staticToken(token string) TokenFunc {
	return func(context.Context) (string, error) { return token, nil }
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(Envelope{Success: true, Data: json.RawMessage(`[]`)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok-123"))
	if _, _, err := c.ListProducts(context.Background(), 1, 50); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestClientConflictMapsToConflictKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(Envelope{Success: false, Message: "Product with this barcode already exists"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	err := c.CreateProduct(context.Background(), ProductPush{ID: "p1", Name: "Rice", Barcode: "123"})
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected conflict kind, got %v", err)
	}
	if err.Error() != "Product with this barcode already exists" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestClientUnreachableServerIsNetworkError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", staticToken("tok"))
	err := c.SetInventory(context.Background(), "p1", 5)
	if !apperr.IsKind(err, apperr.KindNetwork) {
		t.Fatalf("expected network kind, got %v", err)
	}
}

func TestClientSyncSalesDecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sales/sync" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Envelope{
			Success: true,
			Data:    json.RawMessage(`{"results":[{"id":"s1","status":"synced"},{"id":"s2","status":"already_synced"}]}`),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	results, err := c.SyncSales(context.Background(), []SalePush{{ID: "s1"}, {ID: "s2"}})
	if err != nil {
		t.Fatalf("SyncSales: %v", err)
	}
	if len(results) != 2 || results[0].Status != SaleSynced || results[1].Status != SaleAlreadySynced {
		t.Fatalf("results = %+v", results)
	}
}

func TestClientCheckoutDecodesSale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sales/checkout" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Envelope{
			Success: true,
			Data:    json.RawMessage(`{"id":"s1","totalAmount":9000,"items":[{"id":"it1","saleId":"s1","productId":"p1","quantity":2,"priceAtSale":4500}]}`),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	sale, err := c.Checkout(context.Background(), []checkout.Item{{ProductID: "p1", Quantity: 2}})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if sale.ID != "s1" || sale.TotalAmount != 9000 || len(sale.Items) != 1 {
		t.Fatalf("sale = %+v", sale)
	}
}

func TestClientListProductsMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "10" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(Envelope{
			Success: true,
			Data:    json.RawMessage(`[{"id":"p1","name":"Rice","barcode":"123"}]`),
			Meta:    &Meta{Total: 11, Page: 2, Limit: 10, TotalPages: 2},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, staticToken("tok"))
	products, meta, err := c.ListProducts(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Rice" {
		t.Fatalf("products = %+v", products)
	}
	if meta == nil || meta.TotalPages != 2 {
		t.Fatalf("meta = %+v", meta)
	}
}
