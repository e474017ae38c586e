package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

const productCacheTTL = 30 * time.Second

func parsePage(req *http.Request) store.Page {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	return store.Page{Page: page, Limit: limit}.Normalize()
}

func metaFor(total int64, page store.Page) *api.Meta {
	return &api.Meta{
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(page.Limit))),
	}
}

func (r *Router) productCachePrefix(owner string) string {
	return "products:" + owner + ":"
}

type createProductRequest struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category"`
	SellingPrice  float64 `json:"sellingPrice"`
	PurchasePrice float64 `json:"purchasePrice"`
	Quantity      int     `json:"quantity"`
}

func (r *Router) createProduct(w http.ResponseWriter, req *http.Request) {
	var body createProductRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	if body.Name == "" || body.Barcode == "" {
		respondError(w, apperr.New(apperr.KindValidation, "Name and barcode are required"))
		return
	}
	if body.SellingPrice < 0 || body.PurchasePrice < 0 || body.Quantity < 0 {
		respondError(w, apperr.New(apperr.KindValidation, "Prices and quantity must not be negative"))
		return
	}

	// Devices push rows under their own ids so re-pushes stay
	// idempotent; direct API creates get a fresh one.
	if body.ID == "" {
		body.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:            body.ID,
		UserID:        ownerID(req),
		Name:          body.Name,
		Barcode:       body.Barcode,
		Category:      body.Category,
		SellingPrice:  body.SellingPrice,
		PurchasePrice: body.PurchasePrice,
		CreatedAt:     now,
		UpdatedAt:     now,
		SyncStatus:    models.SyncSynced,
	}
	if err := r.store.CreateProduct(req.Context(), product, body.Quantity); err != nil {
		respondError(w, err)
		return
	}

	r.cache.DeleteByPrefix(req.Context(), r.productCachePrefix(ownerID(req)))

	created, err := r.store.GetProduct(req.Context(), product.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, "Product created", created)
}

func (r *Router) listProducts(w http.ResponseWriter, req *http.Request) {
	owner := ownerID(req)
	page := parsePage(req)
	search := req.URL.Query().Get("search")

	key := fmt.Sprintf("%sp%d:l%d:q%s", r.productCachePrefix(owner), page.Page, page.Limit, search)
	if cached, ok, _ := r.cache.Get(req.Context(), key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cached)
		return
	}

	products, total, err := r.store.ListProducts(req.Context(), store.ProductFilter{OwnerID: owner, Search: search}, page)
	if err != nil {
		respondError(w, err)
		return
	}

	raw, err := json.Marshal(products)
	if err != nil {
		respondError(w, err)
		return
	}
	env := api.Envelope{Success: true, Data: raw, Meta: metaFor(total, page)}
	payload, err := json.Marshal(env)
	if err != nil {
		respondError(w, err)
		return
	}
	r.cache.Set(req.Context(), key, payload, productCacheTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// ownedProduct loads a product and enforces that it belongs to the
// caller. Foreign rows look like missing rows.
func (r *Router) ownedProduct(req *http.Request, id string) (*models.Product, error) {
	product, err := r.store.GetProduct(req.Context(), id)
	if err != nil {
		return nil, err
	}
	if product.UserID != ownerID(req) {
		return nil, apperr.New(apperr.KindNotFound, "Product not found")
	}
	return product, nil
}

// getProductByBarcode resolves a scan against the caller's catalog.
func (r *Router) getProductByBarcode(w http.ResponseWriter, req *http.Request) {
	product, err := r.store.GetProductByBarcode(req.Context(), ownerID(req), mux.Vars(req)["code"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, "", product)
}

func (r *Router) getProduct(w http.ResponseWriter, req *http.Request) {
	product, err := r.ownedProduct(req, mux.Vars(req)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, "", product)
}

type updateProductRequest struct {
	Name          *string  `json:"name"`
	Barcode       *string  `json:"barcode"`
	Category      *string  `json:"category"`
	SellingPrice  *float64 `json:"sellingPrice"`
	PurchasePrice *float64 `json:"purchasePrice"`
}

func (r *Router) updateProduct(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if _, err := r.ownedProduct(req, id); err != nil {
		respondError(w, err)
		return
	}

	var body updateProductRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	if body.Name != nil && *body.Name == "" {
		respondError(w, apperr.New(apperr.KindValidation, "Name must not be empty"))
		return
	}
	if (body.SellingPrice != nil && *body.SellingPrice < 0) || (body.PurchasePrice != nil && *body.PurchasePrice < 0) {
		respondError(w, apperr.New(apperr.KindValidation, "Prices must not be negative"))
		return
	}

	updated, err := r.store.UpdateProduct(req.Context(), id, store.ProductUpdate{
		Name:          body.Name,
		Barcode:       body.Barcode,
		Category:      body.Category,
		SellingPrice:  body.SellingPrice,
		PurchasePrice: body.PurchasePrice,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	r.cache.DeleteByPrefix(req.Context(), r.productCachePrefix(ownerID(req)))
	respondData(w, http.StatusOK, "Product updated", updated)
}

// deleteProduct hides a product from the catalog. `?hard=true` purges
// the row and its inventory entirely; sale history keeps its lines
// either way.
func (r *Router) deleteProduct(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	if _, err := r.ownedProduct(req, id); err != nil {
		respondError(w, err)
		return
	}

	var err error
	if req.URL.Query().Get("hard") == "true" {
		err = r.store.DeleteProduct(req.Context(), id)
	} else {
		err = r.store.SoftDeleteProduct(req.Context(), id)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	r.cache.DeleteByPrefix(req.Context(), r.productCachePrefix(ownerID(req)))
	respondData(w, http.StatusOK, "Product deleted", map[string]string{"id": id})
}
