package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

const defaultLowStockThreshold = 5

func (r *Router) listInventory(w http.ResponseWriter, req *http.Request) {
	page := parsePage(req)
	rows, total, err := r.store.ListInventory(req.Context(), store.ProductFilter{OwnerID: ownerID(req)}, page)
	if err != nil {
		respondError(w, err)
		return
	}
	respondPage(w, rows, metaFor(total, page))
}

type setInventoryRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// setInventory overwrites a product's quantity with an absolute count.
// Devices use this to report their local stock after offline activity.
func (r *Router) setInventory(w http.ResponseWriter, req *http.Request) {
	var body setInventoryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	if body.ProductID == "" || body.Quantity == nil {
		respondError(w, apperr.New(apperr.KindValidation, "productId and quantity are required"))
		return
	}

	if _, err := r.ownedProduct(req, body.ProductID); err != nil {
		respondError(w, err)
		return
	}

	inv, err := r.store.SetQuantity(req.Context(), body.ProductID, *body.Quantity, models.SyncSynced)
	if err != nil {
		respondError(w, err)
		return
	}
	r.cache.DeleteByPrefix(req.Context(), r.productCachePrefix(ownerID(req)))
	respondData(w, http.StatusOK, "Inventory updated", inv)
}

type restockRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r *Router) restock(w http.ResponseWriter, req *http.Request) {
	var body restockRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}
	if body.ProductID == "" || body.Quantity <= 0 {
		respondError(w, apperr.New(apperr.KindValidation, "productId and a positive quantity are required"))
		return
	}

	if _, err := r.ownedProduct(req, body.ProductID); err != nil {
		respondError(w, err)
		return
	}

	inv, err := r.store.AdjustQuantity(req.Context(), body.ProductID, body.Quantity, models.SyncSynced)
	if err != nil {
		respondError(w, err)
		return
	}
	r.cache.DeleteByPrefix(req.Context(), r.productCachePrefix(ownerID(req)))
	respondData(w, http.StatusOK, "Stock added", inv)
}

func (r *Router) lowStock(w http.ResponseWriter, req *http.Request) {
	threshold, _ := strconv.Atoi(req.URL.Query().Get("threshold"))
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	rows, err := r.store.LowStock(req.Context(), ownerID(req), threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, "", rows)
}

func (r *Router) dashboardStats(w http.ResponseWriter, req *http.Request) {
	stats, err := r.store.Stats(req.Context(), ownerID(req), defaultLowStockThreshold)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, "", stats)
}
