package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/checkout"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/receipt"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

type checkoutRequest struct {
	Items []checkout.Item `json:"items"`
}

func (r *Router) checkoutSale(w http.ResponseWriter, req *http.Request) {
	var body checkoutRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}

	sale, err := r.checkout.Checkout(req.Context(), ownerID(req), body.Items, models.SyncSynced)
	if err != nil {
		respondError(w, err)
		return
	}

	r.cache.DeleteByPrefix(req.Context(), r.productCachePrefix(ownerID(req)))
	flat := sale.Sale
	flat.Items = sale.Items
	respondData(w, http.StatusCreated, "Sale completed", flat)
}

type syncSalesRequest struct {
	Sales []api.SalePush `json:"sales"`
}

// syncSales absorbs a batch of offline sales. Each sale is judged on
// its own: a known id is acknowledged without re-inserting, an item
// referencing an unknown product fails that sale only. Stock is not
// decremented here; devices report absolute quantities separately.
func (r *Router) syncSales(w http.ResponseWriter, req *http.Request) {
	var body syncSalesRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
		return
	}

	owner := ownerID(req)
	results := make([]api.SaleSyncResult, 0, len(body.Sales))

	for _, push := range body.Sales {
		if push.ID == "" {
			results = append(results, api.SaleSyncResult{ID: push.ID, Status: api.SaleFailed, Error: "missing sale id"})
			continue
		}

		exists, err := r.store.SaleExists(req.Context(), push.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		if exists {
			results = append(results, api.SaleSyncResult{ID: push.ID, Status: api.SaleAlreadySynced})
			continue
		}

		ids := make([]string, 0, len(push.Items))
		for _, item := range push.Items {
			ids = append(ids, item.ProductID)
		}
		known, err := r.store.ProductsByIDs(req.Context(), owner, ids)
		if err != nil {
			respondError(w, err)
			return
		}
		if len(known) < len(uniqueIDs(ids)) {
			results = append(results, api.SaleSyncResult{ID: push.ID, Status: api.SaleFailed, Error: "One or more products not found"})
			continue
		}

		sale := models.Sale{
			ID:          push.ID,
			UserID:      owner,
			TotalAmount: push.TotalAmount,
			CreatedAt:   push.CreatedAt,
			SyncStatus:  models.SyncSynced,
		}
		items := make([]models.SaleItem, len(push.Items))
		copy(items, push.Items)
		for i := range items {
			items[i].SaleID = push.ID
		}

		if err := r.store.RecordSale(req.Context(), &sale, items, nil, models.SyncSynced); err != nil {
			if apperr.IsKind(err, apperr.KindConflict) {
				results = append(results, api.SaleSyncResult{ID: push.ID, Status: api.SaleAlreadySynced})
				continue
			}
			results = append(results, api.SaleSyncResult{ID: push.ID, Status: api.SaleFailed, Error: err.Error()})
			continue
		}
		results = append(results, api.SaleSyncResult{ID: push.ID, Status: api.SaleSynced})
	}

	respondData(w, http.StatusOK, "Sales processed", map[string]interface{}{"results": results})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (r *Router) listSales(w http.ResponseWriter, req *http.Request) {
	page := parsePage(req)
	sales, total, err := r.store.ListSales(req.Context(), store.SaleFilter{OwnerID: ownerID(req)}, page)
	if err != nil {
		respondError(w, err)
		return
	}
	respondPage(w, flattenSales(sales), metaFor(total, page))
}

func (r *Router) recentSales(w http.ResponseWriter, req *http.Request) {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	sales, _, err := r.store.ListSales(req.Context(), store.SaleFilter{OwnerID: ownerID(req)}, store.Page{Page: 1, Limit: limit})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, "", flattenSales(sales))
}

// flattenSales folds the items into each sale the way the wire format
// expects them.
func flattenSales(sales []store.SaleWithItems) []models.Sale {
	out := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		sale := s.Sale
		sale.Items = s.Items
		out = append(out, sale)
	}
	return out
}

func (r *Router) ownedSale(req *http.Request, id string) (*store.SaleWithItems, error) {
	sale, err := r.store.GetSale(req.Context(), id)
	if err != nil {
		return nil, err
	}
	if sale.Sale.UserID != ownerID(req) {
		return nil, apperr.New(apperr.KindNotFound, "Sale not found")
	}
	return sale, nil
}

func (r *Router) getSale(w http.ResponseWriter, req *http.Request) {
	sale, err := r.ownedSale(req, mux.Vars(req)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	flat := sale.Sale
	flat.Items = sale.Items
	respondData(w, http.StatusOK, "", flat)
}

func (r *Router) saleReceipt(w http.ResponseWriter, req *http.Request) {
	sale, err := r.ownedSale(req, mux.Vars(req)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	doc := receipt.Receipt{
		SaleID:    sale.Sale.ID,
		CreatedAt: sale.Sale.CreatedAt,
		Total:     sale.Sale.TotalAmount,
	}
	for _, item := range sale.Items {
		name := item.ProductID
		if p, err := r.store.GetProduct(req.Context(), item.ProductID); err == nil {
			name = p.Name
		}
		doc.Lines = append(doc.Lines, receipt.Line{
			Name:      name,
			Quantity:  item.Quantity,
			UnitPrice: item.PriceAtSale,
		})
	}

	pdf, err := receipt.Render(doc)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+sale.Sale.ID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
