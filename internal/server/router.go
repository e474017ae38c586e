// Package server is the central HTTP API. Every route under /api/v1
// requires a Bearer token and scopes data to the authenticated shop.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/cache"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/checkout"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

// Router wraps the mux router with its dependencies
type Router struct {
	*mux.Router
	store     store.Store
	cache     cache.Cache
	checkout  *checkout.Transactor
	jwtSecret string
}

// NewRouter creates the HTTP router with all routes
func NewRouter(st store.Store, c cache.Cache, jwtSecret string) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		store:     st,
		cache:     c,
		checkout:  checkout.NewTransactor(st),
		jwtSecret: jwtSecret,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(r.authMiddleware)

	v1.HandleFunc("/products", r.createProduct).Methods("POST")
	v1.HandleFunc("/products", r.listProducts).Methods("GET")
	v1.HandleFunc("/products/barcode/{code}", r.getProductByBarcode).Methods("GET")
	v1.HandleFunc("/products/{id}", r.getProduct).Methods("GET")
	v1.HandleFunc("/products/{id}", r.updateProduct).Methods("PATCH")
	v1.HandleFunc("/products/{id}", r.deleteProduct).Methods("DELETE")

	v1.HandleFunc("/sales/checkout", r.checkoutSale).Methods("POST")
	v1.HandleFunc("/sales/sync", r.syncSales).Methods("POST")
	v1.HandleFunc("/sales/recent", r.recentSales).Methods("GET")
	v1.HandleFunc("/sales", r.listSales).Methods("GET")
	v1.HandleFunc("/sales/{id}", r.getSale).Methods("GET")
	v1.HandleFunc("/sales/{id}/receipt", r.saleReceipt).Methods("GET")

	v1.HandleFunc("/inventory", r.listInventory).Methods("GET")
	v1.HandleFunc("/inventory", r.setInventory).Methods("PUT")
	v1.HandleFunc("/inventory/restock", r.restock).Methods("POST")
	v1.HandleFunc("/inventory/low-stock", r.lowStock).Methods("GET")

	v1.HandleFunc("/dashboard/stats", r.dashboardStats).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, api.Envelope{Success: true, Message: "ok"})
}
