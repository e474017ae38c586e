package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/api"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/checkout"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/config"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/database"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store/postgres"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/sync"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/utils"
)

// The device binary runs the shop's local store on the embedded
// database and keeps it reconciled with the central server in the
// background. A loopback API exposes the day-to-day retail operations
// and sync controls to the POS shell.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("🚀 Synchronizing database schema...")
	st := postgres.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("✅ Schema synchronized successfully")

	client := api.NewClient(cfg.Remote.BaseURL, sync.TokenFromStore(st))
	engine := sync.NewEngine(st, client, time.Duration(cfg.Sync.Interval)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.Sync.Enabled {
		engine.Start(ctx)
	} else {
		log.Println("⚠️ Background sync disabled by configuration")
	}

	httpServer := &http.Server{
		Addr:    "127.0.0.1:" + cfg.Port,
		Handler: newLocalRouter(st, checkout.NewTransactor(st), engine),
	}

	go func() {
		log.Printf("🚀 Local POS service listening on %s\n", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start local service: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("\n⚠️  Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if cfg.Sync.Enabled {
		engine.Stop()
		// One last push so a clean shutdown leaves nothing queued.
		if _, err := engine.SyncNow(shutdownCtx); err != nil {
			log.Printf("⚠️ Final sync skipped: %v", err)
		}
	}

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}
	log.Println("✅ Shutdown complete")
}

// newLocalRouter builds the loopback API for the POS shell. Everything
// here works against the local store; new rows queue as pending and the
// sync engine carries them to the server.
func newLocalRouter(st store.Store, tr *checkout.Transactor, engine *sync.Engine) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "server": "local"})
	}).Methods("GET")

	router.HandleFunc("/sync/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, engine.Status())
	}).Methods("GET")
	router.HandleFunc("/sync/now", func(w http.ResponseWriter, r *http.Request) {
		result, err := engine.SyncNow(r.Context())
		if errors.Is(err, sync.ErrSyncInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}).Methods("POST")

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		products, total, err := st.ListProducts(r.Context(),
			store.ProductFilter{Search: q.Get("search")},
			store.Page{Page: page, Limit: limit}.Normalize())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"products": products, "total": total})
	}).Methods("GET")

	router.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name          string  `json:"name"`
			Barcode       string  `json:"barcode"`
			Category      string  `json:"category"`
			SellingPrice  float64 `json:"sellingPrice"`
			PurchasePrice float64 `json:"purchasePrice"`
			Quantity      int     `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
			return
		}
		if body.Name == "" || body.Barcode == "" {
			writeError(w, apperr.New(apperr.KindValidation, "Name and barcode are required"))
			return
		}
		if body.SellingPrice < 0 || body.PurchasePrice < 0 || body.Quantity < 0 {
			writeError(w, apperr.New(apperr.KindValidation, "Prices and quantity must not be negative"))
			return
		}

		now := time.Now().UTC()
		p := &models.Product{
			ID:            utils.NewID(),
			Name:          body.Name,
			Barcode:       body.Barcode,
			Category:      body.Category,
			SellingPrice:  body.SellingPrice,
			PurchasePrice: body.PurchasePrice,
			CreatedAt:     now,
			UpdatedAt:     now,
			SyncStatus:    models.SyncPending,
		}
		if err := st.CreateProduct(r.Context(), p, body.Quantity); err != nil {
			writeError(w, err)
			return
		}
		created, err := st.GetProduct(r.Context(), p.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}).Methods("POST")

	router.HandleFunc("/products/barcode/{code}", func(w http.ResponseWriter, r *http.Request) {
		p, err := st.GetProductByBarcode(r.Context(), "", mux.Vars(r)["code"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}).Methods("GET")

	router.HandleFunc("/sales/checkout", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Items []checkout.Item `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
			return
		}
		sale, err := tr.Checkout(r.Context(), "", body.Items, models.SyncPending)
		if err != nil {
			writeError(w, err)
			return
		}
		flat := sale.Sale
		flat.Items = sale.Items
		writeJSON(w, http.StatusCreated, flat)
	}).Methods("POST")

	router.HandleFunc("/sales/recent", func(w http.ResponseWriter, r *http.Request) {
		sales, err := st.RecentSales(r.Context(), 5)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sales)
	}).Methods("GET")

	router.HandleFunc("/inventory/restock", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperr.New(apperr.KindValidation, "Invalid request body"))
			return
		}
		if body.Quantity <= 0 {
			writeError(w, apperr.New(apperr.KindValidation, "Quantity must be positive"))
			return
		}
		inv, err := st.AdjustQuantity(r.Context(), body.ProductID, body.Quantity, models.SyncPending)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}).Methods("POST")

	router.HandleFunc("/dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := st.Stats(r.Context(), "", 5)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}).Methods("GET")

	return router
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
