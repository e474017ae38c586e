// Package memory provides an in-memory Store implementation used by
// unit tests and by the demo mode of the server binary. Semantics
// mirror the postgres implementation, including atomicity: every
// multi-row mutation happens under one lock acquisition, so a failed
// validation never leaves partial state behind.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	products  map[string]models.Product
	inventory map[string]models.Inventory // keyed by productID
	sales     map[string]models.Sale
	saleItems map[string][]models.SaleItem // keyed by saleID
	settings  map[string]string
	syncLogs  []models.SyncLog
	now       func() time.Time
}

func New() *Store {
	return &Store{
		products:  make(map[string]models.Product),
		inventory: make(map[string]models.Inventory),
		sales:     make(map[string]models.Sale),
		saleItems: make(map[string][]models.SaleItem),
		settings:  make(map[string]string),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetNow overrides the clock; tests use it to pin "today".
func (s *Store) SetNow(now func() time.Time) { s.now = now }

var _ store.Store = (*Store)(nil)

func (s *Store) CreateProduct(_ context.Context, p *models.Product, initialQty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; ok {
		return apperr.New(apperr.KindConflict, "Product with this id already exists")
	}
	for _, existing := range s.products {
		if existing.UserID == p.UserID && existing.Barcode == p.Barcode {
			return apperr.New(apperr.KindConflict, "Product with this barcode already exists")
		}
	}

	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.SyncStatus == "" {
		p.SyncStatus = models.SyncPending
	}

	stored := *p
	stored.Inventory = nil
	s.products[p.ID] = stored
	s.inventory[p.ID] = models.Inventory{
		ID:         "inv_" + p.ID,
		ProductID:  p.ID,
		Quantity:   initialQty,
		UpdatedAt:  now,
		SyncStatus: p.SyncStatus,
	}
	return nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getProductLocked(id)
}

func (s *Store) getProductLocked(id string) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Product not found")
	}
	out := p
	if inv, ok := s.inventory[id]; ok {
		invCopy := inv
		out.Inventory = &invCopy
	}
	return &out, nil
}

func (s *Store) GetProductByBarcode(_ context.Context, ownerID, barcode string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, p := range s.products {
		if p.UserID == ownerID && p.Barcode == barcode && !p.Deleted {
			return s.getProductLocked(id)
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Product not found")
}

func (s *Store) ListProducts(_ context.Context, f store.ProductFilter, page store.Page) ([]models.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page = page.Normalize()
	matched := make([]models.Product, 0, len(s.products))
	for id, p := range s.products {
		if !s.matchesFilter(p, f) {
			continue
		}
		withInv, _ := s.getProductLocked(id)
		matched = append(matched, *withInv)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) matchesFilter(p models.Product, f store.ProductFilter) bool {
	if f.OwnerID != "" && p.UserID != f.OwnerID {
		return false
	}
	if p.Deleted && !f.IncludeDeleted {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(p.Barcode, f.Search) &&
			!strings.Contains(strings.ToLower(p.Category), q) {
			return false
		}
	}
	return true
}

func (s *Store) ProductsByIDs(_ context.Context, ownerID string, ids []string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok || p.Deleted {
			continue
		}
		if ownerID != "" && p.UserID != ownerID {
			continue
		}
		withInv, _ := s.getProductLocked(id)
		out = append(out, *withInv)
	}
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id string, upd store.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Product not found")
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Barcode != nil {
		p.Barcode = *upd.Barcode
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.SellingPrice != nil {
		p.SellingPrice = *upd.SellingPrice
	}
	if upd.PurchasePrice != nil {
		p.PurchasePrice = *upd.PurchasePrice
	}
	p.UpdatedAt = s.now()
	p.SyncStatus = models.SyncPending
	s.products[id] = p

	return s.getProductLocked(id)
}

func (s *Store) SoftDeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	p.Deleted = true
	p.UpdatedAt = s.now()
	p.SyncStatus = models.SyncPending
	s.products[id] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	// Inventory first, then the product; one lock acquisition keeps the
	// pair atomic.
	delete(s.inventory, id)
	delete(s.products, id)
	return nil
}

func (s *Store) AdjustQuantity(_ context.Context, productID string, delta int, status models.SyncStatus) (*models.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return nil, apperr.New(apperr.KindNotFound, "Product not found")
	}

	inv, ok := s.inventory[productID]
	if !ok {
		inv = models.Inventory{ID: "inv_" + productID, ProductID: productID}
	}
	inv.Quantity += delta
	inv.UpdatedAt = s.now()
	inv.SyncStatus = status
	s.inventory[productID] = inv

	out := inv
	return &out, nil
}

func (s *Store) SetQuantity(_ context.Context, productID string, quantity int, status models.SyncStatus) (*models.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setQuantityLocked(productID, quantity, status)
}

func (s *Store) setQuantityLocked(productID string, quantity int, status models.SyncStatus) (*models.Inventory, error) {
	if _, ok := s.products[productID]; !ok {
		return nil, apperr.New(apperr.KindNotFound, "Product not found")
	}

	inv, ok := s.inventory[productID]
	if !ok {
		inv = models.Inventory{ID: "inv_" + productID, ProductID: productID}
	}
	inv.Quantity = quantity
	inv.UpdatedAt = s.now()
	inv.SyncStatus = status
	s.inventory[productID] = inv

	out := inv
	return &out, nil
}

func (s *Store) ListInventory(_ context.Context, f store.ProductFilter, page store.Page) ([]store.InventoryWithProduct, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page = page.Normalize()
	matched := make([]store.InventoryWithProduct, 0, len(s.inventory))
	for productID, inv := range s.inventory {
		p, ok := s.products[productID]
		if !ok || !s.matchesFilter(p, f) {
			continue
		}
		matched = append(matched, store.InventoryWithProduct{Inventory: inv, Product: p})
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Inventory.UpdatedAt.After(matched[j].Inventory.UpdatedAt)
	})

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) LowStock(_ context.Context, ownerID string, threshold int) ([]store.InventoryWithProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.InventoryWithProduct, 0)
	for productID, inv := range s.inventory {
		p, ok := s.products[productID]
		if !ok || p.Deleted {
			continue
		}
		if ownerID != "" && p.UserID != ownerID {
			continue
		}
		if inv.Quantity <= threshold {
			out = append(out, store.InventoryWithProduct{Inventory: inv, Product: p})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Inventory.Quantity < out[j].Inventory.Quantity
	})
	return out, nil
}

func (s *Store) RecordSale(_ context.Context, sale *models.Sale, items []models.SaleItem, decrements map[string]int, invStatus models.SyncStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sales[sale.ID]; ok {
		return apperr.New(apperr.KindConflict, "Sale with this id already exists")
	}

	now := s.now()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	if sale.SyncStatus == "" {
		sale.SyncStatus = models.SyncPending
	}

	stored := *sale
	stored.Items = nil
	s.sales[sale.ID] = stored
	s.saleItems[sale.ID] = append([]models.SaleItem(nil), items...)

	for productID, qty := range decrements {
		inv, ok := s.inventory[productID]
		if !ok {
			inv = models.Inventory{ID: "inv_" + productID, ProductID: productID}
		}
		inv.Quantity -= qty
		inv.UpdatedAt = now
		inv.SyncStatus = invStatus
		s.inventory[productID] = inv
	}
	return nil
}

func (s *Store) GetSale(_ context.Context, id string) (*store.SaleWithItems, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "Sale not found")
	}
	return &store.SaleWithItems{
		Sale:  sale,
		Items: append([]models.SaleItem(nil), s.saleItems[id]...),
	}, nil
}

func (s *Store) SaleExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sales[id]
	return ok, nil
}

func (s *Store) ListSales(_ context.Context, f store.SaleFilter, page store.Page) ([]store.SaleWithItems, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page = page.Normalize()
	matched := make([]store.SaleWithItems, 0, len(s.sales))
	for id, sale := range s.sales {
		if f.OwnerID != "" && sale.UserID != f.OwnerID {
			continue
		}
		matched = append(matched, store.SaleWithItems{
			Sale:  sale,
			Items: append([]models.SaleItem(nil), s.saleItems[id]...),
		})
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Sale.CreatedAt.After(matched[j].Sale.CreatedAt)
	})

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) ReplaceSale(_ context.Context, sale *models.Sale, items []models.SaleItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sale
	stored.Items = nil
	s.sales[sale.ID] = stored
	s.saleItems[sale.ID] = append([]models.SaleItem(nil), items...)
	return nil
}

func (s *Store) RecentSales(ctx context.Context, limit int) ([]store.SaleWithItems, error) {
	sales, _, err := s.ListSales(ctx, store.SaleFilter{}, store.Page{Page: 1, Limit: limit})
	return sales, err
}

func (s *Store) Stats(_ context.Context, ownerID string, lowStockThreshold int) (*store.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &store.DashboardStats{}
	today := s.now().Format("2006-01-02")
	for _, sale := range s.sales {
		if ownerID != "" && sale.UserID != ownerID {
			continue
		}
		if sale.CreatedAt.UTC().Format("2006-01-02") == today {
			stats.TodaySales += sale.TotalAmount
		}
	}
	for productID, inv := range s.inventory {
		p, ok := s.products[productID]
		if !ok || p.Deleted {
			continue
		}
		if ownerID != "" && p.UserID != ownerID {
			continue
		}
		if inv.Quantity <= lowStockThreshold {
			stats.LowStockCount++
		}
	}
	for _, p := range s.products {
		if ownerID != "" && p.UserID != ownerID {
			continue
		}
		if !p.Deleted {
			stats.ProductCount++
		}
	}
	return stats, nil
}

func (s *Store) PendingProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0)
	for _, p := range s.products {
		if p.SyncStatus == models.SyncPending {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PendingInventory(_ context.Context) ([]models.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Inventory, 0)
	for _, inv := range s.inventory {
		if inv.SyncStatus == models.SyncPending {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *Store) PendingSales(_ context.Context) ([]store.SaleWithItems, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.SaleWithItems, 0)
	for id, sale := range s.sales {
		if sale.SyncStatus == models.SyncPending {
			out = append(out, store.SaleWithItems{
				Sale:  sale,
				Items: append([]models.SaleItem(nil), s.saleItems[id]...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sale.CreatedAt.Before(out[j].Sale.CreatedAt) })
	return out, nil
}

func (s *Store) MarkProductSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	p.SyncStatus = models.SyncSynced
	s.products[id] = p
	return nil
}

func (s *Store) MarkInventorySynced(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.inventory[productID]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Inventory record not found")
	}
	inv.SyncStatus = models.SyncSynced
	s.inventory[productID] = inv
	return nil
}

func (s *Store) MarkSaleSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "Sale not found")
	}
	sale.SyncStatus = models.SyncSynced
	s.sales[id] = sale
	return nil
}

func (s *Store) UpsertRemoteProduct(_ context.Context, p models.Product, quantity *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.SyncStatus = models.SyncSynced
	p.UserID = "" // local rows are unscoped
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}
	stored := p
	stored.Inventory = nil
	s.products[p.ID] = stored

	if quantity != nil {
		if _, err := s.setQuantityLocked(p.ID, *quantity, models.SyncSynced); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SaveSyncLog(_ context.Context, entry *models.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = uint(len(s.syncLogs) + 1)
	s.syncLogs = append(s.syncLogs, *entry)
	return nil
}

// SyncLogs returns recorded cycles, oldest first. Test helper.
func (s *Store) SyncLogs() []models.SyncLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SyncLog(nil), s.syncLogs...)
}

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	if !ok {
		return "", apperr.New(apperr.KindNotFound, "Setting not found")
	}
	return value, nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

// DeleteSetting removes a setting, for tests exercising unpaired
// devices.
func (s *Store) DeleteSetting(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
}

// ForceProductStatus rewrites a product's sync status without touching
// anything else, for tests.
func (s *Store) ForceProductStatus(id string, status models.SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.SyncStatus = status
		s.products[id] = p
	}
}

// ForceSaleStatus rewrites a sale's sync status, for tests.
func (s *Store) ForceSaleStatus(id string, status models.SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sale, ok := s.sales[id]; ok {
		sale.SyncStatus = status
		s.sales[id] = sale
	}
}
