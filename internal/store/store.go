package store

import (
	"context"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
)

// Page is a 1-based pagination request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Normalize clamps a page request to sane values.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	return p
}

// ProductFilter narrows product queries. OwnerID is empty on the
// device, where the whole store belongs to one shop.
type ProductFilter struct {
	OwnerID        string
	Search         string
	IncludeDeleted bool
}

// SaleFilter narrows sale queries.
type SaleFilter struct {
	OwnerID string
}

// ProductUpdate is a partial product mutation; nil fields are left
// untouched. Applying one resets the row to pending.
type ProductUpdate struct {
	Name          *string
	Barcode       *string
	Category      *string
	SellingPrice  *float64
	PurchasePrice *float64
}

// SaleWithItems bundles a sale header with its lines.
type SaleWithItems struct {
	Sale  models.Sale
	Items []models.SaleItem
}

// InventoryWithProduct joins an inventory row to its product.
type InventoryWithProduct struct {
	Inventory models.Inventory `json:"inventory"`
	Product   models.Product   `json:"product"`
}

// DashboardStats backs the device home screen.
type DashboardStats struct {
	TodaySales    float64 `json:"todaySales"`
	LowStockCount int64   `json:"lowStockCount"`
	ProductCount  int64   `json:"productCount"`
}

// Store is the persistence contract shared by the device-local store
// and the central server. Implementations guarantee that every
// multi-row mutation is atomic: either all rows land or none do.
type Store interface {
	// Products
	CreateProduct(ctx context.Context, p *models.Product, initialQty int) error
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProductByBarcode(ctx context.Context, ownerID, barcode string) (*models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter, page Page) ([]models.Product, int64, error)
	ProductsByIDs(ctx context.Context, ownerID string, ids []string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id string, upd ProductUpdate) (*models.Product, error)
	SoftDeleteProduct(ctx context.Context, id string) error
	DeleteProduct(ctx context.Context, id string) error

	// Inventory
	AdjustQuantity(ctx context.Context, productID string, delta int, status models.SyncStatus) (*models.Inventory, error)
	SetQuantity(ctx context.Context, productID string, quantity int, status models.SyncStatus) (*models.Inventory, error)
	ListInventory(ctx context.Context, f ProductFilter, page Page) ([]InventoryWithProduct, int64, error)
	LowStock(ctx context.Context, ownerID string, threshold int) ([]InventoryWithProduct, error)

	// Sales
	RecordSale(ctx context.Context, sale *models.Sale, items []models.SaleItem, decrements map[string]int, invStatus models.SyncStatus) error
	GetSale(ctx context.Context, id string) (*SaleWithItems, error)
	SaleExists(ctx context.Context, id string) (bool, error)
	ListSales(ctx context.Context, f SaleFilter, page Page) ([]SaleWithItems, int64, error)
	ReplaceSale(ctx context.Context, sale *models.Sale, items []models.SaleItem) error
	RecentSales(ctx context.Context, limit int) ([]SaleWithItems, error)
	Stats(ctx context.Context, ownerID string, lowStockThreshold int) (*DashboardStats, error)

	// Sync bookkeeping
	PendingProducts(ctx context.Context) ([]models.Product, error)
	PendingInventory(ctx context.Context) ([]models.Inventory, error)
	PendingSales(ctx context.Context) ([]SaleWithItems, error)
	MarkProductSynced(ctx context.Context, id string) error
	MarkInventorySynced(ctx context.Context, productID string) error
	MarkSaleSynced(ctx context.Context, id string) error
	UpsertRemoteProduct(ctx context.Context, p models.Product, quantity *int) error
	SaveSyncLog(ctx context.Context, entry *models.SyncLog) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
