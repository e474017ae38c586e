// Package postgres implements the Store contract over GORM. It is used
// both as the device-local store (embedded PostgreSQL) and as the
// central server's authoritative store (external PostgreSQL); the
// schema is identical on both sides.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/apperr"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/database"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/models"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store"
)

type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)

// Migrate creates or updates the five domain tables plus sync logs.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Inventory{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Setting{},
		&models.SyncLog{},
	)
}

func translate(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.New(apperr.KindNotFound, notFoundMsg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.New(apperr.KindConflict, "duplicate key")
	default:
		return err
	}
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product, initialQty int) error {
	if p.SyncStatus == "" {
		p.SyncStatus = models.SyncPending
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored := *p
		stored.Inventory = nil
		if err := tx.Create(&stored).Error; err != nil {
			return err
		}
		inv := models.Inventory{
			ID:         "inv_" + p.ID,
			ProductID:  p.ID,
			Quantity:   initialQty,
			SyncStatus: p.SyncStatus,
		}
		return tx.Create(&inv).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindConflict, "Product with this barcode already exists")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindTransaction, "create product", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Inventory").First(&p, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "Product not found")
	}
	return &p, nil
}

func (s *Store) GetProductByBarcode(ctx context.Context, ownerID, barcode string) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).Preload("Inventory").
		Where("user_id = ? AND barcode = ? AND deleted = false", ownerID, barcode).
		First(&p).Error
	if err != nil {
		return nil, translate(err, "Product not found")
	}
	return &p, nil
}

func (s *Store) productQuery(ctx context.Context, f store.ProductFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.OwnerID != "" {
		q = q.Where("user_id = ?", f.OwnerID)
	}
	if !f.IncludeDeleted {
		q = q.Where("deleted = false")
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR barcode LIKE ? OR category ILIKE ?", pattern, pattern, pattern)
	}
	return q
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter, page store.Page) ([]models.Product, int64, error) {
	page = page.Normalize()

	var total int64
	if err := s.productQuery(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := s.productQuery(ctx, f).
		Preload("Inventory").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *Store) ProductsByIDs(ctx context.Context, ownerID string, ids []string) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Preload("Inventory").Where("id IN ? AND deleted = false", ids)
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, upd store.ProductUpdate) (*models.Product, error) {
	changes := map[string]interface{}{
		"sync_status": models.SyncPending,
		"updated_at":  time.Now().UTC(),
	}
	if upd.Name != nil {
		changes["name"] = *upd.Name
	}
	if upd.Barcode != nil {
		changes["barcode"] = *upd.Barcode
	}
	if upd.Category != nil {
		changes["category"] = *upd.Category
	}
	if upd.SellingPrice != nil {
		changes["selling_price"] = *upd.SellingPrice
	}
	if upd.PurchasePrice != nil {
		changes["purchase_price"] = *upd.PurchasePrice
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(changes)
	if res.Error != nil {
		return nil, translate(res.Error, "Product not found")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.KindNotFound, "Product not found")
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) SoftDeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted":     true,
		"sync_status": models.SyncPending,
		"updated_at":  time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "Product not found")
	}
	return nil
}

// DeleteProduct removes a product and its inventory row for good. The
// inventory row goes first inside one transaction; the product owns it
// exclusively, so no cascade inference is relied upon.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Inventory{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindNotFound, "Product not found")
		}
		return nil
	})
	if apperr.IsKind(err, apperr.KindNotFound) {
		return err
	}
	if err != nil {
		return apperr.Wrap(apperr.KindTransaction, "delete product", err)
	}
	return nil
}

func (s *Store) AdjustQuantity(ctx context.Context, productID string, delta int, status models.SyncStatus) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("product_id = ?", productID).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.First(&models.Product{}, "id = ?", productID).Error; err != nil {
				return translate(err, "Product not found")
			}
			inv = models.Inventory{ID: "inv_" + productID, ProductID: productID}
			inv.Quantity = delta
			inv.SyncStatus = status
			return tx.Create(&inv).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&inv).Updates(map[string]interface{}{
			"quantity":    gorm.Expr("quantity + ?", delta),
			"sync_status": status,
			"updated_at":  time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.inventoryByProduct(ctx, productID)
}

func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int, status models.SyncStatus) (*models.Inventory, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Inventory
		err := tx.Where("product_id = ?", productID).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.First(&models.Product{}, "id = ?", productID).Error; err != nil {
				return translate(err, "Product not found")
			}
			inv = models.Inventory{
				ID:         "inv_" + productID,
				ProductID:  productID,
				Quantity:   quantity,
				SyncStatus: status,
			}
			return tx.Create(&inv).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&inv).Updates(map[string]interface{}{
			"quantity":    quantity,
			"sync_status": status,
			"updated_at":  time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.inventoryByProduct(ctx, productID)
}

func (s *Store) inventoryByProduct(ctx context.Context, productID string) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).First(&inv).Error
	if err != nil {
		return nil, translate(err, "Inventory record not found")
	}
	return &inv, nil
}

func (s *Store) ListInventory(ctx context.Context, f store.ProductFilter, page store.Page) ([]store.InventoryWithProduct, int64, error) {
	page = page.Normalize()

	base := s.db.WithContext(ctx).Model(&models.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id")
	if f.OwnerID != "" {
		base = base.Where("products.user_id = ?", f.OwnerID)
	}
	if !f.IncludeDeleted {
		base = base.Where("products.deleted = false")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invs []models.Inventory
	err := base.Order("inventory.updated_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&invs).Error
	if err != nil {
		return nil, 0, err
	}
	return s.joinProducts(ctx, invs, total)
}

func (s *Store) LowStock(ctx context.Context, ownerID string, threshold int) ([]store.InventoryWithProduct, error) {
	q := s.db.WithContext(ctx).Model(&models.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id").
		Where("products.deleted = false").
		Where("inventory.quantity <= ?", threshold)
	if ownerID != "" {
		q = q.Where("products.user_id = ?", ownerID)
	}

	var invs []models.Inventory
	if err := q.Order("inventory.quantity ASC").Find(&invs).Error; err != nil {
		return nil, err
	}
	out, _, err := s.joinProducts(ctx, invs, 0)
	return out, err
}

func (s *Store) joinProducts(ctx context.Context, invs []models.Inventory, total int64) ([]store.InventoryWithProduct, int64, error) {
	if len(invs) == 0 {
		return []store.InventoryWithProduct{}, total, nil
	}
	ids := make([]string, 0, len(invs))
	for _, inv := range invs {
		ids = append(ids, inv.ProductID)
	}
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]store.InventoryWithProduct, 0, len(invs))
	for _, inv := range invs {
		out = append(out, store.InventoryWithProduct{Inventory: inv, Product: byID[inv.ProductID]})
	}
	return out, total, nil
}

func (s *Store) RecordSale(ctx context.Context, sale *models.Sale, items []models.SaleItem, decrements map[string]int, invStatus models.SyncStatus) error {
	if sale.SyncStatus == "" {
		sale.SyncStatus = models.SyncPending
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := *sale
		header.Items = nil
		if err := tx.Create(&header).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		for productID, qty := range decrements {
			err := tx.Model(&models.Inventory{}).
				Where("product_id = ?", productID).
				Updates(map[string]interface{}{
					"quantity":    gorm.Expr("quantity - ?", qty),
					"sync_status": invStatus,
					"updated_at":  time.Now().UTC(),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.New(apperr.KindConflict, "Sale with this id already exists")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindTransaction, "record sale", err)
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*store.SaleWithItems, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "Sale not found")
	}
	var items []models.SaleItem
	if err := s.db.WithContext(ctx).Where("sale_id = ?", id).Find(&items).Error; err != nil {
		return nil, err
	}
	return &store.SaleWithItems{Sale: sale, Items: items}, nil
}

func (s *Store) SaleExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Sale{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) ListSales(ctx context.Context, f store.SaleFilter, page store.Page) ([]store.SaleWithItems, int64, error) {
	page = page.Normalize()

	q := s.db.WithContext(ctx).Model(&models.Sale{})
	if f.OwnerID != "" {
		q = q.Where("user_id = ?", f.OwnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.Sale
	err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	out, err := s.attachItems(ctx, sales)
	return out, total, err
}

func (s *Store) attachItems(ctx context.Context, sales []models.Sale) ([]store.SaleWithItems, error) {
	if len(sales) == 0 {
		return []store.SaleWithItems{}, nil
	}
	ids := make([]string, 0, len(sales))
	for _, sale := range sales {
		ids = append(ids, sale.ID)
	}
	var items []models.SaleItem
	if err := s.db.WithContext(ctx).Where("sale_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	bySale := make(map[string][]models.SaleItem)
	for _, item := range items {
		bySale[item.SaleID] = append(bySale[item.SaleID], item)
	}
	out := make([]store.SaleWithItems, 0, len(sales))
	for _, sale := range sales {
		out = append(out, store.SaleWithItems{Sale: sale, Items: bySale[sale.ID]})
	}
	return out, nil
}

// ReplaceSale overwrites a sale header and fully re-inserts its items.
// Used by sync pull where the remote composition is taken wholesale
// rather than merged field by field.
func (s *Store) ReplaceSale(ctx context.Context, sale *models.Sale, items []models.SaleItem) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := *sale
		header.Items = nil
		if err := tx.Save(&header).Error; err != nil {
			return err
		}
		if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			return tx.Create(&items).Error
		}
		return nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindTransaction, "replace sale", err)
	}
	return nil
}

func (s *Store) RecentSales(ctx context.Context, limit int) ([]store.SaleWithItems, error) {
	sales, _, err := s.ListSales(ctx, store.SaleFilter{}, store.Page{Page: 1, Limit: limit})
	return sales, err
}

func (s *Store) Stats(ctx context.Context, ownerID string, lowStockThreshold int) (*store.DashboardStats, error) {
	stats := &store.DashboardStats{}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	salesQ := s.db.WithContext(ctx).Model(&models.Sale{}).Where("created_at >= ?", dayStart)
	if ownerID != "" {
		salesQ = salesQ.Where("user_id = ?", ownerID)
	}
	row := salesQ.Select("COALESCE(SUM(total_amount), 0)").Row()
	if err := row.Scan(&stats.TodaySales); err != nil {
		return nil, err
	}

	lowQ := s.db.WithContext(ctx).Model(&models.Inventory{}).
		Joins("JOIN products ON products.id = inventory.product_id").
		Where("products.deleted = false AND inventory.quantity <= ?", lowStockThreshold)
	if ownerID != "" {
		lowQ = lowQ.Where("products.user_id = ?", ownerID)
	}
	if err := lowQ.Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	productQ := s.db.WithContext(ctx).Model(&models.Product{}).Where("deleted = false")
	if ownerID != "" {
		productQ = productQ.Where("user_id = ?", ownerID)
	}
	if err := productQ.Count(&stats.ProductCount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) PendingProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("sync_status = ?", models.SyncPending).
		Order("created_at ASC").
		Find(&products).Error
	return products, err
}

func (s *Store) PendingInventory(ctx context.Context) ([]models.Inventory, error) {
	var invs []models.Inventory
	err := s.db.WithContext(ctx).
		Where("sync_status = ?", models.SyncPending).
		Order("product_id ASC").
		Find(&invs).Error
	return invs, err
}

func (s *Store) PendingSales(ctx context.Context) ([]store.SaleWithItems, error) {
	var sales []models.Sale
	err := s.db.WithContext(ctx).
		Where("sync_status = ?", models.SyncPending).
		Order("created_at ASC").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return s.attachItems(ctx, sales)
}

func (s *Store) MarkProductSynced(ctx context.Context, id string) error {
	return s.markSynced(ctx, &models.Product{}, "id", id)
}

func (s *Store) MarkInventorySynced(ctx context.Context, productID string) error {
	return s.markSynced(ctx, &models.Inventory{}, "product_id", productID)
}

func (s *Store) MarkSaleSynced(ctx context.Context, id string) error {
	return s.markSynced(ctx, &models.Sale{}, "id", id)
}

func (s *Store) markSynced(ctx context.Context, model interface{}, column, value string) error {
	res := s.db.WithContext(ctx).Model(model).
		Where(fmt.Sprintf("%s = ?", column), value).
		Update("sync_status", models.SyncSynced)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.KindNotFound, "row not found")
	}
	return nil
}

// UpsertRemoteProduct writes the remote version of a product over the
// local copy, marking it synced. The caller is responsible for the
// pending-skip rule; by the time this runs, remote wins.
func (s *Store) UpsertRemoteProduct(ctx context.Context, p models.Product, quantity *int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p.SyncStatus = models.SyncSynced
		p.UserID = ""
		p.Inventory = nil
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now().UTC()
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		if quantity == nil {
			return nil
		}

		var inv models.Inventory
		err := tx.Where("product_id = ?", p.ID).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			inv = models.Inventory{
				ID:         "inv_" + p.ID,
				ProductID:  p.ID,
				Quantity:   *quantity,
				SyncStatus: models.SyncSynced,
			}
			return tx.Create(&inv).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&inv).Updates(map[string]interface{}{
			"quantity":    *quantity,
			"sync_status": models.SyncSynced,
			"updated_at":  time.Now().UTC(),
		}).Error
	})
}

func (s *Store) SaveSyncLog(ctx context.Context, entry *models.SyncLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error
	if err != nil {
		return "", translate(err, "Setting not found")
	}
	return setting.Value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Save(&models.Setting{Key: key, Value: value}).Error
}
