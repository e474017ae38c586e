package models

import "time"

// SyncStatus marks whether a local row has been confirmed against the
// central store. Rows only move pending -> synced; a later local
// mutation resets them to pending.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Product is a catalog entry owned by a shop. On the device UserID is
// empty, which makes the composite index behave as a plain unique
// barcode constraint; on the server it scopes barcode uniqueness per
// owner.
type Product struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	UserID        string     `gorm:"uniqueIndex:idx_owner_barcode" json:"userId,omitempty"`
	Name          string     `gorm:"not null" json:"name"`
	Barcode       string     `gorm:"uniqueIndex:idx_owner_barcode;not null" json:"barcode"`
	Category      string     `json:"category"`
	SellingPrice  float64    `json:"sellingPrice"`
	PurchasePrice float64    `json:"purchasePrice"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Deleted       bool       `gorm:"default:false" json:"deleted"`
	SyncStatus    SyncStatus `gorm:"type:varchar(10);default:'pending';index" json:"syncStatus"`

	Inventory *Inventory `gorm:"foreignKey:ProductID" json:"inventory,omitempty"`
}

func (Product) TableName() string { return "products" }

// Inventory is the single quantity counter for a product. One row per
// product; quantity may go negative under concurrent offline edits.
type Inventory struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	ProductID  string     `gorm:"uniqueIndex;not null" json:"productId"`
	Quantity   int        `gorm:"not null" json:"quantity"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	SyncStatus SyncStatus `gorm:"type:varchar(10);default:'pending';index" json:"syncStatus"`
}

func (Inventory) TableName() string { return "inventory" }
