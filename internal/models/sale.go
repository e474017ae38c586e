package models

import "time"

// Sale is a completed checkout. TotalAmount always equals the sum of
// quantity * priceAtSale over its items. Sales are immutable once
// created; identifiers are assigned by whichever side created the row
// so that re-submission during sync is idempotent.
type Sale struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	UserID      string     `gorm:"index" json:"userId,omitempty"`
	TotalAmount float64    `gorm:"not null" json:"totalAmount"`
	CreatedAt   time.Time  `json:"createdAt"`
	SyncStatus  SyncStatus `gorm:"type:varchar(10);default:'pending';index" json:"syncStatus"`

	Items []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem is one line of a sale. PriceAtSale captures the catalog
// price at transaction time; later price changes never touch it.
type SaleItem struct {
	ID          string  `gorm:"primaryKey" json:"id"`
	SaleID      string  `gorm:"index;not null" json:"saleId"`
	ProductID   string  `gorm:"index;not null" json:"productId"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	PriceAtSale float64 `gorm:"not null" json:"priceAtSale"`
}

func (SaleItem) TableName() string { return "sale_items" }
