package models

import "time"

// User is a shop owner on the central server. Account provisioning
// happens outside this service; rows here only anchor ownership of
// products and sales.
type User struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"uniqueIndex" json:"phoneNumber"`
	ShopName    string    `json:"shopName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (User) TableName() string { return "users" }

// Setting is a key/value pair in the device-local settings table. Holds
// the auth token and the language preference; never part of sync.
type Setting struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `gorm:"not null" json:"value"`
}

func (Setting) TableName() string { return "settings" }

// Well-known settings keys.
const (
	SettingToken    = "token"
	SettingLanguage = "language"
)
