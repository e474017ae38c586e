package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncLog records the outcome of one full sync cycle. The engine keeps
// the latest result in memory for status queries and persists every
// cycle here so the history survives restarts.
type SyncLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	StartedAt  time.Time      `gorm:"not null" json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Pushed     int            `gorm:"default:0" json:"pushed"`
	Pulled     int            `gorm:"default:0" json:"pulled"`
	Skipped    int            `gorm:"default:0" json:"skipped"`
	Success    bool           `json:"success"`
	Detail     datatypes.JSON `gorm:"type:jsonb" json:"detail,omitempty"`
}

func (SyncLog) TableName() string { return "sync_logs" }
