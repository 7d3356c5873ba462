package models

import (
	"time"

	"gorm.io/datatypes"
)

// BrowserRecord holds one browser's storage items when SESSION_DRIVER=postgres.
type BrowserRecord struct {
	BrowserID string            `gorm:"primaryKey;size:64" json:"browser_id"`
	Items     datatypes.JSONMap `gorm:"type:jsonb" json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `gorm:"index" json:"updated_at"`
}

func (BrowserRecord) TableName() string { return "browser_storage" }
