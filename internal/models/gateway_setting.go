package models

import (
	"time"

	"gorm.io/gorm"
)

// GatewaySetting stores operator-configurable gateway overrides (PDT token,
// sandbox flag). Values here take precedence over the env defaults.
type GatewaySetting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Key       string         `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string         `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (GatewaySetting) TableName() string { return "gateway_settings" }
