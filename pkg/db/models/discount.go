package models

import (
	"time"

	"github.com/google/uuid"
)

// Discount is a percentage-off promo code. The storefront only reads it.
type Discount struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code      string     `gorm:"column:code;not null;uniqueIndex:discounts_code_key" json:"code"`
	PctOff    int        `gorm:"column:pct_off;not null" json:"pct_off"`
	Active    bool       `gorm:"column:active;not null" json:"active"`
	MaxUses   *int       `gorm:"column:max_uses" json:"max_uses"`
	UsedCount int        `gorm:"column:used_count;not null;default:0" json:"used_count"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
