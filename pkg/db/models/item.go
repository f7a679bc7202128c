package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is a book listed in the storefront catalog.
type Item struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Author         *string   `gorm:"column:author" json:"author"`
	Description    *string   `gorm:"column:description" json:"description"`
	ImgURL         *string   `gorm:"column:img_url" json:"img_url"`
	PriceCents     int       `gorm:"column:price_cents;not null" json:"price_cents"`
	SalePriceCents *int      `gorm:"column:sale_price_cents" json:"sale_price_cents"`
	SalePercentage *int      `gorm:"column:sale_percentage" json:"sale_percentage"`
	OnSale         bool      `gorm:"column:on_sale;not null;default:false" json:"on_sale"`
	Stock          int       `gorm:"column:stock;not null;default:0" json:"stock"`
	Active         bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// EffectivePriceCents returns the sale price when one is set, else the list price.
func (i Item) EffectivePriceCents() int {
	if i.SalePriceCents != nil {
		return *i.SalePriceCents
	}
	return i.PriceCents
}
