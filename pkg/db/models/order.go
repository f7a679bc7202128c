package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is a placed purchase. Totals are snapshotted at checkout.
type Order struct {
	ID            uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx" json:"user_id"`
	CustomerEmail string      `gorm:"column:customer_email;not null" json:"customer_email"`
	DiscountCode  *string     `gorm:"column:discount_code" json:"discount_code"`
	SubtotalCents int         `gorm:"column:subtotal_cents;not null" json:"subtotal_cents"`
	DiscountCents int         `gorm:"column:discount_cents;not null;default:0" json:"discount_cents"`
	TaxCents      int         `gorm:"column:tax_cents;not null;default:0" json:"tax_cents"`
	TotalCents    int         `gorm:"column:total_cents;not null" json:"total_cents"`
	Items         []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt     time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is an immutable order line.
type OrderItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx" json:"order_id"`
	ItemID         uuid.UUID `gorm:"column:item_id;type:uuid;not null" json:"item_id"`
	Qty            int       `gorm:"column:qty;not null" json:"qty"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null" json:"unit_price_cents"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (o *OrderItem) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
