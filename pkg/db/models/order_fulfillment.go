package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// OrderFulfillment tracks shipment of one (order, item) pair. Rows are never
// deleted; cancelled and delivered are terminal.
type OrderFulfillment struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID        uuid.UUID               `gorm:"column:order_id;type:uuid;not null;uniqueIndex:order_fulfillments_order_item_key" json:"order_id"`
	ItemID         uuid.UUID               `gorm:"column:item_id;type:uuid;not null;uniqueIndex:order_fulfillments_order_item_key" json:"item_id"`
	Status         enums.FulfillmentStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	ShippedQty     int                     `gorm:"column:shipped_qty;not null;default:0" json:"shipped_qty"`
	TrackingNumber *string                 `gorm:"column:tracking_number" json:"tracking_number"`
	FulfilledBy    *string                 `gorm:"column:fulfilled_by" json:"fulfilled_by"`
	FulfilledAt    *time.Time              `gorm:"column:fulfilled_at" json:"fulfilled_at"`
	ShippedAt      *time.Time              `gorm:"column:shipped_at" json:"shipped_at"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (OrderFulfillment) TableName() string {
	return "order_fulfillments"
}

func (f *OrderFulfillment) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Status == "" {
		f.Status = enums.FulfillmentStatusPending
	}
	return nil
}
