package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the single active cart owned by a user.
type Cart struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:carts_user_id_key" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem is one line of a cart, unique per (cart, item).
type CartItem struct {
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;primaryKey" json:"cart_id"`
	ItemID    uuid.UUID `gorm:"column:item_id;type:uuid;primaryKey" json:"item_id"`
	Qty       int       `gorm:"column:qty;not null" json:"qty"`
	Item      *Item     `gorm:"foreignKey:ItemID;references:ID" json:"item,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
