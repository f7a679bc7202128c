package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// Profile mirrors the auth provider's user with storefront-specific attributes.
// ID equals the provider's subject.
type Profile struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     *string           `gorm:"column:email" json:"email"`
	Role      enums.ProfileRole `gorm:"column:role;not null;default:'customer'" json:"role"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
