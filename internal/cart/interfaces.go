package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Lines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	UpsertLine(ctx context.Context, line *models.CartItem) error
	UpdateLineQty(ctx context.Context, cartID, itemID uuid.UUID, qty int) (int64, error)
	DeleteLine(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	CountUnits(ctx context.Context, userID uuid.UUID) (int, error)
}
