package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

// Repository defines persistence operations over order_fulfillments and the
// order/item rows it reads for context.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.OrderFulfillment) (*models.OrderFulfillment, error)
	InsertMissing(ctx context.Context, rows []models.OrderFulfillment) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderFulfillment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderFulfillment, error)
	ListByOrderForUpdate(ctx context.Context, orderID uuid.UUID) ([]models.OrderFulfillment, error)
	ListByOrderItem(ctx context.Context, orderID, itemID uuid.UUID) ([]models.OrderFulfillment, error)
	ListByStatus(ctx context.Context, status enums.FulfillmentStatus) ([]models.OrderFulfillment, error)
	CountByOrderItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CancelUntouchedForOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) (int64, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	OrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	ItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
}
