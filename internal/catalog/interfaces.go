package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository reads the items table.
type Repository interface {
	List(ctx context.Context, q listQuery) ([]models.Item, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	Related(ctx context.Context, item models.Item, window, limit int) ([]models.Item, error)
}
