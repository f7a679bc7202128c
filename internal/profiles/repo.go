package profiles

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository reads and seeds profiles.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	EnsureExists(ctx context.Context, profile *models.Profile) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a profile repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// EnsureExists inserts the profile unless one already exists. Existing roles
// are never overwritten.
func (r *repository) EnsureExists(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile).Error
}
