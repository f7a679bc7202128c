package discounts

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository reads discount codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Discount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discount repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	var d models.Discount
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
