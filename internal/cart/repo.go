package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating it on first use. A concurrent
// creator wins the unique index and both callers read the same row.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

// Lines returns the cart's lines with their items, oldest first.
func (r *Repository) Lines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("item_id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// FindItem loads a catalog item.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertLine inserts the line or overwrites the quantity of an existing one.
func (r *Repository) UpsertLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cart_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
		}).
		Create(line).Error
}

// UpdateLineQty sets the quantity of an existing line.
func (r *Repository) UpdateLineQty(ctx context.Context, cartID, itemID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND item_id = ?", cartID, itemID).
		Updates(map[string]any{"qty": qty, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// DeleteLine removes a single line.
func (r *Repository) DeleteLine(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND item_id = ?", cartID, itemID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// ClearLines removes every line of the cart.
func (r *Repository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// CountUnits sums line quantities for the user's cart.
func (r *Repository) CountUnits(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Select("COALESCE(SUM(cart_items.qty), 0)").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// DeleteStaleLines removes lines whose last update predates cutoff.
func (r *Repository) DeleteStaleLines(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	res := conn.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
