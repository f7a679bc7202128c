package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// FindByID loads the order with its items.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser pages the user's orders newest first. Item counts are summed in
// the same query.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Table("orders o").
		Select("o.id, o.created_at, o.total_cents, o.discount_cents, COALESCE(SUM(oi.qty), 0) AS total_items").
		Joins("LEFT JOIN order_items oi ON oi.order_id = o.id").
		Where("o.user_id = ?", userID).
		Group("o.id, o.created_at, o.total_cents, o.discount_cents")
	if cursor != nil {
		query = query.Where("(o.created_at < ?) OR (o.created_at = ? AND o.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	type record struct {
		ID            uuid.UUID
		CreatedAt     time.Time
		TotalCents    int
		DiscountCents int
		TotalItems    int
	}
	var records []record
	err = query.
		Order("o.created_at DESC").
		Order("o.id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Scan(&records).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{}
	if len(records) > limit {
		records = records[:limit]
		last := records[len(records)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	list.Orders = make([]OrderSummary, 0, len(records))
	for _, rec := range records {
		list.Orders = append(list.Orders, OrderSummary{
			ID:            rec.ID,
			CreatedAt:     rec.CreatedAt,
			TotalCents:    rec.TotalCents,
			DiscountCents: rec.DiscountCents,
			TotalItems:    rec.TotalItems,
		})
	}
	return list, nil
}

// DecrementStock takes qty units from the item when enough stock remains.
func (r *repository) DecrementStock(ctx context.Context, itemID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ? AND active = ? AND stock >= ?", itemID, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected, res.Error
}

// RestoreStock returns qty units to the item, inactive or not.
func (r *repository) RestoreStock(ctx context.Context, itemID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("stock", gorm.Expr("stock + ?", qty))
	return res.RowsAffected, res.Error
}
