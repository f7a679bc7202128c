package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
)

const effectivePriceExpr = "COALESCE(sale_price_cents, price_cents)"

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, q listQuery) ([]models.Item, error) {
	tx := r.db.WithContext(ctx).Model(&models.Item{})

	if q.activeOnly {
		tx = tx.Where("active = ?", true)
	}
	if q.onSaleOnly {
		tx = tx.Where("on_sale = ?", true)
	}
	if term := strings.TrimSpace(q.query); term != "" {
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	switch q.stock {
	case enums.StockFilterInStock:
		tx = tx.Where("stock > 0")
	case enums.StockFilterOutOfStock:
		tx = tx.Where("stock = 0")
	}
	if q.minPriceCents != nil {
		tx = tx.Where(effectivePriceExpr+" >= ?", *q.minPriceCents)
	}
	if q.maxPriceCents != nil {
		tx = tx.Where(effectivePriceExpr+" <= ?", *q.maxPriceCents)
	}

	for _, order := range sortClauses(q.sort, q.onSaleOnly) {
		tx = tx.Order(order)
	}
	if q.limit > 0 {
		tx = tx.Limit(q.limit)
	}
	if q.offset > 0 {
		tx = tx.Offset(q.offset)
	}

	var items []models.Item
	if err := tx.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Related returns active items priced within window cents of item, excluding
// item itself.
func (r *repository) Related(ctx context.Context, item models.Item, window, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("id <> ?", item.ID).
		Where("price_cents BETWEEN ? AND ?", item.PriceCents-window, item.PriceCents+window).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// sortClauses always ends with id so pages are stable.
func sortClauses(sort enums.CatalogSort, onSale bool) []string {
	price := "price_cents"
	if onSale {
		price = effectivePriceExpr
	}
	switch sort {
	case enums.CatalogSortPriceLow:
		return []string{price + " ASC", "id ASC"}
	case enums.CatalogSortPriceHigh:
		return []string{price + " DESC", "id ASC"}
	case enums.CatalogSortName:
		return []string{"name ASC", "id ASC"}
	case enums.CatalogSortDiscount:
		return []string{"COALESCE(sale_percentage, 0) DESC", "id ASC"}
	default:
		return []string{"created_at DESC", "id ASC"}
	}
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term)
}
