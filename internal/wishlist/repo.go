package wishlist

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	row := models.WishlistItem{UserID: userID, ItemID: itemID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

// RemoveItem deletes the user-item entry if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&models.WishlistItem{}).
		Error
}

// ItemExists reports whether the catalog item exists.
func (r *Repository) ItemExists(ctx context.Context, itemID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", itemID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListItems returns a paginated list of wishlist items for a user.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	cursorValue := strings.TrimSpace(cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return WishlistItemsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	selectColumns := []string{
		"wi.id AS wishlist_id",
		"wi.created_at AS wishlist_created_at",
		"i.id AS item_id",
		"i.name",
		"i.author",
		"i.img_url",
		"i.price_cents",
		"i.sale_price_cents",
		"i.on_sale",
		"i.stock",
		"i.active",
	}

	dataQuery := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN items i ON i.id = wi.item_id").
		Where("wi.user_id = ?", userID)

	if decodedCursor != nil {
		dataQuery = dataQuery.Where("(wi.created_at < ?) OR (wi.created_at = ? AND wi.id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	dataQuery = dataQuery.Order("wi.created_at DESC").Order("wi.id DESC").Limit(limitWithBuffer)

	var records []wishlistItemRecord
	if err := dataQuery.Scan(&records).Error; err != nil {
		return WishlistItemsPageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.WishlistCreatedAt,
			ID:        last.WishlistID,
		})
	}

	items := make([]WishlistItemDTO, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, record.toDTO())
	}

	totalCount, err := r.countWishlistItems(ctx, userID)
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}
	firstCursor, err := r.fetchWishlistBoundaryCursor(ctx, userID, true)
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}
	lastCursor, err := r.fetchWishlistBoundaryCursor(ctx, userID, false)
	if err != nil {
		return WishlistItemsPageDTO{}, err
	}

	prevCursor := ""
	if cursorValue != "" {
		prevCursor = cursorValue
	}

	paginationMeta := Pagination{
		Total:   int(totalCount),
		Current: cursorValue,
		First:   firstCursor,
		Last:    lastCursor,
		Prev:    prevCursor,
		Next:    nextCursor,
	}

	return WishlistItemsPageDTO{
		Items:      items,
		Pagination: paginationMeta,
	}, nil
}

// ListItemIDs returns only the item IDs a user has saved.
func (r *Repository) ListItemIDs(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistIDsDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	cursorValue := strings.TrimSpace(cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return WishlistIDsDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	query := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Select("id AS wishlist_id", "created_at AS wishlist_created_at", "item_id").
		Where("user_id = ?", userID)

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	type idRecord struct {
		WishlistID        uuid.UUID
		WishlistCreatedAt time.Time
		ItemID            uuid.UUID
	}

	var records []idRecord
	if err := query.Scan(&records).Error; err != nil {
		return WishlistIDsDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.WishlistCreatedAt,
			ID:        last.WishlistID,
		})
	}

	items := make([]uuid.UUID, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, record.ItemID)
	}

	totalCount, err := r.countWishlistItems(ctx, userID)
	if err != nil {
		return WishlistIDsDTO{}, err
	}
	firstCursor, err := r.fetchWishlistBoundaryCursor(ctx, userID, true)
	if err != nil {
		return WishlistIDsDTO{}, err
	}
	lastCursor, err := r.fetchWishlistBoundaryCursor(ctx, userID, false)
	if err != nil {
		return WishlistIDsDTO{}, err
	}

	prevCursor := ""
	if cursorValue != "" {
		prevCursor = cursorValue
	}

	paginationMeta := Pagination{
		Total:   int(totalCount),
		Current: cursorValue,
		First:   firstCursor,
		Last:    lastCursor,
		Prev:    prevCursor,
		Next:    nextCursor,
	}

	return WishlistIDsDTO{
		ItemIDs:    items,
		Pagination: paginationMeta,
	}, nil
}

func (r *Repository) countWishlistItems(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) fetchWishlistBoundaryCursor(ctx context.Context, userID uuid.UUID, ascending bool) (string, error) {
	order := "created_at DESC, id DESC"
	if ascending {
		order = "created_at ASC, id ASC"
	}

	var row struct {
		CreatedAt time.Time
		ID        uuid.UUID
	}

	query := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Select("created_at", "id").
		Where("user_id = ?", userID).
		Order(order).
		Limit(1)

	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: row.CreatedAt,
		ID:        row.ID,
	}), nil
}

type wishlistItemRecord struct {
	WishlistID        uuid.UUID      `gorm:"column:wishlist_id"`
	WishlistCreatedAt time.Time      `gorm:"column:wishlist_created_at"`
	ID                uuid.UUID      `gorm:"column:item_id"`
	Name              string         `gorm:"column:name"`
	Author            sql.NullString `gorm:"column:author"`
	ImgURL            sql.NullString `gorm:"column:img_url"`
	PriceCents        int            `gorm:"column:price_cents"`
	SalePriceCents    sql.NullInt64  `gorm:"column:sale_price_cents"`
	OnSale            bool           `gorm:"column:on_sale"`
	Stock             int            `gorm:"column:stock"`
	Active            bool           `gorm:"column:active"`
}

func (r wishlistItemRecord) toDTO() WishlistItemDTO {
	return WishlistItemDTO{
		Item: ItemSummary{
			ID:             r.ID,
			Name:           r.Name,
			Author:         nullStringPtr(r.Author),
			ImgURL:         nullStringPtr(r.ImgURL),
			PriceCents:     r.PriceCents,
			SalePriceCents: nullIntPtr(r.SalePriceCents),
			OnSale:         r.OnSale,
			Stock:          r.Stock,
			Active:         r.Active,
		},
		CreatedAt: r.WishlistCreatedAt,
	}
}

func nullStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
