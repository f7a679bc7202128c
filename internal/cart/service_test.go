package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/internal/discounts"
	"github.com/angelmondragon/bookstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

type fixture struct {
	db     *gorm.DB
	svc    Service
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	discountSvc, err := discounts.NewService(discounts.NewRepository(conn), nil)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Discounts:  discountSvc,
		TaxRate:    decimal.RequireFromString("0.0825"),
		MaxLineQty: 10,
	})
	require.NoError(t, err)
	return &fixture{db: conn, svc: svc, userID: uuid.New()}
}

func (f *fixture) seedItem(t *testing.T, name string, price, stock int, active bool) models.Item {
	t.Helper()
	item := models.Item{Name: name, PriceCents: price, Stock: stock, Active: active}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func TestGetWithoutCart(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.Get(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Nil(t, view.CartID)
	assert.Empty(t, view.Lines)
	assert.Zero(t, view.SubtotalCents)

	n, err := f.svc.Count(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddItemCreatesCartAndSetsQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	emma := f.seedItem(t, "Emma", 1299, 5, true)
	dune := f.seedItem(t, "Dune", 1500, 5, true)

	view, err := f.svc.AddItem(ctx, f.userID, emma.ID, 2)
	require.NoError(t, err)
	require.NotNil(t, view.CartID)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2598, view.SubtotalCents)

	view, err = f.svc.AddItem(ctx, f.userID, emma.ID, 1)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Qty)

	_, err = f.svc.AddItem(ctx, f.userID, dune.ID, 3)
	require.NoError(t, err)

	n, err := f.svc.Count(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var carts int64
	require.NoError(t, f.db.Model(&models.Cart{}).Where("user_id = ?", f.userID).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestAddItemRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	scarce := f.seedItem(t, "Scarce", 1000, 1, true)
	retired := f.seedItem(t, "Retired", 1000, 5, false)

	_, err := f.svc.AddItem(ctx, f.userID, scarce.ID, 2)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.AddItem(ctx, f.userID, retired.ID, 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.AddItem(ctx, f.userID, scarce.ID, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, f.userID, scarce.ID, 11)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, f.userID, uuid.New(), 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, uuid.Nil, scarce.ID, 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestUpdateQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, "Emma", 1000, 3, true)
	other := f.seedItem(t, "Dune", 1000, 3, true)

	_, err := f.svc.AddItem(ctx, f.userID, item.ID, 1)
	require.NoError(t, err)

	view, err := f.svc.UpdateQuantity(ctx, f.userID, item.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Units)

	_, err = f.svc.UpdateQuantity(ctx, f.userID, item.ID, 4)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.UpdateQuantity(ctx, f.userID, other.ID, 1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	view, err = f.svc.UpdateQuantity(ctx, f.userID, item.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = f.svc.UpdateQuantity(ctx, f.userID, item.ID, -1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, "Emma", 1000, 3, true)

	_, err := f.svc.RemoveItem(ctx, f.userID, item.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, f.userID, item.ID, 1)
	require.NoError(t, err)
	view, err := f.svc.RemoveItem(ctx, f.userID, item.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = f.svc.RemoveItem(ctx, f.userID, item.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, "Emma", 1299, 5, true)
	_, err := f.svc.AddItem(ctx, f.userID, item.ID, 2)
	require.NoError(t, err)

	future := time.Now().Add(24 * time.Hour)
	require.NoError(t, f.db.Create(&models.Discount{ID: uuid.New(), Code: "SAVE10", PctOff: 10, Active: true, ExpiresAt: &future}).Error)
	require.NoError(t, f.db.Create(&models.Discount{ID: uuid.New(), Code: "OFF", PctOff: 50, Active: false}).Error)

	q, err := f.svc.Quote(ctx, f.userID, "")
	require.NoError(t, err)
	assert.Equal(t, 2598, q.Totals.SubtotalCents)
	assert.Zero(t, q.DiscountCents)
	assert.Equal(t, 214, q.TaxCents)
	assert.Equal(t, 2812, q.TotalCents)
	assert.Equal(t, "0.0825", q.TaxRate)

	q, err = f.svc.Quote(ctx, f.userID, " save10 ")
	require.NoError(t, err)
	require.NotNil(t, q.DiscountCode)
	assert.Equal(t, "SAVE10", *q.DiscountCode)
	assert.Equal(t, 259, q.DiscountCents)
	assert.Equal(t, 192, q.TaxCents)
	assert.Equal(t, 2531, q.TotalCents)

	_, err = f.svc.Quote(ctx, f.userID, "off")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.Quote(ctx, f.userID, "missing")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	conn := dbtest.Open(t)
	discountSvc, err := discounts.NewService(discounts.NewRepository(conn), nil)
	require.NoError(t, err)
	_, err = NewService(ServiceParams{
		Repository: NewRepository(conn),
		Discounts:  discountSvc,
		TaxRate:    decimal.NewFromInt(-1),
	})
	assert.Error(t, err)
}

func TestDeleteStaleLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stale := f.seedItem(t, "Stale", 1000, 5, true)
	fresh := f.seedItem(t, "Fresh", 1000, 5, true)
	_, err := f.svc.AddItem(ctx, f.userID, stale.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.userID, fresh.ID, 1)
	require.NoError(t, err)

	old := time.Now().Add(-45 * 24 * time.Hour).UTC()
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("item_id = ?", stale.ID).UpdateColumn("updated_at", old).Error)

	repo := NewRepository(f.db)
	deleted, err := repo.DeleteStaleLines(ctx, nil, time.Now().Add(-30*24*time.Hour).UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	view, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, fresh.ID, view.Lines[0].ItemID)
}
