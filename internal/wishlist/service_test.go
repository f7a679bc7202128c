package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(ServiceParams{WishlistRepo: NewRepository(conn)})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func seedItem(t *testing.T, conn *gorm.DB, name string) models.Item {
	t.Helper()
	item := models.Item{Name: name, PriceCents: 1000, Stock: 1, Active: true}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestAddItemIsIdempotent(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	item := seedItem(t, conn, "Emma")

	for i := 0; i < 2; i++ {
		if err := svc.AddItem(ctx, user, item.ID); err != nil {
			t.Fatalf("add item attempt %d: %v", i, err)
		}
	}

	var count int64
	if err := conn.Model(&models.WishlistItem{}).Where("user_id = ?", user).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one wishlist row, got %d", count)
	}
}

func TestAddItemRequiresExistingItem(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AddItem(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	err = svc.AddItem(context.Background(), uuid.Nil, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestGetWishlistNewestFirstWithCursor(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	titles := []string{"First", "Second", "Third"}
	for i, title := range titles {
		item := seedItem(t, conn, title)
		row := models.WishlistItem{UserID: user, ItemID: item.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := conn.Create(&row).Error; err != nil {
			t.Fatalf("seed wishlist: %v", err)
		}
	}
	other := seedItem(t, conn, "Someone Else's")
	if err := svc.AddItem(ctx, uuid.New(), other.ID); err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	page, err := svc.GetWishlist(ctx, user, "", 2)
	if err != nil {
		t.Fatalf("get wishlist: %v", err)
	}
	if len(page.Items) != 2 || page.Items[0].Item.Name != "Third" || page.Items[1].Item.Name != "Second" {
		t.Fatalf("unexpected first page %+v", page.Items)
	}
	if page.Pagination.Total != 3 || page.Pagination.Next == "" {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}

	page, err = svc.GetWishlist(ctx, user, page.Pagination.Next, 2)
	if err != nil {
		t.Fatalf("get second page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Item.Name != "First" {
		t.Fatalf("unexpected second page %+v", page.Items)
	}
	if page.Pagination.Next != "" {
		t.Fatalf("expected no further pages, got %q", page.Pagination.Next)
	}

	ids, err := svc.GetWishlistIDs(ctx, user, "", 10)
	if err != nil {
		t.Fatalf("get ids: %v", err)
	}
	if len(ids.ItemIDs) != 3 {
		t.Fatalf("expected three ids, got %d", len(ids.ItemIDs))
	}
}

func TestGetWishlistRejectsBadCursor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetWishlist(context.Background(), uuid.New(), "%%%", 10)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	item := seedItem(t, conn, "Emma")

	if err := svc.AddItem(ctx, user, item.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.RemoveItem(ctx, user, item.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.RemoveItem(ctx, user, item.ID); err != nil {
		t.Fatalf("remove twice: %v", err)
	}
	page, err := svc.GetWishlist(ctx, user, "", 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected empty wishlist, got %d", len(page.Items))
	}
}
