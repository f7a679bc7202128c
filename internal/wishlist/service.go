package wishlist

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
}

// Service exposes business rules for wishlist management.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error)
	GetWishlistIDs(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistIDsDTO, error)
	AddItem(ctx context.Context, userID, itemID uuid.UUID) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	wishlistRepo *Repository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	return &service{wishlistRepo: params.WishlistRepo}, nil
}

// GetWishlist returns the paginated wishlist for a user.
func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistItemsPageDTO, error) {
	if err := ensureUser(userID); err != nil {
		return WishlistItemsPageDTO{}, err
	}
	page, err := s.wishlistRepo.ListItems(ctx, userID, cursor, limit)
	if err != nil {
		return WishlistItemsPageDTO{}, listError(err)
	}
	return page, nil
}

// GetWishlistIDs returns the saved item IDs for the user.
func (s *service) GetWishlistIDs(ctx context.Context, userID uuid.UUID, cursor string, limit int) (WishlistIDsDTO, error) {
	if err := ensureUser(userID); err != nil {
		return WishlistIDsDTO{}, err
	}
	ids, err := s.wishlistRepo.ListItemIDs(ctx, userID, cursor, limit)
	if err != nil {
		return WishlistIDsDTO{}, listError(err)
	}
	return ids, nil
}

// AddItem ensures the item exists and adds it to the wishlist.
func (s *service) AddItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := ensureUser(userID); err != nil {
		return err
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	exists, err := s.wishlistRepo.ItemExists(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if err := s.wishlistRepo.AddItem(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

// RemoveItem drops the wishlist entry regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := ensureUser(userID); err != nil {
		return err
	}
	if err := s.wishlistRepo.RemoveItem(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

func ensureUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user is required")
	}
	return nil
}

func listError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
}
