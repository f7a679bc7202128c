package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/checkout"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

const defaultMaxLineQty = 99

type discountValidator interface {
	Validate(ctx context.Context, code string) (*models.Discount, error)
}

// Service exposes cart operations for a signed-in user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*View, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*View, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	Quote(ctx context.Context, userID uuid.UUID, discountCode string) (*Quote, error)
}

// ServiceParams wires the cart service dependencies.
type ServiceParams struct {
	Repository CartRepository
	Discounts  discountValidator
	TaxRate    decimal.Decimal
	MaxLineQty int
}

type service struct {
	repo       CartRepository
	discounts  discountValidator
	taxRate    decimal.Decimal
	maxLineQty int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if params.TaxRate.IsNegative() {
		return nil, fmt.Errorf("tax rate must be non-negative")
	}
	maxQty := params.MaxLineQty
	if maxQty <= 0 {
		maxQty = defaultMaxLineQty
	}
	return &service{
		repo:       params.Repository,
		discounts:  params.Discounts,
		taxRate:    params.TaxRate,
		maxLineQty: maxQty,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return &View{Lines: []Line{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.view(ctx, cart.ID)
}

// AddItem sets the line quantity for the item, creating the cart and the
// line as needed.
func (s *service) AddItem(ctx context.Context, userID, itemID uuid.UUID, qty int) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := s.checkItem(ctx, itemID, qty); err != nil {
		return nil, err
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	if err := s.repo.UpsertLine(ctx, &models.CartItem{CartID: cart.ID, ItemID: itemID, Qty: qty}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
	}
	return s.view(ctx, cart.ID)
}

// UpdateQuantity changes an existing line. A quantity of zero removes it.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*View, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkItem(ctx, itemID, qty); err != nil {
		return nil, err
	}
	n, err := s.repo.UpdateLineQty(ctx, cart.ID, itemID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.view(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*View, error) {
	cart, err := s.cartFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.DeleteLine(ctx, cart.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if n == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.view(ctx, cart.ID)
}

// Count returns the total units in the user's cart, zero when there is none.
func (s *service) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	n, err := s.repo.CountUnits(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart units")
	}
	return n, nil
}

// Quote prices the cart. A blank code prices without a discount; an invalid
// code fails the quote.
func (s *service) Quote(ctx context.Context, userID uuid.UUID, discountCode string) (*Quote, error) {
	view, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := &Quote{View: *view, TaxRate: s.taxRate.String()}
	pct := 0
	if code := strings.TrimSpace(discountCode); code != "" {
		d, err := s.discounts.Validate(ctx, code)
		if err != nil {
			return nil, err
		}
		pct = d.PctOff
		q.DiscountCode = &d.Code
		q.DiscountPct = pct
	}
	q.Totals = checkout.ComputeTotals(view.SubtotalCents, pct, s.taxRate)
	return q, nil
}

func (s *service) cartFor(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) checkItem(ctx context.Context, itemID uuid.UUID, qty int) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if qty > s.maxLineQty {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", s.maxLineQty))
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	return checkout.ValidateStock([]checkout.StockValidationInput{{
		ItemID:   item.ID,
		ItemName: item.Name,
		Active:   item.Active,
		Stock:    item.Stock,
		Quantity: qty,
	}})
}

func (s *service) view(ctx context.Context, cartID uuid.UUID) (*View, error) {
	lines, err := s.repo.Lines(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}
	id := cartID
	v := &View{CartID: &id, Lines: make([]Line, 0, len(lines))}
	for _, l := range lines {
		line := PriceLine(l)
		v.Lines = append(v.Lines, line)
		v.Units += line.Qty
		v.SubtotalCents += line.LineCents
	}
	return v, nil
}

// PriceLine prices a cart line at the item's list price. Lines whose item is
// gone price at zero.
func PriceLine(l models.CartItem) Line {
	line := Line{ItemID: l.ItemID, Qty: l.Qty, Item: l.Item}
	if l.Item != nil {
		line.UnitPriceCents = l.Item.PriceCents
		line.LineCents = l.Item.PriceCents * l.Qty
	}
	return line
}
