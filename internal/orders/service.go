package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/fulfillment"
	"github.com/angelmondragon/bookstore-backend/pkg/checkout"
	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type discountValidator interface {
	ValidateInTx(ctx context.Context, tx *gorm.DB, code string) (*models.Discount, error)
}

// stockCache drops cached item detail whose stock changed.
type stockCache interface {
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// fulfillments is the slice of the fulfillment service orders depend on.
type fulfillments interface {
	CreateForOrderInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*fulfillment.CreateForOrderResult, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderFulfillment, error)
	CanCancelOrder(ctx context.Context, orderID uuid.UUID) (*fulfillment.CancelEligibility, error)
	CancelOrderInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*fulfillment.CancelOrderResult, error)
}

// Service places and reads customer orders.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error)
	CanCancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*fulfillment.CancelEligibility, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*fulfillment.CancelOrderResult, error)
}

// ServiceParams wires the orders service dependencies. Catalog is optional.
type ServiceParams struct {
	Repository   Repository
	CartRepo     cart.CartRepository
	Discounts    discountValidator
	Fulfillments fulfillments
	Catalog      stockCache
	Tx           txRunner
	Logger       *logger.Logger
	TaxRate      decimal.Decimal
}

type service struct {
	repo         Repository
	cartRepo     cart.CartRepository
	discounts    discountValidator
	fulfillments fulfillments
	catalog      stockCache
	tx           txRunner
	logg         *logger.Logger
	taxRate      decimal.Decimal
}

// NewService builds the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if params.Fulfillments == nil {
		return nil, fmt.Errorf("fulfillment service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:         params.Repository,
		cartRepo:     params.CartRepo,
		discounts:    params.Discounts,
		fulfillments: params.Fulfillments,
		catalog:      params.Catalog,
		tx:           params.Tx,
		logg:         params.Logger,
		taxRate:      params.TaxRate,
	}, nil
}

// Checkout converts the user's cart into an order in one transaction: stock
// is taken, the discount is validated, the cart is emptied and one pending
// fulfillment is created per ordered item. Any failure leaves no trace.
// Discount rows are only read.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}

	var result *CheckoutResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		userCart, err := cartRepo.FindByUser(ctx, input.UserID)
		if err != nil {
			if db.IsNotFound(err) {
				return emptyCart()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		lines, err := cartRepo.Lines(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
		}
		if len(lines) == 0 {
			return emptyCart()
		}

		checks := make([]checkout.StockValidationInput, 0, len(lines))
		subtotal := 0
		for _, line := range lines {
			if line.Item == nil {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "cart references a missing item").
					WithDetails(map[string]string{"item_id": line.ItemID.String()})
			}
			checks = append(checks, checkout.StockValidationInput{
				ItemID:   line.ItemID,
				ItemName: line.Item.Name,
				Active:   line.Item.Active,
				Stock:    line.Item.Stock,
				Quantity: line.Qty,
			})
			subtotal += cart.PriceLine(line).LineCents
		}
		if err := checkout.ValidateStock(checks); err != nil {
			return err
		}

		pct := 0
		var code *string
		if raw := strings.TrimSpace(input.DiscountCode); raw != "" {
			d, err := s.discounts.ValidateInTx(ctx, tx, raw)
			if err != nil {
				return err
			}
			pct = d.PctOff
			code = &d.Code
		}
		totals := checkout.ComputeTotals(subtotal, pct, s.taxRate)

		order, err := repo.CreateOrder(ctx, &models.Order{
			UserID:        input.UserID,
			CustomerEmail: email,
			DiscountCode:  code,
			SubtotalCents: totals.SubtotalCents,
			DiscountCents: totals.DiscountCents,
			TaxCents:      totals.TaxCents,
			TotalCents:    totals.TotalCents,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			n, err := repo.DecrementStock(ctx, line.ItemID, line.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if n == 0 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
					WithDetails(map[string]string{"item_id": line.ItemID.String()})
			}
			items = append(items, models.OrderItem{
				OrderID:        order.ID,
				ItemID:         line.ItemID,
				Qty:            line.Qty,
				UnitPriceCents: line.Item.PriceCents,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := cartRepo.ClearLines(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		created, err := s.fulfillments.CreateForOrderInTx(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		order.Items = items
		result = &CheckoutResult{Order: *order, Fulfillments: *created}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, input.UserID.String()), result.Order.ID.String())
	s.logg.Info(s.logg.WithField(logCtx, "total_cents", result.Order.TotalCents), "orders.checkout_completed")
	s.invalidateStock(logCtx, result.Order.Items)
	return result, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Get returns the order when the actor owns it or is an admin.
func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*OrderDetail, error) {
	order, err := s.authorize(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	rows, err := s.fulfillments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	elig, err := s.fulfillments.CanCancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: *order, Fulfillments: rows, Cancellation: elig}, nil
}

func (s *service) CanCancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*fulfillment.CancelEligibility, error) {
	if _, err := s.authorize(ctx, orderID, actor); err != nil {
		return nil, err
	}
	return s.fulfillments.CanCancelOrder(ctx, orderID)
}

// Cancel cancels every fulfillment of the order and returns its units to
// stock in one transaction.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*fulfillment.CancelOrderResult, error) {
	order, err := s.authorize(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}

	var result *fulfillment.CancelOrderResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.fulfillments.CancelOrderInTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		for _, item := range order.Items {
			if _, err := repo.RestoreStock(ctx, item.ItemID, item.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(s.logg.WithField(logCtx, "items", len(order.Items)), "orders.stock_restored")
	s.invalidateStock(logCtx, order.Items)
	return result, nil
}

// invalidateStock runs after commit. Failures are logged.
func (s *service) invalidateStock(ctx context.Context, items []models.OrderItem) {
	if s.catalog == nil {
		return
	}
	for _, item := range items {
		if err := s.catalog.Invalidate(ctx, item.ItemID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "item_id", item.ItemID.String()), "orders.catalog_invalidate_failed")
		}
	}
}

// authorize hides other users' orders behind not found.
func (s *service) authorize(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actor.UserID == uuid.Nil && !actor.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.IsAdmin && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func emptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
}
