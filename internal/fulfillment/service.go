package fulfillment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service enforces the fulfillment lifecycle and order-level cancellation
// policy on top of the order_fulfillments table.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.OrderFulfillment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderFulfillment, error)
	ListByOrderItem(ctx context.Context, orderID, itemID uuid.UUID) ([]models.OrderFulfillment, error)
	ListPending(ctx context.Context) ([]PendingFulfillment, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.OrderFulfillment, error)
	MarkAsShipped(ctx context.Context, id uuid.UUID, trackingNumber string, shippedQty *int) (*models.OrderFulfillment, error)
	MarkAsDelivered(ctx context.Context, id uuid.UUID) (*models.OrderFulfillment, error)
	CancelFulfillment(ctx context.Context, id uuid.UUID) (*models.OrderFulfillment, error)
	CreateForOrder(ctx context.Context, orderID uuid.UUID) (*CreateForOrderResult, error)
	CreateForOrderInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*CreateForOrderResult, error)
	CanCancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelEligibility, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelOrderResult, error)
	CancelOrderInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*CancelOrderResult, error)
	Stats(ctx context.Context) (*Stats, error)
}

// ServiceParams wires the fulfillment service dependencies.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Logger     *logger.Logger
	Metrics    *metrics.FulfillmentMetrics
	Clock      func() time.Time
}

type service struct {
	repo    Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.FulfillmentMetrics
	now     func() time.Time
}

// NewService builds the fulfillment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:    params.Repository,
		tx:      params.Tx,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.OrderFulfillment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	status := input.Status
	if status == "" {
		status = enums.FulfillmentStatusPending
	}
	if !status.IsValid() {
		return nil, invalidStatus(status)
	}
	if input.ShippedQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipped qty must be non-negative")
	}

	row := &models.OrderFulfillment{
		OrderID:        input.OrderID,
		ItemID:         input.ItemID,
		Status:         status,
		ShippedQty:     input.ShippedQty,
		TrackingNumber: normalizeOptional(input.TrackingNumber),
	}
	created, err := s.repo.Create(ctx, row)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "fulfillment already exists for order item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create fulfillment")
	}
	s.metrics.ObserveTransition(created.Status, 1)
	return created, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderFulfillment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order fulfillments")
	}
	return rows, nil
}

func (s *service) ListByOrderItem(ctx context.Context, orderID, itemID uuid.UUID) ([]models.OrderFulfillment, error) {
	if orderID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and item id required")
	}
	rows, err := s.repo.ListByOrderItem(ctx, orderID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order item fulfillments")
	}
	return rows, nil
}

// ListPending returns the pending queue oldest first. Order and item context
// is loaded with one query per table rather than per row.
func (s *service) ListPending(ctx context.Context) ([]PendingFulfillment, error) {
	rows, err := s.repo.ListByStatus(ctx, enums.FulfillmentStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending fulfillments")
	}
	if len(rows) == 0 {
		return []PendingFulfillment{}, nil
	}

	orderIDs := make([]uuid.UUID, 0, len(rows))
	itemIDs := make([]uuid.UUID, 0, len(rows))
	seenOrders := make(map[uuid.UUID]struct{}, len(rows))
	seenItems := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		if _, ok := seenOrders[row.OrderID]; !ok {
			seenOrders[row.OrderID] = struct{}{}
			orderIDs = append(orderIDs, row.OrderID)
		}
		if _, ok := seenItems[row.ItemID]; !ok {
			seenItems[row.ItemID] = struct{}{}
			itemIDs = append(itemIDs, row.ItemID)
		}
	}

	var (
		orders []models.Order
		items  []models.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.repo.OrdersByIDs(gctx, orderIDs)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.repo.ItemsByIDs(gctx, itemIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending fulfillment context")
	}

	orderByID := make(map[uuid.UUID]*OrderSummary, len(orders))
	for _, o := range orders {
		orderByID[o.ID] = &OrderSummary{ID: o.ID, CustomerEmail: o.CustomerEmail, CreatedAt: o.CreatedAt}
	}
	itemByID := make(map[uuid.UUID]*ItemSummary, len(items))
	for _, it := range items {
		itemByID[it.ID] = &ItemSummary{Name: it.Name, ImgURL: it.ImgURL, Author: it.Author}
	}

	out := make([]PendingFulfillment, 0, len(rows))
	for _, row := range rows {
		out = append(out, PendingFulfillment{
			OrderFulfillment: row,
			Order:            orderByID[row.OrderID],
			Item:             itemByID[row.ItemID],
		})
	}
	return out, nil
}

// Update applies a partial update. Moving to processing stamps fulfilled_at
// and moving to shipped stamps shipped_at unless the caller supplies them.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.OrderFulfillment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fulfillment id required")
	}
	updates, err := s.buildUpdates(input)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, updates, input.Status)
}

func (s *service) MarkAsShipped(ctx context.Context, id uuid.UUID, trackingNumber string, shippedQty *int) (*models.OrderFulfillment, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}
	status := enums.FulfillmentStatusShipped
	shippedAt := s.now()
	return s.Update(ctx, id, UpdateInput{
		Status:         &status,
		TrackingNumber: &trackingNumber,
		ShippedQty:     shippedQty,
		ShippedAt:      &shippedAt,
	})
}

func (s *service) MarkAsDelivered(ctx context.Context, id uuid.UUID) (*models.OrderFulfillment, error) {
	status := enums.FulfillmentStatusDelivered
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

// CancelFulfillment is idempotent: cancelling a cancelled row succeeds.
func (s *service) CancelFulfillment(ctx context.Context, id uuid.UUID) (*models.OrderFulfillment, error) {
	status := enums.FulfillmentStatusCancelled
	return s.Update(ctx, id, UpdateInput{Status: &status})
}

func (s *service) CreateForOrder(ctx context.Context, orderID uuid.UUID) (*CreateForOrderResult, error) {
	var result *CreateForOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.CreateForOrderInTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateForOrderInTx creates one pending row per distinct item of the order
// inside tx. Existing rows are kept, so retries are safe. It fails unless every
// item ends up with a fulfillment.
func (s *service) CreateForOrderInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*CreateForOrderResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	repo := s.repo.WithTx(tx)

	if _, err := repo.FindOrder(ctx, orderID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	items, err := repo.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order items")
	}

	result := &CreateForOrderResult{OrderID: orderID}
	itemIDs := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ItemID]; ok {
			continue
		}
		seen[item.ItemID] = struct{}{}
		itemIDs = append(itemIDs, item.ItemID)
	}
	result.OrderItems = len(itemIDs)
	if len(itemIDs) == 0 {
		return result, nil
	}

	rows := make([]models.OrderFulfillment, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		rows = append(rows, models.OrderFulfillment{
			OrderID:    orderID,
			ItemID:     itemID,
			Status:     enums.FulfillmentStatusPending,
			ShippedQty: 0,
		})
	}

	inserted, err := repo.InsertMissing(ctx, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert fulfillments")
	}
	total, err := repo.CountByOrderItems(ctx, orderID, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count fulfillments")
	}
	if int(total) != len(itemIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment rows incomplete").
			WithDetails(map[string]int{"expected": len(itemIDs), "found": int(total)})
	}

	result.Created = int(inserted)
	s.metrics.ObserveTransition(enums.FulfillmentStatusPending, result.Created)
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	s.logg.Info(s.logg.WithField(logCtx, "created", result.Created), "fulfillment.created_for_order")
	return result, nil
}

// CanCancelOrder fails closed: an order without fulfillments is not cancellable.
func (s *service) CanCancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelEligibility, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order fulfillments")
	}
	elig := evaluateCancellation(orderID, rows)
	return &elig, nil
}

// CancelOrder re-checks eligibility under row locks and cancels every
// fulfillment of the order in one transaction. A row that changed between the
// check and the update aborts the whole cancellation.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID) (*CancelOrderResult, error) {
	var result *CancelOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.CancelOrderInTx(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelOrderInTx is CancelOrder inside the caller's transaction, so stock
// can be returned in the same commit.
func (s *service) CancelOrderInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*CancelOrderResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	repo := s.repo.WithTx(tx)

	rows, err := repo.ListByOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order fulfillments")
	}
	elig := evaluateCancellation(orderID, rows)
	if !elig.Cancellable {
		s.logg.Warn(logCtx, "fulfillment.cancel_order_rejected")
		return nil, notCancellable(elig.Reason)
	}

	n, err := repo.CancelUntouchedForOrder(ctx, orderID, map[string]any{
		"status":     enums.FulfillmentStatusCancelled,
		"updated_at": s.now(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order fulfillments")
	}
	if int(n) != len(rows) {
		s.logg.Warn(logCtx, "fulfillment.cancel_order_rejected")
		return nil, notCancellable(CancelReasonConcurrentChange)
	}

	s.metrics.ObserveTransition(enums.FulfillmentStatusCancelled, int(n))
	s.logg.Info(s.logg.WithField(logCtx, "cancelled", n), "fulfillment.order_cancelled")
	return &CancelOrderResult{OrderID: orderID, Cancelled: int(n)}, nil
}

// Stats counts rows per status; every known status defaults to zero and
// unknown values are ignored.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count fulfillments by status")
	}
	stats := &Stats{}
	for _, c := range counts {
		stats.add(c.Status, c.Count)
	}
	return stats, nil
}

func (s *service) apply(ctx context.Context, id uuid.UUID, updates map[string]any, status *enums.FulfillmentStatus) (*models.OrderFulfillment, error) {
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fulfillment")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload fulfillment")
	}
	if status != nil {
		s.metrics.ObserveTransition(*status, 1)
		logCtx := s.logg.WithFulfillmentID(ctx, id.String())
		s.logg.Info(s.logg.WithField(logCtx, "status", status.String()), "fulfillment.status_set")
	}
	return row, nil
}

func (s *service) buildUpdates(input UpdateInput) (map[string]any, error) {
	updates := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, invalidStatus(*input.Status)
		}
		updates["status"] = *input.Status
	}
	if input.ShippedQty != nil {
		if *input.ShippedQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipped qty must be non-negative")
		}
		updates["shipped_qty"] = *input.ShippedQty
	}
	if input.TrackingNumber != nil {
		updates["tracking_number"] = normalizeOptional(input.TrackingNumber)
	}
	if input.FulfilledBy != nil {
		updates["fulfilled_by"] = normalizeOptional(input.FulfilledBy)
	}
	if input.FulfilledAt != nil {
		updates["fulfilled_at"] = input.FulfilledAt.UTC()
	}
	if input.ShippedAt != nil {
		updates["shipped_at"] = input.ShippedAt.UTC()
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	now := s.now()
	if input.Status != nil {
		switch *input.Status {
		case enums.FulfillmentStatusProcessing:
			if input.FulfilledAt == nil {
				updates["fulfilled_at"] = now
			}
		case enums.FulfillmentStatusShipped:
			if input.ShippedAt == nil {
				updates["shipped_at"] = now
			}
		}
	}
	updates["updated_at"] = now
	return updates, nil
}

func evaluateCancellation(orderID uuid.UUID, rows []models.OrderFulfillment) CancelEligibility {
	elig := CancelEligibility{OrderID: orderID, Fulfillments: len(rows)}
	if len(rows) == 0 {
		elig.Reason = CancelReasonNoFulfillments
		return elig
	}
	for _, row := range rows {
		if row.Status != enums.FulfillmentStatusPending {
			elig.Reason = CancelReasonNotPending
			return elig
		}
		if row.ShippedQty != 0 {
			elig.Reason = CancelReasonUnitsShipped
			return elig
		}
	}
	elig.Cancellable = true
	return elig
}

func notCancellable(reason CancelReason) error {
	return pkgerrors.Violation(string(reason), "order cannot be cancelled")
}

func invalidStatus(status enums.FulfillmentStatus) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment status").
		WithDetails(map[string]string{"status": status.String()})
}

// normalizeOptional trims the value and maps blanks to NULL.
func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
