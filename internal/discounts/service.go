package discounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

// Rejection reasons reported in the error details.
const (
	ReasonInactive          = "inactive"
	ReasonUsageLimitReached = "usage_limit_reached"
	ReasonExpired           = "expired"
)

// Service validates promo codes. Codes are read-only to the storefront.
type Service interface {
	Validate(ctx context.Context, code string) (*models.Discount, error)
	ValidateInTx(ctx context.Context, tx *gorm.DB, code string) (*models.Discount, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the discount service. A nil clock uses time.Now.
func NewService(repo Repository, clock func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, now: clock}, nil
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *service) Validate(ctx context.Context, code string) (*models.Discount, error) {
	return s.validate(ctx, s.repo, code)
}

// ValidateInTx applies the same checks as Validate against tx, so checkout
// prices the order from the row it commits with. The code is never consumed.
func (s *service) ValidateInTx(ctx context.Context, tx *gorm.DB, code string) (*models.Discount, error) {
	return s.validate(ctx, s.repo.WithTx(tx), code)
}

func (s *service) validate(ctx context.Context, repo Repository, code string) (*models.Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code required")
	}
	d, err := repo.FindByCode(ctx, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid discount code")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount")
	}
	if reason := s.check(d); reason != "" {
		return nil, rejected(reason)
	}
	return d, nil
}

func (s *service) check(d *models.Discount) string {
	switch {
	case !d.Active:
		return ReasonInactive
	case d.MaxUses != nil && d.UsedCount >= *d.MaxUses:
		return ReasonUsageLimitReached
	case d.ExpiresAt != nil && d.ExpiresAt.Before(s.now()):
		return ReasonExpired
	}
	return ""
}

func rejected(reason string) error {
	return pkgerrors.Violation(reason, "discount code cannot be applied")
}
