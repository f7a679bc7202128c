package profiles

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// Service resolves storefront roles for authenticated users.
type Service interface {
	RoleFor(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error)
	Touch(ctx context.Context, userID uuid.UUID, email string) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService builds the profile service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// RoleFor returns the user's role. Users without a profile, or with a role
// this service does not know, are customers.
func (s *service) RoleFor(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return enums.ProfileRoleCustomer, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	if !p.Role.IsValid() {
		s.logg.Warn(s.logg.WithField(s.logg.WithUserID(ctx, userID.String()), "role", p.Role.String()), "profiles.unknown_role")
		return enums.ProfileRoleCustomer, nil
	}
	return p.Role, nil
}

// Touch creates a customer profile on first sight of a user.
func (s *service) Touch(ctx context.Context, userID uuid.UUID, email string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	p := &models.Profile{ID: userID, Role: enums.ProfileRoleCustomer}
	if e := strings.TrimSpace(email); e != "" {
		p.Email = &e
	}
	if err := s.repo.EnsureExists(ctx, p); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure profile")
	}
	return nil
}
