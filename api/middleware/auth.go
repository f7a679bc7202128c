package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	pkgAuth "github.com/angelmondragon/bookstore-backend/pkg/auth"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// RoleResolver maps an authenticated user to their storefront role.
type RoleResolver interface {
	RoleFor(ctx context.Context, userID uuid.UUID) (enums.ProfileRole, error)
}

// Auth validates a bearer token and seeds the request context with the user
// and their profile role. Requests without a valid token are rejected.
func Auth(cfg config.AuthConfig, roles RoleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, roles, logg, false)
}

// OptionalAuth behaves like Auth when a token is present and lets anonymous
// requests through untouched. An invalid token is still rejected.
func OptionalAuth(cfg config.AuthConfig, roles RoleResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, roles, logg, true)
}

func authenticate(cfg config.AuthConfig, roles RoleResolver, logg *logger.Logger, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if optional {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject"))
				return
			}

			role := enums.ProfileRoleCustomer
			if roles != nil {
				role, err = roles.RoleFor(r.Context(), userID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}

			ctx := WithUserID(r.Context(), userID.String())
			ctx = WithRole(ctx, string(role))
			ctx = WithEmail(ctx, claims.Email)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    userID.String(),
					"actor_role": string(role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
