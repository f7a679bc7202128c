package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID := middleware.UserUUIDFromContext(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
