package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/api/middleware"
	"github.com/denr-penro-mrq/permittree-backend/internal/permits"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	pkgerrors "github.com/denr-penro-mrq/permittree-backend/pkg/errors"
)

// actorFromRequest rebuilds the acting identity from the auth claims the
// middleware seeded into the context.
func actorFromRequest(r *http.Request) (permits.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return permits.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return permits.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return permits.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}
	return permits.Actor{ID: userID, Roles: []enums.Role{role}}, nil
}
