package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/api/responses"
	"github.com/denr-penro-mrq/permittree-backend/api/validators"
	"github.com/denr-penro-mrq/permittree-backend/internal/permits"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	pkgerrors "github.com/denr-penro-mrq/permittree-backend/pkg/errors"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
	"github.com/denr-penro-mrq/permittree-backend/pkg/pagination"
	"github.com/denr-penro-mrq/permittree-backend/pkg/types"
)

type createPermitRequest struct {
	ApplicationType string        `json:"application_type" validate:"required"`
	OwnerFields     types.JSONMap `json:"owner_fields"`
}

type permitActionRequest struct {
	Action string               `json:"action" validate:"required"`
	Notes  string               `json:"notes"`
	Items  []models.OOPLineItem `json:"items"`
}

// CreatePermit opens a new draft application for the authenticated applicant.
func CreatePermit(svc permits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createPermitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		appType, err := enums.ParseApplicationType(req.ApplicationType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid application type"))
			return
		}

		permit, err := svc.Create(r.Context(), permits.CreateInput{
			ApplicationType: appType,
			OwnerFields:     req.OwnerFields,
			Actor:           actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, permit)
	}
}

// ListPermits returns a filtered, cursor-paginated permit listing.
func ListPermits(svc permits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := permits.ListParams{Actor: actor}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePermitStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("stage")); raw != "" {
			stage, err := enums.ParsePermitStage(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage filter"))
				return
			}
			params.Stage = &stage
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			appType, err := enums.ParseApplicationType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter"))
				return
			}
			params.ApplicationType = &appType
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// GetPermit returns a single permit with its history and order of payment.
func GetPermit(svc permits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		permit, err := svc.Get(r.Context(), permitID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, permit)
	}
}

// ApplyPermitAction applies one lifecycle action to the permit.
func ApplyPermitAction(svc permits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req permitActionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, err := enums.ParsePermitAction(req.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}

		result, err := svc.Transition(r.Context(), permits.TransitionInput{
			PermitID: permitID,
			Action:   action,
			Notes:    req.Notes,
			Items:    req.Items,
			Actor:    actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AllowedPermitActions lists the actions the caller may take from the
// permit's current state.
func AllowedPermitActions(svc permits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		permitID, err := parsePermitID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actions, err := svc.AllowedActions(r.Context(), permitID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"actions": actions})
	}
}

func parsePermitID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "permitId")
	permitID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid permit id")
	}
	return permitID, nil
}
