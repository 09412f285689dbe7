package permits

import (
	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/types"
)

// Actor identifies the caller of a lifecycle operation.
type Actor struct {
	ID    uuid.UUID
	Roles []enums.Role
}

// CreateInput opens a new draft application.
type CreateInput struct {
	ApplicationType enums.ApplicationType
	OwnerFields     types.JSONMap
	Actor           Actor
}

// TransitionInput requests one action on a permit. Items are consumed only by
// issue_oop.
type TransitionInput struct {
	PermitID uuid.UUID
	Action   enums.PermitAction
	Notes    string
	Items    []models.OOPLineItem
	Actor    Actor
}

// TransitionResult reports the applied transition.
type TransitionResult struct {
	Permit *models.Permit             `json:"permit"`
	Entry  *models.PermitHistoryEntry `json:"entry"`
}

// ListParams filters and paginates the permit listing.
type ListParams struct {
	Actor           Actor
	Status          *enums.PermitStatus
	Stage           *enums.PermitStage
	ApplicationType *enums.ApplicationType
	Limit           int
	Cursor          string
}

// ListResult wraps returned permits and the cursor for the next page.
type ListResult struct {
	Items  []models.Permit `json:"items"`
	Cursor string          `json:"cursor"`
}
