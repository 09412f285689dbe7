package permits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denr-penro-mrq/permittree-backend/internal/lifecycle"
	"github.com/denr-penro-mrq/permittree-backend/internal/notifications"
	"github.com/denr-penro-mrq/permittree-backend/internal/oop"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	pkgerrors "github.com/denr-penro-mrq/permittree-backend/pkg/errors"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
	"github.com/denr-penro-mrq/permittree-backend/pkg/metrics"
	"github.com/denr-penro-mrq/permittree-backend/pkg/pagination"
)

// Service drives the permit lifecycle: create, transition, undo, and reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Permit, error)
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	AllowedActions(ctx context.Context, permitID uuid.UUID, actor Actor) ([]enums.PermitAction, error)
	Get(ctx context.Context, permitID uuid.UUID, actor Actor) (*models.Permit, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// TxRunner runs a function inside one database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	oopRepo oop.Repository
	tx      TxRunner
	emitter *notifications.Emitter
	metrics *metrics.LifecycleMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the permit lifecycle dependencies.
func NewService(repo Repository, oopRepo oop.Repository, tx TxRunner, emitter *notifications.Emitter, lm *metrics.LifecycleMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "permits repository required")
	}
	if oopRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "oop repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{
		repo:    repo,
		oopRepo: oopRepo,
		tx:      tx,
		emitter: emitter,
		metrics: lm,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Permit, error) {
	if !input.ApplicationType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid application type")
	}
	if input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}

	permit := &models.Permit{
		ApplicationType: input.ApplicationType,
		Status:          enums.PermitStatusDraft,
		Stage:           enums.PermitStageReceivingClerk,
		ApplicantID:     input.Actor.ID,
		OwnerFields:     input.OwnerFields,
		Version:         1,
	}
	if err := s.repo.Create(ctx, permit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create permit")
	}
	return permit, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	started := s.now()
	result, err := s.transition(ctx, input)
	s.metrics.ObserveDuration(string(input.Action), s.now().Sub(started))
	if err != nil {
		s.metrics.IncRejected(string(input.Action), string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.IncAccepted(string(input.Action), string(result.Permit.Stage))
	return result, nil
}

func (s *service) transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	if input.PermitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permit id required")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown action")
	}
	if input.Actor.ID == uuid.Nil || len(input.Actor.Roles) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity required")
	}

	permit, err := s.loadPermit(ctx, input.PermitID)
	if err != nil {
		return nil, err
	}
	ctx = s.logCtx(ctx, permit, input)

	// Authorization is checked before transition validity so a role failure
	// never leaks whether the action would have been structurally valid.
	if !lifecycle.IsAllowed(input.Actor.Roles, permit.Stage, input.Action) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not authorized for this action at the current stage")
	}

	var outcome lifecycle.Outcome
	var undoOf *uuid.UUID
	if input.Action == enums.PermitActionUndo {
		latest, err := s.repo.LatestHistory(ctx, permit.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "nothing to undo")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load history")
		}
		outcome = lifecycle.Outcome{Stage: latest.FromStage, Status: latest.FromStatus}
		undoOf = &latest.ID
	} else {
		if permit.IsTerminal() {
			return nil, pkgerrors.New(pkgerrors.CodeTerminalState, "permit accepts no further actions")
		}
		resolved, ok := lifecycle.Resolve(permit.Status, permit.Stage, input.Action)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "action not valid in the current state")
		}
		outcome = resolved
	}

	if err := s.checkPreconditions(ctx, permit, input); err != nil {
		return nil, err
	}

	entry := &models.PermitHistoryEntry{
		PermitID:   permit.ID,
		Action:     input.Action,
		FromStatus: permit.Status,
		FromStage:  permit.Stage,
		ToStatus:   outcome.Status,
		ToStage:    outcome.Stage,
		ActorID:    input.Actor.ID,
		ActorRole:  primaryRole(input.Actor.Roles),
		UndoOf:     undoOf,
	}
	if input.Notes != "" {
		notes := input.Notes
		entry.Notes = &notes
	}

	loadedVersion := permit.Version
	permit.Status = outcome.Status
	permit.Stage = outcome.Stage

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updated, err := repo.UpdateStateVersioned(ctx, permit, loadedVersion)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update permit state")
		}
		if !updated {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "permit was modified concurrently")
		}

		count, err := repo.HistoryCount(ctx, permit.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count history")
		}
		entry.Seq = count + 1
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append history")
		}

		if input.Action == enums.PermitActionIssueOOP {
			if err := s.createOOPInTx(ctx, tx, permit, input.Items); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply transition")
	}

	// The transition is committed; notifications are best-effort from here.
	drafts := lifecycle.DraftsFor(permit.ID, permit.ApplicantID, permit.ApplicationType, input.Action, outcome)
	s.emitter.Emit(ctx, drafts)

	return &TransitionResult{Permit: permit, Entry: entry}, nil
}

func (s *service) checkPreconditions(ctx context.Context, permit *models.Permit, input TransitionInput) error {
	switch input.Action {
	case enums.PermitActionIssueOOP:
		if len(input.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "issue_oop requires line items")
		}
		for _, item := range input.Items {
			if item.Amount.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "line item amount must not be negative")
			}
		}
	case enums.PermitActionApprovePayment:
		existing, err := s.oopRepo.GetByPermit(ctx, permit.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeMissingPrecondition, "no order of payment on record")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order of payment")
		}
		if existing.Status != enums.OOPStatusPaymentProofApproved {
			return pkgerrors.New(pkgerrors.CodeMissingPrecondition, "payment proof not yet approved")
		}
	}
	return nil
}

func (s *service) createOOPInTx(ctx context.Context, tx *gorm.DB, permit *models.Permit, items []models.OOPLineItem) error {
	record := &models.OrderOfPayment{
		PermitID: permit.ID,
		Status:   enums.OOPStatusPendingSignature,
		Items:    items,
		Version:  1,
	}
	record.TotalAmount = record.ComputeTotal()

	if err := s.oopRepo.WithTx(tx).Create(ctx, record); err != nil {
		if db.IsUniqueViolation(err, "idx_oop_permit") || db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeAlreadyExists, "order of payment already exists for permit")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order of payment")
	}
	return nil
}

func (s *service) AllowedActions(ctx context.Context, permitID uuid.UUID, actor Actor) ([]enums.PermitAction, error) {
	if permitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permit id required")
	}
	permit, err := s.loadPermit(ctx, permitID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.HistoryCount(ctx, permitID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count history")
	}
	return lifecycle.AllowedActions(actor.Roles, permit.Status, permit.Stage, count > 0), nil
}

func (s *service) Get(ctx context.Context, permitID uuid.UUID, actor Actor) (*models.Permit, error) {
	if permitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permit id required")
	}
	permit, err := s.repo.GetWithRelations(ctx, permitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "permit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load permit")
	}
	if applicantOnly(actor.Roles) && permit.ApplicantID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "permit belongs to another applicant")
	}
	if permit.OOP != nil {
		permit.OOP.TotalAmount = permit.OOP.ComputeTotal()
	}
	return permit, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listPermitsParams{
		Status:          params.Status,
		Stage:           params.Stage,
		ApplicationType: params.ApplicationType,
		Limit:           params.Limit,
	}
	// Applicants only ever see their own records.
	if applicantOnly(params.Actor.Roles) {
		id := params.Actor.ID
		query.ApplicantID = &id
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list permits")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) loadPermit(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	permit, err := s.repo.Get(ctx, permitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "permit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load permit")
	}
	return permit, nil
}

func (s *service) logCtx(ctx context.Context, permit *models.Permit, input TransitionInput) context.Context {
	if s.logg == nil {
		return ctx
	}
	ctx = s.logg.WithPermitID(ctx, permit.ID.String())
	return s.logg.WithFields(ctx, map[string]any{
		"action": string(input.Action),
		"stage":  string(permit.Stage),
	})
}

func primaryRole(roles []enums.Role) enums.Role {
	if len(roles) == 0 {
		return ""
	}
	return roles[0]
}

func applicantOnly(roles []enums.Role) bool {
	if len(roles) == 0 {
		return false
	}
	for _, role := range roles {
		if role != enums.RoleApplicant {
			return false
		}
	}
	return true
}
