package permits

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/denr-penro-mrq/permittree-backend/internal/oop"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	pkgerrors "github.com/denr-penro-mrq/permittree-backend/pkg/errors"
	"github.com/denr-penro-mrq/permittree-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	permits map[uuid.UUID]*models.Permit
	history map[uuid.UUID][]models.PermitHistoryEntry
	// conflict forces UpdateStateVersioned to report a lost race.
	conflict bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		permits: map[uuid.UUID]*models.Permit{},
		history: map[uuid.UUID][]models.PermitHistoryEntry{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, permit *models.Permit) error {
	permit.ID = uuid.New()
	clone := *permit
	s.permits[permit.ID] = &clone
	return nil
}

func (s *stubRepo) Get(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	stored, ok := s.permits[permitID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubRepo) GetWithRelations(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	permit, err := s.Get(ctx, permitID)
	if err != nil {
		return nil, err
	}
	permit.History = append([]models.PermitHistoryEntry(nil), s.history[permitID]...)
	return permit, nil
}

func (s *stubRepo) List(ctx context.Context, params listPermitsParams) ([]models.Permit, *pagination.Cursor, error) {
	var out []models.Permit
	for _, permit := range s.permits {
		if params.ApplicantID != nil && permit.ApplicantID != *params.ApplicantID {
			continue
		}
		if params.Status != nil && permit.Status != *params.Status {
			continue
		}
		if params.Stage != nil && permit.Stage != *params.Stage {
			continue
		}
		out = append(out, *permit)
	}
	return out, nil, nil
}

func (s *stubRepo) UpdateStateVersioned(ctx context.Context, permit *models.Permit, expectedVersion int64) (bool, error) {
	stored, ok := s.permits[permit.ID]
	if !ok || s.conflict || stored.Version != expectedVersion {
		return false, nil
	}
	stored.Status = permit.Status
	stored.Stage = permit.Stage
	stored.Version = expectedVersion + 1
	permit.Version = stored.Version
	return true, nil
}

func (s *stubRepo) AppendHistory(ctx context.Context, entry *models.PermitHistoryEntry) error {
	entry.ID = uuid.New()
	s.history[entry.PermitID] = append(s.history[entry.PermitID], *entry)
	return nil
}

func (s *stubRepo) LatestHistory(ctx context.Context, permitID uuid.UUID) (*models.PermitHistoryEntry, error) {
	entries := s.history[permitID]
	if len(entries) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	clone := entries[len(entries)-1]
	return &clone, nil
}

func (s *stubRepo) HistoryCount(ctx context.Context, permitID uuid.UUID) (int64, error) {
	return int64(len(s.history[permitID])), nil
}

type stubOOPRepo struct {
	byPermit map[uuid.UUID]*models.OrderOfPayment
}

func newStubOOPRepo() *stubOOPRepo {
	return &stubOOPRepo{byPermit: map[uuid.UUID]*models.OrderOfPayment{}}
}

func (s *stubOOPRepo) WithTx(tx *gorm.DB) oop.Repository { return s }

func (s *stubOOPRepo) Create(ctx context.Context, record *models.OrderOfPayment) error {
	if _, exists := s.byPermit[record.PermitID]; exists {
		return &duplicateErr{}
	}
	record.ID = uuid.New()
	clone := *record
	s.byPermit[record.PermitID] = &clone
	return nil
}

func (s *stubOOPRepo) GetByPermit(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	stored, ok := s.byPermit[permitID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (s *stubOOPRepo) UpdateVersioned(ctx context.Context, record *models.OrderOfPayment, expectedVersion int64) (bool, error) {
	stored, ok := s.byPermit[record.PermitID]
	if !ok || stored.Version != expectedVersion {
		return false, nil
	}
	clone := *record
	clone.Version = expectedVersion + 1
	s.byPermit[record.PermitID] = &clone
	return true, nil
}

type duplicateErr struct{}

func (duplicateErr) Error() string {
	return `duplicate key value violates unique constraint "idx_oop_permit"`
}

type fixture struct {
	svc     Service
	repo    *stubRepo
	oopRepo *stubOOPRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubRepo()
	oopRepo := newStubOOPRepo()
	svc, err := NewService(repo, oopRepo, stubTx{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, oopRepo: oopRepo}
}

func actor(roles ...enums.Role) Actor {
	return Actor{ID: uuid.New(), Roles: roles}
}

func (f *fixture) seedPermit(t *testing.T, status enums.PermitStatus, stage enums.PermitStage) *models.Permit {
	t.Helper()
	permit := &models.Permit{
		ApplicationType: enums.ApplicationTypeChainsawRegistration,
		Status:          status,
		Stage:           stage,
		ApplicantID:     uuid.New(),
		Version:         1,
	}
	if err := f.repo.Create(context.Background(), permit); err != nil {
		t.Fatalf("seed permit: %v", err)
	}
	return permit
}

func (f *fixture) mustTransition(t *testing.T, input TransitionInput) *TransitionResult {
	t.Helper()
	result, err := f.svc.Transition(context.Background(), input)
	if err != nil {
		t.Fatalf("transition %s: %v", input.Action, err)
	}
	return result
}

func TestCreateOpensDraftAtClerkStage(t *testing.T) {
	f := newFixture(t)
	permit, err := f.svc.Create(context.Background(), CreateInput{
		ApplicationType: enums.ApplicationTypeChainsawRegistration,
		Actor:           actor(enums.RoleApplicant),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if permit.Status != enums.PermitStatusDraft {
		t.Fatalf("expected draft, got %s", permit.Status)
	}
	if permit.Stage != enums.PermitStageReceivingClerk {
		t.Fatalf("expected clerk stage, got %s", permit.Stage)
	}
	if permit.Version != 1 {
		t.Fatalf("expected version 1, got %d", permit.Version)
	}
}

func TestTransitionForbiddenBeforeInvalid(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview)

	// forward_to_chief is structurally invalid at chief review AND the
	// inspector may never invoke it there. Authorization must win.
	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionForwardToChief,
		Actor:    actor(enums.RoleInspector),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// Same structurally invalid action by the stage owner: invalid transition.
	_, err = f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionForwardToChief,
		Actor:    actor(enums.RoleChiefRPS),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransitionRejectsReplayedSubmit(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusDraft, enums.PermitStageReceivingClerk)

	first := f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionSubmit,
		Actor:    actor(enums.RoleApplicant),
	})
	if first.Permit.Status != enums.PermitStatusSubmitted {
		t.Fatalf("expected submitted, got %s", first.Permit.Status)
	}

	// Submit fires only from draft. A second submit must not append a
	// duplicate history entry or bump the version again.
	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionSubmit,
		Actor:    actor(enums.RoleApplicant),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	count, _ := f.repo.HistoryCount(context.Background(), permit.ID)
	if count != 1 {
		t.Fatalf("expected a single history entry, got %d", count)
	}
	stored, _ := f.repo.Get(context.Background(), permit.ID)
	if stored.Version != 2 {
		t.Fatalf("expected version 2, got %d", stored.Version)
	}
}

func TestTransitionAcceptAtChiefReview(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview)

	result := f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionAccept,
		Actor:    actor(enums.RoleChiefRPS),
	})

	if result.Permit.Stage != enums.PermitStageForOOP || result.Permit.Status != enums.PermitStatusAccepted {
		t.Fatalf("unexpected outcome %s/%s", result.Permit.Status, result.Permit.Stage)
	}
	if result.Permit.Version != 2 {
		t.Fatalf("expected version bump to 2, got %d", result.Permit.Version)
	}
	if result.Entry.Seq != 1 {
		t.Fatalf("expected first history entry, got seq %d", result.Entry.Seq)
	}
	if result.Entry.FromStage != enums.PermitStageChiefRPSReview || result.Entry.ToStage != enums.PermitStageForOOP {
		t.Fatal("history entry does not record the transition endpoints")
	}
}

func TestHistoryFoldMatchesCurrentState(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusDraft, enums.PermitStageReceivingClerk)

	steps := []struct {
		action enums.PermitAction
		roles  []enums.Role
	}{
		{enums.PermitActionSubmit, []enums.Role{enums.RoleApplicant}},
		{enums.PermitActionRecordByClerk, []enums.Role{enums.RoleReceivingClerk}},
		{enums.PermitActionForwardToChief, []enums.Role{enums.RoleTechnicalStaff}},
		{enums.PermitActionAccept, []enums.Role{enums.RoleChiefRPS}},
	}
	for _, step := range steps {
		f.mustTransition(t, TransitionInput{
			PermitID: permit.ID,
			Action:   step.action,
			Actor:    Actor{ID: uuid.New(), Roles: step.roles},
		})
	}

	stored, err := f.svc.Get(context.Background(), permit.ID, actor(enums.RoleAdmin))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.History) != len(steps) {
		t.Fatalf("expected %d history entries, got %d", len(steps), len(stored.History))
	}

	// Folding history in order must land on the current pair.
	last := stored.History[len(stored.History)-1]
	if last.ToStatus != stored.Status || last.ToStage != stored.Stage {
		t.Fatalf("fold mismatch: history ends at %s/%s, permit is %s/%s",
			last.ToStatus, last.ToStage, stored.Status, stored.Stage)
	}
	for i := 1; i < len(stored.History); i++ {
		prev, curr := stored.History[i-1], stored.History[i]
		if curr.FromStatus != prev.ToStatus || curr.FromStage != prev.ToStage {
			t.Fatalf("history chain broken between seq %d and %d", prev.Seq, curr.Seq)
		}
		if curr.Seq != prev.Seq+1 {
			t.Fatalf("non-contiguous seq %d -> %d", prev.Seq, curr.Seq)
		}
	}
}

func TestTransitionTerminalState(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusRejected, enums.PermitStageChiefRPSReview)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionAccept,
		Actor:    actor(enums.RoleChiefRPS),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeTerminalState {
		t.Fatalf("expected terminal state, got %v", err)
	}
}

func TestUndoRestoresPriorStateAndAppends(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview)

	accepted := f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionAccept,
		Actor:    actor(enums.RoleChiefRPS),
	})

	undone := f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionUndo,
		Actor:    actor(enums.RolePENRCENROfficer),
	})

	if undone.Permit.Status != enums.PermitStatusInProgress || undone.Permit.Stage != enums.PermitStageChiefRPSReview {
		t.Fatalf("undo landed on %s/%s", undone.Permit.Status, undone.Permit.Stage)
	}
	if undone.Entry.UndoOf == nil || *undone.Entry.UndoOf != accepted.Entry.ID {
		t.Fatal("undo entry must reference the compensated entry")
	}

	// The accept entry is never rewritten, only followed.
	stored, err := f.svc.Get(context.Background(), permit.ID, actor(enums.RoleAdmin))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.History) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(stored.History))
	}
	if stored.History[0].Action != enums.PermitActionAccept {
		t.Fatal("original accept entry missing")
	}
	if stored.History[1].Action != enums.PermitActionUndo {
		t.Fatal("undo entry missing")
	}
}

func TestUndoForbiddenForUnprivilegedRoles(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview)
	f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionAccept,
		Actor:    actor(enums.RoleChiefRPS),
	})

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionUndo,
		Actor:    actor(enums.RoleChiefRPS),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUndoWithoutHistory(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusDraft, enums.PermitStageReceivingClerk)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionUndo,
		Actor:    actor(enums.RoleAdmin),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransitionConcurrentModification(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview)

	f.repo.conflict = true
	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionAccept,
		Actor:    actor(enums.RoleChiefRPS),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConcurrentModification {
		t.Fatalf("expected concurrent modification, got %v", err)
	}

	// Loser's failure must leave no history behind.
	count, _ := f.repo.HistoryCount(context.Background(), permit.ID)
	if count != 0 {
		t.Fatalf("expected no history after lost race, got %d", count)
	}
}

func TestIssueOOPCreatesLedger(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusAccepted, enums.PermitStageForOOP)

	f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionIssueOOP,
		Actor:    actor(enums.RoleAccountant),
		Items: []models.OOPLineItem{
			{LegalBasis: "DAO 2000-63", Description: "registration fee", Amount: decimal.NewFromInt(300)},
			{LegalBasis: "DAO 2000-63", Description: "oath fee", Amount: decimal.NewFromInt(200)},
		},
	})

	record, err := f.oopRepo.GetByPermit(context.Background(), permit.ID)
	if err != nil {
		t.Fatalf("oop not created: %v", err)
	}
	if !record.TotalAmount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected total 500, got %s", record.TotalAmount)
	}
	if record.Status != enums.OOPStatusPendingSignature {
		t.Fatalf("expected pending_signature, got %s", record.Status)
	}
}

func TestIssueOOPRequiresItems(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusAccepted, enums.PermitStageForOOP)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionIssueOOP,
		Actor:    actor(enums.RoleAccountant),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApprovePaymentRequiresApprovedProof(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusAccepted, enums.PermitStageAwaitingPayment)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionApprovePayment,
		Actor:    actor(enums.RoleAccountant),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeMissingPrecondition {
		t.Fatalf("expected missing precondition, got %v", err)
	}

	f.oopRepo.byPermit[permit.ID] = &models.OrderOfPayment{
		ID:       uuid.New(),
		PermitID: permit.ID,
		Status:   enums.OOPStatusPaymentProofApproved,
		Version:  1,
	}

	result := f.mustTransition(t, TransitionInput{
		PermitID: permit.ID,
		Action:   enums.PermitActionApprovePayment,
		Actor:    actor(enums.RoleAccountant),
	})
	if result.Permit.Stage != enums.PermitStageForReleasing {
		t.Fatalf("expected for_releasing, got %s", result.Permit.Stage)
	}
}

func TestAllowedActionsForChief(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview)

	actions, err := f.svc.AllowedActions(context.Background(), permit.ID, actor(enums.RoleChiefRPS))
	if err != nil {
		t.Fatalf("allowed actions: %v", err)
	}
	want := map[enums.PermitAction]bool{
		enums.PermitActionAccept:             true,
		enums.PermitActionReject:             true,
		enums.PermitActionScheduleInspection: true,
		enums.PermitActionReturnToApplicant:  true,
	}
	if len(actions) != len(want) {
		t.Fatalf("unexpected actions %v", actions)
	}
	for _, action := range actions {
		if !want[action] {
			t.Fatalf("unexpected action %s", action)
		}
	}
}

func TestGetScopesApplicants(t *testing.T) {
	f := newFixture(t)
	permit := f.seedPermit(t, enums.PermitStatusDraft, enums.PermitStageReceivingClerk)

	_, err := f.svc.Get(context.Background(), permit.ID, actor(enums.RoleApplicant))
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for foreign applicant, got %v", err)
	}

	owner := Actor{ID: permit.ApplicantID, Roles: []enums.Role{enums.RoleApplicant}}
	if _, err := f.svc.Get(context.Background(), permit.ID, owner); err != nil {
		t.Fatalf("owner get: %v", err)
	}
}

func TestListForcesApplicantScope(t *testing.T) {
	f := newFixture(t)
	mine := f.seedPermit(t, enums.PermitStatusDraft, enums.PermitStageReceivingClerk)
	f.seedPermit(t, enums.PermitStatusDraft, enums.PermitStageReceivingClerk)

	result, err := f.svc.List(context.Background(), ListParams{
		Actor: Actor{ID: mine.ApplicantID, Roles: []enums.Role{enums.RoleApplicant}},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].ID != mine.ID {
		t.Fatalf("applicant list leaked foreign permits: %v", result.Items)
	}
}

func TestTransitionUnknownPermit(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Transition(context.Background(), TransitionInput{
		PermitID: uuid.New(),
		Action:   enums.PermitActionSubmit,
		Actor:    actor(enums.RoleApplicant),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
