package lifecycle

import (
	"testing"

	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
)

func TestIsAllowedByStage(t *testing.T) {
	cases := []struct {
		name   string
		roles  []enums.Role
		stage  enums.PermitStage
		action enums.PermitAction
		want   bool
	}{
		{"clerk records at clerk stage", []enums.Role{enums.RoleReceivingClerk}, enums.PermitStageReceivingClerk, enums.PermitActionRecordByClerk, true},
		{"applicant cannot record", []enums.Role{enums.RoleApplicant}, enums.PermitStageReceivingClerk, enums.PermitActionRecordByClerk, false},
		{"chief accepts at chief review", []enums.Role{enums.RoleChiefRPS}, enums.PermitStageChiefRPSReview, enums.PermitActionAccept, true},
		{"chief cannot accept at officer review", []enums.Role{enums.RoleChiefRPS}, enums.PermitStageOfficerReview, enums.PermitActionAccept, false},
		{"inspector submits findings", []enums.Role{enums.RoleInspector}, enums.PermitStageForInspection, enums.PermitActionSubmitFindings, true},
		{"accountant approves payment", []enums.Role{enums.RoleAccountant}, enums.PermitStageAwaitingPayment, enums.PermitActionApprovePayment, true},
		{"admin passes everywhere", []enums.Role{enums.RoleAdmin}, enums.PermitStageForReleasing, enums.PermitActionRelease, true},
		{"officer may undo", []enums.Role{enums.RolePENRCENROfficer}, enums.PermitStageCompleted, enums.PermitActionUndo, true},
		{"inspector may not undo", []enums.Role{enums.RoleInspector}, enums.PermitStageCompleted, enums.PermitActionUndo, false},
		{"multi-role intersection", []enums.Role{enums.RoleApplicant, enums.RoleChiefRPS}, enums.PermitStageChiefRPSReview, enums.PermitActionReject, true},
		{"stage owner passes on unlisted action", []enums.Role{enums.RoleChiefRPS}, enums.PermitStageChiefRPSReview, enums.PermitActionForwardToChief, true},
		{"outsider denied on unlisted action", []enums.Role{enums.RoleInspector}, enums.PermitStageChiefRPSReview, enums.PermitActionForwardToChief, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAllowed(tc.roles, tc.stage, tc.action); got != tc.want {
				t.Fatalf("IsAllowed(%v, %s, %s) = %v, want %v", tc.roles, tc.stage, tc.action, got, tc.want)
			}
		})
	}
}

func TestEveryTableEntryHasAuthorization(t *testing.T) {
	for key := range transitionTable {
		roles, ok := authorizationTable[key]
		if !ok {
			t.Errorf("no authorization entry for (%s, %s)", key.Stage, key.Action)
			continue
		}
		if len(roles) == 0 {
			t.Errorf("empty role list for (%s, %s)", key.Stage, key.Action)
		}
	}
}

func TestAllowedActionsMatchesEnforcement(t *testing.T) {
	actions := AllowedActions([]enums.Role{enums.RoleChiefRPS}, enums.PermitStatusInProgress, enums.PermitStageChiefRPSReview, true)
	want := map[enums.PermitAction]bool{
		enums.PermitActionAccept:             true,
		enums.PermitActionReject:             true,
		enums.PermitActionScheduleInspection: true,
		enums.PermitActionReturnToApplicant:  true,
	}
	if len(actions) != len(want) {
		t.Fatalf("unexpected action set %v", actions)
	}
	for _, action := range actions {
		if !want[action] {
			t.Fatalf("unexpected action %s", action)
		}
		if !IsAllowed([]enums.Role{enums.RoleChiefRPS}, enums.PermitStageChiefRPSReview, action) {
			t.Fatalf("AllowedActions returned %s but IsAllowed denies it", action)
		}
	}
}

func TestAllowedActionsTerminalOnlyUndo(t *testing.T) {
	actions := AllowedActions([]enums.Role{enums.RolePENRCENROfficer}, enums.PermitStatusRejected, enums.PermitStageChiefRPSReview, true)
	if len(actions) != 1 || actions[0] != enums.PermitActionUndo {
		t.Fatalf("expected only undo on terminal record, got %v", actions)
	}

	actions = AllowedActions([]enums.Role{enums.RoleChiefRPS}, enums.PermitStatusRejected, enums.PermitStageChiefRPSReview, true)
	if len(actions) != 0 {
		t.Fatalf("chief has no moves on a terminal record, got %v", actions)
	}
}

func TestAllowedActionsFilteredByStatus(t *testing.T) {
	actions := AllowedActions([]enums.Role{enums.RoleApplicant}, enums.PermitStatusSubmitted, enums.PermitStageReceivingClerk, true)
	if len(actions) != 0 {
		t.Fatalf("applicant has no moves on a submitted permit, got %v", actions)
	}

	actions = AllowedActions([]enums.Role{enums.RoleApplicant}, enums.PermitStatusReturned, enums.PermitStageReceivingClerk, true)
	if len(actions) != 1 || actions[0] != enums.PermitActionResubmit {
		t.Fatalf("expected only resubmit on a returned permit, got %v", actions)
	}
}

func TestAllowedActionsNoHistoryNoUndo(t *testing.T) {
	actions := AllowedActions([]enums.Role{enums.RolePENRCENROfficer}, enums.PermitStatusDraft, enums.PermitStageReceivingClerk, false)
	for _, action := range actions {
		if action == enums.PermitActionUndo {
			t.Fatal("undo offered on a record without history")
		}
	}
}
