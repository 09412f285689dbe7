package lifecycle

import (
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
)

// authorizationTable maps (stage, action) to the roles allowed to invoke it.
// Stage is the authorization key: two permits with the same status can sit at
// different stages owned by different reviewers. Admin passes every check and
// is not listed per pair.
var authorizationTable = map[ruleKey][]enums.Role{
	{enums.PermitStageReceivingClerk, enums.PermitActionSubmit}:        {enums.RoleApplicant},
	{enums.PermitStageReceivingClerk, enums.PermitActionResubmit}:      {enums.RoleApplicant},
	{enums.PermitStageReceivingClerk, enums.PermitActionRecordByClerk}: {enums.RoleReceivingClerk},

	{enums.PermitStageTechnicalReview, enums.PermitActionForwardToChief}:    {enums.RoleTechnicalStaff},
	{enums.PermitStageTechnicalReview, enums.PermitActionReturnToApplicant}: {enums.RoleTechnicalStaff},

	{enums.PermitStageChiefRPSReview, enums.PermitActionAccept}:             {enums.RoleChiefRPS},
	{enums.PermitStageChiefRPSReview, enums.PermitActionReject}:             {enums.RoleChiefRPS},
	{enums.PermitStageChiefRPSReview, enums.PermitActionScheduleInspection}: {enums.RoleChiefRPS},
	{enums.PermitStageChiefRPSReview, enums.PermitActionReturnToApplicant}:  {enums.RoleChiefRPS},

	{enums.PermitStageForInspection, enums.PermitActionSubmitFindings}: {enums.RoleInspector},

	{enums.PermitStageInspectionCompleted, enums.PermitActionForwardToOfficer}: {enums.RoleChiefTSD, enums.RoleInspector},

	{enums.PermitStageOfficerReview, enums.PermitActionAccept}:            {enums.RolePENRCENROfficer},
	{enums.PermitStageOfficerReview, enums.PermitActionReject}:            {enums.RolePENRCENROfficer},
	{enums.PermitStageOfficerReview, enums.PermitActionReturnToApplicant}: {enums.RolePENRCENROfficer},

	{enums.PermitStageForOOP, enums.PermitActionIssueOOP}: {enums.RoleAccountant, enums.RoleChiefRPS},

	{enums.PermitStageAwaitingPayment, enums.PermitActionApprovePayment}: {enums.RoleAccountant},

	{enums.PermitStageForReleasing, enums.PermitActionRelease}: {enums.RoleReceivingClerk},
}

// undoRoles may compensate the latest transition from any stage, including
// terminal records.
var undoRoles = []enums.Role{enums.RolePENRCENROfficer}

// IsAllowed reports whether any of the actor's roles may invoke the action at
// the permit's current stage. It must be consulted before transition validity
// so a role failure surfaces as Forbidden, not InvalidTransition. A pair the
// table does not list falls through to the stage owners: their structurally
// invalid actions surface as invalid transitions, not role failures.
func IsAllowed(actorRoles []enums.Role, stage enums.PermitStage, action enums.PermitAction) bool {
	if hasRole(actorRoles, enums.RoleAdmin) {
		return true
	}
	if action == enums.PermitActionUndo {
		return intersects(actorRoles, undoRoles)
	}
	allowed, ok := authorizationTable[ruleKey{Stage: stage, Action: action}]
	if !ok {
		return ownsStage(actorRoles, stage)
	}
	return intersects(actorRoles, allowed)
}

// AllowedActions derives the action set the actor may invoke right now. The
// same table drives both enforcement and UI button sets so they cannot
// disagree. Undo is included only when the record has history.
func AllowedActions(actorRoles []enums.Role, status enums.PermitStatus, stage enums.PermitStage, hasHistory bool) []enums.PermitAction {
	var actions []enums.PermitAction
	if !IsTerminal(status, stage) {
		for _, action := range ActionsAt(status, stage) {
			if IsAllowed(actorRoles, stage, action) {
				actions = append(actions, action)
			}
		}
	}
	if hasHistory && IsAllowed(actorRoles, stage, enums.PermitActionUndo) {
		actions = append(actions, enums.PermitActionUndo)
	}
	return actions
}

// ownsStage reports whether any of the roles is listed for at least one
// action at the stage.
func ownsStage(roles []enums.Role, stage enums.PermitStage) bool {
	for key, allowed := range authorizationTable {
		if key.Stage == stage && intersects(roles, allowed) {
			return true
		}
	}
	return false
}

func hasRole(roles []enums.Role, want enums.Role) bool {
	for _, role := range roles {
		if role == want {
			return true
		}
	}
	return false
}

func intersects(a, b []enums.Role) bool {
	for _, role := range a {
		if hasRole(b, role) {
			return true
		}
	}
	return false
}
