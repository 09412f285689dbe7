package lifecycle

import (
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
)

// Outcome is the target state implied by an accepted action.
type Outcome struct {
	Stage  enums.PermitStage
	Status enums.PermitStatus
}

type ruleKey struct {
	Stage  enums.PermitStage
	Action enums.PermitAction
}

type rule struct {
	From    enums.PermitStatus
	Outcome Outcome
}

// transitionTable is the single source of truth for which action is valid in
// which state and where it lands. Each rule names the status it fires from, so
// replaying an action whose outcome is already applied does not match. Undo is
// intentionally absent: it is resolved from history, not from this table.
var transitionTable = map[ruleKey]rule{
	{enums.PermitStageReceivingClerk, enums.PermitActionSubmit}:        {enums.PermitStatusDraft, Outcome{enums.PermitStageReceivingClerk, enums.PermitStatusSubmitted}},
	{enums.PermitStageReceivingClerk, enums.PermitActionResubmit}:      {enums.PermitStatusReturned, Outcome{enums.PermitStageReceivingClerk, enums.PermitStatusSubmitted}},
	{enums.PermitStageReceivingClerk, enums.PermitActionRecordByClerk}: {enums.PermitStatusSubmitted, Outcome{enums.PermitStageTechnicalReview, enums.PermitStatusInProgress}},

	{enums.PermitStageTechnicalReview, enums.PermitActionForwardToChief}:    {enums.PermitStatusInProgress, Outcome{enums.PermitStageChiefRPSReview, enums.PermitStatusInProgress}},
	{enums.PermitStageTechnicalReview, enums.PermitActionReturnToApplicant}: {enums.PermitStatusInProgress, Outcome{enums.PermitStageReceivingClerk, enums.PermitStatusReturned}},

	{enums.PermitStageChiefRPSReview, enums.PermitActionAccept}:             {enums.PermitStatusInProgress, Outcome{enums.PermitStageForOOP, enums.PermitStatusAccepted}},
	{enums.PermitStageChiefRPSReview, enums.PermitActionReject}:             {enums.PermitStatusInProgress, Outcome{enums.PermitStageChiefRPSReview, enums.PermitStatusRejected}},
	{enums.PermitStageChiefRPSReview, enums.PermitActionScheduleInspection}: {enums.PermitStatusInProgress, Outcome{enums.PermitStageForInspection, enums.PermitStatusInProgress}},
	{enums.PermitStageChiefRPSReview, enums.PermitActionReturnToApplicant}:  {enums.PermitStatusInProgress, Outcome{enums.PermitStageReceivingClerk, enums.PermitStatusReturned}},

	{enums.PermitStageForInspection, enums.PermitActionSubmitFindings}: {enums.PermitStatusInProgress, Outcome{enums.PermitStageInspectionCompleted, enums.PermitStatusInProgress}},

	{enums.PermitStageInspectionCompleted, enums.PermitActionForwardToOfficer}: {enums.PermitStatusInProgress, Outcome{enums.PermitStageOfficerReview, enums.PermitStatusInProgress}},

	{enums.PermitStageOfficerReview, enums.PermitActionAccept}:            {enums.PermitStatusInProgress, Outcome{enums.PermitStageForOOP, enums.PermitStatusAccepted}},
	{enums.PermitStageOfficerReview, enums.PermitActionReject}:            {enums.PermitStatusInProgress, Outcome{enums.PermitStageOfficerReview, enums.PermitStatusRejected}},
	{enums.PermitStageOfficerReview, enums.PermitActionReturnToApplicant}: {enums.PermitStatusInProgress, Outcome{enums.PermitStageReceivingClerk, enums.PermitStatusReturned}},

	{enums.PermitStageForOOP, enums.PermitActionIssueOOP}: {enums.PermitStatusAccepted, Outcome{enums.PermitStageAwaitingPayment, enums.PermitStatusAccepted}},

	{enums.PermitStageAwaitingPayment, enums.PermitActionApprovePayment}: {enums.PermitStatusAccepted, Outcome{enums.PermitStageForReleasing, enums.PermitStatusAccepted}},

	{enums.PermitStageForReleasing, enums.PermitActionRelease}: {enums.PermitStatusAccepted, Outcome{enums.PermitStageCompleted, enums.PermitStatusReleased}},
}

// Resolve looks up the outcome for an action in the given state. The rule must
// exist at the stage and fire from the current status.
func Resolve(status enums.PermitStatus, stage enums.PermitStage, action enums.PermitAction) (Outcome, bool) {
	r, ok := transitionTable[ruleKey{Stage: stage, Action: action}]
	if !ok || r.From != status {
		return Outcome{}, false
	}
	return r.Outcome, true
}

// IsTerminal reports whether the pair accepts no further actions besides undo.
func IsTerminal(status enums.PermitStatus, stage enums.PermitStage) bool {
	return stage == enums.PermitStageCompleted || status == enums.PermitStatusRejected
}

// ActionsAt returns every action the table accepts in the state, in a stable
// order.
func ActionsAt(status enums.PermitStatus, stage enums.PermitStage) []enums.PermitAction {
	var actions []enums.PermitAction
	for _, action := range orderedActions {
		if _, ok := Resolve(status, stage, action); ok {
			actions = append(actions, action)
		}
	}
	return actions
}

var orderedActions = []enums.PermitAction{
	enums.PermitActionSubmit,
	enums.PermitActionResubmit,
	enums.PermitActionRecordByClerk,
	enums.PermitActionForwardToChief,
	enums.PermitActionReturnToApplicant,
	enums.PermitActionAccept,
	enums.PermitActionReject,
	enums.PermitActionScheduleInspection,
	enums.PermitActionSubmitFindings,
	enums.PermitActionForwardToOfficer,
	enums.PermitActionIssueOOP,
	enums.PermitActionApprovePayment,
	enums.PermitActionRelease,
}
