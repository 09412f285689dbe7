package enums

import "fmt"

// PermitAction names a transition a caller can request on a permit.
type PermitAction string

const (
	PermitActionSubmit             PermitAction = "submit"
	PermitActionResubmit           PermitAction = "resubmit"
	PermitActionRecordByClerk      PermitAction = "record_by_clerk"
	PermitActionForwardToChief     PermitAction = "forward_to_chief"
	PermitActionReturnToApplicant  PermitAction = "return_to_applicant"
	PermitActionAccept             PermitAction = "accept"
	PermitActionReject             PermitAction = "reject"
	PermitActionScheduleInspection PermitAction = "schedule_inspection"
	PermitActionSubmitFindings     PermitAction = "submit_findings"
	PermitActionForwardToOfficer   PermitAction = "forward_to_officer"
	PermitActionIssueOOP           PermitAction = "issue_oop"
	PermitActionApprovePayment     PermitAction = "approve_payment"
	PermitActionRelease            PermitAction = "release"
	PermitActionUndo               PermitAction = "undo"
)

var validPermitActions = []PermitAction{
	PermitActionSubmit,
	PermitActionResubmit,
	PermitActionRecordByClerk,
	PermitActionForwardToChief,
	PermitActionReturnToApplicant,
	PermitActionAccept,
	PermitActionReject,
	PermitActionScheduleInspection,
	PermitActionSubmitFindings,
	PermitActionForwardToOfficer,
	PermitActionIssueOOP,
	PermitActionApprovePayment,
	PermitActionRelease,
	PermitActionUndo,
}

// IsValid checks whether the given action matches the canonical enum.
func (p PermitAction) IsValid() bool {
	for _, candidate := range validPermitActions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermitAction converts raw strings into PermitAction.
func ParsePermitAction(value string) (PermitAction, error) {
	for _, candidate := range validPermitActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permit action %q", value)
}
