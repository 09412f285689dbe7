package lifecycle

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/types"
)

// Draft is an unpersisted notification produced by an accepted transition. It
// targets either one user or a role group, never both.
type Draft struct {
	RecipientID   *uuid.UUID
	RecipientRole *enums.Role
	Type          enums.NotificationType
	Title         string
	Message       string
	Metadata      types.JSONMap
}

type recipientRule struct {
	notifyApplicant bool
	applicantType   enums.NotificationType
	groupRole       enums.Role
	groupType       enums.NotificationType
}

// recipientTable says who hears about each accepted action: the applicant,
// the next-stage role group, or both.
var recipientTable = map[enums.PermitAction]recipientRule{
	enums.PermitActionSubmit:   {groupRole: enums.RoleReceivingClerk, groupType: enums.NotificationTypePermitSubmitted},
	enums.PermitActionResubmit: {groupRole: enums.RoleReceivingClerk, groupType: enums.NotificationTypePermitSubmitted},
	enums.PermitActionRecordByClerk: {
		notifyApplicant: true, applicantType: enums.NotificationTypePermitRecorded,
		groupRole: enums.RoleTechnicalStaff, groupType: enums.NotificationTypePermitForwarded,
	},
	enums.PermitActionForwardToChief:    {groupRole: enums.RoleChiefRPS, groupType: enums.NotificationTypePermitForwarded},
	enums.PermitActionReturnToApplicant: {notifyApplicant: true, applicantType: enums.NotificationTypePermitReturned},
	enums.PermitActionAccept: {
		notifyApplicant: true, applicantType: enums.NotificationTypePermitAccepted,
		groupRole: enums.RoleAccountant, groupType: enums.NotificationTypePermitAccepted,
	},
	enums.PermitActionReject: {notifyApplicant: true, applicantType: enums.NotificationTypePermitRejected},
	enums.PermitActionScheduleInspection: {
		notifyApplicant: true, applicantType: enums.NotificationTypeInspectionSchedule,
		groupRole: enums.RoleInspector, groupType: enums.NotificationTypeInspectionSchedule,
	},
	enums.PermitActionSubmitFindings:   {groupRole: enums.RoleChiefTSD, groupType: enums.NotificationTypeInspectionFindings},
	enums.PermitActionForwardToOfficer: {groupRole: enums.RolePENRCENROfficer, groupType: enums.NotificationTypePermitForwarded},
	enums.PermitActionIssueOOP:         {notifyApplicant: true, applicantType: enums.NotificationTypeOOPIssued},
	enums.PermitActionApprovePayment: {
		notifyApplicant: true, applicantType: enums.NotificationTypePaymentApproved,
		groupRole: enums.RoleReceivingClerk, groupType: enums.NotificationTypePermitForwarded,
	},
	enums.PermitActionRelease: {notifyApplicant: true, applicantType: enums.NotificationTypePermitReleased},
	enums.PermitActionUndo:    {notifyApplicant: true, applicantType: enums.NotificationTypePermitUndone},
}

// DraftsFor builds the notification drafts for an accepted transition.
func DraftsFor(permitID, applicantID uuid.UUID, applicationType enums.ApplicationType, action enums.PermitAction, outcome Outcome) []Draft {
	rule, ok := recipientTable[action]
	if !ok {
		return nil
	}

	metadata := types.JSONMap{
		"permit_id": permitID.String(),
		"action":    string(action),
		"stage":     string(outcome.Stage),
		"status":    string(outcome.Status),
	}

	var drafts []Draft
	if rule.notifyApplicant {
		recipient := applicantID
		drafts = append(drafts, Draft{
			RecipientID: &recipient,
			Type:        rule.applicantType,
			Title:       titleFor(rule.applicantType),
			Message:     fmt.Sprintf("Your %s application is now %s.", applicationType, outcome.Status),
			Metadata:    metadata,
		})
	}
	if rule.groupRole != "" {
		role := rule.groupRole
		drafts = append(drafts, Draft{
			RecipientRole: &role,
			Type:          rule.groupType,
			Title:         titleFor(rule.groupType),
			Message:       fmt.Sprintf("A %s application reached %s.", applicationType, outcome.Stage),
			Metadata:      metadata,
		})
	}
	return drafts
}

func titleFor(notificationType enums.NotificationType) string {
	switch notificationType {
	case enums.NotificationTypePermitSubmitted:
		return "Permit application submitted"
	case enums.NotificationTypePermitRecorded:
		return "Permit application recorded"
	case enums.NotificationTypePermitForwarded:
		return "Permit application forwarded"
	case enums.NotificationTypePermitReturned:
		return "Permit application returned"
	case enums.NotificationTypePermitAccepted:
		return "Permit application accepted"
	case enums.NotificationTypePermitRejected:
		return "Permit application rejected"
	case enums.NotificationTypeInspectionSchedule:
		return "Inspection scheduled"
	case enums.NotificationTypeInspectionFindings:
		return "Inspection findings submitted"
	case enums.NotificationTypeOOPIssued:
		return "Order of payment issued"
	case enums.NotificationTypeOOPReady:
		return "Order of payment ready"
	case enums.NotificationTypePaymentApproved:
		return "Payment approved"
	case enums.NotificationTypePermitReleased:
		return "Permit released"
	case enums.NotificationTypePermitUndone:
		return "Permit action undone"
	default:
		return "Permit update"
	}
}
