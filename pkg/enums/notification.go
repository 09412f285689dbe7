package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres. Each type
// mirrors an accepted lifecycle transition.
type NotificationType string

const (
	NotificationTypePermitSubmitted    NotificationType = "permit_submitted"
	NotificationTypePermitRecorded     NotificationType = "permit_recorded"
	NotificationTypePermitForwarded    NotificationType = "permit_forwarded"
	NotificationTypePermitReturned     NotificationType = "permit_returned"
	NotificationTypePermitAccepted     NotificationType = "permit_accepted"
	NotificationTypePermitRejected     NotificationType = "permit_rejected"
	NotificationTypeInspectionSchedule NotificationType = "inspection_scheduled"
	NotificationTypeInspectionFindings NotificationType = "inspection_findings"
	NotificationTypeOOPIssued          NotificationType = "oop_issued"
	NotificationTypeOOPReady           NotificationType = "oop_ready"
	NotificationTypePaymentApproved    NotificationType = "payment_approved"
	NotificationTypePermitReleased     NotificationType = "permit_released"
	NotificationTypePermitUndone       NotificationType = "permit_undone"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePermitSubmitted,
	NotificationTypePermitRecorded,
	NotificationTypePermitForwarded,
	NotificationTypePermitReturned,
	NotificationTypePermitAccepted,
	NotificationTypePermitRejected,
	NotificationTypeInspectionSchedule,
	NotificationTypeInspectionFindings,
	NotificationTypeOOPIssued,
	NotificationTypeOOPReady,
	NotificationTypePaymentApproved,
	NotificationTypePermitReleased,
	NotificationTypePermitUndone,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
