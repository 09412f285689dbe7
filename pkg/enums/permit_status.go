package enums

import "fmt"

// PermitStatus is the coarse lifecycle bucket shown to the applicant. It maps
// to the permit_status enum in Postgres.
type PermitStatus string

const (
	PermitStatusDraft      PermitStatus = "draft"
	PermitStatusSubmitted  PermitStatus = "submitted"
	PermitStatusInProgress PermitStatus = "in_progress"
	PermitStatusReturned   PermitStatus = "returned"
	PermitStatusAccepted   PermitStatus = "accepted"
	PermitStatusRejected   PermitStatus = "rejected"
	PermitStatusReleased   PermitStatus = "released"
)

var validPermitStatuses = []PermitStatus{
	PermitStatusDraft,
	PermitStatusSubmitted,
	PermitStatusInProgress,
	PermitStatusReturned,
	PermitStatusAccepted,
	PermitStatusRejected,
	PermitStatusReleased,
}

// IsValid checks whether the given status matches the canonical enum.
func (p PermitStatus) IsValid() bool {
	for _, candidate := range validPermitStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermitStatus converts raw strings into PermitStatus.
func ParsePermitStatus(value string) (PermitStatus, error) {
	for _, candidate := range validPermitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permit status %q", value)
}
