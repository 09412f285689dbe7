package enums

import "fmt"

// PermitStage is the fine-grained workflow position of a permit. The stage
// identifies which role group currently owns the record; it maps to the
// permit_stage enum in Postgres.
type PermitStage string

const (
	PermitStageReceivingClerk      PermitStage = "for_record_by_receiving_clerk"
	PermitStageTechnicalReview     PermitStage = "technical_staff_review"
	PermitStageChiefRPSReview      PermitStage = "chief_rps_review"
	PermitStageForInspection       PermitStage = "for_inspection"
	PermitStageInspectionCompleted PermitStage = "inspection_completed"
	PermitStageOfficerReview       PermitStage = "penr_cenr_officer_review"
	PermitStageForOOP              PermitStage = "for_oop"
	PermitStageAwaitingPayment     PermitStage = "awaiting_payment"
	PermitStageForReleasing        PermitStage = "for_releasing"
	PermitStageCompleted           PermitStage = "completed"
)

var validPermitStages = []PermitStage{
	PermitStageReceivingClerk,
	PermitStageTechnicalReview,
	PermitStageChiefRPSReview,
	PermitStageForInspection,
	PermitStageInspectionCompleted,
	PermitStageOfficerReview,
	PermitStageForOOP,
	PermitStageAwaitingPayment,
	PermitStageForReleasing,
	PermitStageCompleted,
}

// IsValid checks whether the given stage matches the canonical enum.
func (p PermitStage) IsValid() bool {
	for _, candidate := range validPermitStages {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePermitStage converts raw strings into PermitStage.
func ParsePermitStage(value string) (PermitStage, error) {
	for _, candidate := range validPermitStages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permit stage %q", value)
}
