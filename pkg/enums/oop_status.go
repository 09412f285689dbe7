package enums

import "fmt"

// OOPStatus maps to the oop_status enum in Postgres. The order of payment has
// its own smaller machine: signatures, approval, payment proof review.
type OOPStatus string

const (
	OOPStatusPendingSignature      OOPStatus = "pending_signature"
	OOPStatusPendingApproval       OOPStatus = "pending_approval"
	OOPStatusApproved              OOPStatus = "oop_approved"
	OOPStatusRejected              OOPStatus = "rejected"
	OOPStatusAwaitingPayment       OOPStatus = "awaiting_payment"
	OOPStatusPaymentProofSubmitted OOPStatus = "payment_proof_submitted"
	OOPStatusPaymentProofRejected  OOPStatus = "payment_proof_rejected"
	OOPStatusPaymentProofApproved  OOPStatus = "payment_proof_approved"
)

var validOOPStatuses = []OOPStatus{
	OOPStatusPendingSignature,
	OOPStatusPendingApproval,
	OOPStatusApproved,
	OOPStatusRejected,
	OOPStatusAwaitingPayment,
	OOPStatusPaymentProofSubmitted,
	OOPStatusPaymentProofRejected,
	OOPStatusPaymentProofApproved,
}

// IsValid checks whether the given status matches the canonical enum.
func (o OOPStatus) IsValid() bool {
	for _, candidate := range validOOPStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOOPStatus converts raw strings into OOPStatus.
func ParseOOPStatus(value string) (OOPStatus, error) {
	for _, candidate := range validOOPStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid oop status %q", value)
}

// BillingLocked reports whether the ledger has been finalized for payment:
// items may no longer be mutated.
func (o OOPStatus) BillingLocked() bool {
	switch o {
	case OOPStatusAwaitingPayment,
		OOPStatusPaymentProofSubmitted,
		OOPStatusPaymentProofRejected,
		OOPStatusPaymentProofApproved:
		return true
	default:
		return false
	}
}
