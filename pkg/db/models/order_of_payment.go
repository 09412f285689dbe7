package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
)

// OOPLineItem is one billed fee on an order of payment.
type OOPLineItem struct {
	LegalBasis  string          `json:"legal_basis"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderOfPayment is the billing sub-record owned 1:1 by a permit once it
// reaches the payable stage. The unique index on permit_id enforces single
// creation; the row is cascade-deleted with its permit.
type OrderOfPayment struct {
	ID       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PermitID uuid.UUID       `gorm:"column:permit_id;type:uuid;not null;uniqueIndex:idx_oop_permit" json:"permit_id"`
	Status   enums.OOPStatus `gorm:"column:status;type:oop_status;not null;default:'pending_signature'" json:"status"`
	Items    []OOPLineItem   `gorm:"column:items;type:jsonb;serializer:json" json:"items"`

	// TotalAmount is denormalized for queries only; it is recomputed from
	// Items on every write and never trusted independently.
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2);not null" json:"total_amount"`

	ChiefRPSSignedAt          *time.Time `gorm:"column:chief_rps_signed_at" json:"chief_rps_signed_at,omitempty"`
	TechnicalServicesSignedAt *time.Time `gorm:"column:technical_services_signed_at" json:"technical_services_signed_at,omitempty"`

	PaymentProofRef         *string    `gorm:"column:payment_proof_ref;type:text" json:"payment_proof_ref,omitempty"`
	PaymentProofSubmittedAt *time.Time `gorm:"column:payment_proof_submitted_at" json:"payment_proof_submitted_at,omitempty"`

	Version   int64     `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// ComputeTotal returns the sum of all line item amounts.
func (o *OrderOfPayment) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// SignedAt returns the timestamp stored in the named signature slot.
func (o *OrderOfPayment) SignedAt(signatory enums.Signatory) *time.Time {
	switch signatory {
	case enums.SignatoryChiefRPS:
		return o.ChiefRPSSignedAt
	case enums.SignatoryTechnicalServices:
		return o.TechnicalServicesSignedAt
	default:
		return nil
	}
}

// AllSigned reports whether every required signature slot is filled.
func (o *OrderOfPayment) AllSigned() bool {
	for _, signatory := range enums.RequiredSignatories() {
		if o.SignedAt(signatory) == nil {
			return false
		}
	}
	return true
}
