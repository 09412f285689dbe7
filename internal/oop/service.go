package oop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denr-penro-mrq/permittree-backend/pkg/db"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	pkgerrors "github.com/denr-penro-mrq/permittree-backend/pkg/errors"
)

// Service owns the order-of-payment sub-ledger: signatures, approval, and
// payment proof review. Every mutation is serialized on the OOP's own version
// token, independently of the owning permit.
type Service interface {
	CreateForPermit(ctx context.Context, permitID uuid.UUID, items []models.OOPLineItem) (*models.OrderOfPayment, error)
	Get(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error)
	UpdateItems(ctx context.Context, permitID uuid.UUID, items []models.OOPLineItem) (*models.OrderOfPayment, error)
	Sign(ctx context.Context, permitID uuid.UUID, signatory enums.Signatory) (*models.OrderOfPayment, error)
	Approve(ctx context.Context, permitID uuid.UUID, approved bool) (*models.OrderOfPayment, error)
	RequestPayment(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error)
	SubmitPaymentProof(ctx context.Context, permitID uuid.UUID, proofRef string) (*models.OrderOfPayment, error)
	ReviewPaymentProof(ctx context.Context, permitID uuid.UUID, approved bool) (*models.OrderOfPayment, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires OOP dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "oop repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) CreateForPermit(ctx context.Context, permitID uuid.UUID, items []models.OOPLineItem) (*models.OrderOfPayment, error) {
	if permitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permit id required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}
	for _, item := range items {
		if item.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item amount must not be negative")
		}
	}

	oop := &models.OrderOfPayment{
		PermitID: permitID,
		Status:   enums.OOPStatusPendingSignature,
		Items:    items,
		Version:  1,
	}
	oop.TotalAmount = oop.ComputeTotal()

	if err := s.repo.Create(ctx, oop); err != nil {
		if db.IsUniqueViolation(err, "idx_oop_permit") || db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyExists, "order of payment already exists for permit")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order of payment")
	}
	return oop, nil
}

func (s *service) Get(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	if permitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permit id required")
	}
	oop, err := s.load(ctx, permitID)
	if err != nil {
		return nil, err
	}
	// Totals are derived, never trusted from storage.
	oop.TotalAmount = oop.ComputeTotal()
	return oop, nil
}

func (s *service) UpdateItems(ctx context.Context, permitID uuid.UUID, items []models.OOPLineItem) (*models.OrderOfPayment, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}
	return s.mutate(ctx, permitID, func(oop *models.OrderOfPayment) error {
		if oop.Status.BillingLocked() {
			return pkgerrors.New(pkgerrors.CodeImmutable, "items are frozen once billing is finalized")
		}
		oop.Items = items
		return nil
	})
}

func (s *service) Sign(ctx context.Context, permitID uuid.UUID, signatory enums.Signatory) (*models.OrderOfPayment, error) {
	if !signatory.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown signatory")
	}
	return s.mutate(ctx, permitID, func(oop *models.OrderOfPayment) error {
		if oop.SignedAt(signatory) != nil {
			return pkgerrors.New(pkgerrors.CodeAlreadySigned, "signature slot already filled")
		}
		if oop.Status != enums.OOPStatusPendingSignature {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order of payment is not awaiting signatures")
		}

		now := s.now()
		switch signatory {
		case enums.SignatoryChiefRPS:
			oop.ChiefRPSSignedAt = &now
		case enums.SignatoryTechnicalServices:
			oop.TechnicalServicesSignedAt = &now
		}

		// Status advances only when every required slot is filled.
		if oop.AllSigned() {
			oop.Status = enums.OOPStatusPendingApproval
		}
		return nil
	})
}

func (s *service) Approve(ctx context.Context, permitID uuid.UUID, approved bool) (*models.OrderOfPayment, error) {
	return s.mutate(ctx, permitID, func(oop *models.OrderOfPayment) error {
		if oop.Status != enums.OOPStatusPendingSignature && oop.Status != enums.OOPStatusPendingApproval {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order of payment is not awaiting approval")
		}
		if !oop.AllSigned() {
			return pkgerrors.New(pkgerrors.CodeMissingPrecondition, "all signatures required before approval")
		}
		if approved {
			oop.Status = enums.OOPStatusApproved
		} else {
			oop.Status = enums.OOPStatusRejected
		}
		return nil
	})
}

func (s *service) RequestPayment(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	return s.mutate(ctx, permitID, func(oop *models.OrderOfPayment) error {
		if oop.Status != enums.OOPStatusApproved {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order of payment is not approved")
		}
		oop.Status = enums.OOPStatusAwaitingPayment
		return nil
	})
}

func (s *service) SubmitPaymentProof(ctx context.Context, permitID uuid.UUID, proofRef string) (*models.OrderOfPayment, error) {
	if proofRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment proof reference required")
	}
	return s.mutate(ctx, permitID, func(oop *models.OrderOfPayment) error {
		if oop.Status != enums.OOPStatusAwaitingPayment && oop.Status != enums.OOPStatusPaymentProofRejected {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order of payment is not awaiting payment")
		}
		now := s.now()
		oop.PaymentProofRef = &proofRef
		oop.PaymentProofSubmittedAt = &now
		oop.Status = enums.OOPStatusPaymentProofSubmitted
		return nil
	})
}

func (s *service) ReviewPaymentProof(ctx context.Context, permitID uuid.UUID, approved bool) (*models.OrderOfPayment, error) {
	return s.mutate(ctx, permitID, func(oop *models.OrderOfPayment) error {
		if oop.Status != enums.OOPStatusPaymentProofSubmitted {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "no payment proof to review")
		}
		if approved {
			oop.Status = enums.OOPStatusPaymentProofApproved
		} else {
			oop.Status = enums.OOPStatusPaymentProofRejected
		}
		return nil
	})
}

func (s *service) load(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	oop, err := s.repo.GetByPermit(ctx, permitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order of payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order of payment")
	}
	return oop, nil
}

// mutate runs a read-check-write cycle against the OOP's version token.
func (s *service) mutate(ctx context.Context, permitID uuid.UUID, apply func(*models.OrderOfPayment) error) (*models.OrderOfPayment, error) {
	if permitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permit id required")
	}

	oop, err := s.load(ctx, permitID)
	if err != nil {
		return nil, err
	}

	loadedVersion := oop.Version
	if err := apply(oop); err != nil {
		return nil, err
	}
	oop.TotalAmount = oop.ComputeTotal()

	updated, err := s.repo.UpdateVersioned(ctx, oop, loadedVersion)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order of payment")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification, "order of payment was modified concurrently")
	}
	return oop, nil
}
