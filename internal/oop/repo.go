package oop

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
)

// Repository exposes persistence helpers for orders of payment.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, oop *models.OrderOfPayment) error
	GetByPermit(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error)
	UpdateVersioned(ctx context.Context, oop *models.OrderOfPayment, expectedVersion int64) (bool, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an OOP repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, oop *models.OrderOfPayment) error {
	return r.db.WithContext(ctx).Create(oop).Error
}

func (r *repositoryImpl) GetByPermit(ctx context.Context, permitID uuid.UUID) (*models.OrderOfPayment, error) {
	var oop models.OrderOfPayment
	if err := r.db.WithContext(ctx).Where("permit_id = ?", permitID).First(&oop).Error; err != nil {
		return nil, err
	}
	return &oop, nil
}

// UpdateVersioned writes the mutable columns guarded by the version token.
// A false return with no error means another writer got there first.
func (r *repositoryImpl) UpdateVersioned(ctx context.Context, oop *models.OrderOfPayment, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderOfPayment{}).
		Where("id = ? AND version = ?", oop.ID, expectedVersion).
		Updates(map[string]any{
			"status":                       oop.Status,
			"items":                        oop.Items,
			"total_amount":                 oop.TotalAmount,
			"chief_rps_signed_at":          oop.ChiefRPSSignedAt,
			"technical_services_signed_at": oop.TechnicalServicesSignedAt,
			"payment_proof_ref":            oop.PaymentProofRef,
			"payment_proof_submitted_at":   oop.PaymentProofSubmittedAt,
			"version":                      expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		oop.Version = expectedVersion + 1
	}
	return result.RowsAffected > 0, nil
}
