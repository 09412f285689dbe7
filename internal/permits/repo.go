package permits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/pagination"
)

// Repository exposes persistence helpers for permits and their history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, permit *models.Permit) error
	Get(ctx context.Context, permitID uuid.UUID) (*models.Permit, error)
	GetWithRelations(ctx context.Context, permitID uuid.UUID) (*models.Permit, error)
	List(ctx context.Context, params listPermitsParams) ([]models.Permit, *pagination.Cursor, error)
	UpdateStateVersioned(ctx context.Context, permit *models.Permit, expectedVersion int64) (bool, error)
	AppendHistory(ctx context.Context, entry *models.PermitHistoryEntry) error
	LatestHistory(ctx context.Context, permitID uuid.UUID) (*models.PermitHistoryEntry, error)
	HistoryCount(ctx context.Context, permitID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a permits repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listPermitsParams struct {
	ApplicantID     *uuid.UUID
	Status          *enums.PermitStatus
	Stage           *enums.PermitStage
	ApplicationType *enums.ApplicationType
	Limit           int
	Cursor          *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, permit *models.Permit) error {
	return r.db.WithContext(ctx).Create(permit).Error
}

func (r *repositoryImpl) Get(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	var permit models.Permit
	if err := r.db.WithContext(ctx).First(&permit, "id = ?", permitID).Error; err != nil {
		return nil, err
	}
	return &permit, nil
}

func (r *repositoryImpl) GetWithRelations(ctx context.Context, permitID uuid.UUID) (*models.Permit, error) {
	var permit models.Permit
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("OOP").
		First(&permit, "id = ?", permitID).Error
	if err != nil {
		return nil, err
	}
	return &permit, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listPermitsParams) ([]models.Permit, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Permit{})
	if params.ApplicantID != nil {
		query = query.Where("applicant_id = ?", *params.ApplicantID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Stage != nil {
		query = query.Where("stage = ?", *params.Stage)
	}
	if params.ApplicationType != nil {
		query = query.Where("application_type = ?", *params.ApplicationType)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var permits []models.Permit
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&permits).Error; err != nil {
		return nil, nil, err
	}

	if len(permits) > normalized {
		next := permits[normalized]
		permits = permits[:normalized]
		return permits, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return permits, nil, nil
}

// UpdateStateVersioned moves the permit to a new (status, stage) guarded by
// the version token. A false return with no error means a concurrent writer
// committed first.
func (r *repositoryImpl) UpdateStateVersioned(ctx context.Context, permit *models.Permit, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Permit{}).
		Where("id = ? AND version = ?", permit.ID, expectedVersion).
		Updates(map[string]any{
			"status":  permit.Status,
			"stage":   permit.Stage,
			"version": expectedVersion + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		permit.Version = expectedVersion + 1
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) AppendHistory(ctx context.Context, entry *models.PermitHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) LatestHistory(ctx context.Context, permitID uuid.UUID) (*models.PermitHistoryEntry, error) {
	var entry models.PermitHistoryEntry
	err := r.db.WithContext(ctx).
		Where("permit_id = ?", permitID).
		Order("seq DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) HistoryCount(ctx context.Context, permitID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PermitHistoryEntry{}).
		Where("permit_id = ?", permitID).
		Count(&count).Error
	return count, err
}
