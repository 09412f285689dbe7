package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, recipient Recipient, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipient Recipient, now time.Time) (int64, error)
}

// Recipient scopes queries to one inbox: the user's direct rows plus rows
// addressed to any of their roles.
type Recipient struct {
	UserID uuid.UUID
	Roles  []enums.Role
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	Recipient  Recipient
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func scopeRecipient(query *gorm.DB, recipient Recipient) *gorm.DB {
	if len(recipient.Roles) == 0 {
		return query.Where("recipient_id = ?", recipient.UserID)
	}
	return query.Where("recipient_id = ? OR recipient_role IN ?", recipient.UserID, recipient.Roles)
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := scopeRecipient(r.db.WithContext(ctx).Model(&models.Notification{}), params.Recipient)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	if len(notifications) > normalized {
		next := notifications[normalized]
		notifications = notifications[:normalized]
		return notifications, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return notifications, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, recipient Recipient, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := scopeRecipient(
		r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND read_at IS NULL", notificationID),
		recipient,
	).UpdateColumn("read_at", now)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := scopeRecipient(
		r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", notificationID),
		recipient,
	).Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, recipient Recipient, now time.Time) (int64, error) {
	result := scopeRecipient(
		r.db.WithContext(ctx).Model(&models.Notification{}).Where("read_at IS NULL"),
		recipient,
	).UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
