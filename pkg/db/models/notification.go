package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/types"
)

// Notification stores in-app notification payloads. A row targets either a
// single recipient (the applicant) or a role group (the next reviewers);
// metadata carries weak permit/oop back-references, never ownership.
type Notification struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipientID   *uuid.UUID             `gorm:"column:recipient_id;type:uuid;index" json:"recipient_id,omitempty"`
	RecipientRole *enums.Role            `gorm:"column:recipient_role;type:personnel_role;index" json:"recipient_role,omitempty"`
	Type          enums.NotificationType `gorm:"column:type;type:notification_type;not null" json:"type"`
	Title         string                 `gorm:"column:title;type:text;not null" json:"title"`
	Message       string                 `gorm:"column:message;type:text;not null" json:"message"`
	Metadata      types.JSONMap          `gorm:"column:metadata;type:jsonb;serializer:json" json:"metadata,omitempty"`
	ReadAt        *time.Time             `gorm:"column:read_at;type:timestamptz" json:"read_at,omitempty"`
	CreatedAt     time.Time              `gorm:"column:created_at;type:timestamptz;default:now()" json:"created_at"`
}
