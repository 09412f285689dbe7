package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/types"
)

// Permit is one citizen application moving through the review workflow. The
// version column is the optimistic concurrency token: every accepted
// transition bumps it, and stale writers lose.
type Permit struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationType enums.ApplicationType `gorm:"column:application_type;type:application_type;not null" json:"application_type"`
	Status          enums.PermitStatus    `gorm:"column:status;type:permit_status;not null;default:'draft'" json:"status"`
	Stage           enums.PermitStage     `gorm:"column:stage;type:permit_stage;not null;default:'for_record_by_receiving_clerk'" json:"stage"`
	ApplicantID     uuid.UUID             `gorm:"column:applicant_id;type:uuid;not null" json:"applicant_id"`
	OwnerFields     types.JSONMap         `gorm:"column:owner_fields;type:jsonb;serializer:json" json:"owner_fields"`
	Version         int64                 `gorm:"column:version;not null;default:1" json:"version"`
	History         []PermitHistoryEntry  `gorm:"foreignKey:PermitID;constraint:OnDelete:CASCADE" json:"history,omitempty"`
	OOP             *OrderOfPayment       `gorm:"foreignKey:PermitID;constraint:OnDelete:CASCADE" json:"oop,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the record accepts no further actions besides an
// explicitly authorized undo.
func (p *Permit) IsTerminal() bool {
	return p.Stage == enums.PermitStageCompleted || p.Status == enums.PermitStatusRejected
}
