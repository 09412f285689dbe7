package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
)

// PermitHistoryEntry is one accepted transition. Entries are append-only:
// they are never updated or deleted, and folding them in Seq order must
// reproduce the permit's current (status, stage).
type PermitHistoryEntry struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PermitID   uuid.UUID          `gorm:"column:permit_id;type:uuid;not null;index:idx_permit_history_seq,unique,composite:permit_seq" json:"permit_id"`
	Seq        int64              `gorm:"column:seq;not null;index:idx_permit_history_seq,unique,composite:permit_seq" json:"seq"`
	Action     enums.PermitAction `gorm:"column:action;type:permit_action;not null" json:"action"`
	FromStatus enums.PermitStatus `gorm:"column:from_status;type:permit_status;not null" json:"from_status"`
	FromStage  enums.PermitStage  `gorm:"column:from_stage;type:permit_stage;not null" json:"from_stage"`
	ToStatus   enums.PermitStatus `gorm:"column:to_status;type:permit_status;not null" json:"to_status"`
	ToStage    enums.PermitStage  `gorm:"column:to_stage;type:permit_stage;not null" json:"to_stage"`
	ActorID    uuid.UUID          `gorm:"column:actor_id;type:uuid;not null" json:"actor_id"`
	ActorRole  enums.Role         `gorm:"column:actor_role;type:personnel_role;not null" json:"actor_role"`
	Notes      *string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
	UndoOf     *uuid.UUID         `gorm:"column:undo_of;type:uuid" json:"undo_of,omitempty"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
