package notifications

import (
	"context"

	"go.uber.org/multierr"

	"github.com/denr-penro-mrq/permittree-backend/internal/lifecycle"
	"github.com/denr-penro-mrq/permittree-backend/pkg/db/models"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
)

// Emitter persists notification drafts after a transition commits. Persistence
// is best-effort: failures are aggregated and logged, never returned to the
// lifecycle caller, because the committed transition is authoritative.
type Emitter struct {
	repo Repository
	logg *logger.Logger
}

// NewEmitter wires the post-commit notification writer.
func NewEmitter(repo Repository, logg *logger.Logger) *Emitter {
	return &Emitter{repo: repo, logg: logg}
}

// Emit persists each draft as an independent row.
func (e *Emitter) Emit(ctx context.Context, drafts []lifecycle.Draft) {
	if e == nil || e.repo == nil || len(drafts) == 0 {
		return
	}

	var errs error
	persisted := 0
	for _, draft := range drafts {
		row := &models.Notification{
			RecipientID:   draft.RecipientID,
			RecipientRole: draft.RecipientRole,
			Type:          draft.Type,
			Title:         draft.Title,
			Message:       draft.Message,
			Metadata:      draft.Metadata,
		}
		if err := e.repo.Create(ctx, row); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		persisted++
	}

	if errs != nil && e.logg != nil {
		ctx = e.logg.WithFields(ctx, map[string]any{
			"drafts":    len(drafts),
			"persisted": persisted,
		})
		e.logg.Error(ctx, "persisting notifications", errs)
	}
}
