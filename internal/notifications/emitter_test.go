package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/denr-penro-mrq/permittree-backend/internal/lifecycle"
	"github.com/denr-penro-mrq/permittree-backend/pkg/enums"
	"github.com/denr-penro-mrq/permittree-backend/pkg/logger"
)

func testDrafts() []lifecycle.Draft {
	return lifecycle.DraftsFor(uuid.New(), uuid.New(), enums.ApplicationTypeChainsawRegistration, enums.PermitActionAccept, lifecycle.Outcome{
		Stage:  enums.PermitStageForOOP,
		Status: enums.PermitStatusAccepted,
	})
}

func TestEmitPersistsEachDraft(t *testing.T) {
	repo := &stubRepo{}
	emitter := NewEmitter(repo, logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard}))

	drafts := testDrafts()
	emitter.Emit(context.Background(), drafts)

	if len(repo.created) != len(drafts) {
		t.Fatalf("expected %d rows, got %d", len(drafts), len(repo.created))
	}
	for i, row := range repo.created {
		if row.Type != drafts[i].Type {
			t.Fatalf("row %d type %s, want %s", i, row.Type, drafts[i].Type)
		}
	}
}

func TestEmitNeverFailsCaller(t *testing.T) {
	repo := &stubRepo{createErr: errors.New("db down")}
	emitter := NewEmitter(repo, logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard}))

	// Must not panic or propagate the repo failure.
	emitter.Emit(context.Background(), testDrafts())

	if len(repo.created) != 0 {
		t.Fatalf("expected no rows persisted, got %d", len(repo.created))
	}
}

func TestEmitNoDraftsNoWrites(t *testing.T) {
	repo := &stubRepo{}
	emitter := NewEmitter(repo, logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard}))

	emitter.Emit(context.Background(), nil)

	if len(repo.created) != 0 {
		t.Fatalf("expected no writes, got %d", len(repo.created))
	}
}
