package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/adityaverma/docuchat/internal/archive"
	"github.com/adityaverma/docuchat/internal/queue"
)

// ArchiveWorker moves staged uploads into the per-team PDF archive.
type ArchiveWorker struct {
	archive *archive.Store
}

func NewArchiveWorker(store *archive.Store) *ArchiveWorker {
	return &ArchiveWorker{archive: store}
}

func (w *ArchiveWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ArchiveStorePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal archive payload: %w", err)
	}

	data, err := os.ReadFile(payload.StagingPath)
	if err != nil {
		return fmt.Errorf("read staged upload: %w", err)
	}

	if err := w.archive.Save(payload.TeamID, payload.Filename, data); err != nil {
		return fmt.Errorf("archive %s for team %d: %w", payload.Filename, payload.TeamID, err)
	}

	if err := os.Remove(payload.StagingPath); err != nil {
		slog.Warn("could not remove staged upload", "path", payload.StagingPath, "error", err)
	}

	slog.Info("archived upload", "team_id", payload.TeamID, "filename", payload.Filename)
	return nil
}
