package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/adityaverma/docuchat/internal/auth"
	"github.com/adityaverma/docuchat/internal/queue"
	"github.com/adityaverma/docuchat/internal/rag"
)

type TrainHandler struct {
	pipeline   *rag.Pipeline
	queue      *queue.Client
	stagingDir string
}

func NewTrainHandler(pipeline *rag.Pipeline, queueClient *queue.Client, stagingDir string) *TrainHandler {
	return &TrainHandler{pipeline: pipeline, queue: queueClient, stagingDir: stagingDir}
}

type trainResponse struct {
	Detail  string `json:"detail"`
	Chunks  int    `json:"chunks"`
	Summary string `json:"summary,omitempty"`
}

// Train ingests one uploaded PDF into the shared store and hands the raw
// file off for per-team archival.
func (h *TrainHandler) Train(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only PDF files are allowed"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read upload"})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty upload"})
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), rag.IngestRequest{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rag.ErrNoText) || errors.Is(err, rag.ErrNoChunks) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	h.archiveAsync(r, header.Filename, data)

	writeJSON(w, http.StatusOK, trainResponse{
		Detail:  "file uploaded and chatbot trained successfully",
		Chunks:  result.Chunks,
		Summary: result.Summary,
	})
}

// archiveAsync stages the upload and enqueues the archival task. Archival is
// retention only, so failures are logged rather than failing the request.
func (h *TrainHandler) archiveAsync(r *http.Request, filename string, data []byte) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil || h.queue == nil {
		return
	}

	if err := os.MkdirAll(h.stagingDir, 0o755); err != nil {
		slog.Warn("could not create staging dir", "error", err)
		return
	}

	stagingPath := filepath.Join(h.stagingDir, uuid.NewString()+".pdf")
	if err := os.WriteFile(stagingPath, data, 0o644); err != nil {
		slog.Warn("could not stage upload for archival", "error", err)
		return
	}

	err := h.queue.EnqueueArchiveStore(r.Context(), queue.ArchiveStorePayload{
		TeamID:      id.TeamID,
		Filename:    filename,
		StagingPath: stagingPath,
	})
	if err != nil {
		slog.Warn("could not enqueue archival", "team_id", id.TeamID, "error", err)
		os.Remove(stagingPath)
	}
}
