package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// CorpusSizer reports how many chunks the assistant has indexed.
type CorpusSizer interface {
	CorpusSize() int
}

type HealthHandler struct {
	db     *pgxpool.Pool
	redis  *redis.Client
	corpus CorpusSizer
}

func NewHealthHandler(db *pgxpool.Pool, rdb *redis.Client, corpus CorpusSizer) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, corpus: corpus}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports per-dependency health plus whether the assistant has been
// trained. An untrained corpus does not fail readiness; it is a state, not
// an outage.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	body := map[string]interface{}{
		"status": "ok",
		"checks": checks,
	}
	if h.corpus != nil {
		body["indexed_chunks"] = h.corpus.CorpusSize()
		body["trained"] = h.corpus.CorpusSize() > 0
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
