package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/adityaverma/docuchat/internal/cache"
	"github.com/adityaverma/docuchat/internal/rag"
)

type ChatHandler struct {
	pipeline *rag.Pipeline
	cache    *cache.Cache // nil disables answer caching
}

func NewChatHandler(pipeline *rag.Pipeline, answerCache *cache.Cache) *ChatHandler {
	return &ChatHandler{pipeline: pipeline, cache: answerCache}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

const answerTTL = 5 * time.Minute

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message required"})
		return
	}

	key := cache.AnswerKey(req.Message)
	if h.cache != nil {
		var cached string
		if err := h.cache.Get(r.Context(), key, &cached); err == nil && cached != "" {
			writeJSON(w, http.StatusOK, chatResponse{Reply: cached})
			return
		}
	}

	answer, err := h.pipeline.Query(r.Context(), req.Message)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rag.ErrNotTrained) || errors.Is(err, rag.ErrNoRelevantChunks) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if h.cache != nil {
		// best effort; a cache outage must not fail the request
		_ = h.cache.Set(r.Context(), key, answer, answerTTL)
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: answer})
}
