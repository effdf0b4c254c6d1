package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityaverma/docuchat/internal/account"
	"github.com/adityaverma/docuchat/internal/archive"
)

type TeamHandler struct {
	accounts *account.Service
	archive  *archive.Store
}

func NewTeamHandler(accounts *account.Service, archiveStore *archive.Store) *TeamHandler {
	return &TeamHandler{accounts: accounts, archive: archiveStore}
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required"})
		return
	}

	team, err := h.accounts.CreateTeam(r.Context(), req.Name)
	if errors.Is(err, account.ErrTeamNameTaken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) Names(w http.ResponseWriter, r *http.Request) {
	names, err := h.accounts.ListTeamNames(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// PDFs lists a team's archived uploads with base64-encoded contents.
func (h *TeamHandler) PDFs(w http.ResponseWriter, r *http.Request) {
	teamName := r.URL.Query().Get("team_name")
	if teamName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "team_name required"})
		return
	}

	team, err := h.accounts.GetTeamByName(r.Context(), teamName)
	if errors.Is(err, account.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "team not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	files, err := h.archive.List(team.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type pdfEntry struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	out := make([]pdfEntry, 0, len(files))
	for _, f := range files {
		out = append(out, pdfEntry{
			Name:    f.Name,
			Content: base64.StdEncoding.EncodeToString(f.Content),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
