package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityaverma/docuchat/internal/account"
	"github.com/adityaverma/docuchat/internal/auth"
)

type UserHandler struct {
	accounts *account.Service
}

func NewUserHandler(accounts *account.Service) *UserHandler {
	return &UserHandler{accounts: accounts}
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	TeamID   int64  `json:"team_id"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req account.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username, email and password required"})
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), req)
	if errors.Is(err, account.ErrUsernameTaken) || errors.Is(err, account.ErrEmailTaken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		TeamID:   user.TeamID,
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	user, err := h.accounts.GetUserByUsername(r.Context(), id.Username)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		TeamID:   user.TeamID,
	})
}
