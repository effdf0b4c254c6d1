package handlers

import (
	"net/http"

	"github.com/adityaverma/docuchat/internal/account"
	"github.com/adityaverma/docuchat/internal/auth"
)

type AuthHandler struct {
	accounts *account.Service
	issuer   *auth.Issuer
}

func NewAuthHandler(accounts *account.Service, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{accounts: accounts, issuer: issuer}
}

// Token implements the OAuth2 password flow: form-encoded username/password
// in, bearer token out.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password required"})
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), username, password)
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect username or password"})
		return
	}

	token, err := h.issuer.Issue(user.Username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not issue token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
