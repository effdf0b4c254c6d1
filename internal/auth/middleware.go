package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/adityaverma/docuchat/internal/models"
)

// Identity is the authenticated caller, resolved once per request.
type Identity struct {
	UserID   int64
	TeamID   int64
	Username string
}

// UserResolver looks up the persisted user behind a token subject.
type UserResolver interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type Middleware struct {
	issuer *Issuer
	users  UserResolver
}

func NewMiddleware(issuer *Issuer, users UserResolver) *Middleware {
	return &Middleware{issuer: issuer, users: users}
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractBearerToken(r)
		if tokenStr == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := m.issuer.Verify(tokenStr)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		user, err := m.users.GetUserByUsername(r.Context(), claims.Sub)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "could not validate credentials")
			return
		}

		ctx := WithIdentity(r.Context(), &Identity{
			UserID:   user.ID,
			TeamID:   user.TeamID,
			Username: user.Username,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
