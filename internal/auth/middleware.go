package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/AnshRaj112/brift-backend/internal/logger"
)

// SessionValidator reports whether a token's session is still live.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) (string, bool, error)
}

type claimsKey struct{}

// WithClaims stores verified claims on the context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by Require.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// BearerToken reads the Authorization header, falling back to the token query parameter
// used by websocket clients.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// Authenticator guards routes with bearer tokens.
type Authenticator struct {
	tokens   *TokenManager
	sessions SessionValidator
	log      *logger.Logger
}

// NewAuthenticator builds an Authenticator. sessions may be nil.
func NewAuthenticator(tokens *TokenManager, sessions SessionValidator, log *logger.Logger) *Authenticator {
	if log == nil {
		log = logger.Nop()
	}
	return &Authenticator{tokens: tokens, sessions: sessions, log: log.WithComponent(logger.ComponentAuth)}
}

// Authenticate verifies the request's token and its session.
func (a *Authenticator) Authenticate(r *http.Request) (*Claims, error) {
	raw := BearerToken(r)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	if a.sessions != nil {
		_, ok, err := a.sessions.ValidateSession(r.Context(), claims.ID)
		if err != nil {
			// Session storage outage: accept the signed token.
			a.log.WarnContext(r.Context(), "session lookup failed", logger.FieldUserID, claims.Subject, logger.FieldError, err)
		} else if !ok {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Require rejects requests without a valid token with 401.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.Authenticate(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"success":     false,
				"status_code": http.StatusUnauthorized,
				"message":     "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}
