package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bimora/portal/internal/model"
)

type contextKey string

const contextKeyPrincipal contextKey = "principal"

// TokenVerifier turns a raw bearer token into the claims it carries.
type TokenVerifier interface {
	Verify(token string) (*model.Principal, error)
}

// RequireAuthenticated rejects requests without a valid bearer token with
// 401 and stores the verified principal in the request context.
func RequireAuthenticated(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorized.Error())
				return
			}

			p, err := tokens.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, model.ErrUnauthorized.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal, or nil.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(contextKeyPrincipal).(*model.Principal)
	return p
}

// UserIDFromContext returns the authenticated admin's ID. It is empty for
// passphrase sessions.
func UserIDFromContext(ctx context.Context) string {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.ID
	}
	return ""
}

// RoleFromContext returns the authenticated role from the context.
func RoleFromContext(ctx context.Context) model.Role {
	if p := PrincipalFromContext(ctx); p != nil {
		return p.Role
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
