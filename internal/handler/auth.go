package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bimora/portal/internal/auth"
	appmw "github.com/bimora/portal/internal/middleware"
	"github.com/bimora/portal/internal/model"
	"github.com/bimora/portal/internal/security"
)

type authenticator interface {
	Login(ctx context.Context, c auth.Credentials) (*auth.Session, error)
}

// AuthHandler handles admin authentication.
type AuthHandler struct {
	BaseHandler
	auth authenticator
}

func NewAuthHandler(logger *slog.Logger, a authenticator) *AuthHandler {
	return &AuthHandler{BaseHandler: BaseHandler{Logger: logger}, auth: a}
}

// Login exchanges credentials for a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input auth.Credentials
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	sess, err := h.auth.Login(r.Context(), input)
	if err != nil {
		h.domainErrorResponse(w, r, "admin", err)
		return
	}

	if sess.Admin.ID == "" {
		h.Logger.Warn("auth: passphrase session issued", "token_id", sess.Admin.TokenID, "client", security.ClientIP(r))
	}

	if err := h.writeJSON(w, http.StatusOK, sess, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Me returns the claims of the caller's token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := appmw.PrincipalFromContext(r.Context())
	if p == nil {
		h.domainErrorResponse(w, r, "admin", model.ErrUnauthorized)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, envelope{"admin": p}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
