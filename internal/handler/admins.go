package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bimora/portal/internal/auth"
	appmw "github.com/bimora/portal/internal/middleware"
	"github.com/bimora/portal/internal/model"
	"github.com/go-chi/chi/v5"
)

type adminManager interface {
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	CreateAdmin(ctx context.Context, in auth.NewAdmin) (*model.Admin, error)
	UpdateAdmin(ctx context.Context, id string, p auth.AdminPatch) (*model.Admin, error)
	DeleteAdmin(ctx context.Context, callerID, id string) error
}

// AdminsHandler handles super-admin account management.
type AdminsHandler struct {
	BaseHandler
	admins adminManager
}

func NewAdminsHandler(logger *slog.Logger, admins adminManager) *AdminsHandler {
	return &AdminsHandler{BaseHandler: BaseHandler{Logger: logger}, admins: admins}
}

func (h *AdminsHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListAdmins(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, admins, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *AdminsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input auth.NewAdmin
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	admin, err := h.admins.CreateAdmin(r.Context(), input)
	if err != nil {
		h.domainErrorResponse(w, r, "admin", err)
		return
	}
	if err := h.writeJSON(w, http.StatusCreated, admin, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Update changes an account's username, password or role.
func (h *AdminsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input auth.AdminPatch
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	admin, err := h.admins.UpdateAdmin(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.domainErrorResponse(w, r, "admin", err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, admin, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Delete removes an account. Callers cannot delete themselves.
func (h *AdminsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	callerID := appmw.UserIDFromContext(r.Context())

	if err := h.admins.DeleteAdmin(r.Context(), callerID, id); err != nil {
		h.domainErrorResponse(w, r, "admin", err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, envelope{"success": true}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
