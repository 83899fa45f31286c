package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/bimora/portal/internal/auth"
	"github.com/bimora/portal/internal/model"
	"github.com/go-chi/chi/v5"
)

type subscriberStore interface {
	Create(ctx context.Context, s *model.Subscriber) error
	List(ctx context.Context) ([]model.Subscriber, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SubscribersHandler handles the newsletter list.
type SubscribersHandler struct {
	BaseHandler
	subscribers subscriberStore
}

func NewSubscribersHandler(logger *slog.Logger, subscribers subscriberStore) *SubscribersHandler {
	return &SubscribersHandler{BaseHandler: BaseHandler{Logger: logger}, subscribers: subscribers}
}

// Subscribe is public.
func (h *SubscribersHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	email := strings.TrimSpace(input.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email || len(email) > 254 {
		h.badRequestResponse(w, r, errors.New("email must be a valid email address"))
		return
	}

	sub := &model.Subscriber{ID: auth.NewID(), Email: email}
	if err := h.subscribers.Create(r.Context(), sub); err != nil {
		h.domainErrorResponse(w, r, "subscriber", err)
		return
	}
	if err := h.writeJSON(w, http.StatusCreated, sub, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *SubscribersHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscribers.List(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, subs, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *SubscribersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.subscribers.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if !ok {
		h.notFoundResponse(w, r, "subscriber")
		return
	}
	if err := h.writeJSON(w, http.StatusOK, envelope{"success": true}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
