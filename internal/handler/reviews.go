package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bimora/portal/internal/model"
	"github.com/bimora/portal/internal/review"
	"github.com/go-chi/chi/v5"
)

type reviewService interface {
	List(ctx context.Context, sellerID string) ([]model.Review, error)
	Submit(ctx context.Context, sellerID string, sub review.Submission) (*model.Review, error)
	Remove(ctx context.Context, sellerID, reviewID string) error
}

type ReviewsHandler struct {
	BaseHandler
	reviews reviewService
}

func NewReviewsHandler(logger *slog.Logger, reviews reviewService) *ReviewsHandler {
	return &ReviewsHandler{BaseHandler: BaseHandler{Logger: logger}, reviews: reviews}
}

func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.domainErrorResponse(w, r, "seller", err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, reviews, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Create accepts a visitor review. The route is expected to sit behind the
// per-seller review limiter.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input review.Submission
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	rev, err := h.reviews.Submit(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.domainErrorResponse(w, r, "seller", err)
		return
	}
	if err := h.writeJSON(w, http.StatusCreated, rev, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.reviews.Remove(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "reviewId"))
	if err != nil {
		h.domainErrorResponse(w, r, "review", err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, envelope{"success": true}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}
