package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bimora/portal/internal/auth"
	"github.com/bimora/portal/internal/model"
	"github.com/go-chi/chi/v5"
)

const maxSellerImages = 20

type sellerStore interface {
	List(ctx context.Context) ([]model.Seller, error)
	Get(ctx context.Context, id string) (*model.Seller, error)
	Create(ctx context.Context, s *model.Seller) error
	Update(ctx context.Context, id string, u model.SellerUpdate) (*model.Seller, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SellersHandler serves the seller directory. Writes need an authenticated
// admin; the rating fields are never writable here.
type SellersHandler struct {
	BaseHandler
	sellers sellerStore
}

func NewSellersHandler(logger *slog.Logger, sellers sellerStore) *SellersHandler {
	return &SellersHandler{BaseHandler: BaseHandler{Logger: logger}, sellers: sellers}
}

type sellerInput struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Images        []string      `json:"images"`
	Prices        []model.Price `json:"prices"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	WhatsApp      string        `json:"whatsapp"`
	Discord       string        `json:"discord"`
	Website       string        `json:"website"`
	Featured      bool          `json:"featured"`
	PromotionText string        `json:"promotionText"`
}

func (h *SellersHandler) List(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.sellers.List(r.Context())
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, sellers, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *SellersHandler) Get(w http.ResponseWriter, r *http.Request) {
	seller, err := h.sellers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.domainErrorResponse(w, r, "seller", err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, seller, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *SellersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input sellerInput
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := validateSeller(&input.Name, &input.Images, &input.Prices); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	seller := &model.Seller{
		ID:            auth.NewID(),
		Name:          input.Name,
		Description:   input.Description,
		Images:        input.Images,
		Prices:        input.Prices,
		Email:         input.Email,
		Phone:         input.Phone,
		WhatsApp:      input.WhatsApp,
		Discord:       input.Discord,
		Website:       input.Website,
		Featured:      input.Featured,
		PromotionText: input.PromotionText,
	}
	if err := h.sellers.Create(r.Context(), seller); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if err := h.writeJSON(w, http.StatusCreated, seller, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *SellersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input model.SellerUpdate
	if err := h.readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if err := validateSeller(input.Name, input.Images, input.Prices); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	seller, err := h.sellers.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		h.domainErrorResponse(w, r, "seller", err)
		return
	}
	if err := h.writeJSON(w, http.StatusOK, seller, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// Delete removes a seller together with its reviews.
func (h *SellersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := h.sellers.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	if !ok {
		h.notFoundResponse(w, r, "seller")
		return
	}
	if err := h.writeJSON(w, http.StatusOK, envelope{"success": true}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// validateSeller checks whichever of the fields are present.
func validateSeller(name *string, images *[]string, prices *[]model.Price) error {
	if name != nil && *name == "" {
		return errors.New("name must be provided")
	}
	if images != nil && len(*images) > maxSellerImages {
		return fmt.Errorf("must not have more than %d images", maxSellerImages)
	}
	if prices != nil {
		for i, p := range *prices {
			if strings.TrimSpace(p.Item) == "" {
				return fmt.Errorf("prices[%d].item must be provided", i)
			}
			if p.Price < 0 {
				return fmt.Errorf("prices[%d].price must not be negative", i)
			}
		}
	}
	return nil
}
