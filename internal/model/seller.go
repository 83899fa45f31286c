package model

import "time"

type Price struct {
	Item  string  `json:"item"`
	Price float64 `json:"price"`
}

type Seller struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Prices        []Price   `json:"prices"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	WhatsApp      string    `json:"whatsapp,omitempty"`
	Discord       string    `json:"discord,omitempty"`
	Website       string    `json:"website,omitempty"`
	Featured      bool      `json:"featured"`
	PromotionText string    `json:"promotionText,omitempty"`
	AverageRating float64   `json:"averageRating"`
	TotalReviews  int       `json:"totalReviews"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SellerUpdate holds the client-writable fields of a partial seller update.
// The rating aggregate is not part of it.
type SellerUpdate struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Images        *[]string `json:"images"`
	Prices        *[]Price  `json:"prices"`
	Email         *string   `json:"email"`
	Phone         *string   `json:"phone"`
	WhatsApp      *string   `json:"whatsapp"`
	Discord       *string   `json:"discord"`
	Website       *string   `json:"website"`
	Featured      *bool     `json:"featured"`
	PromotionText *string   `json:"promotionText"`
}

// RatingAggregate is the derived rating summary stored on a seller.
type RatingAggregate struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}
