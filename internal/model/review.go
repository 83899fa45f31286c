package model

import "time"

type Review struct {
	ID       string `json:"id"`
	SellerID string `json:"sellerId"`
	UserName string `json:"userName"`
	// NameKey is the normalized UserName used for the one-review-per-name rule.
	NameKey   string    `json:"-"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
