package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bimora/portal/internal/model"
)

type SellerStore struct {
	db *DB
}

func NewSellerStore(db *DB) *SellerStore {
	return &SellerStore{db: db}
}

const sellerColumns = `id, name, description, images, prices, email, phone, whatsapp, discord,
	website, featured, promotion_text, average_rating, total_reviews, created_at`

func scanSeller(row interface{ Scan(...any) error }) (*model.Seller, error) {
	var s model.Seller
	var images, prices string
	err := row.Scan(&s.ID, &s.Name, &s.Description, &images, &prices, &s.Email, &s.Phone,
		&s.WhatsApp, &s.Discord, &s.Website, &s.Featured, &s.PromotionText,
		&s.AverageRating, &s.TotalReviews, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &s.Images); err != nil {
		return nil, fmt.Errorf("decode seller images: %w", err)
	}
	if err := json.Unmarshal([]byte(prices), &s.Prices); err != nil {
		return nil, fmt.Errorf("decode seller prices: %w", err)
	}
	return &s, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (s *SellerStore) List(ctx context.Context) ([]model.Seller, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sellerColumns+` FROM sellers ORDER BY featured DESC, created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sellers := []model.Seller{}
	for rows.Next() {
		seller, err := scanSeller(rows)
		if err != nil {
			return nil, err
		}
		sellers = append(sellers, *seller)
	}
	return sellers, rows.Err()
}

func (s *SellerStore) Get(ctx context.Context, id string) (*model.Seller, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sellerColumns+` FROM sellers WHERE id = $1`, id)
	seller, err := scanSeller(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return seller, err
}

func (s *SellerStore) Create(ctx context.Context, seller *model.Seller) error {
	if seller.Images == nil {
		seller.Images = []string{}
	}
	if seller.Prices == nil {
		seller.Prices = []model.Price{}
	}
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = time.Now().UTC()
	}

	images, err := encodeJSON(seller.Images)
	if err != nil {
		return err
	}
	prices, err := encodeJSON(seller.Prices)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sellers (`+sellerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		seller.ID, seller.Name, seller.Description, images, prices, seller.Email, seller.Phone,
		seller.WhatsApp, seller.Discord, seller.Website, seller.Featured, seller.PromotionText,
		seller.AverageRating, seller.TotalReviews, seller.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

func (s *SellerStore) Update(ctx context.Context, id string, u model.SellerUpdate) (*model.Seller, error) {
	var images, prices *string
	if u.Images != nil {
		v, err := encodeJSON(*u.Images)
		if err != nil {
			return nil, err
		}
		images = &v
	}
	if u.Prices != nil {
		v, err := encodeJSON(*u.Prices)
		if err != nil {
			return nil, err
		}
		prices = &v
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sellers SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			images = COALESCE($4, images),
			prices = COALESCE($5, prices),
			email = COALESCE($6, email),
			phone = COALESCE($7, phone),
			whatsapp = COALESCE($8, whatsapp),
			discord = COALESCE($9, discord),
			website = COALESCE($10, website),
			featured = COALESCE($11, featured),
			promotion_text = COALESCE($12, promotion_text)
		WHERE id = $1`,
		id, u.Name, u.Description, images, prices, u.Email, u.Phone, u.WhatsApp,
		u.Discord, u.Website, u.Featured, u.PromotionText)
	if err != nil {
		return nil, fmt.Errorf("update seller: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.ErrNotFound
	}
	return s.Get(ctx, id)
}

// UpdateRating overwrites the derived rating fields of a seller.
func (s *SellerStore) UpdateRating(ctx context.Context, id string, agg model.RatingAggregate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sellers SET average_rating = $2, total_reviews = $3 WHERE id = $1`,
		id, agg.AverageRating, agg.TotalReviews)
	if err != nil {
		return fmt.Errorf("update seller rating: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes a seller. Its reviews go with it through the foreign key.
func (s *SellerStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sellers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
