package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bimora/portal/internal/model"
)

type ReviewStore struct {
	db *DB
}

func NewReviewStore(db *DB) *ReviewStore {
	return &ReviewStore{db: db}
}

// ListBySeller returns the reviews of a seller, newest first.
func (s *ReviewStore) ListBySeller(ctx context.Context, sellerID string) ([]model.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seller_id, user_name, user_name_key, rating, comment, created_at
		FROM seller_reviews
		WHERE seller_id = $1
		ORDER BY created_at DESC, id`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var r model.Review
		if err := rows.Scan(&r.ID, &r.SellerID, &r.UserName, &r.NameKey, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// Insert stores r. A second review with the same seller and name key fails
// with model.ErrDuplicateReview, and a review for a missing seller with
// model.ErrNotFound.
func (s *ReviewStore) Insert(ctx context.Context, r *model.Review) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO seller_reviews (id, seller_id, user_name, user_name_key, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.SellerID, r.UserName, r.NameKey, r.Rating, r.Comment, r.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return model.ErrDuplicateReview
	}
	if isForeignKeyViolation(err) {
		return model.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Delete removes the review id if it belongs to sellerID.
func (s *ReviewStore) Delete(ctx context.Context, sellerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM seller_reviews WHERE id = $1 AND seller_id = $2`, id, sellerID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
