// Package review accepts seller reviews, keeps one review per author name and
// seller, and maintains each seller's rating aggregate.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bimora/portal/internal/model"
	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5

	maxUserNameLength = 100
	maxCommentLength  = 2000
)

type reviewStore interface {
	ListBySeller(ctx context.Context, sellerID string) ([]model.Review, error)
	Insert(ctx context.Context, r *model.Review) error
	Delete(ctx context.Context, sellerID, id string) (bool, error)
}

type sellerStore interface {
	Get(ctx context.Context, id string) (*model.Seller, error)
	UpdateRating(ctx context.Context, id string, agg model.RatingAggregate) error
}

type Service struct {
	reviews reviewStore
	sellers sellerStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(reviews reviewStore, sellers sellerStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reviews: reviews, sellers: sellers, logger: logger, now: time.Now}
}

// Submission is a review as sent by a visitor.
type Submission struct {
	UserName string `json:"userName"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

func (sub Submission) validate() error {
	name := strings.TrimSpace(sub.UserName)
	switch {
	case name == "":
		return fmt.Errorf("%w: userName is required", model.ErrInvalidInput)
	case utf8.RuneCountInString(name) > maxUserNameLength:
		return fmt.Errorf("%w: userName must not be more than %d characters", model.ErrInvalidInput, maxUserNameLength)
	case sub.Rating < MinRating || sub.Rating > MaxRating:
		return fmt.Errorf("%w: rating must be an integer between %d and %d", model.ErrInvalidInput, MinRating, MaxRating)
	case utf8.RuneCountInString(sub.Comment) > maxCommentLength:
		return fmt.Errorf("%w: comment must not be more than %d characters", model.ErrInvalidInput, maxCommentLength)
	}
	return nil
}

// List returns the reviews of sellerID, newest first.
func (s *Service) List(ctx context.Context, sellerID string) ([]model.Review, error) {
	if _, err := s.sellers.Get(ctx, sellerID); err != nil {
		return nil, err
	}
	return s.reviews.ListBySeller(ctx, sellerID)
}

// Submit stores a review for sellerID and refreshes the seller's aggregate.
// A second review under the same name key fails with
// model.ErrDuplicateReview, whether the pre-check or the storage constraint
// catches it.
func (s *Service) Submit(ctx context.Context, sellerID string, sub Submission) (*model.Review, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}
	if _, err := s.sellers.Get(ctx, sellerID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(sub.UserName)
	key := NameKey(name)

	existing, err := s.reviews.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	for _, r := range existing {
		if r.NameKey == key {
			return nil, model.ErrDuplicateReview
		}
	}

	r := &model.Review{
		ID:        uuid.NewString(),
		SellerID:  sellerID,
		UserName:  name,
		NameKey:   key,
		Rating:    sub.Rating,
		Comment:   strings.TrimSpace(sub.Comment),
		CreatedAt: s.now().UTC(),
	}
	if err := s.reviews.Insert(ctx, r); err != nil {
		if errors.Is(err, model.ErrDuplicateReview) {
			return nil, model.ErrDuplicateReview
		}
		return nil, fmt.Errorf("insert review: %w", err)
	}

	// The review is committed; a failed refresh is repaired by the next
	// mutation on this seller.
	if _, err := s.Recompute(ctx, sellerID); err != nil {
		s.logger.Error("reviews: recompute after insert failed", "seller_id", sellerID, "err", err)
	}
	return r, nil
}

// Remove deletes reviewID from sellerID and refreshes the aggregate.
func (s *Service) Remove(ctx context.Context, sellerID, reviewID string) error {
	ok, err := s.reviews.Delete(ctx, sellerID, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}

	if _, err := s.Recompute(ctx, sellerID); err != nil {
		s.logger.Error("reviews: recompute after delete failed", "seller_id", sellerID, "err", err)
	}
	return nil
}

// Recompute rereads every review of sellerID and writes their aggregate to
// the seller.
func (s *Service) Recompute(ctx context.Context, sellerID string) (model.RatingAggregate, error) {
	reviews, err := s.reviews.ListBySeller(ctx, sellerID)
	if err != nil {
		return model.RatingAggregate{}, fmt.Errorf("list reviews: %w", err)
	}

	agg := Aggregate(reviews)
	if err := s.sellers.UpdateRating(ctx, sellerID, agg); err != nil {
		return model.RatingAggregate{}, err
	}
	return agg, nil
}
