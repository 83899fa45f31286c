// Package store persists admins, sellers, reviews and newsletter subscribers
// in PostgreSQL, SQLite or process memory.
package store

import (
	"context"

	"github.com/bimora/portal/internal/crypto"
	"github.com/bimora/portal/internal/model"
)

type Admins interface {
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
	CountByRole(ctx context.Context, role model.Role) (int, error)
	Create(ctx context.Context, a *model.Admin) error
	Update(ctx context.Context, id string, u model.AdminUpdate) (*model.Admin, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Sellers interface {
	List(ctx context.Context) ([]model.Seller, error)
	Get(ctx context.Context, id string) (*model.Seller, error)
	Create(ctx context.Context, s *model.Seller) error
	Update(ctx context.Context, id string, u model.SellerUpdate) (*model.Seller, error)
	UpdateRating(ctx context.Context, id string, agg model.RatingAggregate) error
	Delete(ctx context.Context, id string) (bool, error)
}

type Reviews interface {
	ListBySeller(ctx context.Context, sellerID string) ([]model.Review, error)
	Insert(ctx context.Context, r *model.Review) error
	Delete(ctx context.Context, sellerID, id string) (bool, error)
}

type Subscribers interface {
	Create(ctx context.Context, s *model.Subscriber) error
	List(ctx context.Context) ([]model.Subscriber, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Backend groups the repositories of one persistence backend.
type Backend struct {
	Name        string
	Admins      Admins
	Sellers     Sellers
	Reviews     Reviews
	Subscribers Subscribers

	ping  func(ctx context.Context) error
	close func() error
}

// NewSQLBackend serves every repository from db.
func NewSQLBackend(db *DB, crypter *crypto.Crypter, hmacKey []byte) *Backend {
	return &Backend{
		Name:        string(db.Dialect),
		Admins:      NewAdminStore(db),
		Sellers:     NewSellerStore(db),
		Reviews:     NewReviewStore(db),
		Subscribers: NewSubscriberStore(db, crypter, hmacKey),
		ping:        db.Ping,
		close:       db.Close,
	}
}

// NewMemoryBackend serves every repository from one in-process Memory.
func NewMemoryBackend() *Backend {
	m := NewMemory()
	return &Backend{
		Name:        "memory",
		Admins:      memAdmins{m},
		Sellers:     memSellers{m},
		Reviews:     memReviews{m},
		Subscribers: memSubscribers{m},
	}
}

func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}
