package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bimora/portal/internal/model"
)

// Memory holds every record in process memory behind one mutex. Uniqueness
// rules match the SQL schema.
type Memory struct {
	mu          sync.Mutex
	admins      map[string]model.Admin
	sellers     map[string]model.Seller
	reviews     map[string]model.Review
	subscribers map[string]model.Subscriber
}

func NewMemory() *Memory {
	return &Memory{
		admins:      make(map[string]model.Admin),
		sellers:     make(map[string]model.Seller),
		reviews:     make(map[string]model.Review),
		subscribers: make(map[string]model.Subscriber),
	}
}

func now() time.Time { return time.Now().UTC() }

type memAdmins struct{ m *Memory }

func (s memAdmins) FindByUsername(_ context.Context, username string) (*model.Admin, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, a := range s.m.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s memAdmins) GetByID(_ context.Context, id string) (*model.Admin, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.admins[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &a, nil
}

func (s memAdmins) List(_ context.Context) ([]model.Admin, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	admins := make([]model.Admin, 0, len(s.m.admins))
	for _, a := range s.m.admins {
		admins = append(admins, a)
	}
	slices.SortFunc(admins, func(a, b model.Admin) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	return admins, nil
}

func (s memAdmins) CountByRole(_ context.Context, role model.Role) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	n := 0
	for _, a := range s.m.admins {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (s memAdmins) usernameTaken(username, exceptID string) bool {
	for id, a := range s.m.admins {
		if a.Username == username && id != exceptID {
			return true
		}
	}
	return false
}

func (s memAdmins) Create(_ context.Context, a *model.Admin) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.usernameTaken(a.Username, "") {
		return model.ErrDuplicateUsername
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	s.m.admins[a.ID] = *a
	return nil
}

func (s memAdmins) Update(_ context.Context, id string, u model.AdminUpdate) (*model.Admin, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	a, ok := s.m.admins[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	if u.Username != nil {
		if s.usernameTaken(*u.Username, id) {
			return nil, model.ErrDuplicateUsername
		}
		a.Username = *u.Username
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.Role != nil {
		a.Role = *u.Role
	}
	s.m.admins[id] = a
	return &a, nil
}

func (s memAdmins) Delete(_ context.Context, id string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	_, ok := s.m.admins[id]
	delete(s.m.admins, id)
	return ok, nil
}

type memSellers struct{ m *Memory }

func cloneSeller(s model.Seller) model.Seller {
	s.Images = slices.Clone(s.Images)
	s.Prices = slices.Clone(s.Prices)
	if s.Images == nil {
		s.Images = []string{}
	}
	if s.Prices == nil {
		s.Prices = []model.Price{}
	}
	return s
}

func (s memSellers) List(_ context.Context) ([]model.Seller, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sellers := make([]model.Seller, 0, len(s.m.sellers))
	for _, seller := range s.m.sellers {
		sellers = append(sellers, cloneSeller(seller))
	}
	slices.SortFunc(sellers, func(a, b model.Seller) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}
			return 1
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return sellers, nil
}

func (s memSellers) Get(_ context.Context, id string) (*model.Seller, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seller, ok := s.m.sellers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	seller = cloneSeller(seller)
	return &seller, nil
}

func (s memSellers) Create(_ context.Context, seller *model.Seller) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = now()
	}
	*seller = cloneSeller(*seller)
	s.m.sellers[seller.ID] = cloneSeller(*seller)
	return nil
}

func (s memSellers) Update(_ context.Context, id string, u model.SellerUpdate) (*model.Seller, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seller, ok := s.m.sellers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	applySellerUpdate(&seller, u)
	s.m.sellers[id] = seller
	out := cloneSeller(seller)
	return &out, nil
}

func applySellerUpdate(seller *model.Seller, u model.SellerUpdate) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&seller.Name, u.Name)
	set(&seller.Description, u.Description)
	set(&seller.Email, u.Email)
	set(&seller.Phone, u.Phone)
	set(&seller.WhatsApp, u.WhatsApp)
	set(&seller.Discord, u.Discord)
	set(&seller.Website, u.Website)
	set(&seller.PromotionText, u.PromotionText)
	if u.Images != nil {
		seller.Images = slices.Clone(*u.Images)
	}
	if u.Prices != nil {
		seller.Prices = slices.Clone(*u.Prices)
	}
	if u.Featured != nil {
		seller.Featured = *u.Featured
	}
}

func (s memSellers) UpdateRating(_ context.Context, id string, agg model.RatingAggregate) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seller, ok := s.m.sellers[id]
	if !ok {
		return model.ErrNotFound
	}
	seller.AverageRating = agg.AverageRating
	seller.TotalReviews = agg.TotalReviews
	s.m.sellers[id] = seller
	return nil
}

func (s memSellers) Delete(_ context.Context, id string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sellers[id]; !ok {
		return false, nil
	}
	delete(s.m.sellers, id)
	for rid, r := range s.m.reviews {
		if r.SellerID == id {
			delete(s.m.reviews, rid)
		}
	}
	return true, nil
}

type memReviews struct{ m *Memory }

func (s memReviews) ListBySeller(_ context.Context, sellerID string) ([]model.Review, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	reviews := []model.Review{}
	for _, r := range s.m.reviews {
		if r.SellerID == sellerID {
			reviews = append(reviews, r)
		}
	}
	slices.SortFunc(reviews, func(a, b model.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return reviews, nil
}

func (s memReviews) Insert(_ context.Context, r *model.Review) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.sellers[r.SellerID]; !ok {
		return model.ErrNotFound
	}
	for _, existing := range s.m.reviews {
		if existing.SellerID == r.SellerID && existing.NameKey == r.NameKey {
			return model.ErrDuplicateReview
		}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now()
	}
	s.m.reviews[r.ID] = *r
	return nil
}

func (s memReviews) Delete(_ context.Context, sellerID, id string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.reviews[id]
	if !ok || r.SellerID != sellerID {
		return false, nil
	}
	delete(s.m.reviews, id)
	return true, nil
}

type memSubscribers struct{ m *Memory }

func (s memSubscribers) Create(_ context.Context, sub *model.Subscriber) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	sub.Email = NormalizeEmail(sub.Email)
	for _, existing := range s.m.subscribers {
		if existing.Email == sub.Email {
			return model.ErrDuplicateSubscriber
		}
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now()
	}
	s.m.subscribers[sub.ID] = *sub
	return nil
}

func (s memSubscribers) List(_ context.Context) ([]model.Subscriber, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	subs := make([]model.Subscriber, 0, len(s.m.subscribers))
	for _, sub := range s.m.subscribers {
		subs = append(subs, sub)
	}
	slices.SortFunc(subs, func(a, b model.Subscriber) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return subs, nil
}

func (s memSubscribers) Delete(_ context.Context, id string) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	_, ok := s.m.subscribers[id]
	delete(s.m.subscribers, id)
	return ok, nil
}
