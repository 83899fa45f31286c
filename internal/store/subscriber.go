package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bimora/portal/internal/crypto"
	"github.com/bimora/portal/internal/model"
)

// SubscriberStore keeps newsletter addresses encrypted. The HMAC column
// enforces uniqueness without storing the address in clear.
type SubscriberStore struct {
	db      *DB
	crypter *crypto.Crypter
	hmacKey []byte
}

func NewSubscriberStore(db *DB, crypter *crypto.Crypter, hmacKey []byte) *SubscriberStore {
	return &SubscriberStore{db: db, crypter: crypter, hmacKey: hmacKey}
}

// NormalizeEmail is the form addresses are compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *SubscriberStore) Create(ctx context.Context, sub *model.Subscriber) error {
	email := NormalizeEmail(sub.Email)
	ciphertext, err := s.crypter.Encrypt([]byte(email))
	if err != nil {
		return fmt.Errorf("encrypt email: %w", err)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.Email = email

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (id, email_ciphertext, email_hmac, created_at)
		VALUES ($1, $2, $3, $4)`,
		sub.ID, ciphertext, crypto.MAC(s.hmacKey, email), sub.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return model.ErrDuplicateSubscriber
	}
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (s *SubscriberStore) List(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email_ciphertext, created_at FROM newsletter_subscribers ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var sub model.Subscriber
		var ciphertext []byte
		if err := rows.Scan(&sub.ID, &ciphertext, &sub.CreatedAt); err != nil {
			return nil, err
		}
		plaintext, err := s.crypter.Decrypt(ciphertext)
		if err != nil {
			return nil, fmt.Errorf("decrypt subscriber %s: %w", sub.ID, err)
		}
		sub.Email = string(plaintext)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SubscriberStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM newsletter_subscribers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
