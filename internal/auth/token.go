package auth

import (
	"fmt"
	"time"

	"github.com/bimora/portal/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long an issued session token stays valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned for every verification failure. Callers cannot
// tell a bad signature from an expired token.
var ErrInvalidToken = fmt.Errorf("%w: invalid token", model.ErrUnauthorized)

// Claims is the JWT payload of a session token.
type Claims struct {
	AdminID  string     `json:"id,omitempty"`
	Username string     `json:"username,omitempty"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Token is a signed session token together with its metadata.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for p. The role is required.
func (s *TokenService) Issue(p model.Principal) (Token, error) {
	if !p.Role.Valid() {
		return Token{}, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, p.Role)
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	id := uuid.NewString()

	claims := Claims{
		AdminID:  p.ID,
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ID: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks the algorithm, signature, expiry and role of raw and returns
// the claim set it carries.
func (s *TokenService) Verify(raw string) (*model.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return &model.Principal{
		ID:       claims.AdminID,
		Username: claims.Username,
		Role:     claims.Role,
		TokenID:  claims.RegisteredClaims.ID,
	}, nil
}
