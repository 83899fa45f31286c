package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bimora/portal/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestTokens(now time.Time) (*TokenService, *time.Time) {
	clock := now
	s := NewTokenService(testSecret, DefaultTokenTTL)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	s, _ := newTestTokens(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		in   model.Principal
	}{
		{"account", model.Principal{ID: "a1", Username: "mod", Role: model.RoleAdmin}},
		{"ticket manager", model.Principal{ID: "a2", Username: "tm", Role: model.RoleTicketManager}},
		{"passphrase", model.Principal{Role: model.RoleSuperAdmin}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := s.Issue(tc.in)
			if err != nil {
				t.Fatalf("Issue failed: %v", err)
			}
			p, err := s.Verify(tok.Value)
			if err != nil {
				t.Fatalf("Verify failed: %v", err)
			}
			if p.ID != tc.in.ID || p.Username != tc.in.Username || p.Role != tc.in.Role {
				t.Errorf("got %+v, want %+v", p, tc.in)
			}
			if p.TokenID == "" || p.TokenID != tok.ID {
				t.Errorf("token id = %q, want %q", p.TokenID, tok.ID)
			}
		})
	}
}

func TestIssueRequiresValidRole(t *testing.T) {
	s, _ := newTestTokens(time.Now())
	for _, role := range []model.Role{"", "owner"} {
		if _, err := s.Issue(model.Principal{ID: "x", Role: role}); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("role %q: expected ErrInvalidInput, got %v", role, err)
		}
	}
}

func TestVerifyExpiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, clock := newTestTokens(start)

	tok, err := s.Issue(model.Principal{ID: "a1", Username: "mod", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !tok.ExpiresAt.Equal(start.Add(7 * 24 * time.Hour)) {
		t.Errorf("expiresAt = %v", tok.ExpiresAt)
	}

	*clock = start.Add(7*24*time.Hour - time.Second)
	if _, err := s.Verify(tok.Value); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	*clock = start.Add(7*24*time.Hour + time.Second)
	if _, err := s.Verify(tok.Value); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	s, clock := newTestTokens(time.Now())
	good, err := s.Issue(model.Principal{ID: "a1", Username: "mod", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	otherKey, _ := NewTokenService([]byte("another-secret-another-secret-xx"), time.Hour).Issue(model.Principal{Role: model.RoleSuperAdmin})

	now := *clock
	forge := func(method jwt.SigningMethod, key any, claims Claims) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return raw
	}
	registered := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	parts := strings.Split(good.Value, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered payload", tampered},
		{"wrong key", otherKey.Value},
		{"unsigned", forge(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{Role: model.RoleSuperAdmin, RegisteredClaims: registered})},
		{"hs512", forge(jwt.SigningMethodHS512, testSecret, Claims{Role: model.RoleSuperAdmin, RegisteredClaims: registered})},
		{"unknown role", forge(jwt.SigningMethodHS256, testSecret, Claims{Role: "owner", RegisteredClaims: registered})},
		{"missing role", forge(jwt.SigningMethodHS256, testSecret, Claims{RegisteredClaims: registered})},
		{"no expiry", forge(jwt.SigningMethodHS256, testSecret, Claims{Role: model.RoleAdmin})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := s.Verify(tc.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
			if p != nil {
				t.Errorf("expected no principal, got %+v", p)
			}
			if !errors.Is(err, model.ErrUnauthorized) {
				t.Error("ErrInvalidToken should match model.ErrUnauthorized")
			}
		})
	}
}
