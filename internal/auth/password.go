package auth

import (
	"context"
	"log/slog"

	"github.com/bimora/portal/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

// Hash returns a bcrypt hash of the password at DefaultCost.
func Hash(password string) (string, error) {
	return HashCost(password, DefaultCost)
}

// HashCost returns a bcrypt hash of the password at the given cost.
func HashCost(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

// Verify reports whether password matches the stored bcrypt hash.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewID generates a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// AdminSeeder is the minimal interface needed for seeding the first admin.
type AdminSeeder interface {
	CountByRole(ctx context.Context, role model.Role) (int, error)
	Create(ctx context.Context, a *model.Admin) error
}

// SeedFirstAdmin creates a super_admin account from the given credentials if
// no super_admin exists yet. Empty credentials disable seeding.
func SeedFirstAdmin(ctx context.Context, admins AdminSeeder, username, password string) {
	if username == "" || password == "" {
		return
	}

	count, err := admins.CountByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		slog.Error("seed: failed to count super admins", "err", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := Hash(password)
	if err != nil {
		slog.Error("seed: failed to hash password", "err", err)
		return
	}

	admin := &model.Admin{
		ID:           NewID(),
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
	}
	if err := admins.Create(ctx, admin); err != nil {
		slog.Error("seed: failed to create admin", "err", err)
		return
	}
	slog.Info("seed: created first super_admin", "username", username)
}
