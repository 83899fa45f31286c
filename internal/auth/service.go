package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bimora/portal/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 50
)

type adminStore interface {
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
	Update(ctx context.Context, id string, u model.AdminUpdate) (*model.Admin, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByRole(ctx context.Context, role model.Role) (int, error)
}

type Options struct {
	// Passphrase is the shared super-admin password. Empty disables the
	// password-only login path.
	Passphrase string
	BcryptCost int
	Logger     *slog.Logger
}

// Service authenticates admins and manages admin accounts.
type Service struct {
	admins     adminStore
	tokens     *TokenService
	passphrase string
	cost       int
	dummyHash  string
	logger     *slog.Logger
}

func NewService(admins adminStore, tokens *TokenService, opts Options) (*Service, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = DefaultCost
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Compared against when the username is unknown so both failure paths
	// spend one bcrypt comparison.
	dummy, err := HashCost(NewID(), cost)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &Service{
		admins:     admins,
		tokens:     tokens,
		passphrase: opts.Passphrase,
		cost:       cost,
		dummyHash:  dummy,
		logger:     logger,
	}, nil
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Admin     model.Principal `json:"admin"`
}

// Login checks c and issues a session token. A username selects the
// per-account path; a bare password is compared against the shared
// passphrase and yields a super_admin token without an account.
func (s *Service) Login(ctx context.Context, c Credentials) (*Session, error) {
	if c.Password == "" {
		return nil, fmt.Errorf("%w: password is required", model.ErrInvalidInput)
	}

	if c.Username == "" {
		return s.passphraseLogin(c.Password)
	}

	admin, err := s.admins.FindByUsername(ctx, c.Username)
	switch {
	case errors.Is(err, model.ErrNotFound):
		_ = bcrypt.CompareHashAndPassword([]byte(s.dummyHash), []byte(c.Password))
		return nil, model.ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("find admin: %w", err)
	}

	if !Verify(admin.PasswordHash, c.Password) {
		return nil, model.ErrInvalidCredentials
	}

	p := model.Principal{ID: admin.ID, Username: admin.Username, Role: admin.Role}
	return s.issue(p)
}

func (s *Service) passphraseLogin(password string) (*Session, error) {
	if s.passphrase == "" {
		return nil, model.ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.passphrase)) != 1 {
		return nil, model.ErrInvalidCredentials
	}

	return s.issue(model.Principal{Role: model.RoleSuperAdmin})
}

func (s *Service) issue(p model.Principal) (*Session, error) {
	tok, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	p.TokenID = tok.ID
	return &Session{Token: tok.Value, ExpiresAt: tok.ExpiresAt, Admin: p}, nil
}

// ListAdmins returns every admin account.
func (s *Service) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return s.admins.List(ctx)
}

type NewAdmin struct {
	Username string     `json:"username"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

// CreateAdmin validates in, hashes its password and stores the account.
func (s *Service) CreateAdmin(ctx context.Context, in NewAdmin) (*model.Admin, error) {
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = model.RoleAdmin
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, role)
	}

	hash, err := HashCost(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           NewID(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("auth: admin created", "admin_id", admin.ID, "role", admin.Role)
	return admin, nil
}

type AdminPatch struct {
	Username *string     `json:"username"`
	Password *string     `json:"password"`
	Role     *model.Role `json:"role"`
}

// UpdateAdmin applies p to the account id. Demoting the last super_admin is
// refused.
func (s *Service) UpdateAdmin(ctx context.Context, id string, p AdminPatch) (*model.Admin, error) {
	var u model.AdminUpdate

	if p.Username != nil {
		username := strings.TrimSpace(*p.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		u.Username = &username
	}

	if p.Password != nil {
		if err := validatePassword(*p.Password); err != nil {
			return nil, err
		}
		hash, err := HashCost(*p.Password, s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = &hash
	}

	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", model.ErrInvalidInput, *p.Role)
		}
		if *p.Role != model.RoleSuperAdmin {
			if err := s.guardLastSuperAdmin(ctx, id); err != nil {
				return nil, err
			}
		}
		u.Role = p.Role
	}

	admin, err := s.admins.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("auth: admin updated", "admin_id", id)
	return admin, nil
}

// DeleteAdmin removes the account id on behalf of callerID. Removing the
// only super_admin fails with model.ErrLastSuperAdmin, answered with 409
// Conflict, and callers deleting their own account get model.ErrSelfDelete.
// Passphrase sessions have an empty callerID.
func (s *Service) DeleteAdmin(ctx context.Context, callerID, id string) error {
	if callerID != "" && callerID == id {
		return model.ErrSelfDelete
	}
	if err := s.guardLastSuperAdmin(ctx, id); err != nil {
		return err
	}

	ok, err := s.admins.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if !ok {
		return model.ErrNotFound
	}
	s.logger.Info("auth: admin deleted", "admin_id", id)
	return nil
}

// guardLastSuperAdmin returns ErrLastSuperAdmin when id is the only remaining
// super_admin, and ErrNotFound when id does not exist.
func (s *Service) guardLastSuperAdmin(ctx context.Context, id string) error {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if admin.Role != model.RoleSuperAdmin {
		return nil
	}

	n, err := s.admins.CountByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("count super admins: %w", err)
	}
	if n <= 1 {
		return model.ErrLastSuperAdmin
	}
	return nil
}

func validateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("%w: username must not be more than %d bytes long", model.ErrInvalidInput, maxUsernameLength)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", model.ErrInvalidInput, minPasswordLength)
	}
	// bcrypt ignores everything after 72 bytes.
	if len(password) > 72 {
		return fmt.Errorf("%w: password must not be more than 72 bytes long", model.ErrInvalidInput)
	}
	return nil
}
