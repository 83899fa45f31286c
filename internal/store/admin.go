package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bimora/portal/internal/model"
)

type AdminStore struct {
	db *DB
}

func NewAdminStore(db *DB) *AdminStore {
	return &AdminStore{db: db}
}

const adminColumns = `id, username, password_hash, role, created_at`

func scanAdmin(row interface{ Scan(...any) error }) (*model.Admin, error) {
	var a model.Admin
	var role string
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = model.Role(role)
	return &a, nil
}

func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE username = $1`, username)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return a, err
}

func (s *AdminStore) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return a, err
}

func (s *AdminStore) List(ctx context.Context) ([]model.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admins ORDER BY created_at, username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := []model.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *a)
	}
	return admins, rows.Err()
}

func (s *AdminStore) CountByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}

func (s *AdminStore) Create(ctx context.Context, a *model.Admin) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Username, a.PasswordHash, string(a.Role), a.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return model.ErrDuplicateUsername
	}
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *AdminStore) Update(ctx context.Context, id string, u model.AdminUpdate) (*model.Admin, error) {
	var role *string
	if u.Role != nil {
		r := string(*u.Role)
		role = &r
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE admins SET
			username = COALESCE($2, username),
			password_hash = COALESCE($3, password_hash),
			role = COALESCE($4, role)
		WHERE id = $1`,
		id, u.Username, u.PasswordHash, role)
	if isUniqueViolation(err) {
		return nil, model.ErrDuplicateUsername
	}
	if err != nil {
		return nil, fmt.Errorf("update admin: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *AdminStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
