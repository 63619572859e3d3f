package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Repository loads credentials for authentication.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the auth repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, is_active, created_at
		FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
