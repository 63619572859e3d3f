package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// ErrEmailTaken indicates a unique violation on users.email.
var ErrEmailTaken = errors.New("users: email already registered")

// Repository persists staff accounts.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, email, name, passwordHash string) (User, error)
	Update(ctx context.Context, id int64, name *string, passwordHash *string, isActive *bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the users repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.name, u.is_active, u.created_at, u.updated_at,
		       COALESCE(array_agg(ro.name) FILTER (WHERE ro.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		GROUP BY u.id
		ORDER BY u.email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.Roles); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.email, u.name, u.is_active, u.created_at, u.updated_at,
		       COALESCE(array_agg(ro.name) FILTER (WHERE ro.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles ro ON ro.id = ur.role_id
		WHERE u.id = $1
		GROUP BY u.id`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &u.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) Create(ctx context.Context, email, name, passwordHash string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	now := time.Now().UTC()
	var u User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		RETURNING id, email, name, is_active, created_at, updated_at`,
		email, name, passwordHash, now).
		Scan(&u.ID, &u.Email, &u.Name, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) Update(ctx context.Context, id int64, name *string, passwordHash *string, isActive *bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			password_hash = COALESCE($3, password_hash),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1`, id, name, passwordHash, isActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
