// Package accounts provisions sign-in credentials for users of the portal.
// The conversion workflow uses it to create client accounts; the sales team's
// own accounts are managed out of band.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesdesk_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "accounts.repository.create"
	opFindByEmail = "accounts.repository.find_by_email"
)

// ErrDuplicateEmail is returned when the email address is already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrNotFound is returned when no account exists for the lookup.
var ErrNotFound = errors.New("account not found")

type Account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, email, name, role, passwordHash string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, role, password_hash, created_at
	`, email, name, role, passwordHash).Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateEmail
		}
		return Account{}, apperr.Internal(fmt.Sprintf("create account failed: %v", err)).WithOp(opCreate)
	}
	return a, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, password_hash, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.Role, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, apperr.Internal(fmt.Sprintf("find account failed: %v", err)).WithOp(opFindByEmail)
	}
	return a, nil
}
