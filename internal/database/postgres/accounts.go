package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/findingthem/findingthem/internal/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// AccountRepository provides PostgreSQL-backed account storage.
type AccountRepository struct {
	pool *Pool
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(pool *Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account with a generated ID. Returns
// database.ErrUsernameTaken when the username is already registered.
func (r *AccountRepository) Create(ctx context.Context, account *database.Account) (*database.Account, error) {
	saved := *account
	saved.ID = uuid.NewString()
	saved.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO accounts (
			id, username, password_hash, full_name, role,
			email, contact_number, address, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		saved.ID,
		saved.Username,
		saved.PasswordHash,
		saved.FullName,
		saved.Role,
		saved.Email,
		saved.ContactNumber,
		saved.Address,
		saved.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, database.ErrUsernameTaken
		}
		return nil, &database.StorageError{Op: "create account", Err: err}
	}

	return &saved, nil
}

// FindByUsername returns the account with the username, or nil when absent.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*database.Account, error) {
	return r.findOne(ctx, "username = $1", username)
}

// FindByID returns the account with the ID, or nil when absent.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*database.Account, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *AccountRepository) findOne(ctx context.Context, where string, arg any) (*database.Account, error) {
	query := `
		SELECT id, username, password_hash, full_name, role,
		       email, contact_number, address, created_at
		FROM accounts
		WHERE ` + where

	var a database.Account
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.FullName,
		&a.Role,
		&a.Email,
		&a.ContactNumber,
		&a.Address,
		&a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &database.StorageError{Op: "find account", Err: err}
	}

	return &a, nil
}
