// Package database defines the report and account storage contracts plus the
// domain types shared across the service. Concrete PostgreSQL repositories
// live in the postgres subpackage; in-memory fakes for tests in mock.
package database

import "context"

// ReportStore persists filed reports into their partitioned pools.
type ReportStore interface {
	// Save validates and persists a report, filling in a generated ID and
	// creation timestamp. Returns *ValidationError for bad input and
	// *StorageError when persistence fails.
	Save(ctx context.Context, report *Report) (*Report, error)

	// FindAll returns every report in the partition, unordered. The corpus
	// is expected to stay small; there is deliberately no pagination.
	FindAll(ctx context.Context, partition Partition) ([]Report, error)
}

// AccountStore persists registered accounts.
type AccountStore interface {
	// Create persists a new account with a generated ID. Returns
	// ErrUsernameTaken when the username already exists.
	Create(ctx context.Context, account *Account) (*Account, error)

	// FindByUsername returns the account or nil when absent.
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// FindByID returns the account or nil when absent.
	FindByID(ctx context.Context, id string) (*Account, error)
}
