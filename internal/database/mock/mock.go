// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/findingthem/findingthem/internal/database"
	"github.com/google/uuid"
)

// ReportStore is an in-memory database.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[database.Partition][]database.Report

	// Error injection
	SaveError    error
	FindAllError error
}

// NewReportStore creates an empty in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[database.Partition][]database.Report),
	}
}

// Save validates and stores a report, assigning an ID and timestamp.
func (s *ReportStore) Save(ctx context.Context, report *database.Report) (*database.Report, error) {
	if s.SaveError != nil {
		return nil, s.SaveError
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}

	saved := *report
	saved.ID = uuid.NewString()
	saved.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.reports[saved.Partition] = append(s.reports[saved.Partition], saved)
	s.mu.Unlock()

	return &saved, nil
}

// FindAll returns a copy of the partition's reports.
func (s *ReportStore) FindAll(ctx context.Context, partition database.Partition) ([]database.Report, error) {
	if s.FindAllError != nil {
		return nil, s.FindAllError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]database.Report, len(s.reports[partition]))
	copy(out, s.reports[partition])
	return out, nil
}

// Seed adds a report directly, bypassing validation. Test setup only.
func (s *ReportStore) Seed(report database.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	s.reports[report.Partition] = append(s.reports[report.Partition], report)
}

// AccountStore is an in-memory database.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]database.Account // keyed by ID

	// Error injection
	CreateError error
	FindError   error
}

// NewAccountStore creates an empty in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]database.Account),
	}
}

// Create stores a new account, enforcing username uniqueness.
func (s *AccountStore) Create(ctx context.Context, account *database.Account) (*database.Account, error) {
	if s.CreateError != nil {
		return nil, s.CreateError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == account.Username {
			return nil, database.ErrUsernameTaken
		}
	}
	saved := *account
	saved.ID = uuid.NewString()
	saved.CreatedAt = time.Now().UTC()
	s.accounts[saved.ID] = saved
	return &saved, nil
}

// FindByUsername returns the account with the username, or nil.
func (s *AccountStore) FindByUsername(ctx context.Context, username string) (*database.Account, error) {
	if s.FindError != nil {
		return nil, s.FindError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

// FindByID returns the account with the ID, or nil.
func (s *AccountStore) FindByID(ctx context.Context, id string) (*database.Account, error) {
	if s.FindError != nil {
		return nil, s.FindError
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[id]; ok {
		found := a
		return &found, nil
	}
	return nil, nil
}
