package postgres

import (
	"context"
	"time"

	"github.com/findingthem/findingthem/internal/database"
	"github.com/google/uuid"
)

// ReportRepository provides PostgreSQL-backed report storage.
type ReportRepository struct {
	pool *Pool
}

// NewReportRepository creates a new PostgreSQL report repository.
func NewReportRepository(pool *Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Save validates and inserts a report, assigning a generated ID and creation
// timestamp. Reports are append-only; there is no update path.
func (r *ReportRepository) Save(ctx context.Context, report *database.Report) (*database.Report, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}

	saved := *report
	saved.ID = uuid.NewString()
	saved.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO reports (
			id, partition, full_name, approximate_age, gender,
			last_seen_location, address_details, contact_info,
			person_status, photo, account_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.pool.Exec(ctx, query,
		saved.ID,
		saved.Partition,
		saved.FullName,
		saved.ApproximateAge,
		saved.Gender,
		saved.LastSeenLocation,
		saved.AddressDetails,
		saved.ContactInfo,
		saved.PersonStatus,
		saved.Photo,
		saved.AccountID,
		saved.CreatedAt,
	)
	if err != nil {
		return nil, &database.StorageError{Op: "save report", Err: err}
	}

	return &saved, nil
}

// FindAll returns every report in the partition, unordered. Used to build
// the matching corpus; the pools are expected to stay small enough that a
// full scan is acceptable.
func (r *ReportRepository) FindAll(ctx context.Context, partition database.Partition) ([]database.Report, error) {
	query := `
		SELECT id, partition, full_name, approximate_age, gender,
		       last_seen_location, address_details, contact_info,
		       person_status, photo, account_id, created_at
		FROM reports
		WHERE partition = $1
	`

	rows, err := r.pool.Query(ctx, query, partition)
	if err != nil {
		return nil, &database.StorageError{Op: "find reports", Err: err}
	}
	defer rows.Close()

	var reports []database.Report
	for rows.Next() {
		var rep database.Report
		if err := rows.Scan(
			&rep.ID,
			&rep.Partition,
			&rep.FullName,
			&rep.ApproximateAge,
			&rep.Gender,
			&rep.LastSeenLocation,
			&rep.AddressDetails,
			&rep.ContactInfo,
			&rep.PersonStatus,
			&rep.Photo,
			&rep.AccountID,
			&rep.CreatedAt,
		); err != nil {
			return nil, &database.StorageError{Op: "scan report", Err: err}
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, &database.StorageError{Op: "iterate reports", Err: err}
	}

	return reports, nil
}
