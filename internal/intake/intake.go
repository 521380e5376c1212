// Package intake orchestrates report submissions: validate, persist into the
// role-determined partition, match against the opposite pool, and park the
// ranked results in session state for the results view.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/findingthem/findingthem/internal/config"
	"github.com/findingthem/findingthem/internal/database"
	"github.com/findingthem/findingthem/internal/matcher"
)

// ErrMissingPhoto rejects a submission with no photo attached. Checked before
// anything is persisted.
var ErrMissingPhoto = errors.New("no photo attached to report")

// Matcher runs the external matching capability against a corpus.
type Matcher interface {
	Match(ctx context.Context, probePhoto string, corpus []database.Report) ([]matcher.Candidate, error)
}

// Submission carries one report filing from an authenticated account.
type Submission struct {
	AccountID string
	Role      database.Role
	SessionID string

	FullName         string
	ApproximateAge   int
	Gender           string
	LastSeenLocation string
	AddressDetails   string
	ContactInfo      string
	PersonStatus     string
	Photo            string // stored photo asset path
}

// Outcome is the terminal state of a submission. The report is always filed
// when Outcome is returned; MatchingUnavailable means the matcher step failed
// after the report was committed.
type Outcome struct {
	Report              *database.Report
	Matches             []matcher.Candidate
	MatchingUnavailable bool
}

// Orchestrator runs the submission pipeline against injected collaborators.
type Orchestrator struct {
	reports          database.ReportStore
	matcher          Matcher
	results          *ResultHolder
	failOnMatchError bool
}

// NewOrchestrator wires the submission pipeline.
func NewOrchestrator(reports database.ReportStore, m Matcher, results *ResultHolder, cfg *config.IntakeConfig) *Orchestrator {
	o := &Orchestrator{
		reports: reports,
		matcher: m,
		results: results,
	}
	if cfg != nil {
		o.failOnMatchError = cfg.FailOnMatchError
	}
	return o
}

// Submit runs one submission through the pipeline:
// validate -> persist -> match against the opposite partition -> store results.
//
// A police filer's report lands in the police partition and is matched against
// the civilian pool; everyone else files into the civilian partition and is
// matched against the police pool. Once the save commits, a matching failure
// does not unfile the report: the outcome carries MatchingUnavailable and the
// session results reflect that instead of stale data. FailOnMatchError
// restores the strict mode where a matching failure fails the whole request.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.Photo == "" {
		return nil, ErrMissingPhoto
	}

	partition := database.PartitionFor(sub.Role)
	report := &database.Report{
		Partition:        partition,
		FullName:         sub.FullName,
		ApproximateAge:   sub.ApproximateAge,
		Gender:           sub.Gender,
		LastSeenLocation: sub.LastSeenLocation,
		AddressDetails:   sub.AddressDetails,
		ContactInfo:      sub.ContactInfo,
		PersonStatus:     sub.PersonStatus,
		Photo:            sub.Photo,
		AccountID:        sub.AccountID,
	}

	saved, err := o.reports.Save(ctx, report)
	if err != nil {
		return nil, err
	}

	matches, err := o.runMatching(ctx, saved)
	if err != nil {
		if o.failOnMatchError {
			o.results.SetUnavailable(sub.SessionID)
			return nil, fmt.Errorf("matching report %s: %w", saved.ID, err)
		}
		log.Printf("matching unavailable for report %s: %v", saved.ID, err)
		o.results.SetUnavailable(sub.SessionID)
		return &Outcome{Report: saved, MatchingUnavailable: true}, nil
	}

	o.results.Set(sub.SessionID, matches)
	return &Outcome{Report: saved, Matches: matches}, nil
}

// runMatching loads the opposite-partition corpus and invokes the matcher.
func (o *Orchestrator) runMatching(ctx context.Context, report *database.Report) ([]matcher.Candidate, error) {
	corpus, err := o.reports.FindAll(ctx, report.Partition.Opposite())
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	return o.matcher.Match(ctx, report.Photo, corpus)
}

// Results returns the holder so the web layer can serve the results view and
// clear entries on logout.
func (o *Orchestrator) Results() *ResultHolder {
	return o.results
}
