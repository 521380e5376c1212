package intake

import (
	"context"
	"errors"
	"testing"

	"github.com/findingthem/findingthem/internal/config"
	"github.com/findingthem/findingthem/internal/database"
	"github.com/findingthem/findingthem/internal/database/mock"
	"github.com/findingthem/findingthem/internal/matcher"
)

// fakeMatcher records its invocation and returns canned results.
type fakeMatcher struct {
	results []matcher.Candidate
	err     error

	called    bool
	gotProbe  string
	gotCorpus []database.Report
}

func (f *fakeMatcher) Match(ctx context.Context, probePhoto string, corpus []database.Report) ([]matcher.Candidate, error) {
	f.called = true
	f.gotProbe = probePhoto
	f.gotCorpus = corpus
	if f.err != nil {
		return nil, f.err
	}
	if f.results == nil {
		return []matcher.Candidate{}, nil
	}
	return f.results, nil
}

func civilianSubmission() Submission {
	return Submission{
		AccountID:        "acc-1",
		Role:             database.RoleIndividual,
		SessionID:        "sess-1",
		FullName:         "A Doe",
		ApproximateAge:   30,
		Gender:           "F",
		LastSeenLocation: "X",
		AddressDetails:   "Y",
		ContactInfo:      "Z",
		PersonStatus:     "missing",
		Photo:            "uploads/p1.jpg",
	}
}

func newTestOrchestrator(store *mock.ReportStore, m Matcher) *Orchestrator {
	return NewOrchestrator(store, m, NewResultHolder(), &config.IntakeConfig{})
}

func TestSubmit_CivilianWithEmptyPoliceCorpus(t *testing.T) {
	store := mock.NewReportStore()
	fm := &fakeMatcher{}
	o := newTestOrchestrator(store, fm)

	outcome, err := o.Submit(context.Background(), civilianSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if outcome.Report.ID == "" {
		t.Error("expected generated report ID")
	}
	if outcome.Report.CreatedAt.IsZero() {
		t.Error("expected creation timestamp")
	}
	if outcome.Report.Partition != database.PartitionCivilian {
		t.Errorf("Partition = %s, want civilian", outcome.Report.Partition)
	}
	if len(outcome.Matches) != 0 {
		t.Errorf("expected no matches, got %d", len(outcome.Matches))
	}
	if outcome.MatchingUnavailable {
		t.Error("matching should not be unavailable")
	}

	// The report is retrievable from its partition immediately after Submit.
	civilian, _ := store.FindAll(context.Background(), database.PartitionCivilian)
	if len(civilian) != 1 {
		t.Fatalf("expected 1 civilian report, got %d", len(civilian))
	}
	police, _ := store.FindAll(context.Background(), database.PartitionPolice)
	if len(police) != 0 {
		t.Errorf("civilian report must never land in the police partition, found %d", len(police))
	}

	// Session results exist and are empty.
	results, unavailable := o.Results().Get("sess-1")
	if len(results) != 0 || unavailable {
		t.Errorf("expected empty available results, got %d (unavailable=%v)", len(results), unavailable)
	}
}

func TestSubmit_PoliceMatchesAgainstCivilianCorpus(t *testing.T) {
	store := mock.NewReportStore()
	store.Seed(database.Report{
		Partition: database.PartitionCivilian,
		FullName:  "C Poe", ApproximateAge: 12, Gender: "M",
		LastSeenLocation: "L", AddressDetails: "A", ContactInfo: "C",
		PersonStatus: "missing", Photo: "uploads/c.jpg", AccountID: "acc-9",
	})
	fm := &fakeMatcher{}
	o := newTestOrchestrator(store, fm)

	sub := civilianSubmission()
	sub.Role = database.RolePolice
	sub.PersonStatus = "found"

	outcome, err := o.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if outcome.Report.Partition != database.PartitionPolice {
		t.Errorf("Partition = %s, want police", outcome.Report.Partition)
	}
	if !fm.called {
		t.Fatal("matcher was not invoked")
	}
	if fm.gotProbe != "uploads/p1.jpg" {
		t.Errorf("probe = %s, want uploads/p1.jpg", fm.gotProbe)
	}
	if len(fm.gotCorpus) != 1 || fm.gotCorpus[0].FullName != "C Poe" {
		t.Errorf("expected civilian corpus with C Poe, got %+v", fm.gotCorpus)
	}
}

func TestSubmit_NGOFilesIntoCivilianPartition(t *testing.T) {
	store := mock.NewReportStore()
	o := newTestOrchestrator(store, &fakeMatcher{})

	sub := civilianSubmission()
	sub.Role = database.RoleNGO

	outcome, err := o.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if outcome.Report.Partition != database.PartitionCivilian {
		t.Errorf("Partition = %s, want civilian", outcome.Report.Partition)
	}
}

func TestSubmit_MatcherResultsReachSessionUnmodified(t *testing.T) {
	store := mock.NewReportStore()
	store.Seed(database.Report{
		ID: "rep-police", Partition: database.PartitionPolice,
		FullName: "B Roe", ApproximateAge: 41, Gender: "M",
		LastSeenLocation: "L", AddressDetails: "A", ContactInfo: "C",
		PersonStatus: "found", Photo: "uploads/b.jpg", AccountID: "acc-2",
	})
	fm := &fakeMatcher{results: []matcher.Candidate{
		{ReportID: "rep-police", FullName: "B Roe", ApproximateAge: 41, Photo: "uploads/b.jpg", Confidence: 0.92},
	}}
	o := newTestOrchestrator(store, fm)

	outcome, err := o.Submit(context.Background(), civilianSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(outcome.Matches) != 1 || outcome.Matches[0].FullName != "B Roe" {
		t.Fatalf("unexpected matches: %+v", outcome.Matches)
	}

	results, unavailable := o.Results().Get("sess-1")
	if unavailable {
		t.Fatal("results should be available")
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 session result, got %d", len(results))
	}
	if results[0].ReportID != "rep-police" || results[0].Confidence != 0.92 {
		t.Errorf("session results differ from matcher output: %+v", results[0])
	}
}

func TestSubmit_MissingPhoto(t *testing.T) {
	store := mock.NewReportStore()
	o := newTestOrchestrator(store, &fakeMatcher{})

	sub := civilianSubmission()
	sub.Photo = ""

	_, err := o.Submit(context.Background(), sub)
	if !errors.Is(err, ErrMissingPhoto) {
		t.Fatalf("Submit() = %v, want ErrMissingPhoto", err)
	}

	// Nothing was persisted.
	civilian, _ := store.FindAll(context.Background(), database.PartitionCivilian)
	if len(civilian) != 0 {
		t.Errorf("expected no stored reports, got %d", len(civilian))
	}
}

func TestSubmit_ValidationErrorRejects(t *testing.T) {
	store := mock.NewReportStore()
	o := newTestOrchestrator(store, &fakeMatcher{})

	sub := civilianSubmission()
	sub.FullName = ""

	_, err := o.Submit(context.Background(), sub)
	var validationErr *database.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Submit() = %v, want *ValidationError", err)
	}
}

func TestSubmit_StorageErrorAborts(t *testing.T) {
	store := mock.NewReportStore()
	store.SaveError = &database.StorageError{Op: "save report", Err: errors.New("connection refused")}
	fm := &fakeMatcher{}
	o := newTestOrchestrator(store, fm)

	_, err := o.Submit(context.Background(), civilianSubmission())
	var storageErr *database.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Submit() = %v, want *StorageError", err)
	}
	if fm.called {
		t.Error("matcher must not run when the save fails")
	}
}

func TestSubmit_MatcherFailureKeepsReportFiled(t *testing.T) {
	store := mock.NewReportStore()
	store.Seed(database.Report{
		Partition: database.PartitionPolice, FullName: "B Roe",
		ApproximateAge: 41, Gender: "M", LastSeenLocation: "L",
		AddressDetails: "A", ContactInfo: "C", PersonStatus: "found",
		Photo: "uploads/b.jpg", AccountID: "acc-2",
	})
	fm := &fakeMatcher{err: &matcher.ExecutionError{Err: errors.New("tool crashed")}}
	o := newTestOrchestrator(store, fm)

	// Stale results from an earlier submission must not survive the failure.
	o.Results().Set("sess-1", []matcher.Candidate{{FullName: "Old Result"}})

	outcome, err := o.Submit(context.Background(), civilianSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v, matching failure must not fail the submission", err)
	}
	if !outcome.MatchingUnavailable {
		t.Error("expected MatchingUnavailable outcome")
	}

	civilian, _ := store.FindAll(context.Background(), database.PartitionCivilian)
	if len(civilian) != 1 {
		t.Errorf("report must stay filed after a matching failure, got %d", len(civilian))
	}

	results, unavailable := o.Results().Get("sess-1")
	if !unavailable {
		t.Error("session results should be marked unavailable")
	}
	if len(results) != 0 {
		t.Errorf("stale results must be discarded, got %d", len(results))
	}
}

func TestSubmit_MatcherFailureStrictMode(t *testing.T) {
	store := mock.NewReportStore()
	fm := &fakeMatcher{err: &matcher.ExecutionError{Err: errors.New("tool crashed")}}
	o := NewOrchestrator(store, fm, NewResultHolder(), &config.IntakeConfig{FailOnMatchError: true})

	_, err := o.Submit(context.Background(), civilianSubmission())
	var execErr *matcher.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Submit() = %v, want *ExecutionError in strict mode", err)
	}

	// Even strict mode cannot unfile the committed report.
	civilian, _ := store.FindAll(context.Background(), database.PartitionCivilian)
	if len(civilian) != 1 {
		t.Errorf("report must stay filed, got %d", len(civilian))
	}
}

func TestSubmit_CorpusLoadFailureIsMatchingUnavailable(t *testing.T) {
	store := mock.NewReportStore()
	store.FindAllError = &database.StorageError{Op: "find reports", Err: errors.New("connection reset")}
	o := newTestOrchestrator(store, &fakeMatcher{})

	outcome, err := o.Submit(context.Background(), civilianSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !outcome.MatchingUnavailable {
		t.Error("expected MatchingUnavailable when the corpus cannot be loaded")
	}

	store.FindAllError = nil
	civilian, _ := store.FindAll(context.Background(), database.PartitionCivilian)
	if len(civilian) != 1 {
		t.Errorf("report must stay filed, got %d", len(civilian))
	}
}
