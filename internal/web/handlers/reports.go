package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/findingthem/findingthem/internal/database"
	"github.com/findingthem/findingthem/internal/intake"
	"github.com/findingthem/findingthem/internal/matcher"
	"github.com/findingthem/findingthem/internal/storage"
	"github.com/findingthem/findingthem/internal/web/middleware"
)

// ReportsHandler handles report submission and retrieval endpoints.
type ReportsHandler struct {
	orchestrator *intake.Orchestrator
	reports      database.ReportStore
	photos       *storage.PhotoStore
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(orchestrator *intake.Orchestrator, reports database.ReportStore, photos *storage.PhotoStore) *ReportsHandler {
	return &ReportsHandler{
		orchestrator: orchestrator,
		reports:      reports,
		photos:       photos,
	}
}

// SubmitResponse represents a successful report submission.
type SubmitResponse struct {
	Report              *database.Report    `json:"report"`
	Matches             []matcher.Candidate `json:"matches"`
	MatchingUnavailable bool                `json:"matching_unavailable"`
}

// Submit handles a multipart report submission: stores the photo, files the
// report into the partition determined by the caller's role, and runs
// matching against the opposite partition.
func (h *ReportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "no photo attached to report")
		return
	}
	defer file.Close()

	age, err := strconv.Atoi(r.FormValue("approximate_age"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "approximate_age must be a number")
		return
	}

	photoPath, err := h.photos.Save(file, header.Filename)
	if errors.Is(err, storage.ErrNotImage) {
		respondError(w, http.StatusBadRequest, "photo must be a valid image")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	outcome, err := h.orchestrator.Submit(r.Context(), intake.Submission{
		AccountID:        session.AccountID,
		Role:             session.Role,
		SessionID:        session.ID,
		FullName:         r.FormValue("full_name"),
		ApproximateAge:   age,
		Gender:           r.FormValue("gender"),
		LastSeenLocation: r.FormValue("last_seen_location"),
		AddressDetails:   r.FormValue("address_details"),
		ContactInfo:      r.FormValue("contact_info"),
		PersonStatus:     r.FormValue("person_status"),
		Photo:            photoPath,
	})
	if err != nil {
		h.respondSubmitError(w, err)
		return
	}

	matches := outcome.Matches
	if matches == nil {
		matches = []matcher.Candidate{}
	}
	respondJSON(w, http.StatusCreated, SubmitResponse{
		Report:              outcome.Report,
		Matches:             matches,
		MatchingUnavailable: outcome.MatchingUnavailable,
	})
}

// respondSubmitError maps pipeline failures onto HTTP responses. Validation
// problems are user-correctable and spelled out; storage failures stay generic.
func (h *ReportsHandler) respondSubmitError(w http.ResponseWriter, err error) {
	var validationErr *database.ValidationError
	switch {
	case errors.Is(err, intake.ErrMissingPhoto):
		respondError(w, http.StatusBadRequest, "no photo attached to report")
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "invalid report",
			"fields": validationErr.Fields,
		})
	default:
		// Storage failures and strict-mode matching failures.
		respondError(w, http.StatusInternalServerError, "error submitting report, please try again")
	}
}

// ResultsResponse represents the session's most recent match results.
type ResultsResponse struct {
	Results             []matcher.Candidate `json:"results"`
	MatchingUnavailable bool                `json:"matching_unavailable"`
}

// Results returns the ranked matches from the caller's latest submission.
// A session with no submission yet gets an empty list.
func (h *ReportsHandler) Results(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	results, unavailable := h.orchestrator.Results().Get(session.ID)
	respondJSON(w, http.StatusOK, ResultsResponse{
		Results:             results,
		MatchingUnavailable: unavailable,
	})
}

// List returns the reports in the caller's own partition.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	partition := database.PartitionFor(session.Role)
	reports, err := h.reports.FindAll(r.Context(), partition)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load reports")
		return
	}
	if reports == nil {
		reports = []database.Report{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"partition": partition,
		"reports":   reports,
	})
}
