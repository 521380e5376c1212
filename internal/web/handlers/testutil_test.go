package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/findingthem/findingthem/internal/database"
	"github.com/findingthem/findingthem/internal/database/mock"
	"github.com/findingthem/findingthem/internal/intake"
	"github.com/findingthem/findingthem/internal/matcher"
	"github.com/findingthem/findingthem/internal/storage"
	"github.com/findingthem/findingthem/internal/web/middleware"
)

// fakeMatcher returns canned results for handler tests.
type fakeMatcher struct {
	results []matcher.Candidate
	err     error
}

func (f *fakeMatcher) Match(ctx context.Context, probePhoto string, corpus []database.Report) ([]matcher.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.results == nil {
		return []matcher.Candidate{}, nil
	}
	return f.results, nil
}

// testEnv bundles the handler collaborators over in-memory stores.
type testEnv struct {
	accounts *mock.AccountStore
	reports  *mock.ReportStore
	photos   *storage.PhotoStore
	matcher  *fakeMatcher
	orch     *intake.Orchestrator
	sm       *middleware.SessionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	photos, err := storage.NewPhotoStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create photo store: %v", err)
	}

	env := &testEnv{
		accounts: mock.NewAccountStore(),
		reports:  mock.NewReportStore(),
		photos:   photos,
		matcher:  &fakeMatcher{},
		sm:       middleware.NewSessionManager("test-secret", nil),
	}
	env.orch = intake.NewOrchestrator(env.reports, env.matcher, intake.NewResultHolder(), nil)
	t.Cleanup(env.sm.Stop)
	return env
}

// session creates a live session and returns it for request contexts.
func (e *testEnv) session(t *testing.T, role database.Role) *middleware.Session {
	t.Helper()
	session, err := e.sm.CreateSession("acc-1", role)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

// authedRequest attaches a session to the request context the way
// RequireAuth would.
func authedRequest(r *http.Request, session *middleware.Session) *http.Request {
	return r.WithContext(middleware.SetSessionInContext(r.Context(), session))
}

// reportForm builds a multipart report submission with a real PNG photo
// unless withPhoto is false. Overrides replace the default field values.
func reportForm(t *testing.T, withPhoto bool, overrides map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	fields := map[string]string{
		"full_name":          "A Doe",
		"approximate_age":    "30",
		"gender":             "F",
		"last_seen_location": "X",
		"address_details":    "Y",
		"contact_info":       "Z",
		"person_status":      "missing",
	}
	for k, v := range overrides {
		fields[k] = v
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}

	if withPhoto {
		part, err := mw.CreateFormFile("photo", "photo.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		if err := png.Encode(part, img); err != nil {
			t.Fatalf("failed to encode test image: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

// textFileForm builds a report submission whose photo part is plain text.
func textFileForm(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"full_name":          "A Doe",
		"approximate_age":    "30",
		"gender":             "F",
		"last_seen_location": "X",
		"address_details":    "Y",
		"contact_info":       "Z",
		"person_status":      "missing",
	} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	part, err := mw.CreateFormFile("photo", "notes.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("definitely not an image")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

// decodeJSON unmarshals a recorder body into v.
func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

// postJSON builds a JSON POST request.
func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}
