package intake

import (
	"sync"

	"github.com/findingthem/findingthem/internal/matcher"
)

type resultEntry struct {
	candidates  []matcher.Candidate
	unavailable bool
}

// ResultHolder keeps the most recent match results per session. It is an
// explicit dependency injected into the orchestrator, not ambient state.
// Entries live only as long as the session: overwritten on each submission,
// cleared on logout. Access per key is independent; there is no cross-session
// coupling beyond the shared lock.
type ResultHolder struct {
	mu      sync.RWMutex
	entries map[string]resultEntry
}

// NewResultHolder creates an empty holder.
func NewResultHolder() *ResultHolder {
	return &ResultHolder{
		entries: make(map[string]resultEntry),
	}
}

// Set stores the ranked results for a session, replacing anything previous.
func (h *ResultHolder) Set(sessionID string, results []matcher.Candidate) {
	h.mu.Lock()
	h.entries[sessionID] = resultEntry{candidates: results}
	h.mu.Unlock()
}

// SetUnavailable marks the session's results as unavailable after a matching
// failure, discarding any stale results from an earlier submission.
func (h *ResultHolder) SetUnavailable(sessionID string) {
	h.mu.Lock()
	h.entries[sessionID] = resultEntry{unavailable: true}
	h.mu.Unlock()
}

// Get returns the session's results and whether matching was unavailable.
// An absent session yields an empty sequence, never an error.
func (h *ResultHolder) Get(sessionID string) ([]matcher.Candidate, bool) {
	h.mu.RLock()
	entry, ok := h.entries[sessionID]
	h.mu.RUnlock()
	if !ok || entry.candidates == nil {
		return []matcher.Candidate{}, entry.unavailable
	}
	out := make([]matcher.Candidate, len(entry.candidates))
	copy(out, entry.candidates)
	return out, false
}

// Clear drops the session's entry. Called on logout.
func (h *ResultHolder) Clear(sessionID string) {
	h.mu.Lock()
	delete(h.entries, sessionID)
	h.mu.Unlock()
}
