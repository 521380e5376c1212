package intake

import (
	"fmt"
	"sync"
	"testing"

	"github.com/findingthem/findingthem/internal/matcher"
)

func TestResultHolder_GetAbsent(t *testing.T) {
	h := NewResultHolder()

	results, unavailable := h.Get("nope")
	if results == nil {
		t.Fatal("Get() must return an empty sequence, not nil")
	}
	if len(results) != 0 || unavailable {
		t.Errorf("expected empty available results, got %d (unavailable=%v)", len(results), unavailable)
	}
}

func TestResultHolder_SetAndGet(t *testing.T) {
	h := NewResultHolder()
	h.Set("sess-1", []matcher.Candidate{{FullName: "B Roe", Confidence: 0.92}})

	results, unavailable := h.Get("sess-1")
	if unavailable {
		t.Error("results should be available")
	}
	if len(results) != 1 || results[0].FullName != "B Roe" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestResultHolder_SetOverwrites(t *testing.T) {
	h := NewResultHolder()
	h.Set("sess-1", []matcher.Candidate{{FullName: "First"}})
	h.Set("sess-1", []matcher.Candidate{{FullName: "Second"}})

	results, _ := h.Get("sess-1")
	if len(results) != 1 || results[0].FullName != "Second" {
		t.Errorf("expected latest results only, got %+v", results)
	}
}

func TestResultHolder_SetUnavailableDiscardsStale(t *testing.T) {
	h := NewResultHolder()
	h.Set("sess-1", []matcher.Candidate{{FullName: "Stale"}})
	h.SetUnavailable("sess-1")

	results, unavailable := h.Get("sess-1")
	if !unavailable {
		t.Error("expected unavailable state")
	}
	if len(results) != 0 {
		t.Errorf("stale results must be gone, got %+v", results)
	}
}

func TestResultHolder_Clear(t *testing.T) {
	h := NewResultHolder()
	h.Set("sess-1", []matcher.Candidate{{FullName: "B Roe"}})
	h.Clear("sess-1")

	results, unavailable := h.Get("sess-1")
	if len(results) != 0 || unavailable {
		t.Errorf("expected cleared entry, got %d (unavailable=%v)", len(results), unavailable)
	}
}

func TestResultHolder_SessionsAreIndependent(t *testing.T) {
	h := NewResultHolder()
	h.Set("sess-1", []matcher.Candidate{{FullName: "One"}})
	h.SetUnavailable("sess-2")

	r1, u1 := h.Get("sess-1")
	if len(r1) != 1 || u1 {
		t.Errorf("sess-1 affected by sess-2: %+v (unavailable=%v)", r1, u1)
	}
	r2, u2 := h.Get("sess-2")
	if len(r2) != 0 || !u2 {
		t.Errorf("sess-2 state wrong: %+v (unavailable=%v)", r2, u2)
	}
}

func TestResultHolder_GetReturnsCopy(t *testing.T) {
	h := NewResultHolder()
	h.Set("sess-1", []matcher.Candidate{{FullName: "B Roe"}})

	results, _ := h.Get("sess-1")
	results[0].FullName = "mutated"

	again, _ := h.Get("sess-1")
	if again[0].FullName != "B Roe" {
		t.Error("Get() must return a copy, not the stored slice")
	}
}

func TestResultHolder_ConcurrentAccess(t *testing.T) {
	h := NewResultHolder()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("sess-%d", i)
			for range 100 {
				h.Set(key, []matcher.Candidate{{FullName: key}})
				h.Get(key)
				h.SetUnavailable(key)
				h.Clear(key)
			}
		}()
	}
	wg.Wait()
}
