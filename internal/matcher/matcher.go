// Package matcher invokes the external face-matching tool against a corpus
// of opposite-partition reports and parses its ranked output. The matching
// algorithm itself is opaque to this service; the contract is a probe photo
// path plus a JSON corpus in, a JSON array of matches out.
package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/findingthem/findingthem/internal/config"
	"github.com/findingthem/findingthem/internal/database"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Candidate is one ranked match returned by the external tool, resolved back
// to the stored report it came from. Ordering is by descending confidence
// exactly as the tool returned it; this package never re-sorts or re-scores.
type Candidate struct {
	ReportID       string  `json:"report_id,omitempty"`
	FullName       string  `json:"full_name"`
	ApproximateAge int     `json:"approximate_age"`
	Photo          string  `json:"photo"`
	Confidence     float64 `json:"confidence"`
}

// ExecutionError reports that the external tool could not complete: non-zero
// exit, anything written to stderr, or a timeout. Stderr output counts as a
// failure even on a zero exit code; the tool reports problems that way.
type ExecutionError struct {
	Stderr string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("matcher execution failed: %v (stderr: %s)", e.Err, e.Stderr)
	}
	return fmt.Sprintf("matcher execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ParseError reports that the tool's stdout was not the expected JSON array.
type ParseError struct {
	Output string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("matcher output parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// corpusEntry is the wire format for one candidate sent to the tool.
type corpusEntry struct {
	FullName       string `json:"fullName"`
	Photo          string `json:"photo"`
	ApproximateAge int    `json:"approximateAge"`
}

// rawMatch is the wire format for one match object read back from the tool.
type rawMatch struct {
	FullName       string  `json:"fullName"`
	Photo          string  `json:"photo"`
	ApproximateAge int     `json:"approximateAge"`
	Confidence     float64 `json:"confidence"`
}

// Invoker runs the external face-matching tool as a single-shot subprocess
// with an enforced timeout.
type Invoker struct {
	command string
	script  string
	timeout time.Duration
}

// NewInvoker creates an invoker from the matcher configuration.
func NewInvoker(cfg *config.MatcherConfig) *Invoker {
	return &Invoker{
		command: cfg.Command,
		script:  cfg.Script,
		timeout: cfg.Timeout(),
	}
}

// Match runs the tool with the probe photo path as an argument and the
// corpus descriptors as a JSON array on stdin. An empty corpus returns an
// empty result without spawning the tool. Failures are never retried here;
// the caller decides what to surface.
func (inv *Invoker) Match(ctx context.Context, probePhoto string, corpus []database.Report) ([]Candidate, error) {
	if len(corpus) == 0 {
		return []Candidate{}, nil
	}

	entries := make([]corpusEntry, 0, len(corpus))
	for i := range corpus {
		entries = append(entries, corpusEntry{
			FullName:       corpus[i].FullName,
			Photo:          corpus[i].Photo,
			ApproximateAge: corpus[i].ApproximateAge,
		})
	}
	input, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal corpus: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.command, inv.script, probePhoto)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, &ExecutionError{Stderr: stderr.String(), Err: fmt.Errorf("timed out after %s", inv.timeout)}
	}
	if runErr != nil {
		return nil, &ExecutionError{Stderr: stderr.String(), Err: runErr}
	}
	if stderr.Len() > 0 {
		return nil, &ExecutionError{Stderr: stderr.String(), Err: errors.New("tool wrote to stderr")}
	}

	var raw []rawMatch
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, &ParseError{Output: truncate(stdout.String(), 512), Err: err}
	}

	return resolve(raw, corpus), nil
}

// resolve attaches stored report references to the tool's matches, keyed by
// photo path first and Unicode-folded name second. A match the corpus can't
// account for keeps its returned fields with an empty report ID.
func resolve(raw []rawMatch, corpus []database.Report) []Candidate {
	byPhoto := make(map[string]*database.Report, len(corpus))
	byName := make(map[string]*database.Report, len(corpus))
	for i := range corpus {
		byPhoto[corpus[i].Photo] = &corpus[i]
		byName[foldName(corpus[i].FullName)] = &corpus[i]
	}

	results := make([]Candidate, 0, len(raw))
	for _, m := range raw {
		c := Candidate{
			FullName:       m.FullName,
			ApproximateAge: m.ApproximateAge,
			Photo:          m.Photo,
			Confidence:     m.Confidence,
		}
		rep := byPhoto[m.Photo]
		if rep == nil {
			rep = byName[foldName(m.FullName)]
		}
		if rep != nil {
			c.ReportID = rep.ID
			c.FullName = rep.FullName
			c.ApproximateAge = rep.ApproximateAge
			c.Photo = rep.Photo
		}
		results = append(results, c)
	}
	return results
}

// foldName normalizes a person name for comparison: NFC form, case folded,
// collapsed whitespace.
func foldName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
