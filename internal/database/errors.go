package database

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUsernameTaken is returned by AccountStore.Create for a duplicate username.
var ErrUsernameTaken = errors.New("username is already taken")

// ValidationError reports missing or malformed report fields. These are
// user-correctable and carry per-field detail for the response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	return "invalid report: " + strings.Join(parts, ", ")
}

// StorageError wraps a persistence layer failure. It is fatal to the request
// that triggered it and is never retried by the store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
