// Package storage keeps uploaded report photos on the local filesystem.
// The rest of the system treats the stored path as an opaque reference and
// never interprets image bytes beyond the decode check on ingest.
package storage

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registered decoders for the upload validity check.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
)

// ErrNotImage rejects uploads that do not decode as a supported image format.
var ErrNotImage = errors.New("file is not a recognized image")

// ErrNotFound is returned when a stored photo does not exist.
var ErrNotFound = errors.New("photo not found")

// PhotoStore stores photos under a single directory with generated
// timestamp-based names.
type PhotoStore struct {
	dir string
}

// NewPhotoStore creates the uploads directory if needed.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if dir == "" {
		return nil, errors.New("uploads directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Save validates that the upload decodes as an image and writes it under a
// generated name, returning the stored path. The original filename only
// contributes its extension.
func (s *PhotoStore) Save(file io.ReadSeeker, originalName string) (string, error) {
	if _, _, err := image.DecodeConfig(file); err != nil {
		return "", ErrNotImage
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding upload: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	path := filepath.Join(s.dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating photo file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing photo file: %w", err)
	}

	return path, nil
}

// Path resolves a stored photo filename to its on-disk path. Only bare
// filenames are accepted; anything that escapes the uploads directory is
// treated as not found.
func (s *PhotoStore) Path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, filename)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}
