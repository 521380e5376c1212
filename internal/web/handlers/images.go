package handlers

import (
	"errors"
	"net/http"

	"github.com/findingthem/findingthem/internal/storage"
	"github.com/go-chi/chi/v5"
)

// ImagesHandler serves stored report photos read-only.
type ImagesHandler struct {
	photos *storage.PhotoStore
}

// NewImagesHandler creates a new images handler.
func NewImagesHandler(photos *storage.PhotoStore) *ImagesHandler {
	return &ImagesHandler{photos: photos}
}

// Get streams a stored photo by filename.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.photos.Path(filename)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "image not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load image")
		return
	}

	http.ServeFile(w, r, path)
}
