package handlers

import (
	"net/http"

	"folio.dev/internal/services"
)

// ContentHandler serves the hero, profile and image state
type ContentHandler struct {
	content *services.ContentService
	images  *services.ImageService
}

// NewContentHandler creates a new ContentHandler. images may be nil.
func NewContentHandler(content *services.ContentService, images *services.ImageService) *ContentHandler {
	return &ContentHandler{content: content, images: images}
}

// GetHero handles GET /api/hero
func (h *ContentHandler) GetHero(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.content.Snapshot().Hero)
}

// GetProfile handles GET /api/profile
func (h *ContentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.content.Snapshot().Profile)
}

// ListImages handles GET /api/images
func (h *ContentHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		respondJSON(w, http.StatusOK, map[string]services.Resolution{})
		return
	}
	respondJSON(w, http.StatusOK, h.images.All())
}
