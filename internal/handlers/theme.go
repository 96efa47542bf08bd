package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"folio.dev/internal/theme"
)

// ThemeHandler exposes the site theme
type ThemeHandler struct {
	manager *theme.Manager
	logger  *zap.Logger
}

// NewThemeHandler creates a new ThemeHandler
func NewThemeHandler(m *theme.Manager, logger *zap.Logger) *ThemeHandler {
	return &ThemeHandler{manager: m, logger: logger}
}

type themeResponse struct {
	Theme   theme.Theme   `json:"theme"`
	Palette theme.Palette `json:"palette"`
}

// GetTheme handles GET /api/theme
func (h *ThemeHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	t := h.manager.Current()
	respondJSON(w, http.StatusOK, themeResponse{Theme: t, Palette: theme.PaletteFor(t)})
}

// Toggle handles POST /api/theme/toggle. The switch takes effect even when
// the preference cannot be saved.
func (h *ThemeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	t, err := h.manager.Toggle()
	if err != nil {
		h.logger.Warn("Theme preference not saved", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, themeResponse{Theme: t, Palette: theme.PaletteFor(t)})
}
