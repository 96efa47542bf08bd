package handlers

import (
	"net/http"
	"slices"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"folio.dev/internal/models"
	"folio.dev/internal/views"
)

// PageHandler renders the portfolio page
type PageHandler struct {
	deps   Deps
	logger *zap.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(d Deps, logger *zap.Logger) *PageHandler {
	return &PageHandler{deps: d, logger: logger}
}

// ServePage handles GET /?category=&all=1
func (h *PageHandler) ServePage(w http.ResponseWriter, r *http.Request) {
	snap := h.deps.Content.Snapshot()
	category := r.URL.Query().Get("category")

	// featured projects lead the gallery
	projects := slices.Clone(h.deps.Projects.ByCategory(category))
	slices.SortStableFunc(projects, func(a, b models.Project) int {
		switch {
		case a.Featured == b.Featured:
			return 0
		case a.Featured:
			return -1
		default:
			return 1
		}
	})

	env := views.Env{}
	heroFallback, projectFallback := "", ""
	if cfg := h.deps.Config; cfg != nil {
		env.BasePath = cfg.Server.BasePath
		env.MaxRetries = cfg.Images.MaxRetries
		heroFallback = cfg.Images.Fallback
		projectFallback = cfg.Images.ProjectFallback
	}
	if h.deps.Images != nil {
		env.Images = h.deps.Images
	}

	current := h.deps.Theme.Current()
	data := views.PageData{
		Env:          env,
		Hero:         snap.Hero,
		HeroFallback: heroFallback,
		Profile:      snap.Profile,
		Theme:        current,
		Live:         h.deps.Hub != nil,
		Gallery: views.GalleryData{
			Projects:        projects,
			Total:           len(snap.Projects),
			Categories:      h.deps.Projects.Categories(),
			Active:          category,
			ShowAll:         r.URL.Query().Get("all") == "1",
			Error:           snap.Error,
			ProjectFallback: projectFallback,
		},
	}

	templ.Handler(views.Page(data), templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		h.logger.Error("Failed to render page", zap.Error(err))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusInternalServerError, "Failed to render page")
		})
	})).ServeHTTP(w, r)
}
