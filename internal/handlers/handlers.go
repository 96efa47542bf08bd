package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"folio.dev/internal/config"
	"folio.dev/internal/metrics"
	"folio.dev/internal/middleware"
	"folio.dev/internal/services"
	"folio.dev/internal/theme"
)

// Deps are the services the routes are served from
type Deps struct {
	Config   *config.Config
	Content  *services.ContentService
	Projects *services.ProjectService
	Images   *services.ImageService
	Theme    *theme.Manager
	Hub      *LiveHub
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// SetupRoutes configures all routes and returns the router
func SetupRoutes(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, d.Metrics))

	// Initialize handlers
	projectHandler := NewProjectHandler(d.Projects)
	contentHandler := NewContentHandler(d.Content, d.Images)
	themeHandler := NewThemeHandler(d.Theme, logger)
	pageHandler := NewPageHandler(d, logger)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Project endpoints
		r.Get("/projects", projectHandler.ListProjects)
		r.Get("/projects/{id}", projectHandler.GetProject)
		r.Get("/categories", projectHandler.ListCategories)

		// Content endpoints
		r.Get("/hero", contentHandler.GetHero)
		r.Get("/profile", contentHandler.GetProfile)
		r.Get("/images", contentHandler.ListImages)

		// Theme endpoints
		r.Get("/theme", themeHandler.GetTheme)
		r.Post("/theme/toggle", themeHandler.Toggle)

		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			snap := d.Content.Snapshot()
			respondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"version":  snap.Version,
				"projects": len(snap.Projects),
				"problems": snap.Problems,
			})
		})
	})

	r.Handle("/metrics", d.Metrics.Handler())
	if d.Hub != nil {
		r.Handle("/live", d.Hub)
	}

	// Static files
	staticDir := "static"
	if d.Config != nil && d.Config.Static.Dir != "" {
		staticDir = d.Config.Static.Dir
	}
	fileServer := http.FileServer(http.Dir(staticDir))
	r.Handle("/static/*", http.StripPrefix("/static", fileServer))
	r.Handle("/images/*", http.FileServer(http.Dir(staticDir)))
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(staticDir, "images", "favicon.svg"))
	})

	// Serve the page at root
	r.Get("/", pageHandler.ServePage)

	base := ""
	if d.Config != nil {
		base = strings.TrimSuffix(d.Config.Server.BasePath, "/")
	}
	if base == "" {
		return r
	}
	root := chi.NewRouter()
	root.Mount(base, r)
	root.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, base+"/", http.StatusFound)
	})
	return root
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("Error encoding JSON", zap.Error(err))
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
