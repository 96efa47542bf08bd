package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"folio.dev/internal/metrics"
	"folio.dev/internal/models"
	"folio.dev/internal/validation"
)

// ErrLoadFailed wraps problems reading or decoding a content document
var ErrLoadFailed = errors.New("content load failed")

// Snapshot is one immutable load of the content documents. Callers must
// not modify it; a reload replaces it wholesale.
type Snapshot struct {
	Version    uint64           `json:"version"`
	LoadedAt   time.Time        `json:"loadedAt"`
	Hero       models.Hero      `json:"hero"`
	Projects   []models.Project `json:"projects"`
	Categories []string         `json:"categories"`
	Profile    models.Profile   `json:"profile"`
	// Error is a user-facing explanation when the project list is empty
	// although the document was not
	Error    string   `json:"error,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// ContentOptions configures a ContentService
type ContentOptions struct {
	ProjectsPath  string
	ProfilePath   string
	HeroOverrides map[string]any
	Validator     *validation.Validator
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
}

// ContentService loads the content documents and serves the current
// snapshot
type ContentService struct {
	projectsPath  string
	profilePath   string
	heroOverrides map[string]any
	validator     *validation.Validator
	logger        *zap.Logger
	metrics       *metrics.Metrics

	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	mu     sync.Mutex
	subs   map[int]chan *Snapshot
	nextID int
}

// NewContentService creates a service with an empty snapshot. Call Reload
// to load the documents.
func NewContentService(opts ContentOptions) *ContentService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := opts.Validator
	if v == nil {
		v = validation.New(validation.WithLogger(logger), validation.WithMetrics(opts.Metrics))
	}

	s := &ContentService{
		projectsPath:  opts.ProjectsPath,
		profilePath:   opts.ProfilePath,
		heroOverrides: opts.HeroOverrides,
		validator:     v,
		logger:        logger.Named("content"),
		metrics:       opts.Metrics,
		subs:          make(map[int]chan *Snapshot),
	}
	s.current.Store(&Snapshot{
		Hero:       models.DefaultHero(),
		Projects:   []models.Project{},
		Categories: []string{},
	})
	return s
}

// Snapshot returns the current content
func (s *ContentService) Snapshot() *Snapshot {
	return s.current.Load()
}

// Paths returns the documents this service reads
func (s *ContentService) Paths() []string {
	paths := []string{s.projectsPath}
	if s.profilePath != "" {
		paths = append(paths, s.profilePath)
	}
	return paths
}

// Reload reads the documents, swaps in the new snapshot and notifies
// subscribers. Unreadable documents degrade to empty content and are
// listed in Snapshot.Problems; only context cancellation fails a reload.
func (s *ContentService) Reload(ctx context.Context) (*Snapshot, error) {
	snap, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	s.metrics.ProjectsLoaded(len(snap.Projects))
	s.metrics.Reloaded(len(snap.Problems) == 0)
	s.logger.Info("Content loaded",
		zap.Uint64("version", snap.Version),
		zap.Int("projects", len(snap.Projects)),
		zap.Int("categories", len(snap.Categories)),
		zap.Strings("problems", snap.Problems))

	s.mu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
	return snap, nil
}

// Build reads and validates the documents without publishing the result
func (s *ContentService) Build(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:  s.version.Add(1),
		LoadedAt: time.Now(),
	}

	rawProjects, err := readDocument(s.projectsPath)
	if err != nil {
		s.logger.Error("Failed to load project data", zap.Error(err))
		snap.Problems = append(snap.Problems, err.Error())
		rawProjects = []any{}
	}
	rawProjects = unwrapProjects(rawProjects)
	snap.Projects = s.validator.ValidateProjects(rawProjects)
	snap.Categories = UniqueCategories(snap.Projects)
	if list, ok := rawProjects.([]any); ok && len(list) > 0 && len(snap.Projects) == 0 {
		snap.Error = "No valid projects found in the data"
	}

	var rawProfile any
	if s.profilePath != "" {
		rawProfile, err = readDocument(s.profilePath)
		if err != nil {
			s.logger.Error("Failed to load profile data", zap.Error(err))
			snap.Problems = append(snap.Problems, err.Error())
			rawProfile = nil
		}
	}
	snap.Profile = s.validator.ValidateProfile(rawProfile)
	snap.Hero = s.validator.ValidateHeroData(s.heroInput(rawProfile, snap.Profile))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Subscribe returns a channel receiving every published snapshot and a
// cancel func that unregisters and closes it
func (s *ContentService) Subscribe() (<-chan *Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan *Snapshot, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// heroInput layers the raw hero block of the profile document, the
// personal identity and the configured overrides, later layers winning
func (s *ContentService) heroInput(rawProfile any, profile models.Profile) map[string]any {
	input := make(map[string]any)
	if doc, ok := rawProfile.(map[string]any); ok {
		if hero, ok := doc["hero"].(map[string]any); ok {
			for k, v := range hero {
				input[k] = v
			}
		}
	}
	if profile.Personal.Name != "" {
		input["name"] = profile.Personal.Name
	}
	if profile.Personal.ProfileImage != "" {
		input["profileImage"] = profile.Personal.ProfileImage
	}
	for k, v := range s.heroOverrides {
		if k == "stats" {
			input[k] = mergeStats(input[k], v)
			continue
		}
		input[k] = v
	}
	return input
}

func mergeStats(base, override any) any {
	merged := make(map[string]any)
	if m, ok := base.(map[string]any); ok {
		for k, v := range m {
			merged[k] = v
		}
	}
	if m, ok := override.(map[string]any); ok {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}

// UniqueCategories lists project categories in first-seen order
func UniqueCategories(projects []models.Project) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range projects {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}

// unwrapProjects accepts both a bare list and {"projects": [...]}
func unwrapProjects(raw any) any {
	if doc, ok := raw.(map[string]any); ok {
		if list, ok := doc["projects"]; ok {
			return list
		}
	}
	return raw
}

// readDocument decodes a JSON or YAML file into untyped values
func readDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLoadFailed, "read %s: %v", path, err)
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrLoadFailed, "parse %s: %v", path, err)
	}
	return raw, nil
}
