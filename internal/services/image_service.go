package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"folio.dev/internal/imageloader"
	"folio.dev/internal/metrics"
)

// Resolution is the settled outcome of loading one image reference
type Resolution struct {
	Primary       string            `json:"primary"`
	Fallback      string            `json:"fallback,omitempty"`
	Source        string            `json:"source"`
	Phase         imageloader.Phase `json:"phase"`
	Attempts      int               `json:"attempts"`
	UsingFallback bool              `json:"usingFallback"`
}

// Available reports whether the image can be shown
func (r Resolution) Available() bool {
	return r.Phase == imageloader.PhaseLoaded
}

// ImageOptions configures an ImageService
type ImageOptions struct {
	Fetcher         imageloader.Fetcher
	MaxRetries      int
	Concurrency     int
	HeroFallback    string
	ProjectFallback string
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// ImageService resolves the images of a snapshot, one loader per image
type ImageService struct {
	fetcher         imageloader.Fetcher
	maxRetries      int
	concurrency     int
	heroFallback    string
	projectFallback string
	logger          *zap.Logger
	metrics         *metrics.Metrics

	mu       sync.RWMutex
	version  uint64
	resolved map[string]Resolution
}

// NewImageService creates an ImageService
func NewImageService(opts ImageOptions) *ImageService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &ImageService{
		fetcher:         opts.Fetcher,
		maxRetries:      opts.MaxRetries,
		concurrency:     concurrency,
		heroFallback:    opts.HeroFallback,
		projectFallback: opts.ProjectFallback,
		logger:          logger.Named("images"),
		metrics:         opts.Metrics,
		resolved:        make(map[string]Resolution),
	}
}

// ImageRef is an image reference and the fallback used for it
type ImageRef struct {
	Primary  string
	Fallback string
}

// Refs lists the image references of a snapshot, without duplicates
func (s *ImageService) Refs(snap *Snapshot) []ImageRef {
	seen := make(map[string]bool)
	refs := make([]ImageRef, 0, len(snap.Projects)+1)
	add := func(src, fallback string) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		refs = append(refs, ImageRef{Primary: src, Fallback: fallback})
	}
	add(snap.Hero.ProfileImage, s.heroFallback)
	for _, p := range snap.Projects {
		add(p.Image, s.projectFallback)
	}
	return refs
}

// Resolve drives one loader to a settled state
func (s *ImageService) Resolve(ctx context.Context, ref ImageRef) (Resolution, error) {
	loader := imageloader.New(ref.Primary,
		imageloader.WithFallback(ref.Fallback),
		imageloader.WithMaxRetries(s.maxRetries),
		imageloader.WithLogger(s.logger))

	counting := imageloader.FetcherFunc(func(ctx context.Context, src string) error {
		err := s.fetcher.Fetch(ctx, src)
		kind := "primary"
		if loader.State().UsingFallback {
			kind = "fallback"
		}
		s.metrics.ImageAttempt(kind, err == nil)
		return err
	})

	st, err := loader.Run(ctx, counting)
	res := Resolution{
		Primary:       ref.Primary,
		Fallback:      ref.Fallback,
		Source:        st.Source,
		Phase:         st.Phase,
		Attempts:      st.Attempts,
		UsingFallback: st.UsingFallback,
	}
	if err != nil {
		return res, err
	}
	s.metrics.ImageSettled(st.Phase.String())
	return res, nil
}

// ResolveSnapshot resolves every image of snap concurrently and caches the
// results for Lookup. Results of an older snapshot are replaced.
func (s *ImageService) ResolveSnapshot(ctx context.Context, snap *Snapshot) (map[string]Resolution, error) {
	refs := s.Refs(snap)
	results := make(map[string]Resolution, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			res, err := s.Resolve(gctx, ref)
			if err != nil {
				return err
			}
			mu.Lock()
			results[ref.Primary] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if snap.Version >= s.version {
		s.version = snap.Version
		s.resolved = results
	}
	s.mu.Unlock()

	s.logger.Info("Images resolved", zap.Uint64("version", snap.Version), zap.Int("images", len(results)))
	return results, nil
}

// Lookup returns the cached resolution of a primary source
func (s *ImageService) Lookup(primary string) (Resolution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.resolved[primary]
	return res, ok
}

// All returns a copy of every cached resolution
func (s *ImageService) All() map[string]Resolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Resolution, len(s.resolved))
	for k, v := range s.resolved {
		out[k] = v
	}
	return out
}
