// Package imageloader implements the retry and fallback policy used for
// every image on the site.
//
// A Loader is a small state machine. It starts loading the primary source,
// and on each failure either switches to the fallback source, re-requests
// the primary with a cache-busting query parameter, or settles in the
// error phase. Success settles it in the loaded phase. Settled loaders
// ignore further events.
//
// A Loader belongs to a single image instance and is not safe for
// concurrent use.
package imageloader

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxRetries is how many times the primary source is re-requested
const DefaultMaxRetries = 2

// RetryParam is the query parameter carrying the cache buster
const RetryParam = "retry"

// Phase is the coarse state of a loader
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseLoaded
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON output
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a snapshot of a loader
type State struct {
	Source        string `json:"source"`
	Phase         Phase  `json:"phase"`
	RetryCount    int    `json:"retryCount"`
	Attempts      int    `json:"attempts"`
	UsingFallback bool   `json:"usingFallback"`
}

// Loading reports whether a request is outstanding
func (s State) Loading() bool { return s.Phase == PhaseLoading }

// Failed reports whether the loader gave up
func (s State) Failed() bool { return s.Phase == PhaseError }

// Settled reports whether the loader reached a terminal phase
func (s State) Settled() bool { return s.Phase != PhaseLoading }

// Loader drives one image through the retry and fallback policy
type Loader struct {
	primary    string
	fallback   string
	maxRetries int
	now        func() time.Time
	logger     *zap.Logger
	state      State
}

// Option configures a Loader
type Option func(*Loader)

// WithFallback sets the source substituted after the primary fails
func WithFallback(src string) Option {
	return func(l *Loader) { l.fallback = src }
}

// WithMaxRetries bounds the cache-busted re-requests of the primary.
// Negative values are treated as zero.
func WithMaxRetries(n int) Option {
	return func(l *Loader) {
		if n < 0 {
			n = 0
		}
		l.maxRetries = n
	}
}

// WithLogger sets the logger transitions are reported to
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the clock used to build cache busters
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a loader in the Loading(primary, 0) state
func New(primary string, opts ...Option) *Loader {
	l := &Loader{
		primary:    primary,
		maxRetries: DefaultMaxRetries,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("image", primary))
	l.state = State{Source: primary, Phase: PhaseLoading, Attempts: 1}
	l.logger.Debug("Image load started", zap.String("fallback", l.fallback))
	return l
}

// State returns the current state
func (l *Loader) State() State { return l.state }

// Primary returns the original source
func (l *Loader) Primary() string { return l.primary }

// Fallback returns the configured fallback, or "" when none is set
func (l *Loader) Fallback() string { return l.fallback }

// MaxRetries returns the retry bound
func (l *Loader) MaxRetries() int { return l.maxRetries }

// HandleLoad records a successful load of the current source
func (l *Loader) HandleLoad() State {
	if l.state.Settled() {
		return l.state
	}
	l.state.Phase = PhaseLoaded
	l.logger.Debug("Image loaded", zap.String("source", l.state.Source), zap.Int("attempts", l.state.Attempts))
	return l.state
}

// HandleError records a failed load of the current source and decides
// what to request next. The rules are applied in order: switch to an
// unused fallback, retry the primary while retries remain, give up.
func (l *Loader) HandleError(reason error) State {
	if l.state.Settled() {
		return l.state
	}
	l.logger.Warn("Image failed to load",
		zap.String("source", l.state.Source),
		zap.Int("retryCount", l.state.RetryCount),
		zap.Error(reason))

	switch {
	case l.fallback != "" && !l.state.UsingFallback && l.fallback != l.primary:
		l.logger.Info("Attempting fallback image", zap.String("fallback", l.fallback))
		l.state.Source = l.fallback
		l.state.UsingFallback = true
		l.state.RetryCount = 0
		l.state.Attempts++

	case !l.state.UsingFallback && l.state.RetryCount < l.maxRetries:
		l.state.RetryCount++
		l.state.Source = CacheBust(l.primary, l.now())
		l.state.Attempts++
		l.logger.Info("Retrying image load",
			zap.Int("attempt", l.state.RetryCount),
			zap.Int("maxRetries", l.maxRetries),
			zap.String("source", l.state.Source))

	default:
		l.state.Phase = PhaseError
		l.logger.Warn("Image unavailable", zap.Int("attempts", l.state.Attempts))
	}
	return l.state
}

// Run issues requests through f until the loader settles. It returns early
// with the context error if ctx is done; a request that fails because ctx
// was cancelled is not counted as a load failure.
func (l *Loader) Run(ctx context.Context, f Fetcher) (State, error) {
	for !l.state.Settled() {
		if err := ctx.Err(); err != nil {
			return l.state, err
		}
		err := f.Fetch(ctx, l.state.Source)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return l.state, ctxErr
			}
			l.HandleError(err)
			continue
		}
		l.HandleLoad()
	}
	return l.state, nil
}

// CacheBust returns src with a retry=<unix millis> query parameter set,
// replacing any earlier buster
func CacheBust(src string, at time.Time) string {
	stamp := strconv.FormatInt(at.UnixMilli(), 10)
	u, err := url.Parse(src)
	if err != nil {
		sep := "?"
		if strings.Contains(src, "?") {
			sep = "&"
		}
		return src + sep + RetryParam + "=" + stamp
	}
	q := u.Query()
	q.Set(RetryParam, stamp)
	u.RawQuery = q.Encode()
	return u.String()
}
