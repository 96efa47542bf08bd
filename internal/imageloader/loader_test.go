package imageloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clock = time.UnixMilli(1700000000000)

func fixedClock() time.Time { return clock }

// scriptedFetcher fails every request whose logical source is in failing
// and records what was requested
type scriptedFetcher struct {
	failing  map[string]bool
	requests []string
}

func (f *scriptedFetcher) Fetch(_ context.Context, src string) error {
	f.requests = append(f.requests, src)
	if f.failing[stripBuster(src)] {
		return errors.New("boom")
	}
	return nil
}

func stripBuster(src string) string {
	if i := strings.Index(src, "?"); i >= 0 {
		return src[:i]
	}
	return src
}

func TestNewStartsLoadingPrimary(t *testing.T) {
	l := New("/images/a.png")
	st := l.State()
	assert.Equal(t, "/images/a.png", st.Source)
	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Equal(t, 0, st.RetryCount)
	assert.Equal(t, 1, st.Attempts)
	assert.True(t, st.Loading())
	assert.False(t, st.Settled())
}

func TestLoadSettles(t *testing.T) {
	l := New("/images/a.png")
	st := l.HandleLoad()
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.True(t, st.Settled())

	// events after settling are ignored
	st = l.HandleError(errors.New("late"))
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.Equal(t, 1, st.Attempts)
}

func TestNoFallbackRetriesThenErrors(t *testing.T) {
	f := &scriptedFetcher{failing: map[string]bool{"/images/a.png": true}}
	l := New("/images/a.png", WithClock(fixedClock))

	st, err := l.Run(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, 3, st.Attempts)
	assert.Equal(t, DefaultMaxRetries, st.RetryCount)
	require.Len(t, f.requests, 3)
	assert.Equal(t, "/images/a.png", f.requests[0])
	assert.Equal(t, "/images/a.png?retry=1700000000000", f.requests[1])
	assert.Equal(t, "/images/a.png?retry=1700000000000", f.requests[2])
}

func TestRetrySucceeds(t *testing.T) {
	calls := 0
	f := FetcherFunc(func(_ context.Context, src string) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	st, err := New("https://cdn.example.com/a.png").Run(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.Equal(t, 3, st.Attempts)
	assert.Equal(t, 2, st.RetryCount)
	assert.Contains(t, st.Source, "retry=")
}

// A failed primary goes straight to the fallback: two attempts, no retries.
func TestFallbackAfterOneFailureTakesTwoAttempts(t *testing.T) {
	f := &scriptedFetcher{failing: map[string]bool{"/images/a.png": true}}
	l := New("/images/a.png", WithFallback("/images/default.svg"))

	st, err := l.Run(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.True(t, st.UsingFallback)
	assert.Equal(t, "/images/default.svg", st.Source)
	assert.Equal(t, 0, st.RetryCount)
	assert.Equal(t, 2, st.Attempts)
	assert.Equal(t, []string{"/images/a.png", "/images/default.svg"}, f.requests)
}

func TestFallbackFailureIsTerminal(t *testing.T) {
	f := &scriptedFetcher{failing: map[string]bool{
		"/images/a.png":       true,
		"/images/default.svg": true,
	}}
	l := New("/images/a.png", WithFallback("/images/default.svg"))

	st, err := l.Run(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, PhaseError, st.Phase)
	assert.Equal(t, 2, st.Attempts)
	assert.Equal(t, []string{"/images/a.png", "/images/default.svg"}, f.requests)
}

func TestFallbackEqualToPrimaryIsIgnored(t *testing.T) {
	f := &scriptedFetcher{failing: map[string]bool{"/images/a.png": true}}
	l := New("/images/a.png", WithFallback("/images/a.png"), WithMaxRetries(1))

	st, err := l.Run(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, PhaseError, st.Phase)
	assert.False(t, st.UsingFallback)
	assert.Equal(t, 2, st.Attempts)
}

func TestRetryCountBounded(t *testing.T) {
	for _, max := range []int{-1, 0, 1, 2, 5} {
		l := New("/a.png", WithMaxRetries(max))
		for i := 0; i < 10; i++ {
			st := l.HandleError(errors.New("nope"))
			assert.LessOrEqual(t, st.RetryCount, l.MaxRetries())
		}
		st := l.State()
		assert.Equal(t, PhaseError, st.Phase)
		assert.Equal(t, l.MaxRetries()+1, st.Attempts)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := FetcherFunc(func(ctx context.Context, src string) error {
		cancel()
		return ctx.Err()
	})

	st, err := New("/a.png").Run(ctx, f)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PhaseLoading, st.Phase)
	assert.Equal(t, 0, st.RetryCount)
}

func TestCacheBust(t *testing.T) {
	assert.Equal(t, "/a.png?retry=1700000000000", CacheBust("/a.png", clock))
	assert.Equal(t, "https://x.dev/a.png?size=2&retry=1700000000000",
		sortedQuery(t, CacheBust("https://x.dev/a.png?size=2", clock)))
	assert.Equal(t, "/a.png?retry=1700000000000", CacheBust("/a.png?retry=1", clock))
}

// sortedQuery puts size before retry so the assertion is stable
func sortedQuery(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	u.RawQuery = "size=" + q.Get("size") + "&retry=" + q.Get("retry")
	return u.String()
}

func TestPhaseMarshalText(t *testing.T) {
	b, err := PhaseError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(b))
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
		case "/nohead.png":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.Header().Set("Content-Type", "image/png")
		case "/page.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		case "/broken.png":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second)
	ctx := context.Background()

	assert.NoError(t, f.Fetch(ctx, srv.URL+"/ok.png"))
	assert.NoError(t, f.Fetch(ctx, srv.URL+"/nohead.png"))
	assert.ErrorIs(t, f.Fetch(ctx, srv.URL+"/page.html"), ErrNotImage)
	assert.ErrorIs(t, f.Fetch(ctx, srv.URL+"/missing.png"), ErrNotFound)

	var se *StatusError
	require.ErrorAs(t, f.Fetch(ctx, srv.URL+"/broken.png"), &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestDirFetcher(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "a.png"), []byte("png"), 0o644))

	f := &DirFetcher{Root: root, BasePath: "/site"}
	ctx := context.Background()

	assert.NoError(t, f.Fetch(ctx, "/images/a.png"))
	assert.NoError(t, f.Fetch(ctx, "/site/images/a.png?retry=12"))
	assert.ErrorIs(t, f.Fetch(ctx, "/images/b.png"), ErrNotFound)
	assert.ErrorIs(t, f.Fetch(ctx, "/images"), ErrNotImage)
	assert.ErrorIs(t, f.Fetch(ctx, "/../../etc/passwd"), ErrNotFound)
}

func TestDirFetcherBasePathMatchesWholeSegment(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "folio-logo.png"), []byte("png"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "img", "x.png"), []byte("png"), 0o644))

	f := &DirFetcher{Root: root, BasePath: "/folio/"}
	ctx := context.Background()

	assert.NoError(t, f.Fetch(ctx, "/folio-logo.png"))
	assert.NoError(t, f.Fetch(ctx, "/folio/folio-logo.png"))
	assert.NoError(t, f.Fetch(ctx, "/folio/img/x.png"))
	assert.NoError(t, f.Fetch(ctx, "/img/x.png"))
	assert.ErrorIs(t, f.Fetch(ctx, "/folio"), ErrNotImage)
	assert.ErrorIs(t, f.Fetch(ctx, "/foliox/img/x.png"), ErrNotFound)
}

func TestRouteFetcher(t *testing.T) {
	var remote, local []string
	f := &RouteFetcher{
		Remote: FetcherFunc(func(_ context.Context, src string) error { remote = append(remote, src); return nil }),
		Local:  FetcherFunc(func(_ context.Context, src string) error { local = append(local, src); return nil }),
	}
	ctx := context.Background()
	require.NoError(t, f.Fetch(ctx, "https://cdn.example.com/a.png"))
	require.NoError(t, f.Fetch(ctx, "HTTP://cdn.example.com/b.png"))
	require.NoError(t, f.Fetch(ctx, "/images/c.png"))

	assert.Equal(t, []string{"https://cdn.example.com/a.png", "HTTP://cdn.example.com/b.png"}, remote)
	assert.Equal(t, []string{"/images/c.png"}, local)
}
