package imageloader

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound means the source does not exist
	ErrNotFound = errors.New("image not found")
	// ErrNotImage means the source exists but is not an image
	ErrNotImage = errors.New("source is not an image")
)

// Fetcher performs one load attempt of an image source
type Fetcher interface {
	Fetch(ctx context.Context, src string) error
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, src string) error

func (f FetcherFunc) Fetch(ctx context.Context, src string) error { return f(ctx, src) }

// StatusError reports a non-success HTTP response
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// HTTPFetcher loads remote images. It sends HEAD and falls back to GET
// when the server refuses HEAD.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher creates an HTTPFetcher with a per-request timeout
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: "portfolio-image-probe/1.0",
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) error {
	resp, err := f.do(ctx, http.MethodHead, src)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = f.do(ctx, http.MethodGet, src)
		if err != nil {
			return err
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return errors.Wrapf(ErrNotFound, "fetch %s", src)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.Wrapf(&StatusError{Code: resp.StatusCode}, "fetch %s", src)
	}

	if !imageContentType(resp.Header.Get("Content-Type")) {
		return errors.Wrapf(ErrNotImage, "fetch %s: content type %q", src, resp.Header.Get("Content-Type"))
	}
	return nil
}

func (f *HTTPFetcher) do(ctx context.Context, method, src string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, src, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", src)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", src)
	}
	resp.Body.Close()
	return resp, nil
}

// imageContentType accepts image/* and responses that do not say
func imageContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream"
}

// DirFetcher loads site-relative images from the static directory
type DirFetcher struct {
	Root     string
	BasePath string
}

func (f *DirFetcher) Fetch(ctx context.Context, src string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u, err := url.Parse(src)
	if err != nil {
		return errors.Wrapf(err, "parse image path %s", src)
	}
	p := u.Path
	// the base path is stripped only on a segment boundary
	if base := strings.TrimSuffix(f.BasePath, "/"); base != "" {
		if p == base || strings.HasPrefix(p, base+"/") {
			p = strings.TrimPrefix(p, base)
		}
	}
	p = path.Clean("/" + p)

	info, err := os.Stat(filepath.Join(f.Root, filepath.FromSlash(p)))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "stat %s", p)
		}
		return errors.Wrapf(err, "stat %s", p)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrapf(ErrNotImage, "stat %s: not a regular file", p)
	}
	return nil
}

// RouteFetcher sends absolute http(s) sources to Remote and everything
// else to Local
type RouteFetcher struct {
	Remote Fetcher
	Local  Fetcher
}

func (f *RouteFetcher) Fetch(ctx context.Context, src string) error {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if f.Remote == nil {
			return errors.Errorf("no remote fetcher for %s", src)
		}
		return f.Remote.Fetch(ctx, src)
	}
	if f.Local == nil {
		return errors.Errorf("no local fetcher for %s", src)
	}
	return f.Local.Fetch(ctx, src)
}
