// Package http provides HTTP-based implementations of siteask.Fetcher and
// siteask.SitemapSeeder.
package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/siteask"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 15 * time.Second

// DefaultUserAgent identifies the crawler to servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; siteask/1.0)"

// maxBodyBytes caps response bodies so a single huge asset cannot exhaust
// memory. 32 MiB covers documentation pages, images, and typical documents.
const maxBodyBytes = 32 << 20

// Ensure Fetcher implements siteask.Fetcher at compile time.
var _ siteask.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves raw bytes from URLs with a per-request deadline.
// It does not execute JavaScript; it returns response bodies verbatim so
// binary assets survive the round trip.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = &http.Client{Timeout: f.timeout}
	return f
}

// Fetch retrieves the URL and returns status, media type, and body.
// Non-2xx responses are returned as EUNAVAILABLE errors so the crawler can
// skip the page without inspecting the result.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*siteask.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, siteask.Errorf(siteask.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	return &siteask.FetchResult{
		StatusCode: resp.StatusCode,
		MIMEType:   mediaType(resp.Header.Get("Content-Type")),
		Body:       body,
	}, nil
}

// Close releases resources. No-op for the HTTP fetcher.
func (f *Fetcher) Close() error {
	return nil
}

// mediaType strips parameters from a Content-Type header and lowercases it.
func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return mt
}
