package siteask

import "context"

// FetchResult holds the raw outcome of fetching a URL.
type FetchResult struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int

	// MIMEType is the media type from the Content-Type header, with
	// parameters stripped and lowercased. Empty if the header was absent.
	MIMEType string

	// Body is the raw response body.
	Body []byte
}

// IsHTML reports whether the fetched content is an HTML page.
func (r *FetchResult) IsHTML() bool {
	return r.MIMEType == "" || r.MIMEType == "text/html" || r.MIMEType == "application/xhtml+xml"
}

// Fetcher retrieves raw bytes from URLs.
// Unlike an HTML-only fetcher, implementations must return binary content
// (images, PDFs) unmodified so it can be stored as-is.
type Fetcher interface {
	// Fetch retrieves the URL. The context controls timeout and
	// cancellation; non-2xx responses are returned as errors.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
