package crawl

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for deduplication: the scheme is dropped
// (http and https variants of one page are the same page), the host is
// lowercased, the fragment is removed, and a trailing slash on the path is
// stripped. Unparseable input yields an empty key.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// CanonicalURL returns the fetchable form of a URL with its fragment
// stripped and host lowercased, keeping the scheme intact.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// IsHTTPURL reports whether the URL uses the http or https scheme.
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// InScope reports whether host is the root host or a subdomain of it.
func InScope(host, rootHost string) bool {
	host = strings.ToLower(host)
	rootHost = strings.ToLower(rootHost)
	return host == rootHost || strings.HasSuffix(host, "."+rootHost)
}
