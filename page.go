package siteask

// PageRefs holds the outbound references discovered on an HTML page.
// All URLs are resolved against the page URL and absolute.
type PageRefs struct {
	// Links are candidate pages for further crawling.
	Links []string

	// ImageURLs are <img> sources found on the page.
	ImageURLs []string

	// FileURLs are links to downloadable documents (pdf, docx, pptx,
	// xlsx, zip).
	FileURLs []string
}

// PageParser extracts outbound references from an HTML page.
// Content extraction is a separate concern (see Extractor); the parser only
// finds what else the page points at.
type PageParser interface {
	ParsePage(html string, baseURL string) (*PageRefs, error)
}
