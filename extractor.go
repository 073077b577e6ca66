package siteask

// ExtractResult holds the extracted main content of an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML with boilerplate
	// (nav, footer, sidebar, ads) removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	// Returns EINVALID if no content could be extracted; callers may then
	// fall back to whole-body text.
	Extract(html string) (*ExtractResult, error)
}

// Converter transforms HTML content into Markdown for storage as text.
type Converter interface {
	Convert(html string) (markdown string, err error)
}
