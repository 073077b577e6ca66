package siteask

// DecodedUpload is the result of decoding an uploaded file.
type DecodedUpload struct {
	// Text is the extracted text content, possibly empty for pure images.
	Text string

	// MIMEType is the detected media type of the original bytes.
	MIMEType string

	// IsImage reports whether the upload itself is an image that should be
	// stored as an image asset.
	IsImage bool
}

// UploadDecoder decodes uploaded files (PDF, DOCX, TXT, images) into text
// and metadata before they reach the core.
type UploadDecoder interface {
	// Decode extracts text from the uploaded bytes.
	// Returns EINVALID for unsupported formats.
	Decode(filename string, data []byte) (*DecodedUpload, error)
}
