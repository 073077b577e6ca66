// Package upload decodes user-supplied files (PDF, DOCX, plain text,
// images) into text and metadata before they enter the asset store.
package upload

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/ledongthuc/pdf"

	"github.com/fwojciec/siteask"
)

// Compile-time interface verification.
var _ siteask.UploadDecoder = (*Decoder)(nil)

// Decoder implements siteask.UploadDecoder. Format selection goes by file
// extension first, then by sniffing the bytes, so a misnamed image upload
// still decodes.
type Decoder struct{}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode extracts text from the uploaded bytes.
func (d *Decoder) Decode(filename string, data []byte) (*siteask.DecodedUpload, error) {
	if len(data) == 0 {
		return nil, siteask.Errorf(siteask.EINVALID, "empty upload")
	}

	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return &siteask.DecodedUpload{MIMEType: sniffed, IsImage: true}, nil
	}

	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return nil, siteask.Errorf(siteask.EINVALID, "decode PDF: %v", err)
		}
		return &siteask.DecodedUpload{Text: text, MIMEType: "application/pdf"}, nil

	case ".docx":
		text, err := docxText(data)
		if err != nil {
			return nil, siteask.Errorf(siteask.EINVALID, "decode DOCX: %v", err)
		}
		return &siteask.DecodedUpload{
			Text:     text,
			MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}, nil

	case ".txt", ".md", ".markdown":
		return plainText(data)
	}

	// No recognized extension. Accept anything that looks like text.
	if strings.HasPrefix(sniffed, "text/") {
		return plainText(data)
	}
	return nil, siteask.Errorf(siteask.EINVALID, "unsupported upload format %q", filename)
}

func plainText(data []byte) (*siteask.DecodedUpload, error) {
	if !utf8.Valid(data) {
		return nil, siteask.Errorf(siteask.EINVALID, "upload is not valid UTF-8 text")
	}
	return &siteask.DecodedUpload{Text: string(data), MIMEType: "text/plain"}, nil
}

// pdfText recovers from parser panics; the pdf package panics on some
// malformed inputs instead of returning an error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	rd, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(rd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// docxText extracts paragraph text from word/document.xml inside the DOCX
// archive. Each w:p element becomes one line; w:t elements hold the runs.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("read document.xml: %w", err)
			}
			break
		}
	}
	if len(docXML) == 0 {
		return "", fmt.Errorf("document.xml not found")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(docXML); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var paras []string
	for _, p := range doc.FindElements("//p") {
		var runs []string
		for _, t := range p.FindElements(".//t") {
			runs = append(runs, t.Text())
		}
		if line := strings.TrimSpace(strings.Join(runs, "")); line != "" {
			paras = append(paras, line)
		}
	}
	return strings.Join(paras, "\n\n"), nil
}
