package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"minirag/internal/domain"
)

// Document kinds as reported back to uploaders.
const (
	KindPDF  = "PDF"
	KindText = "text"
)

// Document is the decoded text of one uploaded file.
type Document struct {
	Name string
	Kind string
	Text string
}

// FromUpload decodes an uploaded file by extension. Only .txt and .pdf are
// accepted; anything else, undecodable bytes and blank content are input errors.
func FromUpload(filename string, data []byte) (Document, error) {
	doc := Document{Name: filename}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err := PDFText(data)
		if err != nil {
			return doc, domain.NewInputError("Error reading PDF: %v", err)
		}
		doc.Kind, doc.Text = KindPDF, text
	case ".txt":
		if !utf8.Valid(data) {
			return doc, domain.NewInputError("Text file is not valid UTF-8.")
		}
		doc.Kind, doc.Text = KindText, string(data)
	default:
		return doc, domain.NewInputError("Only .txt and .pdf files are supported.")
	}
	if strings.TrimSpace(doc.Text) == "" {
		return doc, domain.NewInputError("No text content found in the file.")
	}
	return doc, nil
}
