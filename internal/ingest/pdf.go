package ingest

import (
	"io"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts plain text from a PDF on disk.
type PDFExtractor struct{}

func NewPDFExtractor() PDFExtractor {
	return PDFExtractor{}
}

func (PDFExtractor) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
