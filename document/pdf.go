package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// PDFExtractor reads the text layer of PDF documents. Scanned pages without
// a text layer yield no text.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) SupportedFormats() []string {
	return []string{".pdf"}
}

func (e *PDFExtractor) ContentTypes() []string {
	return []string{"application/pdf"}
}

// Extract returns the plain text of every page in order
func (e *PDFExtractor) Extract(ctx context.Context, content []byte) (res *Result, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), pdfMagic) {
		return nil, &ParseError{Format: "pdf", Err: errors.New("missing %PDF header")}
	}

	// The pdf package panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &ParseError{Format: "pdf", Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &ParseError{Format: "pdf", Err: err}
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, &ParseError{Format: "pdf", Err: err}
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return nil, &ParseError{Format: "pdf", Err: err}
	}

	return &Result{Text: string(text), PageCount: reader.NumPage()}, nil
}
