package document

import (
	"bytes"
	"context"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextExtractor reads plain text in UTF-8 or ISO-8859-1
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

func (e *TextExtractor) SupportedFormats() []string {
	return []string{".txt"}
}

func (e *TextExtractor) ContentTypes() []string {
	return []string{"text/plain"}
}

// Extract decodes content, falling back to ISO-8859-1 when it is not valid UTF-8
func (e *TextExtractor) Extract(ctx context.Context, content []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if utf8.Valid(content) {
		return &Result{Text: string(bytes.TrimPrefix(content, utf8BOM))}, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return nil, &ParseError{Format: "text", Err: err}
	}
	return &Result{Text: string(decoded)}, nil
}
