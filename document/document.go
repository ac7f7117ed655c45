// Package document extracts plain text from uploaded documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/giygas/drugchecker-api/interfaces"
)

// ErrUnsupportedType is returned when no extractor handles a document
var ErrUnsupportedType = errors.New("unsupported document type")

// ParseError reports a document that matched an extractor but could not be read
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s document: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the text of one document
type Result struct {
	Text      string
	PageCount int
}

// Extractor reads one document format
type Extractor interface {
	Extract(ctx context.Context, content []byte) (*Result, error)

	// SupportedFormats returns the file extensions handled, with the dot
	SupportedFormats() []string

	// ContentTypes returns the MIME types handled
	ContentTypes() []string
}

// Compile-time check to ensure Registry implements DocumentExtractor
var _ interfaces.DocumentExtractor = (*Registry)(nil)

// Registry picks an extractor by MIME type, then by file extension
type Registry struct {
	byType map[string]Extractor
	byExt  map[string]Extractor
}

// NewRegistry registers the given extractors. Later ones win on conflicts.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{
		byType: make(map[string]Extractor),
		byExt:  make(map[string]Extractor),
	}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultRegistry handles PDF and plain text
func DefaultRegistry() *Registry {
	return NewRegistry(NewPDFExtractor(), NewTextExtractor())
}

// Register adds e for its content types and extensions
func (r *Registry) Register(e Extractor) {
	for _, ct := range e.ContentTypes() {
		r.byType[ct] = e
	}
	for _, ext := range e.SupportedFormats() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// mediaType drops parameters such as "; charset=utf-8"
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Lookup returns the extractor for a document
func (r *Registry) Lookup(filename, contentType string) (Extractor, error) {
	mt := mediaType(contentType)
	if e, ok := r.byType[mt]; ok {
		return e, nil
	}

	// Generic types say nothing about the format, fall back to the extension
	if mt == "" || mt == "application/octet-stream" {
		if e, ok := r.byExt[strings.ToLower(filepath.Ext(filename))]; ok {
			return e, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
}

// Supports reports whether some extractor handles the document
func (r *Registry) Supports(filename, contentType string) bool {
	_, err := r.Lookup(filename, contentType)
	return err == nil
}

// Extract returns the document text
func (r *Registry) Extract(ctx context.Context, filename, contentType string, content []byte) (string, error) {
	e, err := r.Lookup(filename, contentType)
	if err != nil {
		return "", err
	}

	res, err := e.Extract(ctx, content)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
