package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildPDF writes a single page PDF holding lines in Helvetica
func buildPDF(lines ...string) []byte {
	var stream strings.Builder
	stream.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
	for _, line := range lines {
		fmt.Fprintf(&stream, "(%s) Tj T*\n", line)
	}
	stream.WriteString("ET")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor(t *testing.T) {
	content := buildPDF("Paciente con artritis", "prednisona 5 mg diario")

	res, err := NewPDFExtractor().Extract(context.Background(), content)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(res.Text, "prednisona 5 mg diario") {
		t.Errorf("expected extracted text to contain the dosage line, got %q", res.Text)
	}
	if res.PageCount != 1 {
		t.Errorf("expected 1 page, got %d", res.PageCount)
	}
}

func TestPDFExtractorMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"not a pdf", []byte("hola, esto no es un pdf")},
		{"empty", nil},
		{"truncated", []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPDFExtractor().Extract(context.Background(), tt.content)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Format != "pdf" {
				t.Errorf("expected pdf format, got %q", pe.Format)
			}
		})
	}
}

func TestExtractorsHonourCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, e := range []Extractor{NewPDFExtractor(), NewTextExtractor()} {
		if _, err := e.Extract(ctx, []byte("x")); !errors.Is(err, context.Canceled) {
			t.Errorf("%T: expected context.Canceled, got %v", e, err)
		}
	}
}

func TestTextExtractor(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{"utf8", []byte("azatioprina 50 mg al día"), "azatioprina 50 mg al día"},
		{"utf8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("aine")...), "aine"},
		{"latin1", []byte{'d', 0xED, 'a'}, "día"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewTextExtractor().Extract(context.Background(), tt.content)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if res.Text != tt.want {
				t.Errorf("got %q, want %q", res.Text, tt.want)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name        string
		filename    string
		contentType string
		want        string
	}{
		{"pdf mime", "informe.bin", "application/pdf", "pdf"},
		{"text mime with charset", "notas", "text/plain; charset=utf-8", "text"},
		{"octet stream by extension", "informe.PDF", "application/octet-stream", "pdf"},
		{"missing type by extension", "notas.txt", "", "text"},
		{"image", "scan.png", "image/png", ""},
		{"explicit type wins over extension", "informe.pdf", "image/png", ""},
		{"unknown extension", "informe.docx", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := r.Lookup(tt.filename, tt.contentType)
			if tt.want == "" {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("expected ErrUnsupportedType, got %v", err)
				}
				if r.Supports(tt.filename, tt.contentType) {
					t.Error("Supports should be false")
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}

			var got string
			switch e.(type) {
			case *PDFExtractor:
				got = "pdf"
			case *TextExtractor:
				got = "text"
			}
			if got != tt.want {
				t.Errorf("got %s extractor, want %s", got, tt.want)
			}
		})
	}
}

func TestRegistryExtract(t *testing.T) {
	r := DefaultRegistry()

	text, err := r.Extract(context.Background(), "notas.txt", "text/plain", []byte("metotrexato 15 mg semanal"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "metotrexato 15 mg semanal" {
		t.Errorf("unexpected text %q", text)
	}

	if _, err := r.Extract(context.Background(), "scan.png", "image/png", []byte{0x89}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	inner := errors.New("bad xref")
	err := &ParseError{Format: "pdf", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected ParseError to unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "pdf") || !strings.Contains(err.Error(), "bad xref") {
		t.Errorf("unexpected message %q", err.Error())
	}
}
