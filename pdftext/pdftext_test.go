package pdftext

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExtract_Text(t *testing.T) {
	// WHAT: A one-page PDF with a Tj text operator yields its text.
	// WHY: Core extraction path; page text feeds the judgement prompt.
	raw := buildTextPDF("Hello from the pipeline")
	text, err := Extract(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "Hello from the pipeline") {
		t.Errorf("text: got %q", text)
	}
}

func TestExtract_NotPDF(t *testing.T) {
	// WHAT: Garbage bytes fail with ErrNotPDF.
	// WHY: Parse failures must stay distinct from the empty-text condition.
	_, err := Extract([]byte("definitely not a pdf"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("want ErrNotPDF, got %v", err)
	}
}

func TestExtract_NoText(t *testing.T) {
	// WHAT: A valid PDF whose content stream shows no text returns ErrNoText.
	// WHY: Scanned/image-only documents are valid but have nothing to judge.
	raw := buildEmptyPagePDF()
	_, err := Extract(raw)
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("want ErrNoText, got %v", err)
	}
}

func TestScanContentStream_Operators(t *testing.T) {
	// WHAT: Tj, TJ and escape sequences are all decoded.
	// WHY: Real content streams mix operators and escaped literals.
	stream := []byte("BT\n(first) Tj\n[(sec) -20 (ond)] TJ\nET")
	got := scanContentStream(stream)
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("got %q", got)
	}

	got = scanContentStream([]byte(`(a\\b\tc) Tj`))
	if got != `a\b c` {
		t.Errorf("escapes: got %q", got)
	}

	got = scanContentStream([]byte(`(\110i) Tj`))
	if got != "Hi" {
		t.Errorf("octal: got %q", got)
	}
}

// buildTextPDF writes a minimal single-page PDF with correct xref offsets.
func buildTextPDF(text string) []byte {
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(" + escaped + ") Tj\nET"
	return assemblePDF(stream)
}

// buildEmptyPagePDF writes a valid PDF whose content stream draws nothing.
func buildEmptyPagePDF() []byte {
	return assemblePDF("q Q")
}

func assemblePDF(stream string) []byte {
	var b strings.Builder
	offsets := make([]int, 6)
	b.WriteString("%PDF-1.4\n")

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>\nendobj\n")

	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream)

	offsets[5] = b.Len()
	b.WriteString("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}
