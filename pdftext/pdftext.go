// Package pdftext extracts plain text from PDF bytes.
//
// Pages are decoded through pdfcpu and their content streams scanned for
// text-showing operators. The result is the concatenation of all page text
// in page order. A document that parses but yields only whitespace is a
// distinct condition (ErrNoText) from one that cannot be parsed (ErrNotPDF):
// a scanned, image-only PDF is valid but has nothing to extract.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotPDF is returned when the bytes cannot be parsed as a PDF document.
var ErrNotPDF = errors.New("pdftext: not a parsable PDF")

// ErrNoText is returned when the document parses but contains no extractable
// text (for example an image-only scan).
var ErrNoText = errors.New("pdftext: no text content")

// Extract parses data as a PDF and returns the concatenated text of all
// pages in page order.
func Extract(data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		txt := pageText(ctx, pageNr)
		if txt == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(txt)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// pageText extracts text from one page's content stream. Unreadable pages
// contribute nothing rather than failing the whole document.
func pageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	stream, err := io.ReadAll(r)
	if err != nil || len(stream) == 0 {
		return ""
	}
	return scanContentStream(stream)
}

// literalRe matches PDF string literals: (text).
var literalRe = regexp.MustCompile(`\(([^)]*)\)`)

// scanContentStream walks a decoded content stream line by line, collecting
// the arguments of the text-showing operators Tj, TJ and '.
func scanContentStream(stream []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(stream, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
			continue
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeLiterals(&sb, line, false)
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			writeLiterals(&sb, line, true)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return collapse(sb.String())
}

func writeLiterals(sb *strings.Builder, line []byte, newline bool) {
	for _, m := range literalRe.FindAllSubmatch(line, -1) {
		text := unescape(m[1])
		if text == "" {
			continue
		}
		if newline {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}
}

// unescape resolves the PDF string escapes \n \r \t \\ \( \) and octal \ddd.
func unescape(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// collapse reduces whitespace runs to single spaces and drops
// non-printable runes.
func collapse(text string) string {
	var sb strings.Builder
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !space && sb.Len() > 0 {
				sb.WriteByte(' ')
				space = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			space = false
		}
	}
	return strings.TrimSpace(sb.String())
}
