package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veridict/veridict/pdftext"
)

// AnalyzePDF extracts text from an uploaded PDF and judges it. An
// unparsable file and a parsed-but-textless one are distinct failures.
func (a *Analyzer) AnalyzePDF(ctx context.Context, up Upload) Result {
	start := time.Now()

	if up.Filename == "" {
		return a.finish(ctx, "pdf", "", Result{
			"type":  "pdf",
			"error": "No file provided",
		}, start)
	}

	if up.ContentType != "application/pdf" && !strings.HasSuffix(strings.ToLower(up.Filename), ".pdf") {
		return a.finish(ctx, "pdf", up.Filename, Result{
			"type":     "pdf",
			"filename": up.Filename,
			"error":    fmt.Sprintf("Invalid file type: %s. Expected PDF file.", up.ContentType),
		}, start)
	}

	text, err := pdftext.Extract(up.Data)
	switch {
	case errors.Is(err, pdftext.ErrNoText):
		return a.finish(ctx, "pdf", up.Filename, Result{
			"type":       "pdf",
			"filename":   up.Filename,
			"size_bytes": len(up.Data),
			"error":      "No text content found in PDF",
		}, start)
	case err != nil:
		return a.finish(ctx, "pdf", up.Filename, Result{
			"type":       "pdf",
			"filename":   up.Filename,
			"size_bytes": len(up.Data),
			"error":      fmt.Sprintf("Error processing PDF: %s", err),
		}, start)
	}

	judgement := a.judge.Judge(ctx, text, nil)
	return a.finish(ctx, "pdf", up.Filename, Result{
		"type":                  "pdf",
		"filename":              up.Filename,
		"size_bytes":            len(up.Data),
		"extracted_text_length": len(text),
		"judgement":             judgement,
	}, start)
}
