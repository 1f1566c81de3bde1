package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/veridict/veridict/judge"
	"github.com/veridict/veridict/sniff"
)

// AnalyzeImage validates an uploaded image and judges it with the
// multimodal model. Byte-signature sniffing is authoritative: mismatched
// bytes are rejected regardless of the declared type, and a mislabeled
// valid image is reclassified to its sniffed type.
func (a *Analyzer) AnalyzeImage(ctx context.Context, up Upload) Result {
	start := time.Now()

	if up.Filename == "" {
		return a.finish(ctx, "image", "", Result{
			"type":  "image",
			"error": "No file provided",
		}, start)
	}

	if !strings.HasPrefix(up.ContentType, "image/") {
		return a.finish(ctx, "image", up.Filename, Result{
			"type":     "image",
			"filename": up.Filename,
			"error":    fmt.Sprintf("Invalid file type: %s. Expected image file.", up.ContentType),
		}, start)
	}

	sniffed, err := sniff.Detect(up.Data, up.ContentType)
	if errors.Is(err, sniff.ErrTooSmall) {
		return a.finish(ctx, "image", up.Filename, Result{
			"type":     "image",
			"filename": up.Filename,
			"error":    "Invalid or empty image data",
		}, start)
	}
	if !sniffed.Valid {
		return a.finish(ctx, "image", up.Filename, Result{
			"type":       "image",
			"filename":   up.Filename,
			"size_bytes": len(up.Data),
			"error":      "Unsupported or corrupted image format. Only PNG, JPEG, GIF, and WebP are supported.",
		}, start)
	}

	judgement := a.judge.Judge(ctx, "", &judge.Media{Data: up.Data, MIME: sniffed.MIME})
	return a.finish(ctx, "image", up.Filename, Result{
		"type":       "image",
		"filename":   up.Filename,
		"size_bytes": len(up.Data),
		"media_type": sniffed.MIME,
		"judgement":  judgement,
	}, start)
}
