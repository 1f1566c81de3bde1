package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AnalyzeVideo is a placeholder: video content understanding is not
// implemented, so the judgement is made from file facts only. Frame, audio
// or transcript extraction would slot in here.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, up Upload) Result {
	start := time.Now()

	if up.Filename == "" {
		return a.finish(ctx, "video", "", Result{
			"type":  "video",
			"error": "No file provided",
		}, start)
	}

	if !strings.HasPrefix(up.ContentType, "video/") {
		return a.finish(ctx, "video", up.Filename, Result{
			"type":     "video",
			"filename": up.Filename,
			"error":    fmt.Sprintf("Invalid file type: %s. Expected video file.", up.ContentType),
		}, start)
	}

	content := fmt.Sprintf(
		"Video file '%s' received (%d bytes). This is a placeholder analysis - in production, you would extract frames, audio, or transcripts from the video for deeper analysis.",
		up.Filename, len(up.Data))

	judgement := a.judge.Judge(ctx, content, nil)
	return a.finish(ctx, "video", up.Filename, Result{
		"type":         "video",
		"filename":     up.Filename,
		"size_bytes":   len(up.Data),
		"content_type": up.ContentType,
		"judgement":    judgement,
	}, start)
}
