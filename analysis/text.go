package analysis

import (
	"context"
	"time"
)

// AnalyzeText judges a raw text submission.
func (a *Analyzer) AnalyzeText(ctx context.Context, content string) Result {
	start := time.Now()

	judgement := a.judge.Judge(ctx, content, nil)
	res := Result{
		"type":      "text",
		"content":   content,
		"judgement": judgement,
	}
	return a.finish(ctx, "text", content, res, start)
}
