package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/veridict/veridict/judge"
	"github.com/veridict/veridict/pdftext"
	"github.com/veridict/veridict/riskscan"
	"github.com/veridict/veridict/urlguard"
	"github.com/veridict/veridict/webfetch"
)

// defang strips any markup from non-HTML fetched text before it is placed
// in a prompt.
var defang = bluemonday.StrictPolicy()

// AnalyzeURL fetches a submitted URL and branches on the response content
// type: HTML pages get the heuristic risk scan, images go to the multimodal
// model, PDFs through text extraction, and everything else is judged as raw
// text. Each fetch feeds exactly one branch.
func (a *Analyzer) AnalyzeURL(ctx context.Context, raw string) Result {
	start := time.Now()

	normalized, domain, err := urlguard.Normalize(raw)
	if err != nil {
		return a.finish(ctx, "url", raw, Result{
			"type":  "url",
			"url":   raw,
			"error": "Invalid URL format - no domain found",
		}, start)
	}

	fetched, err := a.fetcher.Fetch(ctx, normalized)
	switch {
	case errors.Is(err, webfetch.ErrTooLarge):
		return a.finish(ctx, "url", normalized, Result{
			"type":  "url",
			"url":   normalized,
			"error": fmt.Sprintf("Content too large: %s (50MB limit)", err),
		}, start)
	case err != nil:
		return a.finish(ctx, "url", normalized, Result{
			"type":  "url",
			"url":   normalized,
			"error": fmt.Sprintf("Failed to fetch URL: %s", err),
		}, start)
	}

	var res Result
	switch webfetch.Classify(fetched.ContentType) {
	case webfetch.ClassHTML:
		res = a.urlHTML(ctx, normalized, domain, fetched)
	case webfetch.ClassImage:
		res = a.urlImage(ctx, normalized, domain, fetched)
	case webfetch.ClassPDF:
		res = a.urlPDF(ctx, normalized, domain, fetched)
	default:
		res = a.urlGeneric(ctx, normalized, domain, fetched)
	}
	return a.finish(ctx, "url", normalized, res, start)
}

// urlHTML runs the risk scan over the page and judges its visible text.
func (a *Analyzer) urlHTML(ctx context.Context, url, domain string, fetched *webfetch.Result) Result {
	page, err := riskscan.Parse(fetched.Body)
	if err != nil {
		return Result{
			"type":  "url",
			"url":   url,
			"error": fmt.Sprintf("HTML parsing error: %s", err),
		}
	}

	indicators := riskscan.Scan(url, domain, page)
	cleanText := riskscan.Truncate(page.Text, a.cfg.HTMLTextLimit)

	prompt := fmt.Sprintf(
		"URL: %s\nDomain: %s\nTitle: %s\nDescription: %s\n\nContent to analyze:\n%s\n\nSuspicious indicators found: %s",
		url, domain, page.Title, page.Description, cleanText, strings.Join(indicators, ", "))

	judgement := a.judge.Judge(ctx, prompt, nil)
	return Result{
		"type":                  "url",
		"url":                   url,
		"domain":                domain,
		"title":                 page.Title,
		"description":           page.Description,
		"content_length":        len(cleanText),
		"suspicious_indicators": indicators,
		"status_code":           fetched.StatusCode,
		"judgement":             judgement,
	}
}

// urlImage sends the fetched image to the multimodal model with its source
// as context.
func (a *Analyzer) urlImage(ctx context.Context, url, domain string, fetched *webfetch.Result) Result {
	prompt := fmt.Sprintf(
		"This image was found at URL: %s (domain: %s). Analyze if this image or the source appears to be spam, fake, or malicious.",
		url, domain)

	mime := strings.TrimSpace(strings.Split(fetched.ContentType, ";")[0])
	judgement := a.judge.Judge(ctx, prompt, &judge.Media{Data: fetched.Body, MIME: mime})
	return Result{
		"type":             "url",
		"content_type":     "image",
		"url":              url,
		"domain":           domain,
		"image_size_bytes": len(fetched.Body),
		"judgement":        judgement,
	}
}

// urlPDF extracts text from a fetched PDF. A textless document is still
// judged, with that fact stated in the prompt.
func (a *Analyzer) urlPDF(ctx context.Context, url, domain string, fetched *webfetch.Result) Result {
	text, err := pdftext.Extract(fetched.Body)
	switch {
	case errors.Is(err, pdftext.ErrNoText):
		text = ""
	case err != nil:
		return Result{
			"type":   "url",
			"url":    url,
			"domain": domain,
			"error":  fmt.Sprintf("PDF analysis error: %s", err),
		}
	}

	var prompt string
	if text == "" {
		prompt = fmt.Sprintf("PDF from URL: %s (domain: %s) appears to be empty or contains no extractable text.", url, domain)
	} else {
		prompt = fmt.Sprintf("PDF from URL: %s\nDomain: %s\nExtracted text content:\n%s",
			url, domain, riskscan.Truncate(text, a.cfg.GenericTextLimit))
	}

	judgement := a.judge.Judge(ctx, prompt, nil)
	return Result{
		"type":                  "url",
		"content_type":          "pdf",
		"url":                   url,
		"domain":                domain,
		"pdf_size_bytes":        len(fetched.Body),
		"extracted_text_length": len(text),
		"judgement":             judgement,
	}
}

// urlGeneric judges any other fetched content as defanged raw text.
func (a *Analyzer) urlGeneric(ctx context.Context, url, domain string, fetched *webfetch.Result) Result {
	content := riskscan.Truncate(defang.Sanitize(string(fetched.Body)), a.cfg.GenericTextLimit)

	prompt := fmt.Sprintf("URL: %s\nDomain: %s\nContent Type: %s\nContent: %s",
		url, domain, fetched.ContentType, content)

	judgement := a.judge.Judge(ctx, prompt, nil)
	return Result{
		"type":           "url",
		"content_type":   fetched.ContentType,
		"url":            url,
		"domain":         domain,
		"content_length": len(content),
		"judgement":      judgement,
	}
}
