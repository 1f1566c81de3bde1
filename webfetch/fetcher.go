// Package webfetch retrieves remote submission content with hard bounds:
// fixed timeout, redirect following, and a byte ceiling enforced both on the
// declared Content-Length and on the actual body read.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTooLarge is returned when the response declares or delivers more than
// Config.MaxBytes.
var ErrTooLarge = errors.New("webfetch: content exceeds size limit")

// ErrFetch wraps network-level failures: DNS, timeout, non-2xx status.
// Fetches are never retried; the submission is reported failed instead.
var ErrFetch = errors.New("webfetch: fetch failed")

// ContentClass partitions responses by Content-Type for downstream dispatch.
type ContentClass string

const (
	ClassHTML  ContentClass = "html"
	ClassImage ContentClass = "image"
	ClassPDF   ContentClass = "pdf"
	ClassOther ContentClass = "other"
)

// Result is the outcome of one fetch, consumed by exactly one downstream
// branch.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	FinalURL    string
}

// Config configures the fetcher.
type Config struct {
	Timeout  time.Duration // HTTP timeout. Default: 15s.
	MaxBytes int64         // Response size ceiling. Default: 50MB.
	// URLValidator runs before each request and on every redirect hop.
	// Nil allows all URLs.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 50 * 1024 * 1024
	}
	if c.URLValidator == nil {
		c.URLValidator = func(string) error { return nil }
	}
}

// browserHeaders is the fixed header set sent with every request.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// Fetcher performs bounded HTTP GETs. Safe for concurrent use.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher. Redirects are followed (Go caps the chain at 10)
// with the validator re-applied on each hop.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch issues a GET for rawURL. The declared Content-Length is checked
// before the body is read; bodies are read through a limit reader so a
// server lying about its length cannot exceed the ceiling either.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := f.config.URLValidator(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrFetch, resp.StatusCode)
	}

	if resp.ContentLength > f.config.MaxBytes {
		return nil, fmt.Errorf("%w: declared %d bytes (limit %d)",
			ErrTooLarge, resp.ContentLength, f.config.MaxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, f.config.MaxBytes)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: strings.ToLower(resp.Header.Get("Content-Type")),
		Body:        body,
		FinalURL:    finalURL,
	}, nil
}

// Classify maps a Content-Type header to its dispatch class by
// case-insensitive substring match.
func Classify(contentType string) ContentClass {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"):
		return ClassHTML
	case strings.Contains(ct, "image/"):
		return ClassImage
	case strings.Contains(ct, "application/pdf"):
		return ClassPDF
	default:
		return ClassOther
	}
}

// Domain extracts the host portion of a URL, empty when unparsable.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
