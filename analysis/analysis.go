// Package analysis orchestrates the content moderation pipeline: it routes
// each submission kind (text, image, pdf, video, url) through validation,
// extraction and heuristics, obtains a judgement, and normalizes everything
// into one uniform result envelope.
//
// Envelopes always carry a "type" discriminator plus either a judgement or
// an error; once a stage fails, downstream stages are skipped and the
// judgement provider is never called for input already known to be invalid.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/veridict/veridict/eventlog"
	"github.com/veridict/veridict/judge"
	"github.com/veridict/veridict/store"
	"github.com/veridict/veridict/webfetch"
)

// Result is the uniform envelope returned for every submission. It is
// created fresh per submission and never mutated after return.
type Result map[string]any

// Err returns the envelope's error string, empty when the submission
// succeeded.
func (r Result) Err() string {
	s, _ := r["error"].(string)
	return s
}

// Judgement returns the envelope's judgement string, empty when absent.
func (r Result) Judgement() string {
	s, _ := r["judgement"].(string)
	return s
}

// Upload is a submitted file: declared metadata plus raw bytes. The declared
// content type is advisory only.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Config bounds how much extracted text reaches the judgement prompt.
type Config struct {
	HTMLTextLimit    int `yaml:"html_text_limit"`    // visible HTML text, default 3000
	GenericTextLimit int `yaml:"generic_text_limit"` // PDF/other URL content, default 2000
}

func (c *Config) defaults() {
	if c.HTMLTextLimit <= 0 {
		c.HTMLTextLimit = 3000
	}
	if c.GenericTextLimit <= 0 {
		c.GenericTextLimit = 2000
	}
}

// Analyzer processes submissions. All handles are stateless and shared;
// construct once at process start.
type Analyzer struct {
	cfg     Config
	fetcher *webfetch.Fetcher
	judge   *judge.Client
	results *store.Store     // optional
	events  *eventlog.Logger // optional
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStore enables result persistence.
func WithStore(s *store.Store) Option {
	return func(a *Analyzer) { a.results = s }
}

// WithEventLog enables the analysis event log.
func WithEventLog(l *eventlog.Logger) Option {
	return func(a *Analyzer) { a.events = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer.
func New(cfg Config, fetcher *webfetch.Fetcher, judgeClient *judge.Client, opts ...Option) *Analyzer {
	cfg.defaults()
	a := &Analyzer{
		cfg:     cfg,
		fetcher: fetcher,
		judge:   judgeClient,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// finish records the completed submission in the result store and event log
// and returns the envelope unchanged.
func (a *Analyzer) finish(ctx context.Context, docType, source string, res Result, start time.Time) Result {
	status := "ok"
	if res.Err() != "" {
		status = "error"
	}

	if a.results != nil {
		a.results.Save(ctx, docType, source, res.Judgement())
	}
	if a.events != nil {
		a.events.Record(ctx, docType, source, status, time.Since(start))
	}

	a.logger.Info("analysis: submission processed",
		"doc_type", docType, "status", status, "duration_ms", time.Since(start).Milliseconds())
	return res
}
