// Package server exposes the analysis pipeline over HTTP.
//
// Each /analyze/* endpoint accepts a form submission, runs the matching
// analyzer, and returns its envelope as JSON with status 200. Input
// problems are reported inside the envelope, not as HTTP errors, so
// clients handle one response shape.
package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veridict/veridict/analysis"
	"github.com/veridict/veridict/judge"
	"github.com/veridict/veridict/shield"
)

// Config carries the HTTP listener settings.
type Config struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

func (c *Config) defaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.MaxUploadBytes <= 0 {
		// Slightly above the analyzer media ceiling so the analyzers,
		// not the transport, produce the size diagnostics.
		c.MaxUploadBytes = 60 << 20
	}
}

// Server routes analysis requests to the Analyzer.
type Server struct {
	cfg      Config
	analyzer *analysis.Analyzer
	judge    *judge.Client
	logger   *slog.Logger
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a Server around an analyzer and the judge client whose
// model selection backs /models/info.
func New(cfg Config, analyzer *analysis.Analyzer, judgeClient *judge.Client, opts ...Option) *Server {
	cfg.defaults()
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		judge:    judgeClient,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

// Handler builds the chi router with the shield middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.MaxUploadBody(s.cfg.MaxUploadBytes))
	r.Use(shield.TraceID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	r.Get("/models/info", s.handleModelsInfo)

	r.Post("/analyze/text", s.handleText)
	r.Post("/analyze/url", s.handleURL)
	r.Post("/analyze/image", s.upload("image", s.analyzer.AnalyzeImage))
	r.Post("/analyze/pdf", s.upload("pdf", s.analyzer.AnalyzePDF))
	r.Post("/analyze/video", s.upload("video", s.analyzer.AnalyzeVideo))

	return r
}

func (s *Server) handleModelsInfo(w http.ResponseWriter, _ *http.Request) {
	text := s.judge.Select(false)
	multi := s.judge.Select(true)
	writeJSON(w, map[string]any{
		"text_model": map[string]any{
			"id":           text.ModelID,
			"description":  "Used for text-only analysis (faster, cost-effective)",
			"capabilities": []string{"text analysis", "spam detection", "fake news detection"},
			"max_tokens":   text.MaxTokens,
		},
		"multimodal_model": map[string]any{
			"id":           multi.ModelID,
			"description":  "Used for multimedia content analysis (images, videos with text)",
			"capabilities": []string{"text analysis", "image analysis", "visual content detection", "deepfake detection"},
			"max_tokens":   multi.MaxTokens,
		},
		"selection_logic": "Automatically selects multimodal model when media content is detected, otherwise uses text model",
		"temperature":     text.Temperature,
	})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	content := r.FormValue("content")
	if content == "" {
		writeJSON(w, analysis.Result{
			"type":  "text",
			"error": "No content provided for analysis.",
		})
		return
	}
	writeJSON(w, s.analyzer.AnalyzeText(r.Context(), content))
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	url := r.FormValue("url")
	if url == "" {
		writeJSON(w, analysis.Result{
			"type":  "url",
			"error": "No URL provided for analysis.",
		})
		return
	}
	writeJSON(w, s.analyzer.AnalyzeURL(r.Context(), url))
}

// upload adapts a file analyzer into a multipart form handler. A missing
// or unreadable file part yields an empty Upload, which the analyzers
// report as "No file provided".
func (s *Server) upload(kind string, analyze func(ctx context.Context, up analysis.Upload) analysis.Result) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up := readUpload(r)
		if up.Filename == "" {
			shield.GetLogger(r.Context()).Warn("upload without file part", "kind", kind)
		}
		writeJSON(w, analyze(r.Context(), up))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

func readUpload(r *http.Request) analysis.Upload {
	file, hdr, err := r.FormFile("file")
	if err != nil {
		return analysis.Upload{}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return analysis.Upload{}
	}
	return analysis.Upload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}
}
