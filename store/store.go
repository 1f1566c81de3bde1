// Package store persists completed analysis results into an Elasticsearch
// index. Writes are fire-and-forget from the pipeline's perspective: a
// failing index never fails the submission, it is logged and dropped.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// Config configures the result store.
type Config struct {
	Addresses []string `yaml:"addresses"`
	APIKey    string   `yaml:"-"`
	Index     string   `yaml:"index"`
}

func (c *Config) defaults() {
	if c.Index == "" {
		c.Index = "fake_content"
	}
}

// Document is the persisted shape of one completed submission.
type Document struct {
	DocType   string `json:"doc_type"`
	Source    string `json:"source"`
	Judgement string `json:"judgement"`
}

// Store indexes analysis results. Safe for concurrent use.
type Store struct {
	es     *elasticsearch.Client
	index  string
	logger *slog.Logger
}

// New creates a Store from the given configuration.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		APIKey:    cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("store: elasticsearch client: %w", err)
	}
	return &Store{es: es, index: cfg.Index, logger: logger}, nil
}

// Save indexes one result document. A missing judgement is stored as
// "Unknown". Errors are logged, never returned.
func (s *Store) Save(ctx context.Context, docType, source, judgement string) {
	if judgement == "" {
		judgement = "Unknown"
	}
	body, err := json.Marshal(Document{DocType: docType, Source: source, Judgement: judgement})
	if err != nil {
		s.logger.Error("store: encode document", "error", err, "doc_type", docType)
		return
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: uuid.NewString(),
		Body:       strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		s.logger.Error("store: index request", "error", err, "doc_type", docType)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.logger.Error("store: index rejected", "status", res.Status(), "doc_type", docType)
		return
	}
	s.logger.Debug("store: result indexed", "doc_type", docType, "index", s.index)
}
