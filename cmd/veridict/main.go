// Entry point for the veridict analysis service. Wires the fetcher, judge,
// analyzers, optional Elasticsearch persistence and event log behind the
// chi HTTP surface, plus an optional MCP stdio transport.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/veridict/veridict/analysis"
	"github.com/veridict/veridict/eventlog"
	"github.com/veridict/veridict/judge"
	"github.com/veridict/veridict/server"
	"github.com/veridict/veridict/store"
	"github.com/veridict/veridict/urlguard"
	"github.com/veridict/veridict/webfetch"
)

type appConfig struct {
	Server   server.Config   `yaml:"server"`
	Judge    judge.Config    `yaml:"judge"`
	Store    store.Config    `yaml:"store"`
	Analysis analysis.Config `yaml:"analysis"`
	Fetch    struct {
		TimeoutSeconds int   `yaml:"timeout_seconds"`
		MaxBytes       int64 `yaml:"max_bytes"`
	} `yaml:"fetch"`
	EventDB string `yaml:"event_db"`
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address, overrides config and PORT")
	logLevel := flag.String("log-level", "", "debug, info, warn or error")
	flag.Parse()

	// Logging.
	if *logLevel == "" {
		*logLevel = env("LOG_LEVEL", "info")
	}
	var lvl slog.Level
	switch *logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	judgeClient := judge.New(cfg.Judge)

	fetcher := webfetch.New(webfetch.Config{
		Timeout:      time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		MaxBytes:     cfg.Fetch.MaxBytes,
		URLValidator: urlguard.Validate,
	})

	opts := []analysis.Option{analysis.WithLogger(logger)}

	// Elasticsearch persistence is optional: without an address the
	// analyzers run fire-and-forget without a store.
	if len(cfg.Store.Addresses) > 0 {
		st, err := store.New(cfg.Store, logger)
		if err != nil {
			slog.Error("elasticsearch", "error", err)
			os.Exit(1)
		}
		opts = append(opts, analysis.WithStore(st))
	}

	if cfg.EventDB != "" {
		events, err := eventlog.Open(cfg.EventDB)
		if err != nil {
			slog.Error("event log", "error", err)
			os.Exit(1)
		}
		defer events.Close()
		opts = append(opts, analysis.WithEventLog(events))
	}

	analyzer := analysis.New(cfg.Analysis, fetcher, judgeClient, opts...)

	// Optional MCP stdio transport.
	if env("MCP_TRANSPORT", "") == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "veridict",
			Version: "1.0.0",
		}, nil)
		analyzer.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp stdio", "error", err)
			}
		}()
	}

	api := server.New(cfg.Server, analyzer, judgeClient, server.WithLogger(logger))

	srv := &http.Server{
		Addr:              api.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// loadConfig reads the optional YAML file and applies env overrides on top.
// Credentials come from the environment only, never from the file.
func loadConfig(path string) (appConfig, error) {
	var cfg appConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if v := os.Getenv("TEXT_MODEL_ID"); v != "" {
		cfg.Judge.TextModelID = v
	}
	if v := os.Getenv("MULTIMODAL_MODEL_ID"); v != "" {
		cfg.Judge.MultimodalModelID = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Judge.Region = v
	}
	cfg.Judge.AccessKey = os.Getenv("AWS_ACCESS_KEY")
	cfg.Judge.SecretKey = os.Getenv("AWS_SECRET_KEY")

	if v := os.Getenv("ELASTIC_URL"); v != "" {
		cfg.Store.Addresses = strings.Split(v, ",")
	}
	cfg.Store.APIKey = os.Getenv("ELASTIC_API_KEY")

	if v := os.Getenv("EVENT_DB"); v != "" {
		cfg.EventDB = v
	}
	return cfg, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
