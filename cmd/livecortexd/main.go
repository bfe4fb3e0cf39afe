// Command livecortexd runs the live conversation-understanding pipeline:
// transcript ingest, topic-graph maintenance, and background fact-checking,
// exposed over an HTTP surface that carries only health and metrics
// endpoints (see SPEC_FULL.md on transport being out of the core).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/livecortex/livecortex/internal/app"
	"github.com/livecortex/livecortex/internal/config"
	"github.com/livecortex/livecortex/internal/observe"
	"github.com/livecortex/livecortex/pkg/provider/llm"
	"github.com/livecortex/livecortex/pkg/provider/llm/anyllm"
	"github.com/livecortex/livecortex/pkg/provider/llm/openai"
	"github.com/livecortex/livecortex/pkg/provider/search"
	"github.com/livecortex/livecortex/pkg/provider/search/searxng"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional: a missing file is not an error, it just means
	// secrets are expected to already be in the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "livecortexd: loading .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "livecortexd: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "livecortexd: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("livecortexd starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "livecortex",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	providers, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}

	pipeline := app.New(cfg, *providers)

	var srv *http.Server
	if cfg.Server.ListenAddr != "" {
		srv = newHTTPServer(cfg.Server.ListenAddr, pipeline)
		go func() {
			slog.Info("health/metrics server listening", "addr", cfg.Server.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "err", err)
			}
		}()
	}

	slog.Info("pipeline ready — press Ctrl+C to shut down")

	runErr := make(chan error, 1)
	go func() { runErr <- pipeline.Run(ctx) }()

	<-ctx.Done()
	slog.Info("shutdown signal received, stopping…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "err", err)
		}
	}

	if err := pipeline.Shutdown(shutdownCtx); err != nil {
		slog.Error("pipeline shutdown error", "err", err)
		return 1
	}

	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	slog.Info("goodbye")
	return 0
}

// newHTTPServer builds the health/metrics-only HTTP surface, wrapping each
// handler with otelhttp so request spans and metrics flow through the same
// telemetry pipeline as the rest of the service.
func newHTTPServer(addr string, pipeline *app.Pipeline) *http.Server {
	mux := http.NewServeMux()
	health := pipeline.Health()
	mux.HandleFunc("/healthz", health.Healthz)
	mux.HandleFunc("/readyz", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	handler := otelhttp.NewHandler(observe.Middleware(observe.DefaultMetrics())(mux), "livecortexd")

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// ── Provider wiring ──────────────────────────────────────────────────────

// registerBuiltinProviders registers the LLM and search provider factories
// that ship with livecortex.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		return newOpenAIProvider(entry)
	})
	reg.RegisterLLM("anyllm", func(entry config.ProviderEntry) (llm.Provider, error) {
		return newAnyLLMProvider(entry)
	})
	reg.RegisterSearch("searxng", func(entry config.ProviderEntry) (search.Provider, error) {
		return newSearXNGProvider(entry)
	})
}

func newOpenAIProvider(entry config.ProviderEntry) (*openai.Provider, error) {
	apiKey := entry.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	var opts []openai.Option
	if entry.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(entry.BaseURL))
	}
	return openai.New(apiKey, entry.Model, opts...)
}

func newAnyLLMProvider(entry config.ProviderEntry) (*anyllm.Provider, error) {
	backend := entry.Backend
	if backend == "" {
		backend = "openai"
	}
	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(backend, entry.Model, opts...)
}

func newSearXNGProvider(entry config.ProviderEntry) (*searxng.Provider, error) {
	return searxng.New(entry.BaseURL)
}

// buildProviders instantiates the LLM and search providers named in cfg
// using reg, returning them in an [app.Providers] struct for the pipeline
// to consume.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		}
		ps.LLM = p
		slog.Info("provider created", "kind", "llm", "name", name)
	}

	if name := cfg.Providers.Search.Name; name != "" {
		p, err := reg.CreateSearch(cfg.Providers.Search)
		if err != nil {
			return nil, fmt.Errorf("create search provider %q: %w", name, err)
		}
		ps.Search = p
		slog.Info("provider created", "kind", "search", "name", name)
	}

	return ps, nil
}

// ── Logger ───────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
