package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aioseo_meta_workflow/config"
	"aioseo_meta_workflow/generator"
	"aioseo_meta_workflow/logger"
	"aioseo_meta_workflow/observability"
	"aioseo_meta_workflow/publisher"
	"aioseo_meta_workflow/runlog"
	"aioseo_meta_workflow/server"
	"aioseo_meta_workflow/workflow"
)

const shutdownTimeout = 10 * time.Second

var verbose bool

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional; env vars override)")
	serve := flag.Bool("serve", false, "start webhook server")
	fallback := flag.Bool("fallback", false, "start fallback generator service")
	addr := flag.String("addr", "", "http listen address (overrides SERVER_ADDR / FALLBACK_ADDR)")
	postID := flag.Int("post", 0, "run the workflow once for this post id and print the result")
	triggeredBy := flag.String("triggered-by", "cli", "trigger label recorded with a -post run")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	if !*serve && !*fallback && *postID == 0 {
		fmt.Fprintln(os.Stderr, "one of --serve, --fallback or --post is required")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *serve, *fallback, *addr, *postID, *triggeredBy); err != nil {
		log.Error("exit", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, serve, fallback bool, addr string, postID int, triggeredBy string) error {
	// Fallback service mode needs none of the workflow collaborators.
	if fallback {
		listen := cfg.Server.FallbackAddr
		if addr != "" {
			listen = addr
		}
		log.Info("starting fallback service", zap.String("addr", listen))
		return listenAndServe(ctx, log, listen, server.FallbackRoutes(log))
	}

	shutdownTracing, err := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.App.Name,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Insecure:     cfg.Tracing.Insecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	orch, history, err := buildOrchestrator(ctx, cfg, log)
	if err != nil {
		return err
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	if postID != 0 {
		res, err := orch.Run(ctx, workflow.Request{PostID: postID, TriggeredBy: triggeredBy})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	var reader server.HistoryReader
	if history != nil {
		reader = history
	}
	srv, err := server.New(orch, reader, log, server.Config{
		RunTimeout:  config.Duration(cfg.Server.RunTimeout),
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		return err
	}
	listen := cfg.Server.Addr
	if addr != "" {
		listen = addr
	}
	log.Info("starting webhook server", zap.String("addr", listen), zap.Bool("openai", orch.Health().LLMConfigured))
	return listenAndServe(ctx, log, listen, srv.Routes())
}

func buildOrchestrator(ctx context.Context, cfg *config.Config, log *zap.Logger) (*workflow.Orchestrator, *runlog.History, error) {
	llm, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	var primary *generator.Agent
	if llm == nil {
		log.Warn("OPENAI_API_KEY not set, every run uses the fallback generator")
		primary = generator.NewAgent(nil)
	} else {
		primary = generator.NewAgent(llm,
			generator.WithNiche(cfg.Context),
			generator.WithEngine(cfg.LLM.Provider),
			generator.WithLogger(log.Named("generator")),
		)
	}

	var fb generator.FallbackGenerator = generator.LocalFallback{}
	if cfg.Fallback.URL != "" {
		client, err := generator.NewFallbackClient(cfg.Fallback.URL, &http.Client{Timeout: config.Duration(cfg.Fallback.Timeout)})
		if err != nil {
			return nil, nil, err
		}
		fb = client
	}

	store, err := publisher.New(publisher.Config{
		BaseURL:  cfg.WordPress.BaseURL,
		User:     cfg.WordPress.User,
		Password: cfg.WordPress.Password,
		Timeout:  config.Duration(cfg.WordPress.Timeout),
	}, nil, log.Named("wordpress"))
	if err != nil {
		return nil, nil, err
	}

	var history *runlog.History
	if cfg.Redis.Address != "" {
		history, err = runlog.NewHistory(runlog.NewRedisClient(runlog.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.HistoryLimit)
		if err != nil {
			return nil, nil, err
		}
		if err := history.Ping(ctx); err != nil {
			// history is optional; runs still succeed without it
			log.Warn("run history unavailable", zap.String("addr", cfg.Redis.Address), zap.Error(err))
		}
	}

	orch, err := workflow.New(store, primary, fb, runlog.New(log.Named("runs"), history),
		workflow.WithContext(cfg.Context),
		workflow.WithLogger(log.Named("workflow")),
	)
	if err != nil {
		return nil, nil, err
	}
	return orch, history, nil
}

// buildLLM returns nil when no model is configured.
func buildLLM(cfg config.LLMConfig) (generator.LLMClient, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	settings := &generator.LLMSettings{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     config.Duration(cfg.Timeout),
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return generator.NewOpenAILLMFromConfig(settings)
	case config.ProviderDeepSeek:
		// DeepSeek exposes an OpenAI-compatible API; base_url must point at it.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case config.ProviderMock:
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func listenAndServe(ctx context.Context, log *zap.Logger, addr string, handler http.Handler) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", zap.String("addr", addr))
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})
	return g.Wait()
}
