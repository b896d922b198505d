package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Aytaditya/salessense/internal/api"
	"github.com/Aytaditya/salessense/internal/catalog"
	catalogpostgres "github.com/Aytaditya/salessense/internal/catalog/postgres"
	"github.com/Aytaditya/salessense/internal/config"
	duckdbengine "github.com/Aytaditya/salessense/internal/engine/duckdb"
	neo4jengine "github.com/Aytaditya/salessense/internal/engine/neo4j"
	"github.com/Aytaditya/salessense/internal/llm"
	"github.com/Aytaditya/salessense/internal/observability"
	"github.com/Aytaditya/salessense/internal/orders"
	"github.com/Aytaditya/salessense/internal/pipeline"
	"github.com/Aytaditya/salessense/internal/synth"
)

func main() {
	cfg, err := config.LoadFromEnv("salessense-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	generator, err := newGenerator(cfg)
	if err != nil {
		logger.Error("failed to initialize text generator", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:            logger,
		DependencyTimeout: time.Second,
		SQLPipeline: pipeline.New(pipeline.Config{
			Generator:   generator,
			Engine:      duckdbengine.New(),
			Dialect:     synth.DialectSQL,
			Logger:      logger,
			SampleRows:  cfg.Pipeline.SampleRows,
			RowLimit:    cfg.Pipeline.RowLimit,
			LLMTimeout:  cfg.AI.Timeout,
			AllowWrites: cfg.Pipeline.AllowWrites,
		}),
	}

	readiness := []api.ReadinessCheck{api.CheckCatalogDSN(cfg)}

	if cfg.Graph.Enabled {
		driver, err := neo4j.NewDriverWithContext(cfg.Graph.URI, neo4j.BasicAuth(cfg.Graph.Username, cfg.Graph.Password, ""))
		if err != nil {
			logger.Error("failed to create graph driver", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = driver.Close(context.Background()) }()

		verifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := driver.VerifyConnectivity(verifyCtx); err != nil {
			cancel()
			logger.Error("failed to reach graph database", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()

		deps.GraphPipeline = pipeline.New(pipeline.Config{
			Generator:  generator,
			Engine:     neo4jengine.NewEngine(driver, cfg.Graph.Database),
			Dialect:    synth.DialectCypher,
			Logger:     logger,
			RowLimit:   cfg.Pipeline.RowLimit,
			LLMTimeout: cfg.AI.Timeout,
		})
	}

	if cfg.Catalog.Enabled {
		catalogDB, err := catalogpostgres.Open(context.Background(), catalogpostgres.DBConfig{
			DSN:             cfg.Catalog.DSN,
			MaxOpenConns:    cfg.Catalog.MaxOpenConns,
			MaxIdleConns:    cfg.Catalog.MaxIdleConns,
			ConnMaxIdleTime: cfg.Catalog.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Catalog.ConnMaxLifetime,
		})
		if err != nil {
			logger.Error("failed to open catalog db", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = catalogDB.Close() }()

		repo := catalogpostgres.NewRepository(catalogDB)
		store := catalog.NewStore(repo)
		if _, err := store.Reload(context.Background()); err != nil {
			logger.Warn("initial catalog reload failed", slog.Any("error", err))
		}
		deps.Catalog = store
		deps.OrderParser = orders.NewParser(generator, store)
		readiness = append(readiness, repo.HealthCheck)
	}

	deps.Readiness = api.CombineReadinessChecks(readiness...)

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func newGenerator(cfg config.Config) (llm.Generator, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIGenerator(llm.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
		})
	default:
		return llm.NewAnthropicGenerator(llm.AnthropicConfig{
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
		})
	}
}
