// Command salessense-graphload loads a sales transaction CSV into Neo4j.
// The source is either a local file path or an s3://bucket/key URL served
// by the configured object store.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Aytaditya/salessense/internal/config"
	"github.com/Aytaditya/salessense/internal/graphload"
	"github.com/Aytaditya/salessense/internal/observability"
	s3store "github.com/Aytaditya/salessense/internal/storage/s3"
)

func main() {
	source := flag.String("source", "", "CSV source: local path or s3://bucket/key")
	skipConstraints := flag.Bool("skip-constraints", false, "do not create uniqueness constraints before loading")
	flag.Parse()

	cfg, err := config.LoadFromEnv("salessense-graphload")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	if strings.TrimSpace(*source) == "" {
		logger.Error("flag -source is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	reader, err := openSource(ctx, cfg, *source)
	if err != nil {
		logger.Error("failed to open source", slog.String("source", *source), slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = reader.Close() }()

	driver, err := neo4j.NewDriverWithContext(cfg.Graph.URI, neo4j.BasicAuth(cfg.Graph.Username, cfg.Graph.Password, ""))
	if err != nil {
		logger.Error("failed to create graph driver", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = driver.Close(context.Background()) }()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		logger.Error("failed to reach graph database", slog.Any("error", err))
		os.Exit(1)
	}

	loader := graphload.NewLoader(driver, cfg.Graph.Database, logger)
	if !*skipConstraints {
		if err := loader.EnsureConstraints(ctx); err != nil {
			logger.Error("failed to create constraints", slog.Any("error", err))
			os.Exit(1)
		}
	}

	rows, err := loader.Load(ctx, reader)
	if err != nil {
		logger.Error("load failed", slog.Int("rows_written", rows), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("load finished", slog.Int("rows", rows))
}

func openSource(ctx context.Context, cfg config.Config, source string) (io.ReadCloser, error) {
	if bucket, key, ok := strings.Cut(strings.TrimPrefix(source, "s3://"), "/"); ok && strings.HasPrefix(source, "s3://") {
		store, err := s3store.New(s3store.Config{
			Endpoint:        cfg.ObjectStore.Endpoint,
			Region:          cfg.ObjectStore.Region,
			Bucket:          bucket,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
			UseSSL:          cfg.ObjectStore.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store.Get(ctx, key)
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", source, err)
	}
	return file, nil
}
