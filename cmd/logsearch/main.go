// Command logsearch ingests a handful of sample events into a viperlog
// store and runs searches against them, demonstrating the exact, fuzzy, and
// boolean query surfaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	viperlog "github.com/viper-logs/viperlog"
	"github.com/viper-logs/viperlog/pkg/config"
	"github.com/viper-logs/viperlog/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	dir := flag.String("dir", "logsearch-data", "log storage directory")
	expr := flag.String("query", "auth AND (error OR warning) NOT timeout", "boolean query to run")
	fuzzy := flag.String("fuzzy", "pament", "fuzzy query to run")
	threshold := flag.Float64("threshold", 0.7, "fuzzy similarity threshold")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Storage.Dir = *dir
	logger.Setup(cfg.Logging.InternalLevel, cfg.Logging.Format)

	log, err := viperlog.New("logsearch-demo",
		viperlog.WithConfig(cfg),
		viperlog.WithSanitizer(viperlog.MaskSanitizer("password", "token")),
	)
	if err != nil {
		slog.Error("failed to create logger", "error", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx := context.Background()
	ingestSamples(ctx, log)

	ids, err := log.BooleanSearch(*expr)
	if err != nil {
		slog.Error("boolean search failed", "query", *expr, "error", err)
		os.Exit(1)
	}
	fmt.Printf("boolean %q -> %d hits\n", *expr, len(ids))
	for _, id := range ids {
		ev, err := log.Fetch(ctx, id)
		if err != nil {
			slog.Error("fetch failed", "id", id.String(), "error", err)
			continue
		}
		fmt.Printf("  %s [%s] %s: %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Level, ev.Component, ev.Description)
	}

	matches, err := log.FuzzySearch(*fuzzy, *threshold)
	if err != nil {
		slog.Error("fuzzy search failed", "query", *fuzzy, "error", err)
		os.Exit(1)
	}
	fmt.Printf("fuzzy %q @ %.2f -> %d terms\n", *fuzzy, *threshold, len(matches))
	for _, m := range matches {
		fmt.Printf("  %-20s %.3f\n", m.Term, m.Score)
	}

	recent, err := log.Query().
		WithLevel("ERROR", "FATAL").
		FromComponent("auth").
		Execute(ctx)
	if err != nil {
		slog.Error("query failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("auth errors -> %d hits\n", len(recent))
}

func ingestSamples(ctx context.Context, log *viperlog.Logger) {
	samples := []struct {
		level                                viperlog.Level
		user, action, description, component string
	}{
		{viperlog.LevelInfo, "u-1", "login", "auth login success", "auth"},
		{viperlog.LevelError, "u-2", "login", "auth login failure timeout", "auth"},
		{viperlog.LevelWarn, "u-2", "login", "auth token nearing expiry warning", "auth"},
		{viperlog.LevelError, "u-3", "charge", "payment gateway refused card", "billing"},
		{viperlog.LevelInfo, "u-3", "charge", "payment processed", "billing"},
	}
	for _, s := range samples {
		if _, err := log.Log(ctx, s.level, s.user, s.action, s.description, s.component, nil); err != nil {
			slog.Error("ingest failed", "description", s.description, "error", err)
		}
	}
}
