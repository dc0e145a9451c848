package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"PocketTagger/internal/app"
	"PocketTagger/internal/config"
	"PocketTagger/internal/logging"
	"PocketTagger/internal/usecase"
)

func main() {
	cfg := config.Load()

	account := flag.String("account", cfg.Pocket.Account, "credentials section to use")
	count := flag.Int("count", cfg.Pipeline.FetchCount, "number of unread articles to fetch")
	serve := flag.Bool("serve", false, "expose the trigger API and run on the configured interval")
	flag.Parse()

	cfg.Pocket.Account = *account
	if *count > 0 {
		cfg.Pipeline.FetchCount = *count
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	os.Exit(run(cfg, logger, *serve))
}

func run(cfg config.Config, logger *slog.Logger, serve bool) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "account", cfg.Pocket.Account, "error", err)
		return 1
	}
	defer application.Close()

	if serve {
		if err := application.Serve(ctx); err != nil {
			logger.Error("application stopped", "error", err)
			return 1
		}
		return 0
	}

	record, err := application.RunOnce(ctx, 0)
	fmt.Println(usecase.Summary(record))
	if err != nil {
		return 1
	}
	return 0
}
