package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"PocketTagger/internal/config"
	"PocketTagger/internal/domain"
	"PocketTagger/internal/infrastructure/cache"
	"PocketTagger/internal/infrastructure/credentials"
	"PocketTagger/internal/infrastructure/httpapi"
	"PocketTagger/internal/infrastructure/pocket"
	"PocketTagger/internal/infrastructure/scheduler"
	"PocketTagger/internal/infrastructure/storage"
	"PocketTagger/internal/infrastructure/tagger"
	"PocketTagger/internal/infrastructure/telegram"
	"PocketTagger/internal/logging"
	"PocketTagger/internal/ports"
	"PocketTagger/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	runner *usecase.Runner
	store  *storage.SQLiteStore
}

// New resolves credentials, loads rules and assembles the pipeline for cfg.Pocket.Account.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	rules, err := config.LoadRuleSet(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}

	creds, err := credentials.NewStore(cfg.Pocket.CredentialsPath)
	if err != nil {
		return nil, err
	}

	baseLogger.Debug("credentials store", "path", creds.Path(), "account", cfg.Pocket.Account)

	a := &Application{cfg: cfg, logger: baseLogger}

	var recorder ports.RunRecorder
	if cfg.Storage.SQLitePath != "" {
		store, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		a.store = store
		recorder = store
	}

	var notifier ports.Notifier
	if tg := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); tg.Configured() {
		notifier = tg
	}

	builder := usecase.Builder{
		Credentials: creds,
		NewService: func(c domain.Credentials) ports.ArticleService {
			return pocket.NewClient(cfg.Pocket.BaseURL, c, &http.Client{Timeout: cfg.Pocket.Timeout})
		},
		NewTagger: func(r domain.RuleSet, pageCache ports.PageCache) (ports.Tagger, error) {
			return tagger.New(r, pageCache,
				tagger.WithHTTPClient(&http.Client{Timeout: cfg.Tagger.Timeout}),
				tagger.WithUserAgent(cfg.Tagger.UserAgent),
				tagger.WithMaxBodyBytes(cfg.Tagger.MaxBodyBytes),
				tagger.WithLogger(baseLogger.With("component", "tagger")),
			)
		},
		Recorder: recorder,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "pipeline"),
		Options: usecase.Options{
			FetchCount:        cfg.Pipeline.FetchCount,
			ChunkSize:         cfg.Pipeline.ChunkSize,
			SequentialPersist: cfg.Pipeline.SequentialPersist,
			TagConcurrency:    cfg.Tagger.Concurrency,
		},
	}

	pipeline, err := builder.Build(ctx, cfg.Pocket.Account, rules, a.pageCache(ctx, rules))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.runner = usecase.NewRunner(pipeline, recorder)
	return a, nil
}

func (a *Application) pageCache(ctx context.Context, rules domain.RuleSet) ports.PageCache {
	if !rules.NeedsPage() {
		return nil
	}

	switch a.cfg.Cache.Driver {
	case config.CacheMemory:
		return cache.NewInMemoryPageCache()
	case config.CacheSQLite:
		if a.store == nil {
			a.logger.Warn("sqlite cache requested without storage.sqlitePath, using memory")
			return cache.NewInMemoryPageCache()
		}
		if purged, err := a.store.PurgePages(ctx); err != nil {
			a.logger.Warn("purge expired pages", "error", err)
		} else if purged > 0 {
			a.logger.Debug("expired pages purged", "count", purged)
		}
		return a.store
	default:
		return nil
	}
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context, count int) (domain.RunRecord, error) {
	return a.runner.Run(ctx, count)
}

// Serve exposes the trigger API and runs the scheduler until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	handler := httpapi.NewRunHandler(a.runner, a.logger.With("component", "api"))
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           httpapi.SetupRoutes(handler, a.logger.With("component", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched := usecase.NewScheduler(
		scheduler.NewTickerScheduler(a.cfg.Scheduler.Interval),
		a.runner,
		a.logger.With("component", "scheduler"),
	)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.logger.Info("api listening", "addr", srv.Addr, "interval", a.cfg.Scheduler.Interval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	group.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return errors.Wrap(err, "start scheduler")
		}
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := sched.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler stop", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

// Close releases the storage handle.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
