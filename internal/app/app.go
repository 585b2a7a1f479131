package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"SecurityBriefing/internal/collect"
	"SecurityBriefing/internal/config"
	"SecurityBriefing/internal/domain"
	"SecurityBriefing/internal/infrastructure/feed"
	"SecurityBriefing/internal/infrastructure/llm"
	"SecurityBriefing/internal/infrastructure/scheduler"
	"SecurityBriefing/internal/infrastructure/server"
	"SecurityBriefing/internal/infrastructure/storage"
	"SecurityBriefing/internal/logging"
	"SecurityBriefing/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	scheduler *usecase.Scheduler
	server    *server.Server
}

// New builds a runnable application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	repository := storage.NewPostgresRepository(pool)

	fetcher := feed.NewFetcher(feed.Options{
		ConnectTimeout: cfg.Pipeline.ConnectTimeout(),
		ReadTimeout:    cfg.Pipeline.ReadTimeout(),
		Retries:        cfg.Pipeline.FetchRetries,
		RetryBackoff:   cfg.Pipeline.RetryBackoff(),
	}, baseLogger.With("component", "fetcher"))

	collector := collect.NewCollector(fetcher, collect.Options{
		Lookback:        cfg.Pipeline.Lookback(),
		MinContentChars: cfg.Pipeline.MinContentChars,
		MaxItemsPerFeed: cfg.Pipeline.MaxItemsPerFeed,
		MaxTotalItems:   cfg.Pipeline.MaxTotalItems,
		Concurrency:     cfg.Pipeline.FetchConcurrency,
	}, baseLogger.With("component", "collector"))

	sources := make([]domain.FeedSource, 0, len(cfg.Feeds))
	for _, url := range cfg.Feeds {
		sources = append(sources, domain.FeedSource{URL: url})
	}

	briefing := usecase.NewBriefing(usecase.BriefingDeps{
		Collector:       collector,
		Generator:       llm.NewGeminiClient(cfg.Gemini),
		Repository:      repository,
		Sources:         sources,
		Model:           cfg.Gemini.Model,
		MaxContentChars: cfg.Pipeline.MaxContentCharsPerItem,
		Location:        cfg.Scheduler.Location(),
		Logger:          baseLogger.With("component", "pipeline"),
	})

	daily, err := scheduler.NewDaily(cfg.Scheduler.DailyAt, cfg.Scheduler.Location())
	if err != nil {
		pool.Close()
		return nil, err
	}

	auth := server.NewAuthMiddleware(cfg.Server.JWTSecret, baseLogger.With("component", "auth"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pool:      pool,
		scheduler: usecase.NewScheduler(daily, briefing, baseLogger.With("component", "scheduler")),
		server:    server.New(briefing, auth, baseLogger.With("component", "server")),
	}, nil
}

// Run starts the daily trigger and serves HTTP until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	defer a.pool.Close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.scheduler.Stop(shutdownCtx)
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
