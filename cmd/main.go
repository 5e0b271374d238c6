package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/adapters/http/api"
	app "github.com/okian/levelup/internal/app"
	"github.com/okian/levelup/internal/config"
	"github.com/okian/levelup/internal/domain/scoring"
	"github.com/okian/levelup/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is configured from cfg, so it is not available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "levelup exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled, then shuts everything down.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc, store, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "closing event log failed", logger.Error(err))
		}
	}()
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	sched, err := newScheduler(ctx, svc, time.Duration(cfg.StatsIntervalMS)*time.Millisecond)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService opens the configured event log and builds the service around it.
// The caller closes the returned store after stopping the service.
func newService(ctx context.Context, cfg *config.Config) (*app.Service, eventlog.Store, error) {
	store, err := app.OpenStore(ctx, app.StoreConfig{
		Driver:            cfg.StoreDriver,
		Path:              cfg.StorePath,
		S3Bucket:          cfg.S3Bucket,
		S3Prefix:          cfg.S3Prefix,
		S3Region:          cfg.S3Region,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	svc, err := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithStore(store),
		app.WithStoreName(cfg.StoreDriver),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithFeedSize(cfg.FeedSize),
		app.WithLevelSize(cfg.LevelSize),
		app.WithPointsPerPress(cfg.PointsPerPress),
		app.WithLevelAssets(cfg.LevelAssets),
		app.WithLevelUpMessages(cfg.LevelUpMessages),
		app.WithStages(cfg.Stages),
		app.WithScorer(scoring.NewMultiplierScorer(
			scoring.WithDefaultMultiplier(cfg.DamageMultiplier),
			scoring.WithSourceMultipliers(cfg.SourceMultipliers),
		)),
		app.WithCalendarDays(cfg.CalendarDays),
		app.WithSummaryWeeks(cfg.SummaryWeeks),
		app.WithMaxCalendarDays(cfg.MaxCalendarDays),
		app.WithMaxSummaryWeeks(cfg.MaxSummaryWeeks),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return svc, store, nil
}

// newHandler registers the API routes.
func newHandler(svc *app.Service, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(mux)
	return mux
}

// newScheduler refreshes system and service gauges every interval.
func newScheduler(ctx context.Context, svc *app.Service, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { svc.RefreshGauges(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule gauge refresh: %w", err)
	}
	return sched, nil
}
