package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/pagecheck/internal/browser"
	"github.com/hamed0406/pagecheck/internal/config"
	"github.com/hamed0406/pagecheck/internal/httpapi"
	apimw "github.com/hamed0406/pagecheck/internal/httpapi/middleware"
	"github.com/hamed0406/pagecheck/internal/logging"
	"github.com/hamed0406/pagecheck/internal/notify"
	"github.com/hamed0406/pagecheck/internal/pageload"
	"github.com/hamed0406/pagecheck/internal/probe"
	"github.com/hamed0406/pagecheck/internal/repo"
	"github.com/hamed0406/pagecheck/internal/repo/memory"
	"github.com/hamed0406/pagecheck/internal/repo/postgres"
	"github.com/hamed0406/pagecheck/internal/scheduler"
)

type store interface {
	repo.TargetStore
	repo.ResultStore
	repo.AlertStore
}

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store = memory.New()
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_open", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("postgres_migrate", zap.Error(err))
		}
		st = pg
	}

	b, err := browser.New(ctx, logger, browser.Options{
		RemoteURL:   cfg.BrowserWSURL,
		Headless:    cfg.Headless,
		IdleTimeout: cfg.IdleTimeout,
	})
	if err != nil {
		logger.Fatal("browser_start", zap.Error(err))
	}
	defer b.Close()

	opts := pageload.DefaultOptions()
	opts.Label = cfg.PrimaryLabel
	opts.InputSelector = pageload.Placeholder(cfg.InputPlaceholder)
	opts.Timeout = cfg.CheckTimeout
	opts.RootTimeout = cfg.RootTimeout
	opts.ScreenshotDir = cfg.ScreenshotDir

	checker := &probe.RetryChecker{
		Inner: &probe.GatedChecker{
			Gate: probe.NewHTTPChecker(10 * time.Second),
			Main: probe.NewPageChecker(logger, probe.BrowserOpener{Browser: b}, opts),
		},
		Attempts: cfg.RetryAttempts,
		Backoff:  cfg.RetryBackoff,
	}

	// each attempt may spend idle + root + label budgets
	perCheck := time.Duration(cfg.RetryAttempts) * (cfg.IdleTimeout + cfg.RootTimeout + cfg.CheckTimeout + cfg.RetryBackoff)
	rc := scheduler.NewRechecker(logger, st, st, checker, cfg.CheckInterval, perCheck, cfg.MaxConcurrentChecks)
	go rc.Run(ctx)

	var notifier notify.Notifier = notify.Nop{}
	if s := notify.NewSlack(cfg.SlackWebhookURL); s != nil {
		notifier = notify.Multi{s}
	}
	al := scheduler.NewAlerter(logger, st, st, notifier, scheduler.AlerterConfig{
		AlertOnRecovery: cfg.AlertOnRecovery,
		AlertOnDegraded: cfg.AlertOnDegraded,
		Cooldown:        cfg.AlertCooldown,
		PollInterval:    30 * time.Second,
	})
	go func() { _ = al.Run(ctx) }()

	api := httpapi.NewServer(logger, st, st, checker)
	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.Bool("postgres", cfg.DatabaseURL != ""))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_error", zap.Error(err))
	}
	logger.Info("api_stopped")
}
