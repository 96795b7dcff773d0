package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/brainsync/internal/config"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver"
	"github.com/MrSnakeDoc/brainsync/internal/httpserver/deps"
	"github.com/MrSnakeDoc/brainsync/internal/logger"
	"github.com/MrSnakeDoc/brainsync/internal/notify"
	"github.com/MrSnakeDoc/brainsync/internal/remote"
	"github.com/MrSnakeDoc/brainsync/internal/scheduler"
	"github.com/MrSnakeDoc/brainsync/internal/synchronizer"
	"github.com/MrSnakeDoc/brainsync/internal/version"
)

const startupProbeTimeout = 3 * time.Second

type App struct {
	cfg       *config.Config
	logger    logger.Logger
	server    *httpserver.Server
	remote    *remote.Client
	sync      *synchronizer.Synchronizer
	refresher *scheduler.Refresher
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	client, err := remote.New(remote.Options{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.RequestTimeout,
		IncludeNSFW: cfg.IncludeNSFW,
	}, loggerClient.Named("remote"))
	if err != nil {
		loggerClient.Errorf("Invalid remote service configuration: %v", err)
		os.Exit(1)
	}

	syncer := synchronizer.New(client, synchronizer.Options{
		Filters:     cfg.DefaultFilters,
		SearchLimit: cfg.SearchLimit,
	}, loggerClient.Named("synchronizer"))

	// Create manual refresh trigger channel
	refreshTrigger := make(chan struct{}, 1)

	refresher := scheduler.NewRefresher(
		syncer,
		loggerClient.Named("refresher"),
		cfg.RefreshInterval,
		refreshTrigger,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		Sync:           syncer,
		Remote:         client,
		Toasts:         notify.NewQueue(),
		TagsLimit:      cfg.TagsLimit,
		RefreshTrigger: refreshTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:       cfg,
		logger:    loggerClient,
		server:    server,
		remote:    client,
		sync:      syncer,
		refresher: refresher,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting brainsync v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The service being down is not fatal: the view shows the error state
	// and the refresher retries.
	probeCtx, cancelProbe := context.WithTimeout(ctx, startupProbeTimeout)
	if err := a.remote.Health(probeCtx); err != nil {
		a.logger.Warn("remote service not reachable at startup",
			logger.String("url", a.remote.BaseURL()),
			logger.Error(err))
	} else {
		a.logger.Info("remote service reachable", logger.String("url", a.remote.BaseURL()))
	}
	cancelProbe()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Initial refetch, then periodic refresh. /readyz flips once it settles.
	a.refresher.Start(ctx)
	if a.cfg.RefreshInterval > 0 {
		a.logger.Info("refresher started",
			logger.Duration("interval", a.cfg.RefreshInterval))
	} else {
		a.logger.Info("periodic refresh disabled, manual trigger only")
	}

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.refresher.Stop()
		a.sync.Close()
		return err
	}

	a.refresher.Stop()

	// Releases event streams so Shutdown does not wait on them.
	a.sync.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ brainsync stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
