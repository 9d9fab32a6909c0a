package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"picmon/internal/config"
	db "picmon/internal/db"
	"picmon/internal/db/migrate"
	httpapi "picmon/internal/httpapi"
	"picmon/internal/metrics"
	monitoring "picmon/internal/modules/monitoring"
	"picmon/internal/modules/monitoring/history"
	"picmon/internal/modules/monitoring/live"
	"picmon/internal/modules/monitoring/repository"
	"picmon/internal/modules/monitoring/service"
	"picmon/internal/modules/monitoring/views"
)

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

// BackendBase resolves the backend origin for the history fetch and the
// default STOMP endpoint.
func BackendBase(cfg config.Config) string {
	hostname := cfg.PublicHostname
	if hostname == "" {
		if h, err := os.Hostname(); err == nil {
			hostname = h
		}
	}
	return history.SelectBaseURL(hostname, history.Backend{
		Explicit: cfg.BackendURL,
		Local:    cfg.BackendLocalURL,
		Deployed: cfg.BackendDeployedURL,
	})
}

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	backendBase := BackendBase(cfg)
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"transport", cfg.Transport,
		"backend", backendBase,
		"stations", cfg.Stations,
		"stationPolicy", cfg.StationPolicy,
		"timezone", cfg.Location.String(),
		"historyInterval", cfg.HistoryInterval,
		"archiveEnabled", cfg.ArchiveEnabled,
		"sqlitePath", cfg.SQLitePath,
	)

	policy, err := live.ParsePolicy(cfg.StationPolicy)
	if err != nil {
		return err
	}

	var (
		dbConn  *sql.DB
		archive repository.ArchiveRepository
	)
	if cfg.ArchiveEnabled {
		dbConn, err = db.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(dbConn); closeErr != nil {
				logger.Error("db close", "error", closeErr)
			}
		}()
		if _, err := migrate.Run(ctx, dbConn, logger); err != nil {
			return err
		}
		archive = repository.NewRepository(dbConn)
		logger.Info("reading archive ready")
	}

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	state := live.New(live.Options{
		Policy:     policy,
		Stations:   cfg.Stations,
		MaxSeries:  cfg.MaxSeries,
		MaxRecords: cfg.MaxRecords,
		Location:   cfg.Location,
	})
	svc := service.NewService(state, archive, logger)
	svc.SetArchiveRecorder(m)

	subscriber, err := newSubscriber(cfg, backendBase, logger)
	if err != nil {
		return err
	}
	subscriber.SetObserver(m)
	// Register before Connect so the first delivered message is not lost.
	svc.Register(subscriber)

	mux := httpapi.NewMux(dbConn, svc, reg)
	monitoring.RegisterFeature(mux, svc, live.NewPalette(cfg.StationColors), cfg.MaxRecords)

	connectCtx, connectCancel := context.WithTimeout(ctx, connectTimeout)
	err = subscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		logger.Warn("live feed connection failed (retrying in background)", "transport", cfg.Transport, "error", err)
	}

	client := history.NewClient(backendBase, cfg.HistoryTimeout, logger)
	client.SetRecorder(m)
	poller := history.NewPoller(client, state, cfg.HistoryInterval, cfg.MaxRecords, logger)
	pollCtx, pollCancel := context.WithCancel(ctx)
	var pollWG sync.WaitGroup
	pollWG.Add(1)
	go func() {
		defer pollWG.Done()
		poller.Run(pollCtx)
	}()
	stopPoller := func() {
		pollCancel()
		pollWG.Wait()
	}
	defer stopPoller()

	srv := httpapi.NewServer(cfg, mux, logger, m.Middleware)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		subscriber.Disconnect()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("live feed disconnecting")
	subscriber.Disconnect()

	logger.Info("history poller stopping")
	stopPoller()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
