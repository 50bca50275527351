package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adserve/core/internal/api"
	"github.com/adserve/core/internal/config"
	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/geoip"
	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/logic/ratelimit"
	"github.com/adserve/core/internal/models"
	"github.com/adserve/core/internal/observability"
	"github.com/adserve/core/internal/rollup"
	"github.com/adserve/core/internal/tracker"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.OffersTable, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	adDataStore := models.NewInMemoryAdDataStore()

	catalog, err := pg.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := adDataStore.ReloadAll(catalog); err != nil {
		return fmt.Errorf("populate ad data store: %w", err)
	}

	redisStore, err := db.InitRedis(cfg.RedisAddr)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer redisStore.Close()

	geoSvc, err := geoip.Init(cfg.GeoIPDB)
	if err != nil {
		return fmt.Errorf("failed to load geoip db: %w", err)
	}
	defer func() { _ = geoSvc.Close() }()

	matcher := logic.NewMatcher(nil, nil)

	blocklists := tracker.NewBlocklists(nil, nil, nil)
	viewLimit := ratelimit.NewKeyedLimiter(cfg.RateLimitViewCapacity, ratelimit.Window{Capacity: cfg.RateLimitViewCapacity, Refill: cfg.RateLimitViewRefill}.PerSecond())
	clickLimit := ratelimit.NewKeyedLimiter(cfg.RateLimitClickCapacity, ratelimit.Window{Capacity: cfg.RateLimitClickCapacity, Refill: cfg.RateLimitClickRefill}.PerSecond())

	trackerHandler := &tracker.Handler{
		Store:              adDataStore,
		Redis:              redisStore,
		Postgres:           pg,
		GeoIP:              geoSvc,
		Matcher:            matcher,
		Blocklists:         blocklists,
		ViewLimit:          viewLimit,
		ClickLimit:         clickLimit,
		Logger:             logger,
		MaxViewTimeSeconds: cfg.MaxViewTimeSeconds,
		GlobalRecordViews:  cfg.GlobalRecordViews,
	}

	rollupWorker := &rollup.Worker{
		Store:    adDataStore,
		Postgres: pg,
		Redis:    redisStore,
		Logger:   logger,
		Interval: cfg.RollupInterval,
	}
	go rollupWorker.Run(ctx)

	baseURL := "http://localhost:" + cfg.Port
	srv := api.NewServer(logger, redisStore, pg, adDataStore, geoSvc, matcher, trackerHandler, rollupWorker, cfg, baseURL)
	go srv.StartReloadLoop(ctx, cfg.RollupInterval)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/decision/", srv.DecisionHandler).Methods("POST", "GET")
	router.HandleFunc("/proxy/view/{advertisement_id}/{nonce}/", srv.ViewProxyHandler).Methods("GET")
	router.HandleFunc("/proxy/click/{advertisement_id}/{nonce}/", srv.ClickProxyHandler).Methods("GET")
	router.HandleFunc("/proxy/view-time/{advertisement_id}/{nonce}/", srv.ViewTimeHandler).Methods("GET")
	router.HandleFunc("/health", srv.HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("adserve running", zap.String("addr", httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
