package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"reversion/internal/api"
	"reversion/internal/config"
	"reversion/internal/exchange"
	"reversion/internal/feed"
	"reversion/internal/repository"
	"reversion/internal/risk"
	"reversion/internal/sink"
	"reversion/internal/strategy"
	"reversion/internal/wsops"
	"reversion/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.InitLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer logger.Sync()

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", utils.Err(err))
	}
	defer db.Close()
	logger.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

	eventSink := sink.New(db, logger)
	defer eventSink.Close()

	if err := cfg.ResolveVersion(eventSink.Configs()); err != nil {
		logger.Error("failed to resolve persisted config version, continuing with version 0", utils.Err(err))
	} else {
		logger.Info("configuration version resolved", utils.Int("config_version", cfg.Version))
	}

	hub := wsops.NewHub()
	go hub.Run()

	feedClient := feed.NewClient(cfg.Venue.WSURL, cfg.Strategy.Symbols, logger)

	var liveAdapter *exchange.Adapter
	if cfg.Venue.APIKey != "" && cfg.Venue.APISecret != "" {
		liveAdapter = exchange.NewLiveAdapter(cfg.Venue.APIKey, cfg.Venue.APISecret, cfg.Venue.ActiveBaseURL())
	}
	paperAdapter := exchange.NewPaperAdapter(cfg.Venue.PaperEquity, feedClient.Cache.Mid)

	governor := risk.NewGovernor(risk.Config{
		MaxTradesPerDay:                    cfg.Strategy.MaxTradesPerDay,
		MaxConsecutiveLosses:                cfg.Strategy.MaxConsecutiveLosses,
		DailyMaxLossPct:                    cfg.Strategy.DailyMaxLossPct,
		PauseAfterConsecutiveLossesMinutes: cfg.Strategy.PauseAfterConsecutiveLossesMinutes,
	}, cfg.Venue.PaperEquity, time.Now(), logger)

	core := strategy.NewCore(strategy.Config{
		Params:       strategy.ParamsFromConfig(&cfg.Strategy),
		Cache:        feedClient.Cache,
		Client:       feedClient,
		LiveAdapter:  liveAdapter,
		PaperAdapter: paperAdapter,
		StartMode:    cfg.Venue.Mode,
		Governor:     governor,
		Sink:         eventSink,
		Push:         hub,
		Log:          logger,
	})

	deps := &api.Dependencies{
		Commands: repository.NewControlCommandRepository(db),
		Health:   repository.NewHealthCheckRepository(db),
		Security: cfg.Security,
	}
	router := api.SetupRoutes(deps)
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		wsops.ServeWS(hub, w, r)
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	coreErrCh := make(chan error, 1)
	go func() {
		coreErrCh <- core.Run(ctx)
	}()

	go func() {
		logger.Info("starting control surface", utils.String("addr", server.Addr))
		var err error
		if cfg.Server.UseHTTPS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("control surface failed", utils.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("termination signal received, flattening and shutting down")
		cancel()
		<-coreErrCh
	case err := <-coreErrCh:
		logger.Error("strategy core exited on its own", utils.Err(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("control surface forced to shutdown", utils.Err(err))
	}

	logger.Info("server exited")
}

// initDatabase opens the Postgres connection backing the Event Sink and
// verifies it's reachable before the Strategy Core boots against it.
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
