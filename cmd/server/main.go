package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/metrics"
	"github.com/williampepple1/scrape-api/internal/server"
	"github.com/williampepple1/scrape-api/internal/service"
	"github.com/williampepple1/scrape-api/internal/store"
)

func main() {
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	port := flag.String("port", "", "Port to listen on (overrides configuration)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger, err = logging.New(logging.Config{Level: cfg.Logging.Level})
		if err != nil {
			log.Fatalf("Error creating logger: %v", err)
		}
	}
	defer logger.Sync()

	st := openStore(cfg, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			logger.Warn("closing store failed", zap.Error(err))
		}
	}()

	m := metrics.New()
	svc := service.New(cfg, logger).WithStore(st).WithMetrics(m)
	srv := server.New(cfg, svc, st, m, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

// openStore connects MongoDB when persistence is enabled, falling back to
// the in-memory store when it is not or the connection fails.
func openStore(cfg *config.AppConfig, logger *logging.Logger) store.Store {
	if !cfg.Store.Enabled {
		logger.Info("persistence disabled, using in-memory store")
		return store.NewMemoryStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.NewMongoStore(ctx, cfg.Store.URI, cfg.Store.Database)
	if err != nil {
		logger.Warn("connecting to mongodb failed, falling back to in-memory store", zap.Error(err))
		return store.NewMemoryStore()
	}
	logger.Info("connected to mongodb", zap.String("database", cfg.Store.Database))
	return st
}
