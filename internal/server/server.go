// Package server exposes the scraping service over HTTP: scrape and batch
// endpoints, scrape history, health and prometheus metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/williampepple1/scrape-api/internal/config"
	"github.com/williampepple1/scrape-api/internal/logging"
	"github.com/williampepple1/scrape-api/internal/metrics"
	"github.com/williampepple1/scrape-api/internal/service"
	"github.com/williampepple1/scrape-api/internal/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server wraps the HTTP server and its dependencies.
type Server struct {
	config  *config.AppConfig
	service *service.Service
	store   store.Store
	logger  *logging.Logger
	http    *http.Server
}

// New builds the router and wires the handlers.
func New(cfg *config.AppConfig, svc *service.Service, st store.Store, m *metrics.Metrics, logger *logging.Logger) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		config:  cfg,
		service: svc,
		store:   st,
		logger:  logger,
	}

	router.GET("/health", s.handleHealth)
	router.POST("/scrape", s.handleScrape)
	router.POST("/scrape/batch", s.handleBatchScrape)
	router.GET("/scrapes", s.handleListScrapes)
	router.GET("/scrapes/:id", s.handleGetScrape)
	router.GET("/scrapes/stats/summary", s.handleScrapeStats)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	s.http = &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}
	return s
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("starting http server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}
