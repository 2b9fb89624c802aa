package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/api"
	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/internal/service"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg     *config.Config
	logger  *logger.Logger
	router  *gin.Engine
	service *service.Service
	browser *scraper.Browser
}

func New(cfg *config.Config, store *database.Store, logger *logger.Logger) *Server {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	browser := scraper.NewBrowser(cfg, logger)
	svc := service.New(cfg, browser, store, logger)

	api.SetupRoutes(router, api.NewHandlers(svc, store, logger, cfg))

	return &Server{
		cfg:     cfg,
		logger:  logger,
		router:  router,
		service: svc,
		browser: browser,
	}
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.cfg.RunTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Failed to start server", "error", err)
		}
	}()

	s.logger.Info("Server started", "address", srv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
	}

	s.service.Shutdown()
	if closeErr := s.browser.Close(); closeErr != nil {
		s.logger.Error("Failed to close browser", "error", closeErr)
	}

	if err != nil {
		return err
	}
	s.logger.Info("Server exited gracefully")
	return nil
}

func loggingMiddleware(logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []interface{}{
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"user_agent", c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("HTTP Request", fields...)
			return
		}
		logger.Info("HTTP Request", fields...)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
