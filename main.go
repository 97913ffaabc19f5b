package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"notify-gateway/config"
	"notify-gateway/handlers"
	"notify-gateway/inbox"
	"notify-gateway/logging"
	"notify-gateway/session"
	"notify-gateway/socket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize session store
	store, err := session.NewRedisStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	// Initialize the notification core
	ib := inbox.New()
	advisor := socket.NewLogAdvisor(logger)
	manager := socket.NewManager(cfg, store, ib, advisor, logger)
	defer manager.Disconnect()

	// Best effort: if a session is already stored, come up connected.
	manager.Connect()

	// Setup HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.CustomHTTPErrorHandler
	handlers.SetErrorLogger(logger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(logger))

	apiHandler := handlers.NewAPIHandler(ib, manager, store, logger)
	apiHandler.RegisterRoutes(e)

	// Start server in goroutine
	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	logger.Info("Server stopped")
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	httpLogger := logger.With("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			httpLogger.Info("Request",
				"method", c.Request().Method,
				"uri", c.Request().RequestURI,
				"status", c.Response().Status,
				"duration", time.Since(start).String())
			return err
		}
	}
}
