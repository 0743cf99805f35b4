package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"melodiapp-web/internal/di"
	sessionhttp "melodiapp-web/internal/session/adapter/http"
	"melodiapp-web/internal/session/config"
	"melodiapp-web/internal/shared/errors"
	"melodiapp-web/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"localhost"`
	Port            string        `env:"SERVER_PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func main() {
	fmt.Println("🚀 MelodiApp web - Starting session server...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	// Load server configuration
	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewLogger()

	sessionCfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load session configuration: %v", err)
	}
	appLogger.Info("Application configuration loaded successfully",
		zap.String("storage", sessionCfg.StorageDriver),
		zap.Bool("verifyTokens", !sessionCfg.DecodeOnly()))

	// Initialize Dependency Injection Container
	container := di.NewContainer(appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Error("Failed to close container", zap.Error(err))
		}
	}()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.InitializeSession(initCtx, sessionCfg); err != nil {
		log.Fatalf("Failed to initialize session module: %v", err)
	}
	appLogger.Info("Session module initialized successfully")

	app := fiber.New(fiber.Config{
		AppName:      "MelodiApp Web",
		Immutable:    true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := errors.GetHTTPStatus(err)
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
			if status >= fiber.StatusInternalServerError {
				appLogger.Error("HTTP Error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(status).JSON(sessionhttp.ErrorResponse{
				Error:   "request_failed",
				Message: err.Error(),
			})
		},
	})

	app.Use(sessionhttp.Recover(appLogger))
	app.Use(sessionhttp.RequestID())
	app.Use(sessionhttp.RequestContext())
	app.Use(sessionhttp.CORS(sessionCfg.AllowOrigins))
	app.Use(sessionhttp.SecurityHeaders())
	app.Use(sessionhttp.RequestLogger(appLogger))

	// Add health check endpoint with container health status
	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Error("Health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "UNHEALTHY",
				"error":   err.Error(),
				"message": "Tab storage is unavailable",
			})
		}

		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"message":   "MelodiApp web is running",
			"timestamp": time.Now().UTC(),
			"storage":   sessionCfg.StorageDriver,
		})
	})

	module := container.GetSessionModule()
	module.RegisterRoutes(app)

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	module.Start(runCtx)
	appLogger.Info("Session routes and janitor registered")

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Info("Starting HTTP server", zap.String("addr", serverAddr))

	// Start server in a goroutine for graceful shutdown
	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Error("Server failed to start", zap.Error(err))
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		fmt.Println("🛑 Shutting down server gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Error("Server forced to shutdown", zap.Error(err))
		}

		appLogger.Info("HTTP server stopped")
	}

	fmt.Println("✅ Application stopped gracefully.")
}
