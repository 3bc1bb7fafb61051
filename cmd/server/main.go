package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"proxyembed/internal/config"
	"proxyembed/internal/handler"
	"proxyembed/internal/locale"
	"proxyembed/internal/middleware"
	"proxyembed/internal/repository/postgres"
	"proxyembed/internal/service"
	redisstore "proxyembed/internal/store/redis"
	"proxyembed/internal/transport/webhook"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx := context.Background()

	// Create pgx connection pool for the delivery log
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected")

	// Connect Redis for per-destination embed policies
	redisClient, err := redisstore.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("redis connected", "addr", cfg.RedisAddr)

	// Load embedded locale tables for fallback timestamp formatting
	locales, err := locale.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load locale registry: %v", err)
	}
	logger.Info("locale registry initialized", "locales", locales.Locales())

	// Wire the delivery pipeline
	deliveryLog := postgres.NewDeliveryLog(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	})
	policies := redisstore.NewPolicyStore(redisClient, cfg.PolicyTTL, logger)
	deliverer := webhook.NewClient(cfg.WebhookTimeout, logger)
	deliveryService := service.NewDeliveryService(policies, deliverer, deliveryLog, locales, cfg.DefaultLocale, logger)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", deliveryHandler.HealthCheck)

	// Rendering and delivery
	mux.HandleFunc("POST /v1/render", deliveryHandler.Render)
	mux.HandleFunc("POST /v1/send", deliveryHandler.Send)

	// Per-destination embed policies
	mux.HandleFunc("PUT /v1/destinations/{id}/embed-policy", deliveryHandler.SetPolicy)
	mux.HandleFunc("GET /v1/destinations/{id}/embed-policy", deliveryHandler.GetPolicy)
	mux.HandleFunc("DELETE /v1/destinations/{id}/embed-policy", deliveryHandler.ClearPolicy)

	// Delivery history
	mux.HandleFunc("GET /v1/deliveries", deliveryHandler.ListDeliveries)

	// Middleware chain
	var root http.Handler = mux
	root = middleware.RequestLogging(logger)(root)
	root = middleware.Recovery(logger)(root)
	root = cors.New(cors.Options{
		AllowedOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(root)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr)
	if err := http.ListenAndServe(addr, root); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
