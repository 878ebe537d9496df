package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/renthub/rent-ledger/internal/adapters/gateways/credit"
	"github.com/renthub/rent-ledger/internal/adapters/gateways/paymongo"
	"github.com/renthub/rent-ledger/internal/adapters/gateways/paypal"
	"github.com/renthub/rent-ledger/internal/adapters/gateways/stripe"
	"github.com/renthub/rent-ledger/internal/adapters/notify"
	"github.com/renthub/rent-ledger/internal/adapters/postgres"
	"github.com/renthub/rent-ledger/internal/config"
	"github.com/renthub/rent-ledger/internal/domain/ports"
	settlementHandler "github.com/renthub/rent-ledger/internal/handlers/settlement"
	settlementService "github.com/renthub/rent-ledger/internal/services/settlement"
	"github.com/renthub/rent-ledger/pkg/logging"
	"github.com/renthub/rent-ledger/pkg/middleware"
	"github.com/renthub/rent-ledger/pkg/observability"
	"github.com/renthub/rent-ledger/pkg/resilience"
)

func main() {
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting rent ledger service",
		zap.String("version", "0.1.0"),
	)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	dbPool, err := initDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Gateway credentials may come from a secrets backend instead of the
	// environment.
	if err := loadGatewayCredentials(context.Background(), cfg, logger); err != nil {
		logger.Fatal("Failed to load gateway credentials", zap.Error(err))
	}

	portLogger := logging.NewZapLogger(logger)
	timeouts := resilience.DefaultTimeoutConfig()

	db := postgres.NewDBExecutor(dbPool)
	bills := postgres.NewBillRepository(db)
	balances := postgres.NewBalanceRepository(db)
	ledger := postgres.NewLedgerRepository(db)
	occupancies := postgres.NewOccupancyRepository(db)

	gateways := buildGateways(cfg, db, bills, balances, timeouts, portLogger)

	var notifier ports.Notifier
	if cfg.Notifier.TenantWebhookURL == "" && cfg.Notifier.LandlordWebhookURL == "" {
		notifier = notify.NewNoop(portLogger)
	} else {
		notifier = notify.NewWithDefaults(notify.Config{
			TenantWebhookURL:   cfg.Notifier.TenantWebhookURL,
			LandlordWebhookURL: cfg.Notifier.LandlordWebhookURL,
			SigningSecret:      cfg.Notifier.SigningSecret,
		}, portLogger)
	}

	service := settlementService.NewService(
		db, bills, balances, ledger, occupancies,
		gateways, notifier, timeouts, portLogger,
	)
	handler := settlementHandler.NewHandler(service, timeouts, portLogger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestLogger(portLogger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	rateLimiter := middleware.NewRateLimiter(10, 20)
	defer rateLimiter.Stop()
	router.Use(rateLimiter.Handler)

	handler.Routes(router)

	healthChecker := observability.NewHealthChecker(dbPool)
	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: timeouts.HTTPHandler + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// buildGateways wires one adapter per enabled gateway. The credit gateway
// has no external provider and is always available.
func buildGateways(
	cfg *config.Config,
	db ports.DBPort,
	bills ports.BillRepository,
	balances ports.BalanceRepository,
	timeouts *resilience.TimeoutConfig,
	logger ports.Logger,
) []ports.Gateway {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	gateways := []ports.Gateway{
		credit.New(bills, balances, db, logger),
	}
	if cfg.Stripe.Enabled {
		gateways = append(gateways, stripe.New(stripe.Config{
			BaseURL:   cfg.Stripe.BaseURL,
			SecretKey: cfg.Stripe.SecretKey,
		}, httpClient, timeouts, logger))
	}
	if cfg.PayMongo.Enabled {
		gateways = append(gateways, paymongo.New(paymongo.Config{
			BaseURL:   cfg.PayMongo.BaseURL,
			SecretKey: cfg.PayMongo.SecretKey,
		}, httpClient, timeouts, logger))
	}
	if cfg.PayPal.Enabled {
		gateways = append(gateways, paypal.New(paypal.Config{
			BaseURL:      cfg.PayPal.BaseURL,
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
		}, httpClient, timeouts, logger))
	}
	return gateways
}

// initLogger initializes the logger
func initLogger() *zap.Logger {
	env := getEnv("ENVIRONMENT", "development")

	if env == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, _ := zapCfg.Build()
		return logger
	}

	logger, _ := zap.NewDevelopment()
	return logger
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
