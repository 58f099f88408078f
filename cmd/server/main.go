package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/kevin07696/etaca-service/internal/adapters/database"
	"github.com/kevin07696/etaca-service/internal/adapters/fiserv"
	adapterports "github.com/kevin07696/etaca-service/internal/adapters/ports"
	"github.com/kevin07696/etaca-service/internal/adapters/postgres"
	"github.com/kevin07696/etaca-service/internal/adapters/secrets"
	"github.com/kevin07696/etaca-service/internal/config"
	"github.com/kevin07696/etaca-service/internal/domain/ports"
	donationHandler "github.com/kevin07696/etaca-service/internal/handlers/donation"
	webhookHandler "github.com/kevin07696/etaca-service/internal/handlers/webhook"
	"github.com/kevin07696/etaca-service/internal/middleware"
	"github.com/kevin07696/etaca-service/internal/services/credentials"
	donationService "github.com/kevin07696/etaca-service/internal/services/donation"
	webhookService "github.com/kevin07696/etaca-service/internal/services/webhook"
	"github.com/kevin07696/etaca-service/pkg/observability"
	"github.com/kevin07696/etaca-service/pkg/resilience"
	"github.com/kevin07696/etaca-service/pkg/security"
	"github.com/kevin07696/etaca-service/pkg/shutdown"
	"go.uber.org/zap"
)

const (
	databaseConnectAttempts = 5
	poolMonitorInterval     = 30 * time.Second
	healthWatchInterval     = 10 * time.Second
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := security.NewLogger(cfg.Server.Environment, cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting e-Taca donation service",
		zap.String("environment", cfg.Server.Environment),
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.Int("grpc_health_port", cfg.Server.GRPCHealthPort),
		zap.Int("metrics_port", cfg.Server.MetricsPort),
		zap.String("secret_manager", cfg.Secrets.Backend),
	)

	shutdownManager := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	timeouts := resilience.DefaultTimeoutConfig()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	shutdownManager.Register("database", db.Shutdown)
	db.StartPoolMonitoring(ctx, poolMonitorInterval)

	secretManager, closeSecrets, err := secrets.New(ctx, cfg.Secrets, logger)
	if err != nil {
		return errors.Join(err, shutdownManager.Shutdown())
	}
	if closeSecrets != nil {
		shutdownManager.RegisterCloser("secret-manager", closeSecrets)
	}

	deps, err := initDependencies(cfg, db, secretManager, logger)
	if err != nil {
		return errors.Join(err, shutdownManager.Shutdown())
	}

	webhooks := shutdown.NewInFlightTracker("webhooks", logger)
	shutdownManager.Register("webhook-tracker", webhooks.Shutdown)

	// Probes
	healthChecker := observability.NewHealthChecker(db.Pool())

	grpcHealth := observability.NewGRPCHealthServer(healthChecker, logger)
	grpcListener, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.GRPCHealthPort))
	if err != nil {
		return errors.Join(fmt.Errorf("listen on gRPC health port: %w", err), shutdownManager.Shutdown())
	}
	go func() {
		logger.Info("gRPC health server listening", zap.String("address", grpcListener.Addr().String()))
		if err := grpcHealth.Server.Serve(grpcListener); err != nil {
			logger.Error("gRPC health server error", zap.Error(err))
		}
	}()
	shutdownManager.Register("grpc-health", grpcHealth.Shutdown)

	healthWatcher := shutdown.NewPeriodicWorker("grpc-health-watch", healthWatchInterval, logger)
	healthWatcher.Start(grpcHealth.Watch(healthWatchInterval))
	shutdownManager.Register("grpc-health-watch", healthWatcher.Shutdown)

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)
	shutdownManager.Register("metrics", func(ctx context.Context) error {
		return observability.ShutdownMetricsServer(ctx, metricsServer)
	})

	// Public API
	mux := http.NewServeMux()
	donationHandler.NewHandler(deps.donations, timeouts, logger).Register(mux)
	webhookHandler.NewHandler(deps.webhooks, webhooks, timeouts, logger).Register(mux)

	securityHeaders := middleware.NewSecurityHeaders(!cfg.Server.IsProduction(), deps.gatewayURL)
	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.HTTPPort),
		Handler:           observability.HTTPMiddleware(securityHeaders.Middleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeouts.HTTPHandler,
		WriteTimeout:      timeouts.HTTPHandler + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
			cancel()
		}
	}()
	shutdownManager.Register("http", func(ctx context.Context) error {
		healthChecker.MarkReady(false)
		return httpServer.Shutdown(ctx)
	})

	healthChecker.MarkReady(true)
	grpcHealth.Refresh(ctx)

	return shutdownManager.WaitForShutdown(ctx)
}

// initDatabase connects to PostgreSQL, retrying while the database comes up
func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.PostgreSQLAdapter, error) {
	dbCfg := database.DefaultPostgreSQLConfig(cfg.Database.ConnectionString())
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns

	var db *database.PostgreSQLAdapter
	err := resilience.Retry(ctx, databaseConnectAttempts, resilience.DatabaseConnectBackoff(),
		func(ctx context.Context, attempt int) error {
			adapter, err := database.NewPostgreSQLAdapter(ctx, dbCfg, logger)
			if err != nil {
				logger.Warn("Database not reachable, retrying",
					zap.Int("attempt", attempt+1),
					zap.Error(err),
				)
				return err
			}
			db = adapter
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// dependencies holds the services the HTTP handlers are built on
type dependencies struct {
	donations  ports.DonationService
	webhooks   ports.WebhookProcessor
	gatewayURL string
}

// initDependencies wires repositories, the gateway adapter and the services
func initDependencies(
	cfg *config.Config,
	db *database.PostgreSQLAdapter,
	secretManager adapterports.SecretManagerAdapter,
	logger *zap.Logger,
) (*dependencies, error) {
	dbExecutor := postgres.NewDBExecutor(db.Pool())

	organizations := postgres.NewOrganizationRepository(dbExecutor)
	goals := postgres.NewGoalRepository(dbExecutor)
	donations := postgres.NewDonationRepository(dbExecutor)
	events := postgres.NewWebhookEventRepository(dbExecutor)

	gatewayCfg := fiserv.DefaultConfig(cfg.Server.Environment)
	if cfg.Fiserv.GatewayURL != "" {
		gatewayCfg.GatewayURL = cfg.Fiserv.GatewayURL
	}
	gatewayCfg.Timezone = cfg.Fiserv.Timezone
	gateway, err := fiserv.NewHostedPaymentAdapter(gatewayCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize fiserv adapter: %w", err)
	}

	serviceLogger := security.NewZapLogger(logger)
	resolver := credentials.NewResolver(secretManager, serviceLogger)

	donationCfg := donationService.DefaultConfig(
		cfg.Donation.FrontendBaseURL,
		cfg.Donation.PublicAPIBaseURL,
		fiserv.NotificationPath,
	)
	donationSvc := donationService.NewService(
		donationCfg,
		organizations,
		goals,
		donations,
		resolver,
		gateway,
		donationService.NewReferenceGenerator(),
		serviceLogger,
	)

	processor := webhookService.NewProcessor(
		webhookService.Config{RequireSignature: cfg.Fiserv.RequireWebhookSignature},
		dbExecutor,
		organizations,
		donations,
		events,
		resolver,
		gateway,
		serviceLogger,
	)

	logger.Info("Dependencies initialized",
		zap.String("gateway_url", gatewayCfg.GatewayURL),
		zap.String("gateway_timezone", gatewayCfg.Timezone),
		zap.Bool("require_webhook_signature", cfg.Fiserv.RequireWebhookSignature),
	)

	return &dependencies{
		donations:  donationSvc,
		webhooks:   processor,
		gatewayURL: gatewayCfg.GatewayURL,
	}, nil
}
