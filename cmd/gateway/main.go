package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/portal-gateway/internal/api/http"
	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/events"
	"github.com/spec-kit/portal-gateway/internal/observability"
	"github.com/spec-kit/portal-gateway/internal/persistence"
	"github.com/spec-kit/portal-gateway/internal/service"
	"github.com/spec-kit/portal-gateway/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	deps := map[string]handlers.Pinger{}

	var cache auth.ValidationCache
	if cfg.Gateway.CacheBackend == "redis" {
		redis := persistence.NewRedis(context.Background(), cfg.Redis, logger)
		defer redis.Close()
		cache = auth.NewRedisCache(redis.Client, cfg.Backend.CacheTTL(), logger)
		deps["redis"] = redis
	} else {
		mem, err := auth.NewMemoryCache(cfg.Gateway.CacheSize, cfg.Backend.CacheTTL(), time.Now)
		if err != nil {
			logger.Fatal("failed to build validation cache", zap.Error(err))
		}
		cache = mem
	}

	validator, err := auth.NewValidator(auth.ValidatorConfig{
		BackendURL: cfg.Backend.URL,
		Timeout:    cfg.Backend.ValidateTimeout(),
		Policy:     auth.ParseDegradedPolicy(cfg.Backend.DegradedPolicy),
	}, cache, logger, metrics)
	if err != nil {
		logger.Fatal("failed to build validator", zap.Error(err))
	}
	deps["backend"] = validator

	guard := auth.NewPortalGuard(auth.GuardDependencies{
		Validator:  validator,
		Access:     auth.NewAccessController(logger),
		Redirects:  auth.NewRedirectGuard(cfg.Backend.MaxRedirects, cfg.Backend.RedirectCounterMaxAge()),
		Routes:     auth.DefaultRoutes(),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Production: cfg.App.IsProduction(),
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterGatewayRoutes(app, httptransport.GatewayRouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Gateway: handlers.NewGatewayHandler(cfg.Gateway.UpstreamURL, metrics, logger),
		Guard:   guard,
	})

	logger.Info("portal gateway starting",
		zap.String("addr", cfg.App.Addr()),
		zap.String("env", cfg.App.Env),
		zap.String("backend", cfg.Backend.URL),
		zap.String("cache", cfg.Gateway.CacheBackend),
		zap.String("degraded_policy", cfg.Backend.DegradedPolicy),
	)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
