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

	httptransport "github.com/spec-kit/agrisupport/internal/api/http"
	"github.com/spec-kit/agrisupport/internal/api/http/handlers"
	"github.com/spec-kit/agrisupport/internal/auth"
	"github.com/spec-kit/agrisupport/internal/config"
	"github.com/spec-kit/agrisupport/internal/events"
	"github.com/spec-kit/agrisupport/internal/notify"
	"github.com/spec-kit/agrisupport/internal/observability"
	"github.com/spec-kit/agrisupport/internal/persistence"
	"github.com/spec-kit/agrisupport/internal/ratelimit"
	"github.com/spec-kit/agrisupport/internal/repository"
	"github.com/spec-kit/agrisupport/internal/service"
	"github.com/spec-kit/agrisupport/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	identityRepo := repository.NewIdentityRepository(pool)
	verificationRepo := repository.NewVerificationRepository(pool)

	notifier := notify.NewNotifier(cfg.Mail, logger)
	limiter := ratelimit.New(redis.Client, cfg.Auth.VerifyAttemptLimit, cfg.Auth.VerifyAttemptWindow(), logger)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Identities: identityRepo,
	})
	verificationService := service.NewVerificationService(*cfg, service.VerificationDependencies{
		Identities:    identityRepo,
		Verifications: verificationRepo,
		Notifier:      notifier,
		Limiter:       limiter,
		Dispatcher:    dispatcher,
	}, logger)
	identityService := service.NewIdentityService(*cfg, identityRepo, dispatcher, logger)
	auditService := service.NewAuditService(dispatcher, logger, cfg.Notification)

	worker.StartAuditWorker(auditService)
	worker.StartVerificationSweeper(ctx, verificationService, time.Hour)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), identityRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(authService, verificationService)
	identitiesHandler := handlers.NewIdentitiesHandler(identityService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Identities:     identitiesHandler,
		AuthMiddleware: authMiddleware,
	})

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
