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

	httptransport "github.com/spec-kit/storefront/internal/api/http"
	"github.com/spec-kit/storefront/internal/api/http/handlers"
	"github.com/spec-kit/storefront/internal/auth"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/events"
	"github.com/spec-kit/storefront/internal/observability"
	"github.com/spec-kit/storefront/internal/persistence"
	"github.com/spec-kit/storefront/internal/ratelimit"
	"github.com/spec-kit/storefront/internal/repository"
	"github.com/spec-kit/storefront/internal/service"
	"github.com/spec-kit/storefront/internal/worker"
)

type repositories struct {
	staff     repository.StaffRepository
	customers repository.CustomerRepository
	resets    repository.PasswordResetRepository
	messages  repository.MessageRepository
}

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

	metrics := observability.NewMetrics("storefront")

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg)

	var store ratelimit.Store
	switch cfg.RateLimit.Backend {
	case "redis":
		store = ratelimit.NewRedisStore(redis.Client)
	default:
		memStore := ratelimit.NewMemoryStore()
		memStore.StartSweeper(cfg.RateLimit.SweepInterval())
		defer memStore.Close() //nolint:errcheck
		store = memStore
	}
	logger.Info("rate limiter ready", zap.String("backend", cfg.RateLimit.Backend))

	registry, err := auth.LoadCapabilityRegistry(cfg.Auth.CapabilitiesFile)
	if err != nil {
		logger.Fatal("failed to load capability registry", zap.Error(err))
	}
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), auth.WithIssuer(cfg.App.Name))
	if err != nil {
		logger.Fatal("failed to init token service", zap.Error(err))
	}
	resolver := auth.NewAuthResolver(tokens, repos.staff, repos.customers)
	authMiddleware := auth.NewAuthMiddleware(resolver, logger, metrics)
	permissions := auth.NewPermissionEngine(registry, logger)
	resetStore := auth.NewResetTokenStore(repos.resets, cfg.Auth.PasswordResetTTL())

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	authService, err := service.NewAuthService(*cfg, service.AuthDependencies{
		StaffRepo:    repos.staff,
		CustomerRepo: repos.customers,
		Tokens:       tokens,
		Resets:       resetStore,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	staffService := service.NewStaffService(*cfg, service.StaffDependencies{
		StaffRepo:  repos.staff,
		Registry:   registry,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err := staffService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}
	customerService := service.NewCustomerService(repos.customers)
	messageService := service.NewMessageService(repos.messages, dispatcher, logger)

	reaper := worker.NewResetTokenReaper(resetStore, cfg.Auth.ResetSweepInterval(), logger, metrics)
	background := worker.Start(ctx, notifications, reaper)
	defer background.Stop()

	limiter := ratelimit.NewLimiter(store, logger, metrics)
	limits := httptransport.NewRateLimits(limiter,
		ratelimit.PolicyFromConfig(ratelimit.ClassAPI, cfg.RateLimit.API),
		ratelimit.PolicyFromConfig(ratelimit.ClassLogin, cfg.RateLimit.Login),
		ratelimit.PolicyFromConfig(ratelimit.ClassStrict, cfg.RateLimit.Strict),
		ratelimit.PolicyFromConfig(ratelimit.ClassTracking, cfg.RateLimit.Tracking),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, *cfg, logger, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Customers:      handlers.NewCustomersHandler(customerService),
		Staff:          handlers.NewStaffHandler(staffService),
		Messages:       handlers.NewMessagesHandler(messageService),
		Metrics:        metrics.Handler(),
		AuthMiddleware: authMiddleware,
		Permissions:    permissions,
		Limits:         limits,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func newRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		return repositories{
			staff:     repository.NewMemoryStaffRepository(),
			customers: repository.NewMemoryCustomerRepository(),
			resets:    repository.NewMemoryPasswordResetRepository(),
			messages:  repository.NewMemoryMessageRepository(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		staff:     repository.NewStaffRepository(pool),
		customers: repository.NewCustomerRepository(pool),
		resets:    repository.NewPasswordResetRepository(pool),
		messages:  repository.NewMessageRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
