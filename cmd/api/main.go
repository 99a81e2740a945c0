package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/trouble-tickets/internal/api/http"
	"github.com/spec-kit/trouble-tickets/internal/api/http/handlers"
	"github.com/spec-kit/trouble-tickets/internal/auth"
	"github.com/spec-kit/trouble-tickets/internal/config"
	"github.com/spec-kit/trouble-tickets/internal/events"
	"github.com/spec-kit/trouble-tickets/internal/observability"
	"github.com/spec-kit/trouble-tickets/internal/persistence"
	"github.com/spec-kit/trouble-tickets/internal/repository"
	"github.com/spec-kit/trouble-tickets/internal/service"
	"github.com/spec-kit/trouble-tickets/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load config: " + err.Error())
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic("init logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.Pool, logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	ticketRepo := repository.NewTicketRepository(postgres.Pool)
	historyRepo := repository.NewTicketHistoryRepository(postgres.Pool)
	customerRepo := repository.NewCustomerRepository(postgres.Pool)
	userRepo := repository.NewUserRepository(postgres.Pool)
	groupRepo := repository.NewGroupRepository(postgres.Pool)
	caseRepo := repository.NewCaseRepository(postgres.Pool)
	reasonRepo := repository.NewReasonRepository(postgres.Pool)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		HistoryRepo:  historyRepo,
		CustomerRepo: customerRepo,
		UserRepo:     userRepo,
		GroupRepo:    groupRepo,
		Dispatcher:   dispatcher,
	})
	masterDataService := service.NewMasterDataService(service.MasterDataDependencies{
		CustomerRepo: customerRepo,
		CaseRepo:     caseRepo,
		ReasonRepo:   reasonRepo,
		GroupRepo:    groupRepo,
	})
	authService := service.NewAuthService(cfg.Auth, userRepo)
	statsService := service.NewStatsService(ticketRepo, redisStore.Client, logger, cfg.Stats.CacheTTL(), nil)

	slaMonitor := worker.NewSLAMonitor(ticketRepo, logger, cfg.Worker.SLACheckInterval())
	go slaMonitor.Run(ctx)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})

	httpapi.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httpapi.RegisterRoutes(app, httpapi.Handlers{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, postgres, redisStore),
		Users:      handlers.NewUsersHandler(authService),
		Tickets:    handlers.NewTicketsHandler(ticketService),
		MasterData: handlers.NewMasterDataHandler(masterDataService),
		Stats:      handlers.NewStatsHandler(statsService),
	}, auth.NewMiddleware(authService.TokenManager(), userRepo))

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
