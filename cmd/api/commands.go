package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logger, nil
}

func runServe(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	shutdownTracing := observability.SetupTracing(ctx, cfg.App, cfg.Telemetry, logger)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	objectStore, err := persistence.NewObjectStore(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to init object store: %w", err)
	}
	var uploader service.ObjectUploader
	if objectStore != nil {
		uploader = objectStore
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	metrics := observability.NewMetrics()
	sideEffects := service.NewSideEffects(logger, metrics)
	dispatcher := events.NewAsyncDispatcher(logger, cfg.Events.QueueSize, cfg.Events.Workers)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		EscalationRepo: escalationRepo,
		UserRepo:       userRepo,
		Dispatcher:     dispatcher,
		Policy:         cfg.SLA.Policy,
		SideEffects:    sideEffects,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:     ticketRepo,
		EscalationRepo: escalationRepo,
		Dispatcher:     dispatcher,
		SideEffects:    sideEffects,
		Logger:         logger,
	})
	auditService := service.NewAuditService(service.AuditDependencies{
		AuditRepo:   auditRepo,
		TicketRepo:  ticketRepo,
		SideEffects: sideEffects,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		ChatRepo:    chatRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
		SideEffects: sideEffects,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  dispatcher,
		UserRepo:    userRepo,
		HTTPClient:  &http.Client{Timeout: cfg.Notification.Timeout()},
		Logger:      logger,
		SideEffects: sideEffects,
		Config:      cfg.Notification,
	})
	dashboardService := service.NewDashboardService(ticketRepo, nil)
	exportService := service.NewExportService(ticketRepo, uploader, nil)

	worker.StartNotificationWorker(dispatcher, auditService, notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, auth.NewRoleResolver(userRepo, redis, logger))

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Escalations:    handlers.NewEscalationsHandler(escalationService),
		Audit:          handlers.NewAuditHandler(auditService),
		Chat:           handlers.NewChatHandler(chatService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Exports:        handlers.NewExportsHandler(exportService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("fiber listen: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("event queue not drained", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
	return nil
}

func runMigrate(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(c.Context, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	return persistence.RunMigrations(c.Context, pg.PoolHandle(), logger)
}

func runToken(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	token, expiresAt, err := tokens.GenerateToken(c.String("email"), c.String("name"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	fmt.Fprintf(c.App.ErrWriter, "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func runGrant(c *cli.Context) error {
	role := domain.Role(strings.TrimSpace(c.String("role")))
	if !role.IsValid() {
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(c.Context, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	email := strings.ToLower(strings.TrimSpace(c.String("email")))
	profile := &domain.UserProfile{
		Email:  email,
		Name:   c.String("name"),
		Role:   role,
		Active: !c.Bool("inactive"),
	}
	if err := repository.NewUserRepository(pg.PoolHandle()).Upsert(c.Context, profile); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if err := redis.InvalidateRole(c.Context, email); err != nil {
		logger.Warn("role cache not invalidated", zap.String("email", email), zap.Error(err))
	}

	logger.Info("role granted", zap.String("email", email), zap.String("role", string(role)))
	return nil
}
