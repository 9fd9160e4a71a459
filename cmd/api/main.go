package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-core/internal/api/http"
	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/cache"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/notify"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/session"
	"github.com/spec-kit/helpdesk-core/internal/sweeper"
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

	rds := persistence.NewRedis(cfg.Redis, logger)
	defer rds.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	// The activity cache outlives the idle timeout so the fallback path
	// can still judge a session that just expired.
	activityTTL := cfg.Session.Timeout() + time.Hour
	activityCache := cache.NewSessionActivityCache(rds.Client, activityTTL)
	loginAttempts := cache.NewLoginAttempts(rds.Client,
		cfg.Auth.MaxLoginAttempts,
		time.Duration(cfg.Auth.LockoutMinutes)*time.Minute)

	pipeline := session.NewPipeline(sessionRepo, activityCache, cfg.Session, logger, metrics)
	pipeline.OnTerminated(func(ctx context.Context, sess *domain.Session, reason domain.TerminationReason) {
		_ = dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSessionTerminated,
			RelatedID: sess.ID,
			Timestamp: time.Now().UTC(),
			Payload: events.SessionTerminatedPayload{
				UserID: sess.UserID,
				Reason: reason,
			},
		})
	})

	loginService := auth.NewLoginService(*cfg, auth.LoginDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Activity:    activityCache,
		Attempts:    loginAttempts,
	}, logger)
	sessionMiddleware := auth.NewSessionMiddleware(loginService.TokenManager(), pipeline, userRepo, logger)

	notifyService := notify.NewService(notificationRepo, dispatcher, logger)
	notifyService.RegisterHandlers()

	jobLock := persistence.NewJobLock(pool)
	scheduler := sweeper.NewScheduler(jobLock, logger)

	escalationJob := sweeper.NewEscalationSweeper(ticketRepo, dispatcher, cfg.Escalation, logger, metrics)
	slaJob := sweeper.NewSLASweeper(ticketRepo, dispatcher, cfg.SLA, cfg.WorkingHours, cfg.Escalation.Renotify, logger, metrics)
	autoCloseJob := sweeper.NewAutoCloseSweeper(ticketRepo, historyRepo, dispatcher, cfg.Sweeper.AutoCloseDays, logger, metrics)
	gcJob := sweeper.NewSessionGCSweeper(sessionRepo, cfg.Session.RetentionDays, logger, metrics)

	registerJob(scheduler, cfg.Sweeper.EscalationSpec, escalationJob, logger)
	registerJob(scheduler, cfg.Sweeper.SLASpec, slaJob, logger)
	registerJob(scheduler, cfg.Sweeper.AutoCloseSpec, autoCloseJob, logger)
	registerJob(scheduler, cfg.Sweeper.SessionGCSpec, gcJob, logger)
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(pg, rds),
		Auth:              handlers.NewAuthHandler(loginService),
		Sessions:          handlers.NewSessionsHandler(sessionRepo, loginService),
		Tickets:           handlers.NewTicketsHandler(ticketRepo, historyRepo, notificationRepo, logger),
		Admin:             handlers.NewAdminHandler(scheduler, escalationJob, slaJob, autoCloseJob, gcJob),
		SessionMiddleware: sessionMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	scheduler.Stop()
	_ = app.Shutdown()
}

func registerJob(s *sweeper.Scheduler, spec string, job sweeper.Job, logger *zap.Logger) {
	if spec == "" {
		return
	}
	if err := s.Register(spec, job); err != nil {
		logger.Fatal("failed to register sweeper",
			zap.String("job", job.Name()), zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
