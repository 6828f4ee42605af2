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

	httptransport "github.com/spec-kit/support-portal/internal/api/http"
	"github.com/spec-kit/support-portal/internal/api/http/handlers"
	"github.com/spec-kit/support-portal/internal/auth"
	"github.com/spec-kit/support-portal/internal/config"
	"github.com/spec-kit/support-portal/internal/events"
	"github.com/spec-kit/support-portal/internal/mailer"
	"github.com/spec-kit/support-portal/internal/observability"
	"github.com/spec-kit/support-portal/internal/pdf"
	"github.com/spec-kit/support-portal/internal/persistence"
	"github.com/spec-kit/support-portal/internal/render"
	"github.com/spec-kit/support-portal/internal/repository"
	"github.com/spec-kit/support-portal/internal/service"
	"github.com/spec-kit/support-portal/internal/worker"
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

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	emailRepo := repository.NewEmailRepository(pool)
	reportRepo := repository.NewReportRepository(pool)

	dispatcher := events.NewAsyncDispatcher(cfg.Notification.QueueSize, logger)

	templateCache := render.NewTemplateCache(templateRepo, redis.Client, cfg.Notification.TemplateCacheTTL(), logger)
	engine := render.NewEngine()
	sender := mailer.NewSMTPSender(cfg.SMTP)
	artifacts := pdf.NewWriter()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		CommentRepo:      commentRepo,
		SubscriptionRepo: subscriptionRepo,
		Dispatcher:       dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	planService := service.NewPlanService(service.PlanDependencies{
		PlanRepo:         planRepo,
		SubscriptionRepo: subscriptionRepo,
		Dispatcher:       dispatcher,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		UserRepo:        userRepo,
		EmailRepo:       emailRepo,
		Templates:       templateCache,
		Engine:          engine,
		Sender:          sender,
		Logger:          logger,
		Metrics:         metrics,
		DeliveryTimeout: cfg.Notification.DeliveryTimeout(),
	})
	reportService := service.NewReportService(service.ReportDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		ReportRepo: reportRepo,
		Templates:  templateCache,
		Engine:     engine,
		Artifacts:  artifacts,
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    cfg.Report.GenerationTimeout(),
	})

	worker.StartNotificationWorker(ctx, dispatcher, notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Plans:          handlers.NewPlansHandler(planService),
		Reports:        handlers.NewReportsHandler(reportService),
		Templates:      handlers.NewTemplatesHandler(templateRepo, templateCache),
		Emails:         handlers.NewEmailsHandler(notificationService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	dispatcher.Wait(5 * time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
