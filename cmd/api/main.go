package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventops/backoffice-api/config"
	"github.com/eventops/backoffice-api/internal/handler"
	authHandler "github.com/eventops/backoffice-api/internal/handler/auth"
	eventHandler "github.com/eventops/backoffice-api/internal/handler/event"
	eventServiceHandler "github.com/eventops/backoffice-api/internal/handler/eventservice"
	hookHandler "github.com/eventops/backoffice-api/internal/handler/hook"
	notificationHandler "github.com/eventops/backoffice-api/internal/handler/notification"
	paymentHandler "github.com/eventops/backoffice-api/internal/handler/payment"
	pendingHandler "github.com/eventops/backoffice-api/internal/handler/pending"
	quoteHandler "github.com/eventops/backoffice-api/internal/handler/quote"
	scanHandler "github.com/eventops/backoffice-api/internal/handler/scan"
	supplierHandler "github.com/eventops/backoffice-api/internal/handler/supplier"
	templateHandler "github.com/eventops/backoffice-api/internal/handler/template"
	userHandler "github.com/eventops/backoffice-api/internal/handler/user"
	"github.com/eventops/backoffice-api/internal/middleware"
	"github.com/eventops/backoffice-api/internal/notifier/audience"
	"github.com/eventops/backoffice-api/internal/notifier/change"
	"github.com/eventops/backoffice-api/internal/notifier/condition"
	"github.com/eventops/backoffice-api/internal/notifier/dedup"
	"github.com/eventops/backoffice-api/internal/notifier/dispatch"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/notifier/render"
	"github.com/eventops/backoffice-api/internal/notifier/scanner"
	"github.com/eventops/backoffice-api/internal/repository/postgres"
	"github.com/eventops/backoffice-api/internal/router"
	authService "github.com/eventops/backoffice-api/internal/service/auth"
	"github.com/eventops/backoffice-api/pkg/auth"
	"github.com/eventops/backoffice-api/pkg/event"
	"github.com/eventops/backoffice-api/pkg/logger"
	"github.com/eventops/backoffice-api/pkg/messaging/redis"
	"github.com/eventops/backoffice-api/pkg/metrics"
	"github.com/eventops/backoffice-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	eventRepo := postgres.NewEventRepository(base)
	supplierRepo := postgres.NewSupplierRepository(base)
	serviceRepo := postgres.NewEventServiceRepository(base)
	paymentRepo := postgres.NewPaymentRepository(base)
	quoteRepo := postgres.NewQuoteRepository(base)
	userRepo := postgres.NewUserRepository(base)
	templateRepo := postgres.NewTemplateRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	pendingRepo := postgres.NewPendingRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	// Notification pipeline.
	quietCalc, err := quiet.NewCalculator(cfg.Notifier.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load timezone")
	}
	whatsappCfg, err := dispatch.LoadWhatsAppConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load whatsapp config")
	}
	pushCfg, err := dispatch.LoadPushConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load push config")
	}
	whatsappGw := dispatch.NewWhatsAppGateway(whatsappCfg, appLogger)
	pushRelay := dispatch.NewPushRelay(pushCfg, appLogger)

	evaluator := condition.NewEvaluator(
		condition.NewStoreResolver(eventRepo, serviceRepo, paymentRepo), appLogger)
	resolver := audience.NewResolver(supplierRepo, serviceRepo, userRepo, appLogger)
	ledger := dedup.NewLedger(notificationRepo)
	renderer := render.NewRenderer(cfg.Notifier.BaseURL)
	dispatcher := dispatch.NewDispatcher(
		pushRelay, whatsappGw, quietCalc, pendingRepo, notificationRepo, appLogger)
	orch := orchestrator.New(
		evaluator, resolver, ledger, renderer, dispatcher, notificationRepo, appLogger)
	changeHandler := change.NewHandler(templateRepo, eventRepo, serviceRepo, orch, appLogger)

	scanDeps := &scanner.Deps{
		Templates: templateRepo,
		Events:    eventRepo,
		Services:  serviceRepo,
		Quotes:    quoteRepo,
		Orch:      orch,
		Logger:    appLogger,
	}
	horizon := cfg.Notifier.ScanHorizon()
	scanners := []scanner.Scanner{
		scanner.NewPendingAssignmentScanner(scanDeps, horizon),
		scanner.NewMissingAssignmentScanner(scanDeps, horizon),
		scanner.NewOpenQuoteScanner(scanDeps),
		scanner.NewPaymentScanner(scanDeps, horizon),
		scanner.NewScheduledCheckScanner(scanDeps, horizon),
	}

	// Auth.
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, jwtSvc)
	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	// Change capture.
	outboxSvc := event.NewService(outboxRepo)
	tracker := event.NewTrackerMiddleware(outboxSvc, appLogger)

	handlers := router.Handlers{
		Auth:          authHandler.NewHandler(authSvc),
		Events:        eventHandler.NewHandler(eventRepo),
		Suppliers:     supplierHandler.NewHandler(supplierRepo),
		EventServices: eventServiceHandler.NewHandler(serviceRepo),
		Payments:      paymentHandler.NewHandler(paymentRepo),
		Quotes:        quoteHandler.NewHandler(quoteRepo),
		Users:         userHandler.NewHandler(userRepo),
		Templates:     templateHandler.NewHandler(templateRepo),
		Notifications: notificationHandler.NewHandler(notificationRepo, templateRepo, eventRepo, orch),
		Pending:       pendingHandler.NewHandler(pendingRepo),
		Scans:         scanHandler.NewHandler(scanners...),
		Hooks:         hookHandler.NewHandler(changeHandler),
		Base:          handler.NewHandler(),
	}

	rateLimitRPS := 0
	if cfg.RateLimit.Enabled {
		rateLimitRPS = int(cfg.RateLimit.RequestsPerSecond)
	}
	r := router.NewRouter(authMiddleware, tracker, handlers, router.Config{
		RateLimitRPS:  rateLimitRPS,
		CORS:          middleware.DefaultCORSConfig(),
		MetricsPrefix: "backoffice_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Broker plus outbox drain: entity changes recorded by the HTTP layer
	// flow to the notification pipeline through Redis.
	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	infraMetrics := metrics.NewMetrics("backoffice", "api")
	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo, broker, cfg.Outbox.ToWorkerConfig(change.Channel), appLogger, infraMetrics)
	go outboxProcessor.Start(ctx)

	subscriber := change.NewSubscriber(broker, changeHandler, appLogger)
	if err := subscriber.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to entity changes")
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	appLogger.Info("api server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
}
