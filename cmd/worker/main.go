package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventops/backoffice-api/config"
	"github.com/eventops/backoffice-api/internal/email"
	"github.com/eventops/backoffice-api/internal/notifier/audience"
	"github.com/eventops/backoffice-api/internal/notifier/condition"
	"github.com/eventops/backoffice-api/internal/notifier/dedup"
	"github.com/eventops/backoffice-api/internal/notifier/dispatch"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/notifier/render"
	"github.com/eventops/backoffice-api/internal/notifier/scanner"
	"github.com/eventops/backoffice-api/internal/notifier/sweeper"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/internal/repository/postgres"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// outboxRetention bounds how long processed outbox rows are kept before
// the GC pass removes them.
const outboxRetention = 7 * 24 * time.Hour

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

	mail := email.NewSMTPService(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, appLogger)
	digest := scanner.NewDigest(mail, cfg.Notifier.DigestRecipients, appLogger)

	sweep := sweeper.NewSweeper(
		pendingRepo, notificationRepo, userRepo, quietCalc, pushRelay, whatsappGw, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		runScanLoop(ctx, scanners, digest, cfg.Notifier.ScanInterval, appLogger)
	}()
	go func() {
		defer wg.Done()
		runSweepLoop(ctx, sweep, cfg.Notifier.SweepInterval, appLogger)
	}()
	go func() {
		defer wg.Done()
		runGCLoop(ctx, sweep, outboxRepo, cfg.Notifier.GCInterval, appLogger)
	}()

	appLogger.Info("worker started",
		"scan_interval", cfg.Notifier.ScanInterval.String(),
		"sweep_interval", cfg.Notifier.SweepInterval.String(),
		"gc_interval", cfg.Notifier.GCInterval.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down worker")
	cancel()
	wg.Wait()
}

// runScanLoop runs every scanner on the interval and mails one digest
// per cycle. Scanner failures are configuration problems; they land in
// the digest rather than aborting the cycle.
func runScanLoop(
	ctx context.Context,
	scanners []scanner.Scanner,
	digest *scanner.Digest,
	interval time.Duration,
	appLogger *logger.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summaries := make([]*scanner.Summary, 0, len(scanners))
			for _, s := range scanners {
				sum, err := s.Run(ctx)
				if err != nil {
					appLogger.Error(err, "scanner run failed", "scanner", s.Name())
					continue
				}
				appLogger.Info("scanner run complete",
					"scanner", s.Name(),
					"processed", sum.Processed,
					"sent", sum.Sent,
					"scheduled", sum.Scheduled,
					"skipped", sum.Skipped,
					"errors", sum.Errors)
				summaries = append(summaries, sum)
			}
			digest.Send(ctx, summaries)
		}
	}
}

// runSweepLoop fires due pending deliveries.
func runSweepLoop(ctx context.Context, sweep *sweeper.Sweeper, interval time.Duration, appLogger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sum, err := sweep.Sweep(ctx)
			if err != nil {
				appLogger.Error(err, "sweep failed")
				continue
			}
			if sum.Due > 0 {
				appLogger.Info("sweep complete",
					"due", sum.Due,
					"released", sum.Released,
					"rescheduled", sum.Rescheduled,
					"errors", sum.Errors)
			}
		}
	}
}

// runGCLoop removes sent deliveries past retention and processed outbox
// rows old enough that replay is no longer useful.
func runGCLoop(
	ctx context.Context,
	sweep *sweeper.Sweeper,
	outbox repository.OutboxRepository,
	interval time.Duration,
	appLogger *logger.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweep.CollectGarbage(ctx); err != nil {
				appLogger.Error(err, "pending delivery GC failed")
			}
			n, err := outbox.DeleteProcessedBefore(ctx, time.Now().Add(-outboxRetention))
			if err != nil {
				appLogger.Error(err, "outbox GC failed")
				continue
			}
			if n > 0 {
				appLogger.Info("outbox rows garbage collected", "deleted", n)
			}
		}
	}
}
