// Package scanner holds the periodic jobs that comb the entity store for
// situations worth notifying about and feed matches to the orchestrator.
// Scanners are idempotent: the dedup ledger, not the scanner, prevents
// repeat sends, so overlapping runs are safe.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
	"github.com/eventops/backoffice-api/pkg/metrics"
)

// Well-known template type keys, one per scanner. A scanner without its
// template configured reports a single configuration error and does
// nothing.
const (
	TemplatePendingAssignment = "pending_assignment_reminder"
	TemplateMissingAssignment = "missing_assignment_alert"
	TemplateOpenQuote         = "open_quote_followup"
	TemplatePaymentReminder   = "payment_reminder"
)

const (
	// DefaultHorizon bounds how far ahead event scans look.
	DefaultHorizon = 30 * 24 * time.Hour

	// defaultQuoteFollowUpAge applies when the open-quote template has no
	// timing configured.
	defaultQuoteFollowUpAge = 72 * time.Hour
)

// Summary aggregates one scanner run. Per-item failures land in Errors;
// the run itself only fails on configuration problems.
type Summary struct {
	Scanner   string `json:"scanner"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
	Scheduled int    `json:"scheduled"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
}

func (s *Summary) absorb(res *orchestrator.Result) {
	s.Sent += res.Sent
	s.Scheduled += res.Scheduled
	s.Skipped += res.Skipped
	s.Errors += res.Failed
}

// Scanner is one periodic job.
type Scanner interface {
	Name() string
	Run(ctx context.Context) (*Summary, error)
}

// Deps bundles what every scanner needs.
type Deps struct {
	Templates repository.TemplateRepository
	Events    repository.EventRepository
	Services  repository.EventServiceRepository
	Quotes    repository.QuoteRepository
	Orch      *orchestrator.Orchestrator
	Logger    *logger.Logger
}

// activeTemplate loads the scanner's template; a missing or inactive
// template is a configuration error that aborts the run.
func activeTemplate(ctx context.Context, deps *Deps, typeKey string) (*model.NotificationTemplate, error) {
	tmpl, err := deps.Templates.GetByType(ctx, typeKey)
	if err != nil {
		return nil, fmt.Errorf("template %q lookup failed: %w", typeKey, err)
	}
	if tmpl == nil {
		return nil, fmt.Errorf("template %q not configured", typeKey)
	}
	if !tmpl.IsActive {
		return nil, fmt.Errorf("template %q is inactive", typeKey)
	}
	return tmpl, nil
}

// upcomingEvents loads events inside the scan horizon.
func upcomingEvents(ctx context.Context, deps *Deps, now time.Time, horizon time.Duration) ([]*model.Event, error) {
	events, err := deps.Events.ListBetween(ctx, now, now.Add(horizon))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	return events, nil
}

// observe wraps a run with metrics and logging. Configuration errors
// surface as the returned error; the summary is always non-nil.
func observe(deps *Deps, name string, run func() (*Summary, error)) (*Summary, error) {
	start := time.Now()
	sum, err := run()
	if sum == nil {
		sum = &Summary{Scanner: name}
	}
	metrics.ScanDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "config_error"
		deps.Logger.Error(err, "scan aborted", "scanner", name)
	}
	metrics.ScanRuns.WithLabelValues(name, status).Inc()
	deps.Logger.Info("scan finished",
		"scanner", name,
		"processed", sum.Processed,
		"sent", sum.Sent,
		"scheduled", sum.Scheduled,
		"skipped", sum.Skipped,
		"errors", sum.Errors)
	return sum, err
}
