package scanner

import (
	"context"
	"time"

	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
)

// PaymentScanner runs the client payment-reminder template over upcoming
// events. The template's conditions decide what counts as outstanding
// (typically outstanding_balance greater_than 0), so the scanner itself
// stays policy-free.
type PaymentScanner struct {
	deps    *Deps
	horizon time.Duration
	now     func() time.Time
}

func NewPaymentScanner(deps *Deps, horizon time.Duration) *PaymentScanner {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &PaymentScanner{deps: deps, horizon: horizon, now: time.Now}
}

func (s *PaymentScanner) Name() string { return "payment" }

func (s *PaymentScanner) Run(ctx context.Context) (*Summary, error) {
	return observe(s.deps, s.Name(), func() (*Summary, error) {
		sum := &Summary{Scanner: s.Name()}

		tmpl, err := activeTemplate(ctx, s.deps, TemplatePaymentReminder)
		if err != nil {
			sum.Errors++
			return sum, err
		}
		events, err := upcomingEvents(ctx, s.deps, s.now(), s.horizon)
		if err != nil {
			sum.Errors++
			return sum, err
		}

		for _, event := range events {
			sum.Processed++
			res, err := s.deps.Orch.Run(ctx, &orchestrator.Request{
				Template: tmpl,
				Event:    event,
				Snapshot: event.Snapshot(),
			})
			if err != nil {
				sum.Errors++
				s.deps.Logger.Error(err, "payment-reminder notify failed", "event_id", event.ID.String())
				continue
			}
			sum.absorb(res)
		}
		return sum, nil
	})
}
