package scanner

import (
	"context"
	"time"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
)

// ScheduledCheckScanner fires every active scheduled_check template whose
// timing offset relative to the event date has elapsed. One run covers all
// such templates; the dedup ledger keeps refires within the reminder
// policy.
type ScheduledCheckScanner struct {
	deps    *Deps
	horizon time.Duration
	now     func() time.Time
}

func NewScheduledCheckScanner(deps *Deps, horizon time.Duration) *ScheduledCheckScanner {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &ScheduledCheckScanner{deps: deps, horizon: horizon, now: time.Now}
}

func (s *ScheduledCheckScanner) Name() string { return "scheduled_check" }

func (s *ScheduledCheckScanner) Run(ctx context.Context) (*Summary, error) {
	return observe(s.deps, s.Name(), func() (*Summary, error) {
		sum := &Summary{Scanner: s.Name()}

		templates, err := s.deps.Templates.ListActiveByTrigger(ctx, model.TriggerScheduledCheck, model.EntityEvent)
		if err != nil {
			sum.Errors++
			return sum, err
		}
		if len(templates) == 0 {
			return sum, nil
		}

		now := s.now()
		// Events in the past still matter for "after" timings.
		events, err := s.deps.Events.ListBetween(ctx, now.Add(-s.horizon), now.Add(s.horizon))
		if err != nil {
			sum.Errors++
			return sum, err
		}

		for _, tmpl := range templates {
			for _, event := range events {
				fireAt := event.EventDate.Add(tmpl.TimingOffset())
				if fireAt.After(now) {
					continue
				}
				sum.Processed++
				res, err := s.deps.Orch.Run(ctx, &orchestrator.Request{
					Template: tmpl,
					Event:    event,
					Snapshot: event.Snapshot(),
				})
				if err != nil {
					sum.Errors++
					s.deps.Logger.Error(err, "scheduled-check notify failed",
						"template", tmpl.Type, "event_id", event.ID.String())
					continue
				}
				sum.absorb(res)
			}
		}
		return sum, nil
	})
}
