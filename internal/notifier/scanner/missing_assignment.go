package scanner

import (
	"context"
	"strconv"
	"time"

	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
)

// MissingAssignmentScanner alerts when an upcoming event has sub-services
// with fewer confirmed suppliers than their configured minimum.
type MissingAssignmentScanner struct {
	deps    *Deps
	horizon time.Duration
	now     func() time.Time
}

func NewMissingAssignmentScanner(deps *Deps, horizon time.Duration) *MissingAssignmentScanner {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &MissingAssignmentScanner{deps: deps, horizon: horizon, now: time.Now}
}

func (s *MissingAssignmentScanner) Name() string { return "missing_assignment" }

func (s *MissingAssignmentScanner) Run(ctx context.Context) (*Summary, error) {
	return observe(s.deps, s.Name(), func() (*Summary, error) {
		sum := &Summary{Scanner: s.Name()}

		tmpl, err := activeTemplate(ctx, s.deps, TemplateMissingAssignment)
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
			services, err := s.deps.Services.ListByEvent(ctx, event.ID)
			if err != nil {
				sum.Errors++
				s.deps.Logger.Error(err, "failed to load sub-services", "event_id", event.ID.String())
				continue
			}
			for _, svc := range services {
				missing := svc.MinSuppliers - svc.AssignedCount()
				if missing <= 0 {
					continue
				}
				sum.Processed++
				res, err := s.deps.Orch.Run(ctx, &orchestrator.Request{
					Template: tmpl,
					Event:    event,
					Service:  svc,
					Snapshot: svc.Snapshot(),
					Extra: map[string]string{
						"missing_count": strconv.Itoa(missing),
					},
				})
				if err != nil {
					sum.Errors++
					s.deps.Logger.Error(err, "missing-assignment notify failed",
						"event_id", event.ID.String(), "service_id", svc.ID.String())
					continue
				}
				sum.absorb(res)
			}
		}
		return sum, nil
	})
}
