package scanner

import (
	"context"
	"time"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
)

// PendingAssignmentScanner reminds suppliers who have not yet responded to
// an assignment on an upcoming event.
type PendingAssignmentScanner struct {
	deps    *Deps
	horizon time.Duration
	now     func() time.Time
}

func NewPendingAssignmentScanner(deps *Deps, horizon time.Duration) *PendingAssignmentScanner {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &PendingAssignmentScanner{deps: deps, horizon: horizon, now: time.Now}
}

func (s *PendingAssignmentScanner) Name() string { return "pending_assignment" }

func (s *PendingAssignmentScanner) Run(ctx context.Context) (*Summary, error) {
	return observe(s.deps, s.Name(), func() (*Summary, error) {
		sum := &Summary{Scanner: s.Name()}

		tmpl, err := activeTemplate(ctx, s.deps, TemplatePendingAssignment)
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
				for _, supplierID := range svc.SupplierIDs {
					if svc.SupplierStatuses[supplierID.String()] != model.AssignmentStatusPending {
						continue
					}
					sum.Processed++
					sid := supplierID
					res, err := s.deps.Orch.Run(ctx, &orchestrator.Request{
						Template:         tmpl,
						Event:            event,
						Service:          svc,
						Snapshot:         svc.Snapshot(),
						NarrowSupplierID: &sid,
					})
					if err != nil {
						sum.Errors++
						s.deps.Logger.Error(err, "pending-assignment notify failed",
							"event_id", event.ID.String(), "supplier_id", sid.String())
						continue
					}
					sum.absorb(res)
				}
			}
		}
		return sum, nil
	})
}
