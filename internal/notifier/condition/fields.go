package condition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

// Computed field names resolvable by the StoreResolver.
const (
	FieldOutstandingBalance  = "outstanding_balance"
	FieldHasMissingSuppliers = "has_missing_suppliers"
	FieldAssignmentStatus    = "assignment_status"
	FieldDaysUntilEvent      = "days_until_event"
)

// StoreResolver resolves computed fields that require entity-store lookups.
// State is never cached across calls; the store is re-read each time.
type StoreResolver struct {
	events   repository.EventRepository
	services repository.EventServiceRepository
	payments repository.PaymentRepository
}

func NewStoreResolver(
	events repository.EventRepository,
	services repository.EventServiceRepository,
	payments repository.PaymentRepository,
) *StoreResolver {
	return &StoreResolver{events: events, services: services, payments: payments}
}

func (r *StoreResolver) Resolve(ctx context.Context, field string, snapshot map[string]interface{}) (interface{}, bool, error) {
	eventID, err := eventIDFrom(snapshot)
	if err != nil {
		return nil, false, nil
	}

	switch field {
	case FieldOutstandingBalance:
		event, err := r.events.Get(ctx, eventID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load event: %w", err)
		}
		paid, err := r.payments.SumCompleted(ctx, eventID, model.PaymentSideClient)
		if err != nil {
			return nil, false, fmt.Errorf("failed to sum payments: %w", err)
		}
		return event.Price - paid, true, nil

	case FieldHasMissingSuppliers:
		services, err := r.services.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list event services: %w", err)
		}
		for _, svc := range services {
			if svc.AssignedCount() < svc.MinSuppliers {
				return true, true, nil
			}
		}
		return false, true, nil

	case FieldAssignmentStatus:
		services, err := r.services.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to list event services: %w", err)
		}
		var statuses []string
		for _, svc := range services {
			for _, status := range svc.SupplierStatuses {
				statuses = append(statuses, status)
			}
		}
		return statuses, true, nil

	case FieldDaysUntilEvent:
		event, err := r.events.Get(ctx, eventID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load event: %w", err)
		}
		return time.Until(event.EventDate).Hours() / 24, true, nil
	}

	return nil, false, nil
}

// eventIDFrom finds the event id in a snapshot: either the snapshot is an
// event itself (has event_date) or it references one via event_id.
func eventIDFrom(snapshot map[string]interface{}) (uuid.UUID, error) {
	if raw, ok := snapshot["event_id"]; ok {
		return uuid.Parse(stringify(raw))
	}
	if _, ok := snapshot["event_date"]; ok {
		if raw, ok := snapshot["id"]; ok {
			return uuid.Parse(stringify(raw))
		}
	}
	return uuid.Nil, fmt.Errorf("snapshot has no event reference")
}
