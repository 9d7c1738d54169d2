// Package change turns entity create/update events into notification runs:
// direct trigger templates first, then diff-engine sub-events with
// recipient narrowing.
package change

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/diff"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/event"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// ErrInvalidPayload rejects trigger payloads missing required fields.
var ErrInvalidPayload = errors.New("invalid change payload")

// Summary aggregates one change-event handling.
type Summary struct {
	Templates int `json:"templates"`
	Sent      int `json:"sent"`
	Scheduled int `json:"scheduled"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (s *Summary) absorb(res *orchestrator.Result) {
	s.Sent += res.Sent
	s.Scheduled += res.Scheduled
	s.Skipped += res.Skipped
	s.Errors += res.Failed
}

type Handler struct {
	templates repository.TemplateRepository
	events    repository.EventRepository
	services  repository.EventServiceRepository
	orch      *orchestrator.Orchestrator
	logger    *logger.Logger
}

func NewHandler(
	templates repository.TemplateRepository,
	events repository.EventRepository,
	services repository.EventServiceRepository,
	orch *orchestrator.Orchestrator,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		templates: templates,
		events:    events,
		services:  services,
		orch:      orch,
		logger:    logger,
	}
}

// HandleChange processes one entity change. Deletes carry no direct
// trigger; assignment removals surface through the diff engine on the
// update that dropped the supplier.
func (h *Handler) HandleChange(ctx context.Context, entityName, operation string, data, oldData map[string]interface{}) (*Summary, error) {
	sum := &Summary{}
	if entityName == "" || data == nil {
		return sum, ErrInvalidPayload
	}
	switch operation {
	case event.OpCreate, event.OpUpdate:
	case event.OpDelete:
		return sum, nil
	default:
		return sum, ErrInvalidPayload
	}
	isCreate := operation == event.OpCreate

	entityEvent, svc := h.loadContext(ctx, entityName, data)

	trigger := model.TriggerEntityUpdate
	if isCreate {
		trigger = model.TriggerEntityCreate
	}
	h.runTrigger(ctx, sum, trigger, entityName, &orchestrator.Request{
		Event:    entityEvent,
		Service:  svc,
		Snapshot: data,
		Old:      oldData,
		IsCreate: isCreate,
	})

	// Diff sub-events. On create the whole supplier list counts as added.
	for _, sub := range diff.Compute(entityName, oldData, data) {
		req := &orchestrator.Request{
			Event:            entityEvent,
			Service:          svc,
			Snapshot:         data,
			Old:              oldData,
			IsCreate:         isCreate,
			NarrowSupplierID: sub.SupplierID,
			Extra:            subEventContext(sub),
		}
		h.runTrigger(ctx, sum, sub.TriggerType, entityName, req)
	}
	return sum, nil
}

// runTrigger fans one request out to every active template of the trigger
// type. Template list failures and per-template run failures are logged
// and counted, never fatal.
func (h *Handler) runTrigger(ctx context.Context, sum *Summary, trigger model.TriggerType, entityName string, req *orchestrator.Request) {
	templates, err := h.templates.ListActiveByTrigger(ctx, trigger, entityName)
	if err != nil {
		sum.Errors++
		h.logger.Error(err, "failed to list templates", "trigger", string(trigger), "entity", entityName)
		return
	}
	for _, tmpl := range templates {
		sum.Templates++
		r := *req
		r.Template = tmpl
		res, err := h.orch.Run(ctx, &r)
		if err != nil {
			sum.Errors++
			h.logger.Error(err, "change-triggered run failed", "template", tmpl.Type)
			continue
		}
		sum.absorb(res)
	}
}

// loadContext resolves the typed entities the audience resolver and link
// renderer need. Lookup failures degrade to a nil context rather than
// dropping the change.
func (h *Handler) loadContext(ctx context.Context, entityName string, data map[string]interface{}) (*model.Event, *model.EventService) {
	switch entityName {
	case model.EntityEvent:
		if id, ok := snapshotID(data, "id"); ok {
			if e, err := h.events.Get(ctx, id); err == nil {
				return e, nil
			}
		}
	case model.EntityEventService:
		if id, ok := snapshotID(data, "id"); ok {
			if svc, err := h.services.Get(ctx, id); err == nil {
				e, err := h.events.Get(ctx, svc.EventID)
				if err != nil {
					h.logger.Error(err, "failed to load parent event", "service_id", svc.ID.String())
					return nil, svc
				}
				return e, svc
			}
		}
	}
	return nil, nil
}

func snapshotID(data map[string]interface{}, key string) (uuid.UUID, bool) {
	raw, ok := data[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func subEventContext(sub diff.SubEvent) map[string]string {
	extra := map[string]string{}
	if sub.NewStatus != "" {
		extra["new_status"] = sub.NewStatus
	}
	if len(sub.ChangedFields) > 0 {
		extra["changed_fields"] = strings.Join(sub.ChangedFields, ", ")
	}
	return extra
}
