// Package orchestrator runs one template against one entity context:
// condition gate, audience expansion, per-recipient dedup, rendering,
// record creation and channel dispatch.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/audience"
	"github.com/eventops/backoffice-api/internal/notifier/condition"
	"github.com/eventops/backoffice-api/internal/notifier/dedup"
	"github.com/eventops/backoffice-api/internal/notifier/dispatch"
	"github.com/eventops/backoffice-api/internal/notifier/render"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
	"github.com/eventops/backoffice-api/pkg/metrics"
)

// Request is one notification run: a template plus the entity context it
// fires against.
type Request struct {
	Template *model.NotificationTemplate
	Event    *model.Event
	Service  *model.EventService
	Supplier *model.Supplier

	Snapshot map[string]interface{}
	Old      map[string]interface{}
	IsCreate bool

	// NarrowSupplierID restricts supplier audience resolution to one
	// supplier, for assignment-level sub-events.
	NarrowSupplierID *uuid.UUID

	// SkipDedup forces a send even when an unresolved record exists.
	// Used by the manual trigger.
	SkipDedup bool

	// BypassNightly skips the recipient nightly window (never the
	// Sabbath window). Used by the manual trigger.
	BypassNightly bool

	// Extra overrides or extends the render context.
	Extra map[string]string
}

// Result summarizes one run.
type Result struct {
	Matched   bool
	Sent      int
	Scheduled int
	Skipped   int
	Failed    int
}

type Orchestrator struct {
	evaluator  *condition.Evaluator
	audiences  *audience.Resolver
	ledger     *dedup.Ledger
	renderer   *render.Renderer
	dispatcher *dispatch.Dispatcher
	records    repository.NotificationRepository
	logger     *logger.Logger
}

func New(
	evaluator *condition.Evaluator,
	audiences *audience.Resolver,
	ledger *dedup.Ledger,
	renderer *render.Renderer,
	dispatcher *dispatch.Dispatcher,
	records repository.NotificationRepository,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		evaluator:  evaluator,
		audiences:  audiences,
		ledger:     ledger,
		renderer:   renderer,
		dispatcher: dispatcher,
		records:    records,
		logger:     logger,
	}
}

// Run executes the template against the request context. Per-recipient
// failures are counted and logged; only audience resolution failing
// entirely aborts the run.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (*Result, error) {
	tmpl := req.Template
	res := &Result{}

	matched := o.evaluator.Evaluate(ctx, condition.Input{
		Conditions: tmpl.Conditions,
		Logic:      tmpl.ConditionLogic,
		Snapshot:   req.Snapshot,
		Old:        req.Old,
		IsCreate:   req.IsCreate,
	})
	if !matched {
		return res, nil
	}
	res.Matched = true

	recipients, err := o.audiences.Resolve(ctx, tmpl.TargetAudiences, &audience.Context{
		Event:            req.Event,
		Service:          req.Service,
		Supplier:         req.Supplier,
		NarrowSupplierID: req.NarrowSupplierID,
	})
	if err != nil {
		return res, fmt.Errorf("failed to resolve audiences: %w", err)
	}

	for _, rcpt := range recipients {
		if err := o.notifyOne(ctx, req, rcpt, res); err != nil {
			res.Failed++
			o.logger.Error(err, "failed to notify recipient",
				"template", tmpl.Type, "recipient", rcpt.Key())
		}
	}
	return res, nil
}

func (o *Orchestrator) notifyOne(ctx context.Context, req *Request, rcpt audience.Recipient, res *Result) error {
	tmpl := req.Template
	key := o.recordKey(req, rcpt)

	reminderCount := 0
	if !req.SkipDedup {
		decision, err := o.ledger.Check(ctx, key, tmpl)
		if err != nil {
			return err
		}
		if !decision.Proceed {
			res.Skipped++
			metrics.NotificationsSkipped.WithLabelValues(decision.Reason).Inc()
			return nil
		}
		reminderCount = decision.ReminderCount
	}

	rctx := o.buildContext(req, rcpt)
	content := dispatch.Content{
		Title:        o.renderer.Render(tmpl.Title, rctx),
		Body:         o.renderer.Render(tmpl.Body, rctx),
		WhatsAppText: o.renderer.Render(tmpl.WhatsAppBody, rctx),
		Link:         o.renderer.Link(tmpl, rctx),
	}
	if content.WhatsAppText == "" {
		content.WhatsAppText = content.Body
	}

	rec := &model.NotificationRecord{
		ID:                    uuid.New(),
		RecipientKey:          rcpt.Key(),
		UserID:                rcpt.UserID(),
		Title:                 content.Title,
		Message:               content.Body,
		Link:                  content.Link,
		TemplateType:          tmpl.Type,
		RelatedEventID:        key.EventID,
		RelatedEventServiceID: key.EventServiceID,
		RelatedSupplierID:     key.SupplierID,
		ReminderCount:         reminderCount,
	}
	if err := o.records.Create(ctx, rec); err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	out, err := o.dispatcher.Deliver(ctx, rec, rcpt, tmpl, content,
		dispatch.Options{BypassNightly: req.BypassNightly})
	if err != nil {
		return err
	}
	if out.Scheduled {
		res.Scheduled++
	} else {
		res.Sent++
	}
	return nil
}

func (o *Orchestrator) recordKey(req *Request, rcpt audience.Recipient) repository.RecordKey {
	key := repository.RecordKey{
		RecipientKey: rcpt.Key(),
		TemplateType: req.Template.Type,
	}
	if req.Event != nil {
		id := req.Event.ID
		key.EventID = &id
	}
	if req.Service != nil {
		id := req.Service.ID
		key.EventServiceID = &id
	}
	switch {
	case req.NarrowSupplierID != nil:
		key.SupplierID = req.NarrowSupplierID
	case req.Supplier != nil:
		id := req.Supplier.ID
		key.SupplierID = &id
	}
	return key
}

// buildContext flattens the entity context into the render substitution
// map. Snapshot values come first; typed entity fields and Extra win over
// them.
func (o *Orchestrator) buildContext(req *Request, rcpt audience.Recipient) render.Context {
	rctx := render.Context{}
	for k, v := range req.Snapshot {
		rctx[k] = stringifyValue(v)
	}

	if e := req.Event; e != nil {
		rctx["event_id"] = e.ID.String()
		rctx["event_name"] = e.Name
		rctx["event_date"] = e.EventDate.Format("02/01/2006")
		rctx["event_time"] = e.StartTime
		rctx["event_location"] = e.Location
		rctx["event_status"] = e.Status
	}
	if s := req.Service; s != nil {
		rctx["service_id"] = s.ID.String()
		rctx["service_type"] = s.ServiceType
	}
	if sup := req.Supplier; sup != nil {
		rctx["supplier_id"] = sup.ID.String()
		rctx["supplier_name"] = sup.Name
	} else if req.NarrowSupplierID != nil {
		rctx["supplier_id"] = req.NarrowSupplierID.String()
	}
	rctx["recipient_name"] = rcpt.Name()

	for k, v := range req.Extra {
		rctx[k] = v
	}
	return rctx
}

func stringifyValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
