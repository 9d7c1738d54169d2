package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/audience"
	"github.com/eventops/backoffice-api/internal/notifier/condition"
	"github.com/eventops/backoffice-api/internal/notifier/dedup"
	"github.com/eventops/backoffice-api/internal/notifier/dispatch"
	"github.com/eventops/backoffice-api/internal/notifier/orchestrator"
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/notifier/render"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
)

type fakeTemplates struct {
	repository.TemplateRepository
	byType    map[string]*model.NotificationTemplate
	scheduled []*model.NotificationTemplate
}

func (f *fakeTemplates) GetByType(_ context.Context, typeKey string) (*model.NotificationTemplate, error) {
	if t, ok := f.byType[typeKey]; ok {
		return t, nil
	}
	return nil, assert.AnError
}

func (f *fakeTemplates) ListActiveByTrigger(_ context.Context, _ model.TriggerType, _ string) ([]*model.NotificationTemplate, error) {
	return f.scheduled, nil
}

type fakeEvents struct {
	repository.EventRepository
	events []*model.Event
}

func (f *fakeEvents) ListBetween(_ context.Context, from, to time.Time) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range f.events {
		if !e.EventDate.Before(from) && !e.EventDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Get(_ context.Context, id uuid.UUID) (*model.Event, error) {
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, assert.AnError
}

type fakeServices struct {
	repository.EventServiceRepository
	byEvent map[uuid.UUID][]*model.EventService
}

func (f *fakeServices) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*model.EventService, error) {
	return f.byEvent[eventID], nil
}

type fakeQuotes struct {
	repository.QuoteRepository
	open []*model.Quote
}

func (f *fakeQuotes) ListOpenSentBefore(_ context.Context, before time.Time) ([]*model.Quote, error) {
	var out []*model.Quote
	for _, q := range f.open {
		if q.SentAt != nil && q.SentAt.Before(before) {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeRecords struct {
	repository.NotificationRepository
	created []*model.NotificationRecord
}

func (f *fakeRecords) Create(_ context.Context, rec *model.NotificationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecords) FindUnresolved(_ context.Context, key repository.RecordKey) (*model.NotificationRecord, error) {
	for i := len(f.created) - 1; i >= 0; i-- {
		rec := f.created[i]
		if rec.RecipientKey == key.RecipientKey && rec.TemplateType == key.TemplateType &&
			uuidPtrEqual(rec.RelatedEventID, key.EventID) &&
			uuidPtrEqual(rec.RelatedEventServiceID, key.EventServiceID) &&
			uuidPtrEqual(rec.RelatedSupplierID, key.SupplierID) {
			return rec, nil
		}
	}
	return nil, nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeRecords) UpdateChannelStatus(_ context.Context, _ uuid.UUID, _, _ bool) error {
	return nil
}

func (f *fakeRecords) SetScheduledFor(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

type fakeSuppliers struct {
	repository.SupplierRepository
	byID map[uuid.UUID]*model.Supplier
}

func (f *fakeSuppliers) GetMany(_ context.Context, ids []uuid.UUID) ([]*model.Supplier, error) {
	var out []*model.Supplier
	for _, id := range ids {
		if s, ok := f.byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeUsers struct {
	repository.UserRepository
	admins []*model.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, assert.AnError
}

func (f *fakeUsers) ListAdmins(_ context.Context) ([]*model.User, error) { return f.admins, nil }

type fakePending struct{ repository.PendingRepository }

func (f *fakePending) Create(_ context.Context, _ *model.PendingDelivery) error { return nil }

type nopSender struct{}

func (nopSender) Send(_ context.Context, _, _ string) error { return nil }

type nopPush struct{}

func (nopPush) Send(_ context.Context, _, _, _, _ string) error { return nil }

type fixture struct {
	deps      *Deps
	records   *fakeRecords
	templates *fakeTemplates
	events    *fakeEvents
	services  *fakeServices
	quotes    *fakeQuotes
	suppliers *fakeSuppliers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger(nil)
	calc, err := quiet.NewCalculator("Asia/Jerusalem")
	require.NoError(t, err)

	f := &fixture{
		records:   &fakeRecords{},
		templates: &fakeTemplates{byType: map[string]*model.NotificationTemplate{}},
		events:    &fakeEvents{},
		services:  &fakeServices{byEvent: map[uuid.UUID][]*model.EventService{}},
		quotes:    &fakeQuotes{},
		suppliers: &fakeSuppliers{byID: map[uuid.UUID]*model.Supplier{}},
	}

	dispatcher := dispatch.NewDispatcher(nopPush{}, nopSender{}, calc, &fakePending{}, f.records, log)
	resolver := audience.NewResolver(f.suppliers, f.services, &fakeUsers{}, log)
	orch := orchestrator.New(
		condition.NewEvaluator(nil, log),
		resolver,
		dedup.NewLedger(f.records),
		render.NewRenderer("https://admin.example.com"),
		dispatcher,
		f.records,
		log,
	)
	f.deps = &Deps{
		Templates: f.templates,
		Events:    f.events,
		Services:  f.services,
		Quotes:    f.quotes,
		Orch:      orch,
		Logger:    log,
	}
	return f
}

func supplierTemplate(typeKey string) *model.NotificationTemplate {
	return &model.NotificationTemplate{
		Type:            typeKey,
		IsActive:        true,
		TargetAudiences: []model.Audience{model.AudienceSupplier},
		AllowedChannels: []model.Channel{model.ChannelWhatsApp},
		Title:           "Reminder",
		Body:            "Please respond for {{event_name}}",
	}
}

func addEvent(f *fixture, daysAhead int) *model.Event {
	e := &model.Event{Name: "Cohen Wedding", Status: model.EventStatusConfirmed,
		EventDate: time.Now().Add(time.Duration(daysAhead) * 24 * time.Hour)}
	e.ID = uuid.New()
	f.events.events = append(f.events.events, e)
	return e
}

func addSupplier(f *fixture) *model.Supplier {
	s := &model.Supplier{Name: "DJ", Phone: "0501234567"}
	s.ID = uuid.New()
	f.suppliers.byID[s.ID] = s
	return s
}

func TestPendingAssignmentScanner(t *testing.T) {
	f := newFixture(t)
	f.templates.byType[TemplatePendingAssignment] = supplierTemplate(TemplatePendingAssignment)

	event := addEvent(f, 7)
	pending := addSupplier(f)
	approved := addSupplier(f)

	svc := &model.EventService{EventID: event.ID, ServiceType: "dj",
		SupplierIDs: []uuid.UUID{pending.ID, approved.ID},
		SupplierStatuses: map[string]string{
			pending.ID.String():  model.AssignmentStatusPending,
			approved.ID.String(): model.AssignmentStatusApproved,
		}}
	svc.ID = uuid.New()
	f.services.byEvent[event.ID] = []*model.EventService{svc}

	sum, err := NewPendingAssignmentScanner(f.deps, 0).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 0, sum.Errors)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, "virtual_supplier_"+pending.ID.String(), f.records.created[0].RecipientKey)
}

func TestPendingAssignmentMissingTemplateIsConfigError(t *testing.T) {
	f := newFixture(t)
	addEvent(f, 7)

	sum, err := NewPendingAssignmentScanner(f.deps, 0).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, sum.Errors)
	assert.Empty(t, f.records.created)
}

func TestMissingAssignmentScanner(t *testing.T) {
	f := newFixture(t)
	tmpl := supplierTemplate(TemplateMissingAssignment)
	tmpl.TargetAudiences = []model.Audience{model.AudienceAdmin}
	f.templates.byType[TemplateMissingAssignment] = tmpl

	event := addEvent(f, 14)
	staffed := &model.EventService{EventID: event.ID, MinSuppliers: 1,
		SupplierIDs:      []uuid.UUID{uuid.New()},
		SupplierStatuses: map[string]string{}}
	staffed.ID = uuid.New()
	short := &model.EventService{EventID: event.ID, MinSuppliers: 2,
		SupplierIDs:      []uuid.UUID{uuid.New()},
		SupplierStatuses: map[string]string{}}
	short.ID = uuid.New()
	f.services.byEvent[event.ID] = []*model.EventService{staffed, short}

	sum, err := NewMissingAssignmentScanner(f.deps, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
}

func TestOpenQuoteScanner(t *testing.T) {
	f := newFixture(t)
	tmpl := supplierTemplate(TemplateOpenQuote)
	tmpl.TargetAudiences = []model.Audience{model.AudienceClient}
	f.templates.byType[TemplateOpenQuote] = tmpl

	event := addEvent(f, 30)
	event.Contacts = []model.Contact{{Name: "Dana", Phone: "0507654321"}}

	fresh := &model.Quote{EventID: event.ID, Status: model.QuoteStatusSent}
	fresh.ID = uuid.New()
	sentAt := time.Now().Add(-1 * time.Hour)
	fresh.SentAt = &sentAt

	stale := &model.Quote{EventID: event.ID, Status: model.QuoteStatusSent, Total: 1200}
	stale.ID = uuid.New()
	staleSent := time.Now().Add(-5 * 24 * time.Hour)
	stale.SentAt = &staleSent

	f.quotes.open = []*model.Quote{fresh, stale}

	sum, err := NewOpenQuoteScanner(f.deps).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, "virtual_client_972507654321", f.records.created[0].RecipientKey)
}

func TestScheduledCheckScannerTiming(t *testing.T) {
	f := newFixture(t)
	tmpl := supplierTemplate("week_before_check")
	tmpl.TargetAudiences = []model.Audience{model.AudienceClient}
	tmpl.TimingValue = 7
	tmpl.TimingUnit = model.UnitDays
	tmpl.TimingDirection = model.TimingBefore
	f.templates.scheduled = []*model.NotificationTemplate{tmpl}

	due := addEvent(f, 3)
	due.Contacts = []model.Contact{{Name: "Dana", Phone: "0507654321"}}
	addEvent(f, 20) // not due yet

	sum, err := NewScheduledCheckScanner(f.deps, 0).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Processed)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, due.ID, *f.records.created[0].RelatedEventID)
}

func TestPendingAssignmentScanRerunDoesNotDoubleSend(t *testing.T) {
	f := newFixture(t)
	f.templates.byType[TemplatePendingAssignment] = supplierTemplate(TemplatePendingAssignment)

	event := addEvent(f, 7)
	pending := addSupplier(f)

	svc := &model.EventService{EventID: event.ID, ServiceType: "dj",
		SupplierIDs: []uuid.UUID{pending.ID},
		SupplierStatuses: map[string]string{
			pending.ID.String(): model.AssignmentStatusPending,
		}}
	svc.ID = uuid.New()
	f.services.byEvent[event.ID] = []*model.EventService{svc}

	scan := NewPendingAssignmentScanner(f.deps, 0)

	first, err := scan.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)
	assert.Equal(t, 0, first.Skipped)
	require.Len(t, f.records.created, 1)

	second, err := scan.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 0, second.Scheduled)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, f.records.created, 1)
}
