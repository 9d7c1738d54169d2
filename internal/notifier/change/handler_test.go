package change

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
	byTrigger map[model.TriggerType][]*model.NotificationTemplate
}

func (f *fakeTemplates) ListActiveByTrigger(_ context.Context, trigger model.TriggerType, _ string) ([]*model.NotificationTemplate, error) {
	return f.byTrigger[trigger], nil
}

type fakeEvents struct {
	repository.EventRepository
	byID map[uuid.UUID]*model.Event
}

func (f *fakeEvents) Get(_ context.Context, id uuid.UUID) (*model.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, assert.AnError
}

type fakeServices struct {
	repository.EventServiceRepository
	byID map[uuid.UUID]*model.EventService
}

func (f *fakeServices) Get(_ context.Context, id uuid.UUID) (*model.EventService, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, assert.AnError
}

func (f *fakeServices) ListByEvent(_ context.Context, _ uuid.UUID) ([]*model.EventService, error) {
	return nil, nil
}

type fakeRecords struct {
	repository.NotificationRepository
	created []*model.NotificationRecord
}

func (f *fakeRecords) Create(_ context.Context, rec *model.NotificationRecord) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecords) FindUnresolved(_ context.Context, _ repository.RecordKey) (*model.NotificationRecord, error) {
	return nil, nil
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
}

func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, assert.AnError
}

func (f *fakeUsers) ListAdmins(_ context.Context) ([]*model.User, error) { return nil, nil }

type fakePending struct{ repository.PendingRepository }

func (f *fakePending) Create(_ context.Context, _ *model.PendingDelivery) error { return nil }

type nopSender struct{}

func (nopSender) Send(_ context.Context, _, _ string) error { return nil }

type nopPush struct{}

func (nopPush) Send(_ context.Context, _, _, _, _ string) error { return nil }

type fixture struct {
	handler   *Handler
	templates *fakeTemplates
	records   *fakeRecords
	events    *fakeEvents
	services  *fakeServices
	suppliers *fakeSuppliers
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger(nil)
	calc, err := quiet.NewCalculator("Asia/Jerusalem")
	require.NoError(t, err)

	f := &fixture{
		templates: &fakeTemplates{byTrigger: map[model.TriggerType][]*model.NotificationTemplate{}},
		records:   &fakeRecords{},
		events:    &fakeEvents{byID: map[uuid.UUID]*model.Event{}},
		services:  &fakeServices{byID: map[uuid.UUID]*model.EventService{}},
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
	f.handler = NewHandler(f.templates, f.events, f.services, orch, log)
	return f
}

func supplierTemplate(typeKey string, trigger model.TriggerType) *model.NotificationTemplate {
	return &model.NotificationTemplate{
		Type:            typeKey,
		TriggerType:     trigger,
		IsActive:        true,
		TargetAudiences: []model.Audience{model.AudienceSupplier},
		AllowedChannels: []model.Channel{model.ChannelWhatsApp},
		Title:           "t",
		Body:            "b",
	}
}

func TestRejectsInvalidPayload(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.HandleChange(context.Background(), "", "update", map[string]interface{}{}, nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = f.handler.HandleChange(context.Background(), "event", "update", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = f.handler.HandleChange(context.Background(), "event", "upsert", map[string]interface{}{}, nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDeleteIsSilent(t *testing.T) {
	f := newFixture(t)
	sum, err := f.handler.HandleChange(context.Background(), "event", "delete", map[string]interface{}{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Templates)
}

func TestSupplierAddedFansOutNarrowed(t *testing.T) {
	f := newFixture(t)
	f.templates.byTrigger[model.TriggerSupplierAssignmentCreate] = []*model.NotificationTemplate{
		supplierTemplate("supplier_assigned", model.TriggerSupplierAssignmentCreate),
	}

	sup := &model.Supplier{Name: "DJ", Phone: "0501234567"}
	sup.ID = uuid.New()
	f.suppliers.byID[sup.ID] = sup

	ev := &model.Event{Name: "Wedding"}
	ev.ID = uuid.New()
	f.events.byID[ev.ID] = ev

	svc := &model.EventService{EventID: ev.ID}
	svc.ID = uuid.New()
	f.services.byID[svc.ID] = svc

	old := map[string]interface{}{"id": svc.ID.String(), "supplier_ids": []string{}}
	new := map[string]interface{}{"id": svc.ID.String(), "supplier_ids": []string{sup.ID.String()}}

	sum, err := f.handler.HandleChange(context.Background(), model.EntityEventService, "update", new, old)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Templates)
	require.Len(t, f.records.created, 1)
	rec := f.records.created[0]
	assert.Equal(t, "virtual_supplier_"+sup.ID.String(), rec.RecipientKey)
	require.NotNil(t, rec.RelatedSupplierID)
	assert.Equal(t, sup.ID, *rec.RelatedSupplierID)
}

func TestCriticalEventUpdateBroadcasts(t *testing.T) {
	f := newFixture(t)
	tmpl := supplierTemplate("event_changed", model.TriggerEventCriticalUpdate)
	tmpl.TargetAudiences = []model.Audience{model.AudienceClient}
	f.templates.byTrigger[model.TriggerEventCriticalUpdate] = []*model.NotificationTemplate{tmpl}

	ev := &model.Event{Name: "Wedding", Contacts: []model.Contact{{Name: "Dana", Phone: "0507654321"}}}
	ev.ID = uuid.New()
	f.events.byID[ev.ID] = ev

	old := map[string]interface{}{"id": ev.ID.String(), "location": "Haifa"}
	new := map[string]interface{}{"id": ev.ID.String(), "location": "Tel Aviv"}

	sum, err := f.handler.HandleChange(context.Background(), model.EntityEvent, "update", new, old)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Templates)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, "virtual_client_972507654321", f.records.created[0].RecipientKey)
}

func TestEntityCreateTrigger(t *testing.T) {
	f := newFixture(t)
	tmpl := supplierTemplate("event_created", model.TriggerEntityCreate)
	tmpl.TargetAudiences = []model.Audience{model.AudienceAdmin}
	f.templates.byTrigger[model.TriggerEntityCreate] = []*model.NotificationTemplate{tmpl}

	ev := &model.Event{Name: "Wedding"}
	ev.ID = uuid.New()
	f.events.byID[ev.ID] = ev

	sum, err := f.handler.HandleChange(context.Background(), model.EntityEvent, "create", ev.Snapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Templates)
}
