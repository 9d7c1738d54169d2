package orchestrator

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
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/notifier/render"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
)

type fakeRecords struct {
	repository.NotificationRepository
	created    []*model.NotificationRecord
	unresolved *model.NotificationRecord
}

func (f *fakeRecords) Create(_ context.Context, rec *model.NotificationRecord) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecords) FindUnresolved(_ context.Context, _ repository.RecordKey) (*model.NotificationRecord, error) {
	return f.unresolved, nil
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

type fakeServices struct {
	repository.EventServiceRepository
}

func (f *fakeServices) ListByEvent(_ context.Context, _ uuid.UUID) ([]*model.EventService, error) {
	return nil, nil
}

type fakeUsers struct {
	repository.UserRepository
	admins []*model.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, assert.AnError
}

func (f *fakeUsers) ListAdmins(_ context.Context) ([]*model.User, error) {
	return f.admins, nil
}

type fakeSender struct {
	whatsapp []string
}

func (f *fakeSender) Send(_ context.Context, phoneNumber, text string) error {
	f.whatsapp = append(f.whatsapp, text)
	return nil
}

type fakePushSender struct{ sent []string }

func (f *fakePushSender) Send(_ context.Context, _, title, _, _ string) error {
	f.sent = append(f.sent, title)
	return nil
}

type fixture struct {
	orch     *Orchestrator
	records  *fakeRecords
	whatsapp *fakeSender
	push     *fakePushSender
	supplier *model.Supplier
	event    *model.Event
}

type fakePending struct {
	repository.PendingRepository
}

func (f *fakePending) Create(_ context.Context, _ *model.PendingDelivery) error { return nil }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger(nil)

	sup := &model.Supplier{Name: "DJ Moshe", Phone: "0501234567"}
	sup.ID = uuid.New()

	event := &model.Event{Name: "Levi Wedding", Status: model.EventStatusConfirmed,
		EventDate: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)}
	event.ID = uuid.New()

	calc, err := quiet.NewCalculator("Asia/Jerusalem")
	require.NoError(t, err)

	f := &fixture{
		records:  &fakeRecords{},
		whatsapp: &fakeSender{},
		push:     &fakePushSender{},
		supplier: sup,
		event:    event,
	}

	dispatcher := dispatch.NewDispatcher(f.push, f.whatsapp, calc, &fakePending{}, f.records, log)
	resolver := audience.NewResolver(
		&fakeSuppliers{byID: map[uuid.UUID]*model.Supplier{sup.ID: sup}},
		&fakeServices{},
		&fakeUsers{},
		log,
	)
	f.orch = New(
		condition.NewEvaluator(nil, log),
		resolver,
		dedup.NewLedger(f.records),
		render.NewRenderer("https://admin.example.com"),
		dispatcher,
		f.records,
		log,
	)
	return f
}

func confirmedTemplate() *model.NotificationTemplate {
	return &model.NotificationTemplate{
		Type:            "supplier_assigned",
		ConditionLogic:  model.LogicAnd,
		Conditions:      []model.Condition{{Field: "status", Operator: model.OpEquals, Value: "confirmed"}},
		TargetAudiences: []model.Audience{model.AudienceSupplier},
		AllowedChannels: []model.Channel{model.ChannelWhatsApp},
		Title:           "New assignment",
		Body:            "You were assigned to {{event_name}}",
		DynamicURLType:  model.URLSupplierPortal,
	}
}

func runRequest(f *fixture, tmpl *model.NotificationTemplate) *Request {
	sid := f.supplier.ID
	return &Request{
		Template:         tmpl,
		Event:            f.event,
		Snapshot:         f.event.Snapshot(),
		IsCreate:         true,
		NarrowSupplierID: &sid,
	}
}

func TestRunSendsToNarrowedSupplier(t *testing.T) {
	f := newFixture(t)
	res, err := f.orch.Run(context.Background(), runRequest(f, confirmedTemplate()))
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.Equal(t, 1, res.Sent+res.Scheduled)
	require.Len(t, f.records.created, 1)

	rec := f.records.created[0]
	assert.Equal(t, "virtual_supplier_"+f.supplier.ID.String(), rec.RecipientKey)
	assert.Equal(t, "supplier_assigned", rec.TemplateType)
	assert.Equal(t, "You were assigned to Levi Wedding", rec.Message)
	require.NotNil(t, rec.RelatedEventID)
	assert.Equal(t, f.event.ID, *rec.RelatedEventID)
	require.NotNil(t, rec.RelatedSupplierID)
	assert.Equal(t, f.supplier.ID, *rec.RelatedSupplierID)
	assert.Contains(t, rec.Link, "/portal/suppliers/"+f.supplier.ID.String())
}

func TestRunConditionGate(t *testing.T) {
	f := newFixture(t)
	f.event.Status = model.EventStatusLead

	res, err := f.orch.Run(context.Background(), runRequest(f, confirmedTemplate()))
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Empty(t, f.records.created)
}

func TestRunDedupSkips(t *testing.T) {
	f := newFixture(t)
	f.records.unresolved = &model.NotificationRecord{ID: uuid.New(), CreatedAt: time.Now()}

	res, err := f.orch.Run(context.Background(), runRequest(f, confirmedTemplate()))
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, f.records.created)
}

func TestRunSkipDedupForcesSend(t *testing.T) {
	f := newFixture(t)
	f.records.unresolved = &model.NotificationRecord{ID: uuid.New(), CreatedAt: time.Now()}

	req := runRequest(f, confirmedTemplate())
	req.SkipDedup = true
	res, err := f.orch.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Skipped)
	assert.Len(t, f.records.created, 1)
}

func TestWhatsAppTextFallsBackToBody(t *testing.T) {
	f := newFixture(t)
	tmpl := confirmedTemplate()
	tmpl.WhatsAppBody = ""

	_, err := f.orch.Run(context.Background(), runRequest(f, tmpl))
	require.NoError(t, err)
	require.Len(t, f.records.created, 1)
	assert.Equal(t, "You were assigned to Levi Wedding", f.records.created[0].Message)
}
