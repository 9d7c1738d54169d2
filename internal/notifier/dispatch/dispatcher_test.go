package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/audience"
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
)

type fakePush struct {
	calls []string
	err   error
}

func (f *fakePush) Send(_ context.Context, subscriptionID, _, _, _ string) error {
	f.calls = append(f.calls, subscriptionID)
	return f.err
}

type fakeWhatsApp struct {
	calls []string
	err   error
}

func (f *fakeWhatsApp) Send(_ context.Context, phoneNumber, _ string) error {
	f.calls = append(f.calls, phoneNumber)
	return f.err
}

type fakePending struct {
	repository.PendingRepository
	created []*model.PendingDelivery
}

func (f *fakePending) Create(_ context.Context, p *model.PendingDelivery) error {
	f.created = append(f.created, p)
	return nil
}

type fakeRecords struct {
	repository.NotificationRepository
	pushSent     bool
	whatsappSent bool
	scheduledFor *time.Time
}

func (f *fakeRecords) UpdateChannelStatus(_ context.Context, _ uuid.UUID, pushSent, whatsappSent bool) error {
	f.pushSent = pushSent
	f.whatsappSent = whatsappSent
	return nil
}

func (f *fakeRecords) SetScheduledFor(_ context.Context, _ uuid.UUID, at time.Time) error {
	f.scheduledFor = &at
	return nil
}

type fixture struct {
	dispatcher *Dispatcher
	push       *fakePush
	whatsapp   *fakeWhatsApp
	pending    *fakePending
	records    *fakeRecords
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	calc, err := quiet.NewCalculator("Asia/Jerusalem")
	require.NoError(t, err)

	f := &fixture{
		push:     &fakePush{},
		whatsapp: &fakeWhatsApp{},
		pending:  &fakePending{},
		records:  &fakeRecords{},
	}
	f.dispatcher = NewDispatcher(f.push, f.whatsapp, calc, f.pending, f.records, logger.NewLogger(nil))
	f.dispatcher.now = func() time.Time { return now }
	return f
}

// jerusalem builds an instant at the given local wall-clock time.
func jerusalem(t *testing.T, year int, month time.Month, day, hour int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	return time.Date(year, month, day, hour, 30, 0, 0, loc)
}

func linkedRecipient(phone string) audience.Recipient {
	sub := "sub-1"
	u := &model.User{Phone: phone, PushSubscriptionID: &sub}
	u.ID = uuid.New()
	return audience.Account(audience.KindSupplier, "x", "Supplier", phone, u)
}

func templateWith(channels ...model.Channel) *model.NotificationTemplate {
	return &model.NotificationTemplate{AllowedChannels: channels}
}

func bothChannels() *model.NotificationTemplate {
	return templateWith(model.ChannelPush, model.ChannelWhatsApp)
}

func TestDaytimeDeliverySendsBothChannels(t *testing.T) {
	// Tuesday 14:30 local.
	f := newFixture(t, jerusalem(t, 2025, time.June, 10, 14))
	rec := &model.NotificationRecord{ID: uuid.New()}

	out, err := f.dispatcher.Deliver(context.Background(), rec, linkedRecipient("0501234567"),
		bothChannels(), Content{Title: "t", Body: "b", WhatsAppText: "w"}, Options{})
	require.NoError(t, err)

	assert.True(t, out.PushSent)
	assert.True(t, out.WhatsAppSent)
	assert.Equal(t, []string{"sub-1"}, f.push.calls)
	assert.Equal(t, []string{"972501234567"}, f.whatsapp.calls)
	assert.True(t, f.records.pushSent)
	assert.True(t, f.records.whatsappSent)
	assert.Empty(t, f.pending.created)
}

func TestNightlyWindowParksDelivery(t *testing.T) {
	// Tuesday 23:30 local, default quiet hours.
	f := newFixture(t, jerusalem(t, 2025, time.June, 10, 23))
	rec := &model.NotificationRecord{ID: uuid.New()}

	out, err := f.dispatcher.Deliver(context.Background(), rec, linkedRecipient("0501234567"),
		bothChannels(), Content{Title: "t", WhatsAppText: "w"}, Options{})
	require.NoError(t, err)

	assert.True(t, out.Scheduled)
	assert.Equal(t, quiet.ReasonNightly, out.QuietReason)
	require.Len(t, f.pending.created, 1)

	p := f.pending.created[0]
	assert.Equal(t, rec.ID, p.NotificationID)
	assert.True(t, p.SendPush)
	assert.True(t, p.SendWhatsApp)
	assert.Equal(t, 8, p.ScheduledFor.Hour())
	require.NotNil(t, f.records.scheduledFor)
	assert.Empty(t, f.push.calls)
	assert.Empty(t, f.whatsapp.calls)
}

func TestBypassNightlySendsAtNight(t *testing.T) {
	f := newFixture(t, jerusalem(t, 2025, time.June, 10, 23))
	rec := &model.NotificationRecord{ID: uuid.New()}

	out, err := f.dispatcher.Deliver(context.Background(), rec, linkedRecipient("0501234567"),
		bothChannels(), Content{WhatsAppText: "w"}, Options{BypassNightly: true})
	require.NoError(t, err)
	assert.False(t, out.Scheduled)
	assert.True(t, out.WhatsAppSent)
}

func TestBypassNeverCrossesSabbath(t *testing.T) {
	// Friday 17:30 local.
	f := newFixture(t, jerusalem(t, 2025, time.June, 13, 17))
	rec := &model.NotificationRecord{ID: uuid.New()}

	out, err := f.dispatcher.Deliver(context.Background(), rec, linkedRecipient("0501234567"),
		bothChannels(), Content{WhatsAppText: "w"}, Options{BypassNightly: true})
	require.NoError(t, err)

	assert.True(t, out.Scheduled)
	assert.Equal(t, quiet.ReasonSabbath, out.QuietReason)
	assert.Empty(t, f.whatsapp.calls)
}

func TestUnlinkedRecipientSkipsPush(t *testing.T) {
	f := newFixture(t, jerusalem(t, 2025, time.June, 10, 14))
	rec := &model.NotificationRecord{ID: uuid.New()}
	rcpt := audience.Unlinked(audience.KindClient, "972501234567", "Client", "0501234567")

	out, err := f.dispatcher.Deliver(context.Background(), rec, rcpt,
		bothChannels(), Content{WhatsAppText: "w"}, Options{})
	require.NoError(t, err)

	assert.False(t, out.PushSent)
	assert.True(t, out.WhatsAppSent)
	assert.Empty(t, f.push.calls)
}

func TestChannelGateRespected(t *testing.T) {
	f := newFixture(t, jerusalem(t, 2025, time.June, 10, 14))
	rec := &model.NotificationRecord{ID: uuid.New()}

	out, err := f.dispatcher.Deliver(context.Background(), rec, linkedRecipient("0501234567"),
		templateWith(model.ChannelPush), Content{WhatsAppText: "w"}, Options{})
	require.NoError(t, err)

	assert.True(t, out.PushSent)
	assert.False(t, out.WhatsAppSent)
	assert.Empty(t, f.whatsapp.calls)
}

func TestOneChannelFailingDoesNotBlockTheOther(t *testing.T) {
	f := newFixture(t, jerusalem(t, 2025, time.June, 10, 14))
	f.push.err = errors.New("relay down")
	rec := &model.NotificationRecord{ID: uuid.New()}

	out, err := f.dispatcher.Deliver(context.Background(), rec, linkedRecipient("0501234567"),
		bothChannels(), Content{WhatsAppText: "w"}, Options{})
	require.NoError(t, err)

	assert.False(t, out.PushSent)
	assert.True(t, out.WhatsAppSent)
	assert.False(t, f.records.pushSent)
	assert.True(t, f.records.whatsappSent)
}
