package audience

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
)

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
	byEvent map[uuid.UUID][]*model.EventService
}

func (f *fakeServices) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*model.EventService, error) {
	return f.byEvent[eventID], nil
}

type fakeUsers struct {
	repository.UserRepository
	byEmail map[string]*model.User
	admins  []*model.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, assert.AnError
}

func (f *fakeUsers) ListAdmins(_ context.Context) ([]*model.User, error) {
	return f.admins, nil
}

func supplier(name, phoneNum, email string) *model.Supplier {
	s := &model.Supplier{Name: name, Phone: phoneNum, Email: email}
	s.ID = uuid.New()
	return s
}

func newTestResolver(suppliers *fakeSuppliers, services *fakeServices, users *fakeUsers) *Resolver {
	return NewResolver(suppliers, services, users, logger.NewLogger(nil))
}

func TestNarrowedSupplierNeverBroadcasts(t *testing.T) {
	a := supplier("DJ Moshe", "0501111111", "")
	b := supplier("Catering Co", "0502222222", "")
	suppliers := &fakeSuppliers{byID: map[uuid.UUID]*model.Supplier{a.ID: a, b.ID: b}}

	event := &model.Event{}
	event.ID = uuid.New()
	svc := &model.EventService{EventID: event.ID, SupplierIDs: []uuid.UUID{a.ID, b.ID}}
	services := &fakeServices{byEvent: map[uuid.UUID][]*model.EventService{event.ID: {svc}}}
	users := &fakeUsers{byEmail: map[string]*model.User{}}

	r := newTestResolver(suppliers, services, users)

	narrowed := a.ID
	got, err := r.Resolve(context.Background(), []model.Audience{model.AudienceSupplier}, &Context{
		Event: event, Service: svc, NarrowSupplierID: &narrowed,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "virtual_supplier_"+a.ID.String(), got[0].Key())
	assert.Equal(t, "0501111111", got[0].Phone())
}

func TestSupplierScopeFromEvent(t *testing.T) {
	a := supplier("DJ", "0501111111", "")
	b := supplier("Photo", "0502222222", "")
	suppliers := &fakeSuppliers{byID: map[uuid.UUID]*model.Supplier{a.ID: a, b.ID: b}}

	event := &model.Event{}
	event.ID = uuid.New()
	services := &fakeServices{byEvent: map[uuid.UUID][]*model.EventService{
		event.ID: {
			{EventID: event.ID, SupplierIDs: []uuid.UUID{a.ID}},
			{EventID: event.ID, SupplierIDs: []uuid.UUID{a.ID, b.ID}},
		},
	}}
	users := &fakeUsers{byEmail: map[string]*model.User{}}

	r := newTestResolver(suppliers, services, users)
	got, err := r.Resolve(context.Background(), []model.Audience{model.AudienceSupplier}, &Context{Event: event})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSupplierWithAccountGetsPushTarget(t *testing.T) {
	user := &model.User{Email: "dj@example.com"}
	user.ID = uuid.New()
	sub := "sub-123"
	user.PushSubscriptionID = &sub

	a := supplier("DJ", "0501111111", "dj@example.com")
	suppliers := &fakeSuppliers{byID: map[uuid.UUID]*model.Supplier{a.ID: a}}
	services := &fakeServices{}
	users := &fakeUsers{byEmail: map[string]*model.User{"dj@example.com": user}}

	r := newTestResolver(suppliers, services, users)
	got, err := r.Resolve(context.Background(), []model.Audience{model.AudienceSupplier}, &Context{Supplier: a})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, user.ID.String(), got[0].Key())
	subscription, ok := got[0].PushSubscription()
	assert.True(t, ok)
	assert.Equal(t, "sub-123", subscription)
	// Phone stays the supplier's own, not the account's.
	assert.Equal(t, "0501111111", got[0].Phone())
}

func TestClientContacts(t *testing.T) {
	event := &model.Event{Contacts: []model.Contact{
		{Name: "Rivka", Phone: "0503333333"},
		{Name: "Empty"},
	}}
	event.ID = uuid.New()

	r := newTestResolver(&fakeSuppliers{}, &fakeServices{}, &fakeUsers{byEmail: map[string]*model.User{}})
	got, err := r.Resolve(context.Background(), []model.Audience{model.AudienceClient}, &Context{Event: event})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "virtual_client_972503333333", got[0].Key())
	_, ok := got[0].PushSubscription()
	assert.False(t, ok)
}

func TestAdminsAndDeduplication(t *testing.T) {
	admin := &model.User{Name: "Boss", Phone: "0509999999", IsAdmin: true}
	admin.ID = uuid.New()
	users := &fakeUsers{byEmail: map[string]*model.User{}, admins: []*model.User{admin}}

	r := newTestResolver(&fakeSuppliers{}, &fakeServices{}, users)
	got, err := r.Resolve(context.Background(),
		[]model.Audience{model.AudienceAdmin, model.AudienceAdmin}, &Context{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, admin.ID.String(), got[0].Key())
}
