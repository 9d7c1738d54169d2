// Package audience expands a template's audience tags plus entity context
// into concrete recipients.
package audience

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/phone"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// Context carries the entities a notification is about. NarrowSupplierID,
// when set, restricts supplier resolution to that one supplier so that
// diffs never broadcast.
type Context struct {
	Event            *model.Event
	Service          *model.EventService
	Supplier         *model.Supplier
	NarrowSupplierID *uuid.UUID
}

type resolverFunc func(ctx context.Context, rc *Context) ([]Recipient, error)

// Resolver expands audience tags via a per-audience lookup table; adding
// an audience means adding one table entry.
type Resolver struct {
	suppliers repository.SupplierRepository
	services  repository.EventServiceRepository
	users     repository.UserRepository
	logger    *logger.Logger
	table     map[model.Audience]resolverFunc
}

func NewResolver(
	suppliers repository.SupplierRepository,
	services repository.EventServiceRepository,
	users repository.UserRepository,
	logger *logger.Logger,
) *Resolver {
	r := &Resolver{
		suppliers: suppliers,
		services:  services,
		users:     users,
		logger:    logger,
	}
	r.table = map[model.Audience]resolverFunc{
		model.AudienceSupplier: r.resolveSuppliers,
		model.AudienceClient:   r.resolveClients,
		model.AudienceAdmin:    r.resolveAdmins,
	}
	return r
}

// Resolve expands the audience set. A failure in one audience is logged
// and skipped; the others still resolve. Duplicate recipients (same key)
// are collapsed.
func (r *Resolver) Resolve(ctx context.Context, audiences []model.Audience, rc *Context) ([]Recipient, error) {
	seen := make(map[string]struct{})
	var out []Recipient
	for _, a := range audiences {
		fn, ok := r.table[a]
		if !ok {
			r.logger.Info("unknown audience tag skipped", "audience", string(a))
			continue
		}
		recipients, err := fn(ctx, rc)
		if err != nil {
			r.logger.Error(err, "failed to resolve audience", "audience", string(a))
			continue
		}
		for _, rcpt := range recipients {
			if _, dup := seen[rcpt.Key()]; dup {
				continue
			}
			seen[rcpt.Key()] = struct{}{}
			out = append(out, rcpt)
		}
	}
	return out, nil
}

func (r *Resolver) resolveSuppliers(ctx context.Context, rc *Context) ([]Recipient, error) {
	ids, err := r.supplierScope(ctx, rc)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	suppliers, err := r.suppliers.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}

	out := make([]Recipient, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, r.toRecipient(ctx, KindSupplier, s.ID.String(), s.Name, s.Phone, s.Email))
	}
	return out, nil
}

// supplierScope picks the narrowest supplier id set available: the
// diff-narrowed id, then the scoped supplier, then the scoped sub-service,
// then every supplier across the event's sub-services.
func (r *Resolver) supplierScope(ctx context.Context, rc *Context) ([]uuid.UUID, error) {
	if rc.NarrowSupplierID != nil {
		return []uuid.UUID{*rc.NarrowSupplierID}, nil
	}
	if rc.Supplier != nil {
		return []uuid.UUID{rc.Supplier.ID}, nil
	}
	if rc.Service != nil {
		return rc.Service.SupplierIDs, nil
	}
	if rc.Event == nil {
		return nil, nil
	}
	services, err := r.services.ListByEvent(ctx, rc.Event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event services: %w", err)
	}
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, svc := range services {
		for _, id := range svc.SupplierIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *Resolver) resolveClients(ctx context.Context, rc *Context) ([]Recipient, error) {
	if rc.Event == nil {
		return nil, nil
	}
	out := make([]Recipient, 0, len(rc.Event.Contacts))
	for _, contact := range rc.Event.Contacts {
		if contact.Phone == "" && contact.Email == "" {
			continue
		}
		entityID := phone.Normalize(contact.Phone)
		if entityID == "" {
			entityID = contact.Email
		}
		out = append(out, r.toRecipient(ctx, KindClient, entityID, contact.Name, contact.Phone, contact.Email))
	}
	return out, nil
}

func (r *Resolver) resolveAdmins(ctx context.Context, rc *Context) ([]Recipient, error) {
	admins, err := r.users.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	out := make([]Recipient, 0, len(admins))
	for _, u := range admins {
		out = append(out, Account(KindAdmin, u.ID.String(), u.Name, u.Phone, u))
	}
	return out, nil
}

// toRecipient links a party to a user account by email when one exists.
// Lookup failures degrade to an unlinked recipient; WhatsApp must keep
// working without an account.
func (r *Resolver) toRecipient(ctx context.Context, kind Kind, entityID, name, phoneRaw, email string) Recipient {
	if email != "" {
		if user, err := r.users.GetByEmail(ctx, email); err == nil && user != nil {
			return Account(kind, entityID, name, phoneRaw, user)
		}
	}
	return Unlinked(kind, entityID, name, phoneRaw)
}
