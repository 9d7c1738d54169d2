package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
)

// RecordKey identifies the (entity, recipient, template) tuple the dedup
// ledger works with.
type RecordKey struct {
	RecipientKey   string
	TemplateType   string
	EventID        *uuid.UUID
	EventServiceID *uuid.UUID
	SupplierID     *uuid.UUID
}

// All repository interfaces in one file
type (
	EventRepository interface {
		Create(ctx context.Context, event *model.Event) error
		Get(ctx context.Context, id uuid.UUID) (*model.Event, error)
		Update(ctx context.Context, event *model.Event) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.EventFilter) ([]*model.Event, error)
		ListBetween(ctx context.Context, from, to time.Time) ([]*model.Event, error)
	}

	SupplierRepository interface {
		Create(ctx context.Context, supplier *model.Supplier) error
		Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
		Update(ctx context.Context, supplier *model.Supplier) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.SupplierFilter) ([]*model.Supplier, error)
		GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Supplier, error)
	}

	EventServiceRepository interface {
		Create(ctx context.Context, svc *model.EventService) error
		Get(ctx context.Context, id uuid.UUID) (*model.EventService, error)
		Update(ctx context.Context, svc *model.EventService) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.EventServiceFilter) ([]*model.EventService, error)
		ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.EventService, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
		Update(ctx context.Context, payment *model.Payment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.PaymentFilter) ([]*model.Payment, error)
		SumCompleted(ctx context.Context, eventID uuid.UUID, side string) (float64, error)
	}

	QuoteRepository interface {
		Create(ctx context.Context, quote *model.Quote) error
		Get(ctx context.Context, id uuid.UUID) (*model.Quote, error)
		Update(ctx context.Context, quote *model.Quote) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.QuoteFilter) ([]*model.Quote, error)
		ListOpenSentBefore(ctx context.Context, before time.Time) ([]*model.Quote, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
		ListAdmins(ctx context.Context) ([]*model.User, error)
	}

	TemplateRepository interface {
		Create(ctx context.Context, tmpl *model.NotificationTemplate) error
		Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error)
		GetByType(ctx context.Context, typeKey string) (*model.NotificationTemplate, error)
		Update(ctx context.Context, tmpl *model.NotificationTemplate) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.TemplateFilter) ([]*model.NotificationTemplate, error)
		ListActiveByTrigger(ctx context.Context, trigger model.TriggerType, entityName string) ([]*model.NotificationTemplate, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, rec *model.NotificationRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.NotificationRecord, error)
		List(ctx context.Context, filter *model.NotificationFilter) ([]*model.NotificationRecord, error)
		FindUnresolved(ctx context.Context, key RecordKey) (*model.NotificationRecord, error)
		UpdateChannelStatus(ctx context.Context, id uuid.UUID, pushSent, whatsappSent bool) error
		SetScheduledFor(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkRead(ctx context.Context, id uuid.UUID) error
		MarkResolved(ctx context.Context, id uuid.UUID) error
	}

	PendingRepository interface {
		Create(ctx context.Context, p *model.PendingDelivery) error
		ListDue(ctx context.Context, now time.Time, limit int) ([]*model.PendingDelivery, error)
		List(ctx context.Context, includeSent bool) ([]*model.PendingDelivery, error)
		MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
		Reschedule(ctx context.Context, id uuid.UUID, at time.Time) error
		DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
