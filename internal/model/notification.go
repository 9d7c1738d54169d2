package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationRecord is the in-app/audit log of a send attempt. It is both
// the delivery receipt and the dedup key source: scanners treat an
// unresolved record for the same (entity, recipient, template) inside the
// reminder interval as "already notified".
type NotificationRecord struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	RecipientKey          string     `json:"recipient_key" db:"recipient_key"`
	UserID                *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Title                 string     `json:"title" db:"title"`
	Message               string     `json:"message" db:"message"`
	Link                  string     `json:"link" db:"link"`
	TemplateType          string     `json:"template_type" db:"template_type"`
	RelatedEventID        *uuid.UUID `json:"related_event_id,omitempty" db:"related_event_id"`
	RelatedEventServiceID *uuid.UUID `json:"related_event_service_id,omitempty" db:"related_event_service_id"`
	RelatedSupplierID     *uuid.UUID `json:"related_supplier_id,omitempty" db:"related_supplier_id"`
	PushSent              bool       `json:"push_sent" db:"push_sent"`
	WhatsAppSent          bool       `json:"whatsapp_sent" db:"whatsapp_sent"`
	ReminderCount         int        `json:"reminder_count" db:"reminder_count"`
	IsRead                bool       `json:"is_read" db:"is_read"`
	IsResolved            bool       `json:"is_resolved" db:"is_resolved"`
	ScheduledFor          *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

// NotificationFilter represents notification search parameters
type NotificationFilter struct {
	RecipientKey string     `json:"recipient_key" form:"recipient_key"`
	TemplateType string     `json:"template_type" form:"template_type"`
	EventID      *uuid.UUID `json:"event_id" form:"event_id"`
	UnreadOnly   bool       `json:"unread_only" form:"unread_only"`
	Limit        int        `json:"limit" form:"limit"`
}
