package model

import (
	"time"

	"github.com/google/uuid"
)

// PendingDelivery is a rendered notification held back by an active quiet
// window. Created by the scheduler, consumed by the sweeper, garbage
// collected after a retention period once sent.
type PendingDelivery struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	NotificationID     uuid.UUID  `json:"notification_id" db:"notification_id"`
	RecipientKey       string     `json:"recipient_key" db:"recipient_key"`
	UserID             *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Phone              string     `json:"phone" db:"phone"`
	PushSubscriptionID *string    `json:"push_subscription_id,omitempty" db:"push_subscription_id"`
	Title              string     `json:"title" db:"title"`
	Body               string     `json:"body" db:"body"`
	WhatsAppText       string     `json:"whatsapp_text" db:"whatsapp_text"`
	Link               string     `json:"link" db:"link"`
	SendPush           bool       `json:"send_push" db:"send_push"`
	SendWhatsApp       bool       `json:"send_whatsapp" db:"send_whatsapp"`
	ScheduledFor       time.Time  `json:"scheduled_for" db:"scheduled_for"`
	IsSent             bool       `json:"is_sent" db:"is_sent"`
	SentAt             *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}
