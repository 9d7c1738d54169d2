package model

import (
	"time"

	"github.com/google/uuid"
)

// Quote status constants
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRejected = "rejected"
	QuoteStatusExpired  = "expired"
)

// Quote is a price quote sent to a client for an event.
type Quote struct {
	Base
	EventID uuid.UUID  `json:"event_id" db:"event_id"`
	Status  string     `json:"status" db:"status"`
	Total   float64    `json:"total" db:"total"`
	SentAt  *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	Notes   string     `json:"notes" db:"notes"`
}

// QuoteFilter represents quote search parameters
type QuoteFilter struct {
	BaseFilter
	EventID uuid.UUID `json:"event_id" form:"event_id"`
}

// CreateQuoteRequest is the payload for creating a quote
type CreateQuoteRequest struct {
	EventID uuid.UUID `json:"event_id" binding:"required"`
	Total   float64   `json:"total" binding:"required,gt=0"`
	Notes   string    `json:"notes"`
}

// UpdateQuoteRequest is the payload for updating a quote
type UpdateQuoteRequest struct {
	Status *string    `json:"status"`
	Total  *float64   `json:"total"`
	SentAt *time.Time `json:"sent_at"`
	Notes  *string    `json:"notes"`
}
