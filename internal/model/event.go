package model

import (
	"time"
)

// Event type constants
const (
	EventTypeWedding   = "wedding"
	EventTypeBarMitzva = "bar_mitzvah"
	EventTypeBatMitzva = "bat_mitzvah"
	EventTypeBrit      = "brit"
	EventTypeOther     = "other"
)

// Event status constants
const (
	EventStatusLead      = "lead"
	EventStatusQuoted    = "quoted"
	EventStatusConfirmed = "confirmed"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// Contact is a client-side contact attached to an event (parents, couple, etc.).
// Stored as a JSON-encoded list on the events row.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Event represents a produced event (wedding, bar mitzvah, ...).
type Event struct {
	Base
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Status    string    `json:"status" db:"status"`
	EventDate time.Time `json:"event_date" db:"event_date"`
	StartTime string    `json:"start_time" db:"start_time"`
	Location  string    `json:"location" db:"location"`
	Concept   string    `json:"concept" db:"concept"`
	Price     float64   `json:"price" db:"price"`
	Contacts  []Contact `json:"contacts" db:"-"`
	Notes     string    `json:"notes" db:"notes"`
}

// EventFilter represents event search parameters
type EventFilter struct {
	BaseFilter
	Type string `json:"type" form:"type"`
}

// Snapshot flattens the event into the field map the condition evaluator
// and diff engine operate on.
func (e *Event) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"id":         e.ID.String(),
		"name":       e.Name,
		"type":       e.Type,
		"status":     e.Status,
		"event_date": e.EventDate.Format("2006-01-02"),
		"start_time": e.StartTime,
		"location":   e.Location,
		"concept":    e.Concept,
		"price":      e.Price,
		"notes":      e.Notes,
	}
}

// CreateEventRequest is the payload for creating an event
type CreateEventRequest struct {
	Name      string    `json:"name" binding:"required"`
	Type      string    `json:"type" binding:"required"`
	EventDate time.Time `json:"event_date" binding:"required"`
	StartTime string    `json:"start_time"`
	Location  string    `json:"location"`
	Concept   string    `json:"concept"`
	Price     float64   `json:"price"`
	Contacts  []Contact `json:"contacts"`
	Notes     string    `json:"notes"`
}

// UpdateEventRequest is the payload for updating an event
type UpdateEventRequest struct {
	Name      *string    `json:"name"`
	Status    *string    `json:"status"`
	EventDate *time.Time `json:"event_date"`
	StartTime *string    `json:"start_time"`
	Location  *string    `json:"location"`
	Concept   *string    `json:"concept"`
	Price     *float64   `json:"price"`
	Contacts  []Contact  `json:"contacts"`
	Notes     *string    `json:"notes"`
}
