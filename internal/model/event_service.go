package model

import (
	"github.com/google/uuid"
)

// Assignment status constants (per supplier, per sub-service)
const (
	AssignmentStatusPending   = "pending"
	AssignmentStatusApproved  = "approved"
	AssignmentStatusDeclined  = "declined"
	AssignmentStatusCancelled = "cancelled"
)

// EventService is a sub-service of an event (catering, photography, ...)
// with the suppliers assigned to it. SupplierIDs and SupplierStatuses are
// stored as JSON-encoded strings; they are decoded at the repository
// boundary and never passed through internal logic encoded.
type EventService struct {
	Base
	EventID          uuid.UUID         `json:"event_id" db:"event_id"`
	ServiceType      string            `json:"service_type" db:"service_type"`
	SupplierIDs      []uuid.UUID       `json:"supplier_ids" db:"-"`
	SupplierStatuses map[string]string `json:"supplier_statuses" db:"-"`
	MinSuppliers     int               `json:"min_suppliers" db:"min_suppliers"`
	Price            float64           `json:"price" db:"price"`
	Notes            string            `json:"notes" db:"notes"`
}

// EventServiceFilter represents event-service search parameters
type EventServiceFilter struct {
	EventID     uuid.UUID `json:"event_id" form:"event_id"`
	ServiceType string    `json:"service_type" form:"service_type"`
}

func (s *EventService) Snapshot() map[string]interface{} {
	ids := make([]string, 0, len(s.SupplierIDs))
	for _, id := range s.SupplierIDs {
		ids = append(ids, id.String())
	}
	statuses := make(map[string]string, len(s.SupplierStatuses))
	for k, v := range s.SupplierStatuses {
		statuses[k] = v
	}
	return map[string]interface{}{
		"id":                s.ID.String(),
		"event_id":          s.EventID.String(),
		"service_type":      s.ServiceType,
		"supplier_ids":      ids,
		"supplier_statuses": statuses,
		"min_suppliers":     s.MinSuppliers,
		"price":             s.Price,
	}
}

// AssignedCount returns the number of suppliers not in a declined or
// cancelled state.
func (s *EventService) AssignedCount() int {
	n := 0
	for _, id := range s.SupplierIDs {
		switch s.SupplierStatuses[id.String()] {
		case AssignmentStatusDeclined, AssignmentStatusCancelled:
		default:
			n++
		}
	}
	return n
}

// CreateEventServiceRequest is the payload for creating an event sub-service
type CreateEventServiceRequest struct {
	EventID          uuid.UUID         `json:"event_id" binding:"required"`
	ServiceType      string            `json:"service_type" binding:"required"`
	SupplierIDs      []uuid.UUID       `json:"supplier_ids"`
	SupplierStatuses map[string]string `json:"supplier_statuses"`
	MinSuppliers     int               `json:"min_suppliers"`
	Price            float64           `json:"price"`
	Notes            string            `json:"notes"`
}

// UpdateEventServiceRequest is the payload for updating an event sub-service
type UpdateEventServiceRequest struct {
	SupplierIDs      []uuid.UUID       `json:"supplier_ids"`
	SupplierStatuses map[string]string `json:"supplier_statuses"`
	MinSuppliers     *int              `json:"min_suppliers"`
	Price            *float64          `json:"price"`
	Notes            *string           `json:"notes"`
}
