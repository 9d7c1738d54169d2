package model

import (
	"time"

	"github.com/google/uuid"
)

// Payment side constants
const (
	PaymentSideClient   = "client"
	PaymentSideSupplier = "supplier"
)

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
)

// Payment is a single payment installment, either owed by the client
// or owed to a supplier.
type Payment struct {
	Base
	EventID    uuid.UUID  `json:"event_id" db:"event_id"`
	SupplierID *uuid.UUID `json:"supplier_id,omitempty" db:"supplier_id"`
	Side       string     `json:"side" db:"side"`
	Amount     float64    `json:"amount" db:"amount"`
	Status     string     `json:"status" db:"status"`
	DueDate    *time.Time `json:"due_date,omitempty" db:"due_date"`
	PaidAt     *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	Notes      string     `json:"notes" db:"notes"`
}

// PaymentFilter represents payment search parameters
type PaymentFilter struct {
	BaseFilter
	EventID uuid.UUID `json:"event_id" form:"event_id"`
	Side    string    `json:"side" form:"side"`
}

// CreatePaymentRequest is the payload for recording a payment
type CreatePaymentRequest struct {
	EventID    uuid.UUID  `json:"event_id" binding:"required"`
	SupplierID *uuid.UUID `json:"supplier_id"`
	Side       string     `json:"side" binding:"required,oneof=client supplier"`
	Amount     float64    `json:"amount" binding:"required,gt=0"`
	DueDate    *time.Time `json:"due_date"`
	Notes      string     `json:"notes"`
}

// UpdatePaymentRequest is the payload for updating a payment
type UpdatePaymentRequest struct {
	Amount  *float64   `json:"amount"`
	Status  *string    `json:"status"`
	DueDate *time.Time `json:"due_date"`
	PaidAt  *time.Time `json:"paid_at"`
	Notes   *string    `json:"notes"`
}
