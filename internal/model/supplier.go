package model

// Supplier status constants
const (
	SupplierStatusActive   = "active"
	SupplierStatusInactive = "inactive"
)

// Supplier represents a vendor the agency books for events
// (photographer, DJ, caterer, ...).
type Supplier struct {
	Base
	Name        string `json:"name" db:"name"`
	Phone       string `json:"phone" db:"phone"`
	Email       string `json:"email" db:"email"`
	ServiceType string `json:"service_type" db:"service_type"`
	Status      string `json:"status" db:"status"`
	Notes       string `json:"notes" db:"notes"`
}

// SupplierFilter represents supplier search parameters
type SupplierFilter struct {
	BaseFilter
	ServiceType string `json:"service_type" form:"service_type"`
}

func (s *Supplier) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"id":           s.ID.String(),
		"name":         s.Name,
		"phone":        s.Phone,
		"email":        s.Email,
		"service_type": s.ServiceType,
		"status":       s.Status,
	}
}

// CreateSupplierRequest is the payload for creating a supplier
type CreateSupplierRequest struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	Email       string `json:"email"`
	ServiceType string `json:"service_type" binding:"required"`
	Notes       string `json:"notes"`
}

// UpdateSupplierRequest is the payload for updating a supplier
type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	ServiceType *string `json:"service_type"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}
