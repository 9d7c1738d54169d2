package model

// Entity names used by templates (entity_name) and the change handler.
const (
	EntityEvent        = "event"
	EntityEventService = "event_service"
	EntitySupplier     = "supplier"
	EntityPayment      = "payment"
	EntityQuote        = "quote"
)
