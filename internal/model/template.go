package model

import (
	"time"
)

// TriggerType is the event category that causes a template to be considered.
type TriggerType string

const (
	TriggerScheduledCheck           TriggerType = "scheduled_check"
	TriggerEntityCreate             TriggerType = "entity_create"
	TriggerEntityUpdate             TriggerType = "entity_update"
	TriggerSupplierAssignmentCreate TriggerType = "supplier_assignment_create"
	TriggerSupplierAssignmentDelete TriggerType = "supplier_assignment_delete"
	TriggerAssignmentStatusChange   TriggerType = "assignment_status_change"
	TriggerEventCriticalUpdate      TriggerType = "event_critical_update"
)

// ConditionOperator compares an entity field against a template value.
type ConditionOperator string

const (
	OpEquals     ConditionOperator = "equals"
	OpNotEquals  ConditionOperator = "not_equals"
	OpGreater    ConditionOperator = "greater_than"
	OpLess       ConditionOperator = "less_than"
	OpContains   ConditionOperator = "contains"
	OpIsEmpty    ConditionOperator = "is_empty"
	OpIsNotEmpty ConditionOperator = "is_not_empty"
	OpChanged    ConditionOperator = "changed"
)

// ConditionLogic combines multiple conditions.
type ConditionLogic string

const (
	LogicAnd ConditionLogic = "and"
	LogicOr  ConditionLogic = "or"
)

// Audience is a coarse recipient category resolved to concrete identities
// at dispatch time.
type Audience string

const (
	AudienceSupplier Audience = "supplier"
	AudienceClient   Audience = "client"
	AudienceAdmin    Audience = "admin"
)

// Channel is a delivery channel. AllowedChannels strictly gates whether a
// channel is attempted, regardless of caller intent.
type Channel string

const (
	ChannelPush     Channel = "push"
	ChannelWhatsApp Channel = "whatsapp"
)

// DynamicURLType maps to a deep-link shape rendered into the notification.
type DynamicURLType string

const (
	URLEventDetails   DynamicURLType = "event_details"
	URLSupplierPortal DynamicURLType = "supplier_portal"
	URLQuoteView      DynamicURLType = "quote_view"
	URLPaymentPage    DynamicURLType = "payment_page"
)

// Timing direction for scheduled checks, relative to the event date.
const (
	TimingBefore = "before"
	TimingAfter  = "after"
)

// Timing and reminder interval units.
const (
	UnitDays  = "days"
	UnitHours = "hours"
)

// Condition is one field comparison within a template's trigger condition.
type Condition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// NotificationTemplate is a persisted notification rule. Conditions,
// audiences, channels and link params are stored JSON-encoded and decoded
// at the repository boundary.
type NotificationTemplate struct {
	Base
	Type                  string            `json:"type" db:"type"`
	TriggerType           TriggerType       `json:"trigger_type" db:"trigger_type" binding:"omitempty,trigger"`
	EntityName            string            `json:"entity_name" db:"entity_name"`
	IsActive              bool              `json:"is_active" db:"is_active"`
	ConditionLogic        ConditionLogic    `json:"condition_logic" db:"condition_logic"`
	Conditions            []Condition       `json:"conditions" db:"-"`
	TimingValue           int               `json:"timing_value" db:"timing_value"`
	TimingUnit            string            `json:"timing_unit" db:"timing_unit"`
	TimingDirection       string            `json:"timing_direction" db:"timing_direction"`
	ReminderIntervalValue int               `json:"reminder_interval_value" db:"reminder_interval_value"`
	ReminderIntervalUnit  string            `json:"reminder_interval_unit" db:"reminder_interval_unit"`
	MaxReminders          int               `json:"max_reminders" db:"max_reminders"`
	TargetAudiences       []Audience        `json:"target_audiences" db:"-" binding:"omitempty,dive,audience"`
	AllowedChannels       []Channel         `json:"allowed_channels" db:"-" binding:"omitempty,dive,channel"`
	Title                 string            `json:"title" db:"title"`
	Body                  string            `json:"body" db:"body"`
	WhatsAppBody          string            `json:"whatsapp_body" db:"whatsapp_body"`
	DynamicURLType        DynamicURLType    `json:"dynamic_url_type" db:"dynamic_url_type"`
	LinkBase              string            `json:"link_base" db:"link_base"`
	LinkParams            map[string]string `json:"link_params" db:"-"`
}

// ReminderInterval converts the configured value/unit to a duration.
// Zero means no reminder window is configured.
func (t *NotificationTemplate) ReminderInterval() time.Duration {
	switch t.ReminderIntervalUnit {
	case UnitHours:
		return time.Duration(t.ReminderIntervalValue) * time.Hour
	case UnitDays:
		return time.Duration(t.ReminderIntervalValue) * 24 * time.Hour
	default:
		return 0
	}
}

// TimingOffset converts the scheduled-check timing to a signed duration
// relative to the reference date (negative = before).
func (t *NotificationTemplate) TimingOffset() time.Duration {
	var d time.Duration
	switch t.TimingUnit {
	case UnitHours:
		d = time.Duration(t.TimingValue) * time.Hour
	case UnitDays:
		d = time.Duration(t.TimingValue) * 24 * time.Hour
	}
	if t.TimingDirection == TimingBefore {
		return -d
	}
	return d
}

// AllowsChannel reports whether the template permits the given channel.
func (t *NotificationTemplate) AllowsChannel(c Channel) bool {
	for _, have := range t.AllowedChannels {
		if have == c {
			return true
		}
	}
	return false
}

// TemplateFilter represents template search parameters
type TemplateFilter struct {
	TriggerType TriggerType `json:"trigger_type" form:"trigger_type"`
	EntityName  string      `json:"entity_name" form:"entity_name"`
	ActiveOnly  bool        `json:"active_only" form:"active_only"`
}
