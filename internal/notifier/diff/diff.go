// Package diff compares old and new snapshots of a changed entity and
// yields narrowed sub-events. A single update can fan out into zero, one,
// or several sub-events, each selecting its own templates and recipients.
package diff

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
)

// Critical event fields: changing any of them broadcasts to the template's
// full audience.
var criticalEventFields = []string{"event_date", "start_time", "location", "concept"}

// SubEvent is one detected change with its recipient-narrowing semantics.
type SubEvent struct {
	TriggerType   model.TriggerType
	EntityName    string
	SupplierID    *uuid.UUID // set for assignment sub-events; nil = no narrowing
	NewStatus     string     // set for status-change sub-events
	ChangedFields []string   // set for critical-update sub-events
}

// Compute diffs two snapshots of the named entity. Snapshots with
// malformed sub-structures yield no sub-events rather than an error.
func Compute(entityName string, old, new map[string]interface{}) []SubEvent {
	switch entityName {
	case model.EntityEventService:
		return diffEventService(old, new)
	case model.EntityEvent:
		return diffEvent(old, new)
	default:
		return nil
	}
}

func diffEventService(old, new map[string]interface{}) []SubEvent {
	oldIDs := supplierIDSet(old)
	newIDs := supplierIDSet(new)

	var events []SubEvent
	for id := range newIDs {
		if _, ok := oldIDs[id]; !ok {
			sid := id
			events = append(events, SubEvent{
				TriggerType: model.TriggerSupplierAssignmentCreate,
				EntityName:  model.EntityEventService,
				SupplierID:  &sid,
			})
		}
	}
	for id := range oldIDs {
		if _, ok := newIDs[id]; !ok {
			sid := id
			events = append(events, SubEvent{
				TriggerType: model.TriggerSupplierAssignmentDelete,
				EntityName:  model.EntityEventService,
				SupplierID:  &sid,
			})
		}
	}

	oldStatuses := statusMap(old)
	newStatuses := statusMap(new)
	for key, newStatus := range newStatuses {
		oldStatus, ok := oldStatuses[key]
		if !ok || oldStatus == newStatus {
			continue
		}
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		sid := id
		events = append(events, SubEvent{
			TriggerType: model.TriggerAssignmentStatusChange,
			EntityName:  model.EntityEventService,
			SupplierID:  &sid,
			NewStatus:   newStatus,
		})
	}
	return events
}

func diffEvent(old, new map[string]interface{}) []SubEvent {
	var changed []string
	for _, field := range criticalEventFields {
		if stringify(old[field]) != stringify(new[field]) {
			changed = append(changed, field)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	return []SubEvent{{
		TriggerType:   model.TriggerEventCriticalUpdate,
		EntityName:    model.EntityEvent,
		ChangedFields: changed,
	}}
}

// supplierIDSet extracts supplier ids from a snapshot, tolerating typed
// slices, decoded JSON arrays, and string-encoded JSON from the store.
func supplierIDSet(snapshot map[string]interface{}) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	raw, ok := snapshot["supplier_ids"]
	if !ok {
		return out
	}
	for _, s := range toStringSlice(raw) {
		if id, err := uuid.Parse(s); err == nil {
			out[id] = struct{}{}
		}
	}
	return out
}

func statusMap(snapshot map[string]interface{}) map[string]string {
	out := make(map[string]string)
	raw, ok := snapshot["supplier_statuses"]
	if !ok {
		return out
	}
	switch v := raw.(type) {
	case map[string]string:
		for k, val := range v {
			out[k] = val
		}
	case map[string]interface{}:
		for k, val := range v {
			out[k] = stringify(val)
		}
	case string:
		var decoded map[string]string
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			return decoded
		}
	}
	return out
}

func toStringSlice(raw interface{}) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []uuid.UUID:
		out := make([]string, 0, len(v))
		for _, id := range v {
			out = append(out, id.String())
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		return out
	case string:
		var decoded []string
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			return decoded
		}
	}
	return nil
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
