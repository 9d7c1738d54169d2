package diff

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventops/backoffice-api/internal/model"
)

func TestSupplierListDiff(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	old := map[string]interface{}{
		"supplier_ids": []string{a.String(), b.String()},
	}
	new := map[string]interface{}{
		"supplier_ids": []string{b.String(), c.String()},
	}

	events := Compute(model.EntityEventService, old, new)
	require.Len(t, events, 2)

	var added, removed *SubEvent
	for i := range events {
		switch events[i].TriggerType {
		case model.TriggerSupplierAssignmentCreate:
			added = &events[i]
		case model.TriggerSupplierAssignmentDelete:
			removed = &events[i]
		}
	}
	require.NotNil(t, added)
	require.NotNil(t, removed)
	assert.Equal(t, c, *added.SupplierID)
	assert.Equal(t, a, *removed.SupplierID)
}

func TestSupplierStatusDiff(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	old := map[string]interface{}{
		"supplier_ids": []string{a.String(), b.String()},
		"supplier_statuses": map[string]string{
			a.String(): "pending",
			b.String(): "approved",
		},
	}
	new := map[string]interface{}{
		"supplier_ids": []string{a.String(), b.String()},
		"supplier_statuses": map[string]string{
			a.String(): "approved",
			b.String(): "approved",
		},
	}

	events := Compute(model.EntityEventService, old, new)
	require.Len(t, events, 1)
	assert.Equal(t, model.TriggerAssignmentStatusChange, events[0].TriggerType)
	assert.Equal(t, a, *events[0].SupplierID)
	assert.Equal(t, "approved", events[0].NewStatus)
}

func TestStringEncodedSubStructures(t *testing.T) {
	a := uuid.New()
	old := map[string]interface{}{
		"supplier_ids":      `[]`,
		"supplier_statuses": `{}`,
	}
	new := map[string]interface{}{
		"supplier_ids":      `["` + a.String() + `"]`,
		"supplier_statuses": `{"` + a.String() + `":"pending"}`,
	}

	events := Compute(model.EntityEventService, old, new)
	require.Len(t, events, 1)
	assert.Equal(t, model.TriggerSupplierAssignmentCreate, events[0].TriggerType)
	assert.Equal(t, a, *events[0].SupplierID)
}

func TestMalformedJSONYieldsNothing(t *testing.T) {
	old := map[string]interface{}{"supplier_ids": `{not json`}
	new := map[string]interface{}{"supplier_ids": `also not`}
	assert.Empty(t, Compute(model.EntityEventService, old, new))
}

func TestEventCriticalFields(t *testing.T) {
	old := map[string]interface{}{
		"event_date": "2025-06-01", "start_time": "19:00",
		"location": "Haifa", "concept": "garden", "notes": "x",
	}
	new := map[string]interface{}{
		"event_date": "2025-06-01", "start_time": "20:30",
		"location": "Tel Aviv", "concept": "garden", "notes": "y",
	}

	events := Compute(model.EntityEvent, old, new)
	require.Len(t, events, 1)
	assert.Equal(t, model.TriggerEventCriticalUpdate, events[0].TriggerType)
	assert.ElementsMatch(t, []string{"start_time", "location"}, events[0].ChangedFields)
	assert.Nil(t, events[0].SupplierID)
}

func TestEventNonCriticalChange(t *testing.T) {
	old := map[string]interface{}{"event_date": "2025-06-01", "notes": "a"}
	new := map[string]interface{}{"event_date": "2025-06-01", "notes": "b"}
	assert.Empty(t, Compute(model.EntityEvent, old, new))
}

func TestUnknownEntity(t *testing.T) {
	assert.Empty(t, Compute("payment", map[string]interface{}{}, map[string]interface{}{}))
}
