package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/pkg/logger"
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(nil, logger.NewLogger(nil))
}

func TestEvaluateAndOr(t *testing.T) {
	e := newTestEvaluator()
	conds := []model.Condition{
		{Field: "status", Operator: model.OpEquals, Value: "confirmed"},
		{Field: "balance", Operator: model.OpGreater, Value: "0"},
	}

	confirmed := map[string]interface{}{"status": "confirmed", "balance": 150.0}
	pending := map[string]interface{}{"status": "pending", "balance": 150.0}

	assert.True(t, e.Evaluate(context.Background(), Input{
		Conditions: conds, Logic: model.LogicAnd, Snapshot: confirmed,
	}))
	assert.False(t, e.Evaluate(context.Background(), Input{
		Conditions: conds, Logic: model.LogicAnd, Snapshot: pending,
	}))
	assert.True(t, e.Evaluate(context.Background(), Input{
		Conditions: conds, Logic: model.LogicOr, Snapshot: pending,
	}))
}

func TestEvaluateEmptyList(t *testing.T) {
	e := newTestEvaluator()
	assert.True(t, e.Evaluate(context.Background(), Input{
		Logic: model.LogicAnd, Snapshot: map[string]interface{}{},
	}))
}

func TestOperators(t *testing.T) {
	e := newTestEvaluator()
	snap := map[string]interface{}{
		"status":   "confirmed",
		"price":    2500.0,
		"location": "Tel Aviv Port",
		"concept":  "",
		"tags":     []string{"vip", "outdoor"},
	}

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{"equals", model.Condition{Field: "status", Operator: model.OpEquals, Value: "confirmed"}, true},
		{"not equals", model.Condition{Field: "status", Operator: model.OpNotEquals, Value: "lead"}, true},
		{"greater", model.Condition{Field: "price", Operator: model.OpGreater, Value: "1000"}, true},
		{"greater false", model.Condition{Field: "price", Operator: model.OpGreater, Value: "9000"}, false},
		{"less", model.Condition{Field: "price", Operator: model.OpLess, Value: "9000"}, true},
		{"numeric on text fails closed", model.Condition{Field: "location", Operator: model.OpGreater, Value: "1"}, false},
		{"numeric with bad operand fails closed", model.Condition{Field: "price", Operator: model.OpLess, Value: "lots"}, false},
		{"contains", model.Condition{Field: "location", Operator: model.OpContains, Value: "Port"}, true},
		{"is empty", model.Condition{Field: "concept", Operator: model.OpIsEmpty}, true},
		{"is not empty", model.Condition{Field: "location", Operator: model.OpIsNotEmpty}, true},
		{"missing field is empty", model.Condition{Field: "nope", Operator: model.OpIsEmpty}, true},
		{"missing field equals", model.Condition{Field: "nope", Operator: model.OpEquals, Value: "x"}, false},
		{"list any-match equals", model.Condition{Field: "tags", Operator: model.OpEquals, Value: "vip"}, true},
		{"list no match", model.Condition{Field: "tags", Operator: model.OpEquals, Value: "indoor"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(context.Background(), Input{
				Conditions: []model.Condition{tt.cond},
				Logic:      model.LogicAnd,
				Snapshot:   snap,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChangedOperator(t *testing.T) {
	e := newTestEvaluator()
	cond := []model.Condition{{Field: "event_date", Operator: model.OpChanged}}

	// Always true on create.
	assert.True(t, e.Evaluate(context.Background(), Input{
		Conditions: cond, Logic: model.LogicAnd,
		Snapshot: map[string]interface{}{"event_date": "2025-06-01"},
		IsCreate: true,
	}))

	// True on update when the value differs.
	assert.True(t, e.Evaluate(context.Background(), Input{
		Conditions: cond, Logic: model.LogicAnd,
		Snapshot: map[string]interface{}{"event_date": "2025-06-02"},
		Old:      map[string]interface{}{"event_date": "2025-06-01"},
	}))

	// False when unchanged, even across representations.
	assert.False(t, e.Evaluate(context.Background(), Input{
		Conditions: cond, Logic: model.LogicAnd,
		Snapshot: map[string]interface{}{"event_date": "2025-06-01"},
		Old:      map[string]interface{}{"event_date": "2025-06-01"},
	}))

	numeric := []model.Condition{{Field: "price", Operator: model.OpChanged}}
	assert.False(t, e.Evaluate(context.Background(), Input{
		Conditions: numeric, Logic: model.LogicAnd,
		Snapshot: map[string]interface{}{"price": 100.0},
		Old:      map[string]interface{}{"price": "100"},
	}))
}
