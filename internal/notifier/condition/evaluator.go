// Package condition evaluates template trigger conditions against entity
// snapshots. Malformed values never abort an evaluation: the offending
// condition is treated as "no match".
package condition

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// FieldResolver supplies computed fields that need auxiliary lookups
// (outstanding balance, missing suppliers, ...).
type FieldResolver interface {
	Resolve(ctx context.Context, field string, snapshot map[string]interface{}) (interface{}, bool, error)
}

// Input is one evaluation request.
type Input struct {
	Conditions []model.Condition
	Logic      model.ConditionLogic
	Snapshot   map[string]interface{}
	Old        map[string]interface{} // nil on create
	IsCreate   bool
}

// Evaluator applies a condition list to a snapshot.
type Evaluator struct {
	resolver FieldResolver
	logger   *logger.Logger
}

func NewEvaluator(resolver FieldResolver, logger *logger.Logger) *Evaluator {
	return &Evaluator{resolver: resolver, logger: logger}
}

// Evaluate returns the combined result. An empty condition list is
// vacuously true. AND short-circuits on the first false, OR on the first
// true.
func (e *Evaluator) Evaluate(ctx context.Context, in Input) bool {
	if len(in.Conditions) == 0 {
		return true
	}
	or := in.Logic == model.LogicOr
	for _, cond := range in.Conditions {
		ok := e.evaluateOne(ctx, cond, in)
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	return !or
}

func (e *Evaluator) evaluateOne(ctx context.Context, cond model.Condition, in Input) bool {
	if cond.Operator == model.OpChanged {
		if in.IsCreate {
			return true
		}
		newVal, _ := e.lookup(ctx, cond.Field, in.Snapshot)
		oldVal, _ := e.lookup(ctx, cond.Field, in.Old)
		return stringify(newVal) != stringify(oldVal)
	}

	val, found := e.lookup(ctx, cond.Field, in.Snapshot)
	if !found {
		// Unknown field only satisfies emptiness checks.
		return cond.Operator == model.OpIsEmpty
	}
	return compare(val, cond.Operator, cond.Value)
}

func (e *Evaluator) lookup(ctx context.Context, field string, snapshot map[string]interface{}) (interface{}, bool) {
	if snapshot == nil {
		return nil, false
	}
	if v, ok := snapshot[field]; ok {
		return v, true
	}
	if e.resolver == nil {
		return nil, false
	}
	v, ok, err := e.resolver.Resolve(ctx, field, snapshot)
	if err != nil {
		e.logger.Error(err, "failed to resolve computed field", "field", field)
		return nil, false
	}
	return v, ok
}

func compare(val interface{}, op model.ConditionOperator, want string) bool {
	// A list value matches when any element does.
	if items, ok := asStringSlice(val); ok {
		switch op {
		case model.OpIsEmpty:
			return len(items) == 0
		case model.OpIsNotEmpty:
			return len(items) > 0
		default:
			for _, item := range items {
				if compare(item, op, want) {
					return true
				}
			}
			return false
		}
	}

	s := stringify(val)
	switch op {
	case model.OpEquals:
		return s == want
	case model.OpNotEquals:
		return s != want
	case model.OpContains:
		return strings.Contains(s, want)
	case model.OpIsEmpty:
		return s == ""
	case model.OpIsNotEmpty:
		return s != ""
	case model.OpGreater, model.OpLess:
		left, err1 := toFloat(val)
		right, err2 := strconv.ParseFloat(want, 64)
		if err1 != nil || err2 != nil {
			return false
		}
		if op == model.OpGreater {
			return left > right
		}
		return left < right
	default:
		return false
	}
}

func asStringSlice(val interface{}) ([]string, bool) {
	switch v := val.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringify(item))
		}
		return out, true
	case map[string]string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, item)
		}
		return out, true
	default:
		return nil, false
	}
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return strconv.ParseFloat(stringify(val), 64)
	}
}
