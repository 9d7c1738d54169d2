// Package event captures entity changes on the write path and hands them
// to the outbox, from which they reach the notification pipeline.
package event

import (
	"context"

	"github.com/eventops/backoffice-api/internal/model"
)

// Change operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// EventContext is populated by a handler during a tracked request. NewData
// and OldData are entity snapshots (flat field maps).
type EventContext struct {
	Entity    string
	Operation string
	OldData   map[string]interface{}
	NewData   map[string]interface{}
}

// ChangeEnvelope is the wire form of one entity change, stored as the
// outbox payload and published to the change channel.
type ChangeEnvelope struct {
	Entity    string                 `json:"entity"`
	Operation string                 `json:"operation"`
	Data      map[string]interface{} `json:"data"`
	OldData   map[string]interface{} `json:"old_data,omitempty"`
}

// Service persists captured changes for asynchronous delivery.
type Service interface {
	CreateEvent(ctx context.Context, event *model.OutboxEvent) error
}
