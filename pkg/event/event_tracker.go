package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/pkg/logger"
)

const contextKey = "changeCtx"

// TrackerMiddleware captures entity changes made by write handlers and
// persists them to the outbox after the response is written. Tracking
// failures are logged, never surfaced to the client.
type TrackerMiddleware struct {
	service Service
	logger  *logger.Logger
}

func NewTrackerMiddleware(service Service, logger *logger.Logger) *TrackerMiddleware {
	return &TrackerMiddleware{service: service, logger: logger}
}

// FromGin returns the change context a tracked handler should populate.
func FromGin(c *gin.Context) *EventContext {
	if v, ok := c.Get(contextKey); ok {
		if ec, ok := v.(*EventContext); ok {
			return ec
		}
	}
	return &EventContext{}
}

// Track wraps a write route. The handler fills NewData (and OldData on
// updates) with entity snapshots; an empty NewData means nothing changed
// and nothing is recorded.
func (m *TrackerMiddleware) Track(entity, operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ec := &EventContext{Entity: entity, Operation: operation}
		c.Set(contextKey, ec)

		c.Next()

		if ec.NewData == nil || c.Writer.Status() >= 400 {
			return
		}
		payload, err := json.Marshal(ChangeEnvelope{
			Entity:    ec.Entity,
			Operation: ec.Operation,
			Data:      ec.NewData,
			OldData:   ec.OldData,
		})
		if err != nil {
			m.logger.Error(err, "failed to encode change envelope", "entity", entity)
			return
		}
		now := time.Now()
		outboxEvent := &model.OutboxEvent{
			ID:        uuid.New(),
			EventType: fmt.Sprintf("%s_%s", ec.Entity, ec.Operation),
			Payload:   payload,
			Status:    string(model.OutboxStatusPending),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := m.service.CreateEvent(c.Request.Context(), outboxEvent); err != nil {
			m.logger.Error(err, "failed to record change event", "entity", entity, "operation", operation)
		}
	}
}
