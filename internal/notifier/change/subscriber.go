package change

import (
	"context"
	"encoding/json"

	"github.com/eventops/backoffice-api/pkg/event"
	"github.com/eventops/backoffice-api/pkg/logger"
	"github.com/eventops/backoffice-api/pkg/messaging"
)

// Channel is the broker channel the outbox processor publishes entity
// changes to.
const Channel = "entity_events"

// Subscriber consumes entity changes from the broker and feeds them to
// the change handler. Malformed messages are logged and dropped.
type Subscriber struct {
	broker  messaging.Broker
	handler *Handler
	logger  *logger.Logger
}

func NewSubscriber(broker messaging.Broker, handler *Handler, logger *logger.Logger) *Subscriber {
	return &Subscriber{broker: broker, handler: handler, logger: logger}
}

// Start subscribes and processes until the context is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	msgs, err := s.broker.Subscribe(ctx, Channel)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-msgs:
				if !ok {
					return
				}
				s.handleMessage(ctx, raw)
			}
		}
	}()
	return nil
}

func (s *Subscriber) handleMessage(ctx context.Context, raw []byte) {
	var env event.ChangeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Error(err, "dropping malformed change message")
		return
	}
	sum, err := s.handler.HandleChange(ctx, env.Entity, env.Operation, env.Data, env.OldData)
	if err != nil {
		s.logger.Error(err, "change handling failed", "entity", env.Entity, "operation", env.Operation)
		return
	}
	if sum.Templates > 0 {
		s.logger.Info("change processed",
			"entity", env.Entity,
			"operation", env.Operation,
			"templates", sum.Templates,
			"sent", sum.Sent,
			"scheduled", sum.Scheduled,
			"skipped", sum.Skipped,
			"errors", sum.Errors)
	}
}
