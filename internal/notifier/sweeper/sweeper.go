// Package sweeper releases quiet-window-deferred deliveries once their
// window has passed. The current window is always re-checked before
// firing: a recipient's quiet hours may have changed since the item was
// queued.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/dispatch"
	"github.com/eventops/backoffice-api/internal/notifier/phone"
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
	"github.com/eventops/backoffice-api/pkg/metrics"
)

const (
	defaultBatchSize = 100
	defaultRetention = 7 * 24 * time.Hour
)

// Summary aggregates one sweep.
type Summary struct {
	Due         int `json:"due"`
	Released    int `json:"released"`
	Rescheduled int `json:"rescheduled"`
	Errors      int `json:"errors"`
}

type Sweeper struct {
	pending   repository.PendingRepository
	records   repository.NotificationRepository
	users     repository.UserRepository
	quiet     *quiet.Calculator
	push      dispatch.PushSender
	whatsapp  dispatch.WhatsAppSender
	logger    *logger.Logger
	batchSize int
	retention time.Duration
	now       func() time.Time
}

func NewSweeper(
	pending repository.PendingRepository,
	records repository.NotificationRepository,
	users repository.UserRepository,
	quietCalc *quiet.Calculator,
	push dispatch.PushSender,
	whatsapp dispatch.WhatsAppSender,
	logger *logger.Logger,
) *Sweeper {
	return &Sweeper{
		pending:   pending,
		records:   records,
		users:     users,
		quiet:     quietCalc,
		push:      push,
		whatsapp:  whatsapp,
		logger:    logger,
		batchSize: defaultBatchSize,
		retention: defaultRetention,
		now:       time.Now,
	}
}

// Sweep fires due pending deliveries. Items still inside a quiet window
// are pushed forward to the window's end; per-item failures are logged and
// the sweep continues.
func (s *Sweeper) Sweep(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	due, err := s.pending.ListDue(ctx, s.now(), s.batchSize)
	if err != nil {
		return sum, fmt.Errorf("failed to list due deliveries: %w", err)
	}
	sum.Due = len(due)

	for _, p := range due {
		if err := s.sweepOne(ctx, p, sum); err != nil {
			sum.Errors++
			s.logger.Error(err, "failed to sweep pending delivery", "pending_id", p.ID.String())
		}
	}
	return sum, nil
}

func (s *Sweeper) sweepOne(ctx context.Context, p *model.PendingDelivery, sum *Summary) error {
	check := s.currentWindow(ctx, p)
	if check.Suppressed {
		if err := s.pending.Reschedule(ctx, p.ID, check.ResumeAt); err != nil {
			return fmt.Errorf("failed to reschedule: %w", err)
		}
		if err := s.records.SetScheduledFor(ctx, p.NotificationID, check.ResumeAt); err != nil {
			return fmt.Errorf("failed to restamp record: %w", err)
		}
		sum.Rescheduled++
		return nil
	}

	var pushSent, whatsappSent bool
	if p.SendPush && p.PushSubscriptionID != nil && *p.PushSubscriptionID != "" {
		if err := s.push.Send(ctx, *p.PushSubscriptionID, p.Title, p.Body, p.Link); err != nil {
			metrics.NotificationSendFailures.WithLabelValues("push").Inc()
			s.logger.Error(err, "deferred push failed", "pending_id", p.ID.String())
		} else {
			pushSent = true
			metrics.NotificationsSent.WithLabelValues("push").Inc()
		}
	}
	if p.SendWhatsApp && phone.Normalize(p.Phone) != "" {
		if err := s.whatsapp.Send(ctx, p.Phone, p.WhatsAppText); err != nil {
			metrics.NotificationSendFailures.WithLabelValues("whatsapp").Inc()
			s.logger.Error(err, "deferred whatsapp failed", "pending_id", p.ID.String())
		} else {
			whatsappSent = true
			metrics.NotificationsSent.WithLabelValues("whatsapp").Inc()
		}
	}

	if err := s.records.UpdateChannelStatus(ctx, p.NotificationID, pushSent, whatsappSent); err != nil {
		return fmt.Errorf("failed to record channel status: %w", err)
	}
	if err := s.pending.MarkSent(ctx, p.ID, s.now()); err != nil {
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	metrics.PendingSweepReleased.Inc()
	sum.Released++
	return nil
}

// currentWindow re-evaluates quiet hours with the recipient's present
// settings. An unreadable user account falls back to the defaults rather
// than blocking the delivery.
func (s *Sweeper) currentWindow(ctx context.Context, p *model.PendingDelivery) quiet.Check {
	var start, end *int
	if p.UserID != nil {
		if user, err := s.users.Get(ctx, *p.UserID); err == nil && user != nil {
			start, end = user.QuietStartHour, user.QuietEndHour
		}
	}
	return s.quiet.Evaluate(s.now(), start, end)
}

// CollectGarbage drops sent deliveries older than the retention period.
func (s *Sweeper) CollectGarbage(ctx context.Context) (int64, error) {
	n, err := s.pending.DeleteSentBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old deliveries: %w", err)
	}
	if n > 0 {
		s.logger.Info("pending deliveries garbage collected", "deleted", n)
	}
	return n, nil
}
