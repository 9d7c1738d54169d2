// Package dispatch sends a rendered notification over the allowed channels,
// or parks it as a pending delivery when a quiet window is active.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/notifier/audience"
	"github.com/eventops/backoffice-api/internal/notifier/phone"
	"github.com/eventops/backoffice-api/internal/notifier/quiet"
	"github.com/eventops/backoffice-api/internal/repository"
	"github.com/eventops/backoffice-api/pkg/logger"
	"github.com/eventops/backoffice-api/pkg/metrics"
)

// PushSender delivers a web-push message to a registered subscription.
type PushSender interface {
	Send(ctx context.Context, subscriptionID, title, body, link string) error
}

// WhatsAppSender delivers a text message to a phone number.
type WhatsAppSender interface {
	Send(ctx context.Context, phoneNumber, text string) error
}

// Content is the fully rendered notification payload.
type Content struct {
	Title        string
	Body         string
	WhatsAppText string
	Link         string
}

// Options tune quiet-window handling for one delivery. BypassNightly skips
// the recipient's nightly window; the Sabbath window is never bypassed.
type Options struct {
	BypassNightly bool
}

// Outcome reports what happened to one delivery.
type Outcome struct {
	Scheduled    bool
	ResumeAt     time.Time
	QuietReason  quiet.Reason
	PushSent     bool
	WhatsAppSent bool
}

type Dispatcher struct {
	push     PushSender
	whatsapp WhatsAppSender
	quiet    *quiet.Calculator
	pending  repository.PendingRepository
	records  repository.NotificationRepository
	logger   *logger.Logger
	now      func() time.Time
}

func NewDispatcher(
	push PushSender,
	whatsapp WhatsAppSender,
	quietCalc *quiet.Calculator,
	pending repository.PendingRepository,
	records repository.NotificationRepository,
	logger *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		push:     push,
		whatsapp: whatsapp,
		quiet:    quietCalc,
		pending:  pending,
		records:  records,
		logger:   logger,
		now:      time.Now,
	}
}

// Deliver sends the content to one recipient over the channels the template
// allows. An active quiet window converts the send into a pending delivery
// scheduled at the window's end. Channel attempts are independent: one
// channel failing never blocks the other.
func (d *Dispatcher) Deliver(
	ctx context.Context,
	rec *model.NotificationRecord,
	rcpt audience.Recipient,
	tmpl *model.NotificationTemplate,
	content Content,
	opts Options,
) (Outcome, error) {
	check := d.quietCheck(rcpt, opts)
	if check.Suppressed {
		return d.schedule(ctx, rec, rcpt, tmpl, content, check)
	}
	return d.send(ctx, rec, rcpt, tmpl, content)
}

func (d *Dispatcher) quietCheck(rcpt audience.Recipient, opts Options) quiet.Check {
	if opts.BypassNightly {
		return d.quiet.Sabbath(d.now())
	}
	start, end := rcpt.QuietHours()
	return d.quiet.Evaluate(d.now(), start, end)
}

func (d *Dispatcher) schedule(
	ctx context.Context,
	rec *model.NotificationRecord,
	rcpt audience.Recipient,
	tmpl *model.NotificationTemplate,
	content Content,
	check quiet.Check,
) (Outcome, error) {
	p := &model.PendingDelivery{
		NotificationID: rec.ID,
		RecipientKey:   rcpt.Key(),
		UserID:         rcpt.UserID(),
		Phone:          rcpt.Phone(),
		Title:          content.Title,
		Body:           content.Body,
		WhatsAppText:   content.WhatsAppText,
		Link:           content.Link,
		SendPush:       tmpl.AllowsChannel(model.ChannelPush),
		SendWhatsApp:   tmpl.AllowsChannel(model.ChannelWhatsApp),
		ScheduledFor:   check.ResumeAt,
	}
	if sub, ok := rcpt.PushSubscription(); ok {
		p.PushSubscriptionID = &sub
	}
	if err := d.pending.Create(ctx, p); err != nil {
		return Outcome{}, fmt.Errorf("failed to park pending delivery: %w", err)
	}
	if err := d.records.SetScheduledFor(ctx, rec.ID, check.ResumeAt); err != nil {
		return Outcome{}, fmt.Errorf("failed to stamp scheduled time: %w", err)
	}
	metrics.NotificationsScheduled.WithLabelValues(string(check.Reason)).Inc()
	d.logger.Info("delivery deferred by quiet window",
		"notification_id", rec.ID.String(),
		"reason", string(check.Reason),
		"resume_at", check.ResumeAt.Format(time.RFC3339))
	return Outcome{Scheduled: true, ResumeAt: check.ResumeAt, QuietReason: check.Reason}, nil
}

func (d *Dispatcher) send(
	ctx context.Context,
	rec *model.NotificationRecord,
	rcpt audience.Recipient,
	tmpl *model.NotificationTemplate,
	content Content,
) (Outcome, error) {
	var out Outcome

	if tmpl.AllowsChannel(model.ChannelPush) {
		if sub, ok := rcpt.PushSubscription(); ok {
			if err := d.push.Send(ctx, sub, content.Title, content.Body, content.Link); err != nil {
				metrics.NotificationSendFailures.WithLabelValues("push").Inc()
				d.logger.Error(err, "push delivery failed", "notification_id", rec.ID.String())
			} else {
				out.PushSent = true
				metrics.NotificationsSent.WithLabelValues("push").Inc()
			}
		}
	}

	if tmpl.AllowsChannel(model.ChannelWhatsApp) {
		if normalized := phone.Normalize(rcpt.Phone()); normalized != "" {
			if err := d.whatsapp.Send(ctx, normalized, content.WhatsAppText); err != nil {
				metrics.NotificationSendFailures.WithLabelValues("whatsapp").Inc()
				d.logger.Error(err, "whatsapp delivery failed", "notification_id", rec.ID.String())
			} else {
				out.WhatsAppSent = true
				metrics.NotificationsSent.WithLabelValues("whatsapp").Inc()
			}
		}
	}

	if err := d.records.UpdateChannelStatus(ctx, rec.ID, out.PushSent, out.WhatsAppSent); err != nil {
		return out, fmt.Errorf("failed to record channel status: %w", err)
	}
	return out, nil
}
