// Package dedup decides whether a recipient should be notified again for
// the same underlying situation, based on the unresolved notification
// history and the template's reminder policy.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

// Skip reasons surfaced in run logs.
const (
	ReasonAlreadyNotified    = "already_notified"
	ReasonTooSoon            = "too_soon"
	ReasonRemindersExhausted = "reminders_exhausted"
)

// Decision is the ledger's verdict for one (recipient, template, entity)
// tuple. ReminderCount is the value to stamp on the new record when
// Proceed is true.
type Decision struct {
	Proceed       bool
	ReminderCount int
	Reason        string
}

type Ledger struct {
	records repository.NotificationRepository
	now     func() time.Time
}

func NewLedger(records repository.NotificationRepository) *Ledger {
	return &Ledger{records: records, now: time.Now}
}

// Check looks up the newest unresolved record for the key and applies the
// template's reminder policy. Resolved records never block; a fresh
// notification starts over at count zero.
func (l *Ledger) Check(ctx context.Context, key repository.RecordKey, tmpl *model.NotificationTemplate) (Decision, error) {
	existing, err := l.records.FindUnresolved(ctx, key)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to query notification ledger: %w", err)
	}
	if existing == nil {
		return Decision{Proceed: true, ReminderCount: 0}, nil
	}

	interval := tmpl.ReminderInterval()
	if interval <= 0 {
		return Decision{Reason: ReasonAlreadyNotified}, nil
	}
	if existing.CreatedAt.After(l.now().Add(-interval)) {
		return Decision{Reason: ReasonTooSoon}, nil
	}
	if existing.ReminderCount >= tmpl.MaxReminders {
		return Decision{Reason: ReasonRemindersExhausted}, nil
	}
	return Decision{Proceed: true, ReminderCount: existing.ReminderCount + 1}, nil
}
