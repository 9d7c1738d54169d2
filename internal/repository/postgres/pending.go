package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

type pendingRepository struct {
	BaseRepository
}

func NewPendingRepository(base BaseRepository) repository.PendingRepository {
	return &pendingRepository{base}
}

const pendingColumns = `
	id, notification_id, recipient_key, user_id, phone, push_subscription_id,
	title, body, whatsapp_text, link, send_push, send_whatsapp,
	scheduled_for, is_sent, sent_at, created_at
`

func (r *pendingRepository) Create(ctx context.Context, p *model.PendingDelivery) error {
	query := `
		INSERT INTO pending_deliveries (
			id, notification_id, recipient_key, user_id, phone, push_subscription_id,
			title, body, whatsapp_text, link, send_push, send_whatsapp,
			scheduled_for, is_sent, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.NotificationID, p.RecipientKey, p.UserID, p.Phone,
		p.PushSubscriptionID, p.Title, p.Body, p.WhatsAppText, p.Link,
		p.SendPush, p.SendWhatsApp, p.ScheduledFor, p.IsSent, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending delivery: %w", err)
	}
	return nil
}

func (r *pendingRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*model.PendingDelivery, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_deliveries
		WHERE is_sent = FALSE AND scheduled_for <= $1
		ORDER BY scheduled_for ASC
		LIMIT $2`
	var deliveries []*model.PendingDelivery
	if err := r.db.SelectContext(ctx, &deliveries, query, now, limit); err != nil {
		return nil, fmt.Errorf("failed to list due deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *pendingRepository) List(ctx context.Context, includeSent bool) ([]*model.PendingDelivery, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_deliveries`
	if !includeSent {
		query += ` WHERE is_sent = FALSE`
	}
	query += ` ORDER BY scheduled_for ASC`
	var deliveries []*model.PendingDelivery
	if err := r.db.SelectContext(ctx, &deliveries, query); err != nil {
		return nil, fmt.Errorf("failed to list pending deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *pendingRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE pending_deliveries SET is_sent = TRUE, sent_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
	}
	return requireRow(result, "pending delivery")
}

func (r *pendingRepository) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE pending_deliveries SET scheduled_for = $1 WHERE id = $2 AND is_sent = FALSE`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to reschedule delivery: %w", err)
	}
	return requireRow(result, "pending delivery")
}

// DeleteSentBefore removes sent deliveries older than the cutoff. Run from
// the worker's garbage collection loop.
func (r *pendingRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM pending_deliveries WHERE is_sent = TRUE AND sent_at < $1`
	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sent deliveries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
