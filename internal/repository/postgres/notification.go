package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	apperrors "github.com/eventops/backoffice-api/pkg/errors"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

const notificationColumns = `
	id, recipient_key, user_id, title, message, link, template_type,
	related_event_id, related_event_service_id, related_supplier_id,
	push_sent, whatsapp_sent, reminder_count, is_read, is_resolved,
	scheduled_for, created_at
`

func (r *notificationRepository) Create(ctx context.Context, rec *model.NotificationRecord) error {
	query := `
		INSERT INTO notifications (
			id, recipient_key, user_id, title, message, link, template_type,
			related_event_id, related_event_service_id, related_supplier_id,
			push_sent, whatsapp_sent, reminder_count, is_read, is_resolved,
			scheduled_for, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17
		)
	`
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.RecipientKey, rec.UserID, rec.Title, rec.Message,
		rec.Link, rec.TemplateType,
		rec.RelatedEventID, rec.RelatedEventServiceID, rec.RelatedSupplierID,
		rec.PushSent, rec.WhatsAppSent, rec.ReminderCount, rec.IsRead,
		rec.IsResolved, rec.ScheduledFor, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	var rec model.NotificationRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("notification", err)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &rec, nil
}

func (r *notificationRepository) List(ctx context.Context, filter *model.NotificationFilter) ([]*model.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE 1=1`
	args := []interface{}{}
	n := 1
	limit := 100
	if filter != nil {
		if filter.RecipientKey != "" {
			query += fmt.Sprintf(" AND recipient_key = $%d", n)
			args = append(args, filter.RecipientKey)
			n++
		}
		if filter.TemplateType != "" {
			query += fmt.Sprintf(" AND template_type = $%d", n)
			args = append(args, filter.TemplateType)
			n++
		}
		if filter.EventID != nil {
			query += fmt.Sprintf(" AND related_event_id = $%d", n)
			args = append(args, *filter.EventID)
			n++
		}
		if filter.UnreadOnly {
			query += " AND is_read = FALSE"
		}
		if filter.Limit > 0 {
			limit = filter.Limit
		}
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", n)
	args = append(args, limit)

	var records []*model.NotificationRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return records, nil
}

// FindUnresolved returns the most recent open record matching the key, or
// nil when none exists. The dedup ledger builds its reminder decision on
// this single row.
func (r *notificationRepository) FindUnresolved(ctx context.Context, key repository.RecordKey) (*model.NotificationRecord, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE recipient_key = $1 AND template_type = $2 AND is_resolved = FALSE`
	args := []interface{}{key.RecipientKey, key.TemplateType}
	n := 3
	appendNullable := func(column string, id *uuid.UUID) {
		if id != nil {
			query += fmt.Sprintf(" AND %s = $%d", column, n)
			args = append(args, *id)
			n++
		} else {
			query += fmt.Sprintf(" AND %s IS NULL", column)
		}
	}
	appendNullable("related_event_id", key.EventID)
	appendNullable("related_event_service_id", key.EventServiceID)
	appendNullable("related_supplier_id", key.SupplierID)
	query += " ORDER BY created_at DESC LIMIT 1"

	var rec model.NotificationRecord
	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find unresolved notification: %w", err)
	}
	return &rec, nil
}

func (r *notificationRepository) UpdateChannelStatus(ctx context.Context, id uuid.UUID, pushSent, whatsappSent bool) error {
	query := `UPDATE notifications SET push_sent = $1, whatsapp_sent = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, pushSent, whatsappSent, id)
	if err != nil {
		return fmt.Errorf("failed to update notification channels: %w", err)
	}
	return requireRow(result, "notification")
}

func (r *notificationRepository) SetScheduledFor(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE notifications SET scheduled_for = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to set notification schedule: %w", err)
	}
	return requireRow(result, "notification")
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return requireRow(result, "notification")
}

func (r *notificationRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET is_resolved = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification resolved: %w", err)
	}
	return requireRow(result, "notification")
}
