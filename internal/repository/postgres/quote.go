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

type quoteRepository struct {
	BaseRepository
}

func NewQuoteRepository(base BaseRepository) repository.QuoteRepository {
	return &quoteRepository{base}
}

func (r *quoteRepository) Create(ctx context.Context, quote *model.Quote) error {
	query := `
		INSERT INTO quotes (
			id, event_id, status, total, sent_at, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if quote.ID == uuid.Nil {
		quote.ID = uuid.New()
	}
	if quote.Status == "" {
		quote.Status = model.QuoteStatusDraft
	}
	now := time.Now()
	quote.CreatedAt = now
	quote.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		quote.ID, quote.EventID, quote.Status, quote.Total,
		quote.SentAt, quote.Notes, quote.CreatedAt, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

func (r *quoteRepository) Get(ctx context.Context, id uuid.UUID) (*model.Quote, error) {
	query := `
		SELECT id, event_id, status, total, sent_at, notes,
		       created_at, updated_at, deleted_at
		FROM quotes
		WHERE id = $1 AND deleted_at IS NULL
	`
	var quote model.Quote
	if err := r.db.GetContext(ctx, &quote, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("quote", err)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}

func (r *quoteRepository) Update(ctx context.Context, quote *model.Quote) error {
	query := `
		UPDATE quotes
		SET status = $1, total = $2, sent_at = $3, notes = $4, updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		quote.Status, quote.Total, quote.SentAt, quote.Notes, quote.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	return requireRow(result, "quote")
}

func (r *quoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE quotes SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}
	return requireRow(result, "quote")
}

func (r *quoteRepository) List(ctx context.Context, filter *model.QuoteFilter) ([]*model.Quote, error) {
	query := `
		SELECT id, event_id, status, total, sent_at, notes,
		       created_at, updated_at, deleted_at
		FROM quotes
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	n := 1
	if filter != nil {
		if filter.EventID != uuid.Nil {
			query += fmt.Sprintf(" AND event_id = $%d", n)
			args = append(args, filter.EventID)
			n++
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", n)
			args = append(args, filter.Status)
			n++
		}
	}
	query += " ORDER BY created_at DESC"

	var quotes []*model.Quote
	if err := r.db.SelectContext(ctx, &quotes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

// ListOpenSentBefore returns quotes still awaiting an answer that were
// sent before the cutoff. Feeds the open-quote follow-up scan.
func (r *quoteRepository) ListOpenSentBefore(ctx context.Context, before time.Time) ([]*model.Quote, error) {
	query := `
		SELECT id, event_id, status, total, sent_at, notes,
		       created_at, updated_at, deleted_at
		FROM quotes
		WHERE deleted_at IS NULL
		AND status = $1
		AND sent_at IS NOT NULL AND sent_at < $2
		ORDER BY sent_at ASC
	`
	var quotes []*model.Quote
	if err := r.db.SelectContext(ctx, &quotes, query, model.QuoteStatusSent, before); err != nil {
		return nil, fmt.Errorf("failed to list open quotes: %w", err)
	}
	return quotes, nil
}
