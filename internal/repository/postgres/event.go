package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	apperrors "github.com/eventops/backoffice-api/pkg/errors"
)

type eventRepository struct {
	BaseRepository
}

func NewEventRepository(base BaseRepository) repository.EventRepository {
	return &eventRepository{base}
}

// eventRow mirrors the events table; contacts are stored JSON-encoded.
type eventRow struct {
	model.Event
	ContactsJSON string `db:"contacts"`
}

func (row *eventRow) toModel() (*model.Event, error) {
	e := row.Event
	e.Contacts = nil
	if row.ContactsJSON != "" {
		if err := json.Unmarshal([]byte(row.ContactsJSON), &e.Contacts); err != nil {
			return nil, fmt.Errorf("failed to decode event contacts: %w", err)
		}
	}
	return &e, nil
}

func encodeContacts(contacts []model.Contact) (string, error) {
	if contacts == nil {
		contacts = []model.Contact{}
	}
	raw, err := json.Marshal(contacts)
	if err != nil {
		return "", fmt.Errorf("failed to encode event contacts: %w", err)
	}
	return string(raw), nil
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	contacts, err := encodeContacts(event.Contacts)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO events (
			id, name, type, status, event_date, start_time, location,
			concept, price, contacts, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Name, event.Type, event.Status, event.EventDate,
		event.StartTime, event.Location, event.Concept, event.Price,
		contacts, event.Notes, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepository) Get(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT id, name, type, status, event_date, start_time, location,
		       concept, price, contacts, notes, created_at, updated_at, deleted_at
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
	`
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("event", err)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return row.toModel()
}

func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	contacts, err := encodeContacts(event.Contacts)
	if err != nil {
		return err
	}
	query := `
		UPDATE events
		SET name = $1, type = $2, status = $3, event_date = $4,
		    start_time = $5, location = $6, concept = $7, price = $8,
		    contacts = $9, notes = $10, updated_at = NOW()
		WHERE id = $11 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		event.Name, event.Type, event.Status, event.EventDate,
		event.StartTime, event.Location, event.Concept, event.Price,
		contacts, event.Notes, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireRow(result, "event")
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE events SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return requireRow(result, "event")
}

func (r *eventRepository) List(ctx context.Context, filter *model.EventFilter) ([]*model.Event, error) {
	query := `
		SELECT id, name, type, status, event_date, start_time, location,
		       concept, price, contacts, notes, created_at, updated_at, deleted_at
		FROM events
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	n := 1
	if filter != nil {
		if filter.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", n)
			args = append(args, filter.Type)
			n++
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", n)
			args = append(args, filter.Status)
			n++
		}
		if filter.SearchTerm != "" {
			query += fmt.Sprintf(" AND name ILIKE $%d", n)
			args = append(args, "%"+filter.SearchTerm+"%")
			n++
		}
	}
	query += " ORDER BY event_date ASC"

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return eventRowsToModels(rows)
}

func (r *eventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*model.Event, error) {
	query := `
		SELECT id, name, type, status, event_date, start_time, location,
		       concept, price, contacts, notes, created_at, updated_at, deleted_at
		FROM events
		WHERE deleted_at IS NULL
		AND event_date >= $1 AND event_date <= $2
		AND status NOT IN ($3, $4)
		ORDER BY event_date ASC
	`
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, query, from, to,
		model.EventStatusCancelled, model.EventStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list events in range: %w", err)
	}
	return eventRowsToModels(rows)
}

func eventRowsToModels(rows []eventRow) ([]*model.Event, error) {
	out := make([]*model.Event, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func requireRow(result sql.Result, entity string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound(entity, nil)
	}
	return nil
}
