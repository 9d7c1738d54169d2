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

type eventServiceRepository struct {
	BaseRepository
}

func NewEventServiceRepository(base BaseRepository) repository.EventServiceRepository {
	return &eventServiceRepository{base}
}

// eventServiceRow mirrors the event_services table; the supplier list and
// status map are JSON-encoded TEXT columns, decoded only here.
type eventServiceRow struct {
	model.EventService
	SupplierIDsJSON      string `db:"supplier_ids"`
	SupplierStatusesJSON string `db:"supplier_statuses"`
}

func (row *eventServiceRow) toModel() (*model.EventService, error) {
	svc := row.EventService
	svc.SupplierIDs = nil
	svc.SupplierStatuses = nil
	if row.SupplierIDsJSON != "" {
		if err := json.Unmarshal([]byte(row.SupplierIDsJSON), &svc.SupplierIDs); err != nil {
			return nil, fmt.Errorf("failed to decode supplier ids: %w", err)
		}
	}
	if row.SupplierStatusesJSON != "" {
		if err := json.Unmarshal([]byte(row.SupplierStatusesJSON), &svc.SupplierStatuses); err != nil {
			return nil, fmt.Errorf("failed to decode supplier statuses: %w", err)
		}
	}
	if svc.SupplierStatuses == nil {
		svc.SupplierStatuses = map[string]string{}
	}
	return &svc, nil
}

func encodeEventService(svc *model.EventService) (ids string, statuses string, err error) {
	idList := svc.SupplierIDs
	if idList == nil {
		idList = []uuid.UUID{}
	}
	rawIDs, err := json.Marshal(idList)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode supplier ids: %w", err)
	}
	statusMap := svc.SupplierStatuses
	if statusMap == nil {
		statusMap = map[string]string{}
	}
	rawStatuses, err := json.Marshal(statusMap)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode supplier statuses: %w", err)
	}
	return string(rawIDs), string(rawStatuses), nil
}

func (r *eventServiceRepository) Create(ctx context.Context, svc *model.EventService) error {
	ids, statuses, err := encodeEventService(svc)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO event_services (
			id, event_id, service_type, supplier_ids, supplier_statuses,
			min_suppliers, price, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		svc.ID, svc.EventID, svc.ServiceType, ids, statuses,
		svc.MinSuppliers, svc.Price, svc.Notes, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event service: %w", err)
	}
	return nil
}

func (r *eventServiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.EventService, error) {
	query := `
		SELECT id, event_id, service_type, supplier_ids, supplier_statuses,
		       min_suppliers, price, notes, created_at, updated_at, deleted_at
		FROM event_services
		WHERE id = $1 AND deleted_at IS NULL
	`
	var row eventServiceRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("event service", err)
		}
		return nil, fmt.Errorf("failed to get event service: %w", err)
	}
	return row.toModel()
}

func (r *eventServiceRepository) Update(ctx context.Context, svc *model.EventService) error {
	ids, statuses, err := encodeEventService(svc)
	if err != nil {
		return err
	}
	query := `
		UPDATE event_services
		SET service_type = $1, supplier_ids = $2, supplier_statuses = $3,
		    min_suppliers = $4, price = $5, notes = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		svc.ServiceType, ids, statuses, svc.MinSuppliers, svc.Price, svc.Notes, svc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event service: %w", err)
	}
	return requireRow(result, "event service")
}

func (r *eventServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE event_services SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete event service: %w", err)
	}
	return requireRow(result, "event service")
}

func (r *eventServiceRepository) List(ctx context.Context, filter *model.EventServiceFilter) ([]*model.EventService, error) {
	query := `
		SELECT id, event_id, service_type, supplier_ids, supplier_statuses,
		       min_suppliers, price, notes, created_at, updated_at, deleted_at
		FROM event_services
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
		if filter.ServiceType != "" {
			query += fmt.Sprintf(" AND service_type = $%d", n)
			args = append(args, filter.ServiceType)
			n++
		}
	}
	query += " ORDER BY created_at ASC"

	var rows []eventServiceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list event services: %w", err)
	}
	return serviceRowsToModels(rows)
}

func (r *eventServiceRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.EventService, error) {
	query := `
		SELECT id, event_id, service_type, supplier_ids, supplier_statuses,
		       min_suppliers, price, notes, created_at, updated_at, deleted_at
		FROM event_services
		WHERE event_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var rows []eventServiceRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("failed to list event services: %w", err)
	}
	return serviceRowsToModels(rows)
}

func serviceRowsToModels(rows []eventServiceRow) ([]*model.EventService, error) {
	out := make([]*model.EventService, 0, len(rows))
	for i := range rows {
		svc, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, nil
}
