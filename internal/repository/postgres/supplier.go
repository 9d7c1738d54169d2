package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	apperrors "github.com/eventops/backoffice-api/pkg/errors"
)

type supplierRepository struct {
	BaseRepository
}

func NewSupplierRepository(base BaseRepository) repository.SupplierRepository {
	return &supplierRepository{base}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	query := `
		INSERT INTO suppliers (
			id, name, phone, email, service_type, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	if supplier.Status == "" {
		supplier.Status = model.SupplierStatusActive
	}
	now := time.Now()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		supplier.ID, supplier.Name, supplier.Phone, supplier.Email,
		supplier.ServiceType, supplier.Status, supplier.Notes,
		supplier.CreatedAt, supplier.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

func (r *supplierRepository) Get(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	query := `
		SELECT id, name, phone, email, service_type, status, notes,
		       created_at, updated_at, deleted_at
		FROM suppliers
		WHERE id = $1 AND deleted_at IS NULL
	`
	var supplier model.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("supplier", err)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &supplier, nil
}

func (r *supplierRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, name, phone, email, service_type, status, notes,
		       created_at, updated_at, deleted_at
		FROM suppliers
		WHERE id IN (?) AND deleted_at IS NULL
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build supplier query: %w", err)
	}
	query = r.db.Rebind(query)

	var suppliers []*model.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get suppliers: %w", err)
	}
	return suppliers, nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $1, phone = $2, email = $3, service_type = $4,
		    status = $5, notes = $6, updated_at = NOW()
		WHERE id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		supplier.Name, supplier.Phone, supplier.Email, supplier.ServiceType,
		supplier.Status, supplier.Notes, supplier.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	return requireRow(result, "supplier")
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE suppliers SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return requireRow(result, "supplier")
}

func (r *supplierRepository) List(ctx context.Context, filter *model.SupplierFilter) ([]*model.Supplier, error) {
	query := `
		SELECT id, name, phone, email, service_type, status, notes,
		       created_at, updated_at, deleted_at
		FROM suppliers
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	n := 1
	if filter != nil {
		if filter.ServiceType != "" {
			query += fmt.Sprintf(" AND service_type = $%d", n)
			args = append(args, filter.ServiceType)
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
	query += " ORDER BY name ASC"

	var suppliers []*model.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}
