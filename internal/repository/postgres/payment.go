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

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(base BaseRepository) repository.PaymentRepository {
	return &paymentRepository{base}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (
			id, event_id, supplier_id, side, amount, status, due_date,
			paid_at, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.EventID, payment.SupplierID, payment.Side,
		payment.Amount, payment.Status, payment.DueDate, payment.PaidAt,
		payment.Notes, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `
		SELECT id, event_id, supplier_id, side, amount, status, due_date,
		       paid_at, notes, created_at, updated_at, deleted_at
		FROM payments
		WHERE id = $1 AND deleted_at IS NULL
	`
	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("payment", err)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET amount = $1, status = $2, due_date = $3, paid_at = $4,
		    notes = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		payment.Amount, payment.Status, payment.DueDate, payment.PaidAt,
		payment.Notes, payment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return requireRow(result, "payment")
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE payments SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireRow(result, "payment")
}

func (r *paymentRepository) List(ctx context.Context, filter *model.PaymentFilter) ([]*model.Payment, error) {
	query := `
		SELECT id, event_id, supplier_id, side, amount, status, due_date,
		       paid_at, notes, created_at, updated_at, deleted_at
		FROM payments
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
		if filter.Side != "" {
			query += fmt.Sprintf(" AND side = $%d", n)
			args = append(args, filter.Side)
			n++
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", n)
			args = append(args, filter.Status)
			n++
		}
	}
	query += " ORDER BY created_at DESC"

	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// SumCompleted totals completed payments on one side of an event. Used by
// the outstanding-balance computed field.
func (r *paymentRepository) SumCompleted(ctx context.Context, eventID uuid.UUID, side string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE event_id = $1 AND side = $2 AND status = $3 AND deleted_at IS NULL
	`
	var total float64
	err := r.db.GetContext(ctx, &total, query, eventID, side, model.PaymentStatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}
