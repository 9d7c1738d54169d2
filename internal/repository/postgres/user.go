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

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

const userColumns = `
	id, email, name, password_hash, phone, is_admin, status,
	push_subscription_id, quiet_start_hour, quiet_end_hour,
	last_login_at, created_at, updated_at, deleted_at
`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, name, password_hash, phone, is_admin, status,
			push_subscription_id, quiet_start_hour, quiet_end_hour,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Phone,
		user.IsAdmin, user.Status, user.PushSubscriptionID,
		user.QuietStartHour, user.QuietEndHour,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, phone = $2, is_admin = $3, status = $4,
		    push_subscription_id = $5, quiet_start_hour = $6, quiet_end_hour = $7,
		    password_hash = $8, last_login_at = $9, updated_at = NOW()
		WHERE id = $10 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Name, user.Phone, user.IsAdmin, user.Status,
		user.PushSubscriptionID, user.QuietStartHour, user.QuietEndHour,
		user.PasswordHash, user.LastLoginAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRow(result, "user")
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(result, "user")
}

func (r *userRepository) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	args := []interface{}{}
	n := 1
	if filter != nil {
		if filter.IsAdmin != nil {
			query += fmt.Sprintf(" AND is_admin = $%d", n)
			args = append(args, *filter.IsAdmin)
			n++
		}
		if filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", n)
			args = append(args, filter.Status)
			n++
		}
		if filter.SearchTerm != "" {
			query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", n, n)
			args = append(args, "%"+filter.SearchTerm+"%")
			n++
		}
	}
	query += " ORDER BY name ASC"

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListAdmins returns active admin accounts. Admin broadcasts resolve
// recipients through this.
func (r *userRepository) ListAdmins(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE is_admin = TRUE AND status = $1 AND deleted_at IS NULL
		ORDER BY name ASC`
	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, model.UserStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return users, nil
}
