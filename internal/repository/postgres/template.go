package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
	apperrors "github.com/eventops/backoffice-api/pkg/errors"
)

const templateCacheTTL = 5 * time.Minute

// templateRepository caches reads: templates are consulted on every scan
// and every entity change, but admins edit them rarely. Any write flushes
// the whole cache.
type templateRepository struct {
	BaseRepository
	cache *gocache.Cache
}

func NewTemplateRepository(base BaseRepository) repository.TemplateRepository {
	return &templateRepository{
		BaseRepository: base,
		cache:          gocache.New(templateCacheTTL, 10*time.Minute),
	}
}

// templateRow mirrors notification_templates; list/map fields are stored
// as JSON-encoded TEXT columns.
type templateRow struct {
	model.NotificationTemplate
	ConditionsJSON string `db:"conditions"`
	AudiencesJSON  string `db:"target_audiences"`
	ChannelsJSON   string `db:"allowed_channels"`
	LinkParamsJSON string `db:"link_params"`
}

func (row *templateRow) toModel() (*model.NotificationTemplate, error) {
	t := row.NotificationTemplate
	t.Conditions = nil
	t.TargetAudiences = nil
	t.AllowedChannels = nil
	t.LinkParams = nil
	if row.ConditionsJSON != "" {
		if err := json.Unmarshal([]byte(row.ConditionsJSON), &t.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode template conditions: %w", err)
		}
	}
	if row.AudiencesJSON != "" {
		if err := json.Unmarshal([]byte(row.AudiencesJSON), &t.TargetAudiences); err != nil {
			return nil, fmt.Errorf("failed to decode template audiences: %w", err)
		}
	}
	if row.ChannelsJSON != "" {
		if err := json.Unmarshal([]byte(row.ChannelsJSON), &t.AllowedChannels); err != nil {
			return nil, fmt.Errorf("failed to decode template channels: %w", err)
		}
	}
	if row.LinkParamsJSON != "" {
		if err := json.Unmarshal([]byte(row.LinkParamsJSON), &t.LinkParams); err != nil {
			return nil, fmt.Errorf("failed to decode template link params: %w", err)
		}
	}
	return &t, nil
}

func encodeTemplate(t *model.NotificationTemplate) (conditions, audiences, channels, linkParams string, err error) {
	encode := func(v interface{}, what string) (string, error) {
		raw, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode template %s: %w", what, err)
		}
		return string(raw), nil
	}
	condList := t.Conditions
	if condList == nil {
		condList = []model.Condition{}
	}
	if conditions, err = encode(condList, "conditions"); err != nil {
		return
	}
	audList := t.TargetAudiences
	if audList == nil {
		audList = []model.Audience{}
	}
	if audiences, err = encode(audList, "audiences"); err != nil {
		return
	}
	chanList := t.AllowedChannels
	if chanList == nil {
		chanList = []model.Channel{}
	}
	if channels, err = encode(chanList, "channels"); err != nil {
		return
	}
	params := t.LinkParams
	if params == nil {
		params = map[string]string{}
	}
	linkParams, err = encode(params, "link params")
	return
}

const templateColumns = `
	id, type, trigger_type, entity_name, is_active, condition_logic, conditions,
	timing_value, timing_unit, timing_direction,
	reminder_interval_value, reminder_interval_unit, max_reminders,
	target_audiences, allowed_channels, title, body, whatsapp_body,
	dynamic_url_type, link_base, link_params,
	created_at, updated_at, deleted_at
`

func (r *templateRepository) Create(ctx context.Context, tmpl *model.NotificationTemplate) error {
	conditions, audiences, channels, linkParams, err := encodeTemplate(tmpl)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO notification_templates (
			id, type, trigger_type, entity_name, is_active, condition_logic, conditions,
			timing_value, timing_unit, timing_direction,
			reminder_interval_value, reminder_interval_unit, max_reminders,
			target_audiences, allowed_channels, title, body, whatsapp_body,
			dynamic_url_type, link_base, link_params, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
	`
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	now := time.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Type, tmpl.TriggerType, tmpl.EntityName, tmpl.IsActive,
		tmpl.ConditionLogic, conditions,
		tmpl.TimingValue, tmpl.TimingUnit, tmpl.TimingDirection,
		tmpl.ReminderIntervalValue, tmpl.ReminderIntervalUnit, tmpl.MaxReminders,
		audiences, channels, tmpl.Title, tmpl.Body, tmpl.WhatsAppBody,
		tmpl.DynamicURLType, tmpl.LinkBase, linkParams,
		tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	r.cache.Flush()
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.NotificationTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE id = $1 AND deleted_at IS NULL`
	var row templateRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("template", err)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return row.toModel()
}

func (r *templateRepository) GetByType(ctx context.Context, typeKey string) (*model.NotificationTemplate, error) {
	cacheKey := "type:" + typeKey
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.(*model.NotificationTemplate), nil
	}
	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE type = $1 AND deleted_at IS NULL`
	var row templateRow
	if err := r.db.GetContext(ctx, &row, query, typeKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template by type: %w", err)
	}
	tmpl, err := row.toModel()
	if err != nil {
		return nil, err
	}
	r.cache.Set(cacheKey, tmpl, gocache.DefaultExpiration)
	return tmpl, nil
}

func (r *templateRepository) Update(ctx context.Context, tmpl *model.NotificationTemplate) error {
	conditions, audiences, channels, linkParams, err := encodeTemplate(tmpl)
	if err != nil {
		return err
	}
	query := `
		UPDATE notification_templates
		SET type = $1, trigger_type = $2, entity_name = $3, is_active = $4,
		    condition_logic = $5, conditions = $6,
		    timing_value = $7, timing_unit = $8, timing_direction = $9,
		    reminder_interval_value = $10, reminder_interval_unit = $11, max_reminders = $12,
		    target_audiences = $13, allowed_channels = $14,
		    title = $15, body = $16, whatsapp_body = $17,
		    dynamic_url_type = $18, link_base = $19, link_params = $20,
		    updated_at = NOW()
		WHERE id = $21 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		tmpl.Type, tmpl.TriggerType, tmpl.EntityName, tmpl.IsActive,
		tmpl.ConditionLogic, conditions,
		tmpl.TimingValue, tmpl.TimingUnit, tmpl.TimingDirection,
		tmpl.ReminderIntervalValue, tmpl.ReminderIntervalUnit, tmpl.MaxReminders,
		audiences, channels, tmpl.Title, tmpl.Body, tmpl.WhatsAppBody,
		tmpl.DynamicURLType, tmpl.LinkBase, linkParams, tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if err := requireRow(result, "template"); err != nil {
		return err
	}
	r.cache.Flush()
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notification_templates SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if err := requireRow(result, "template"); err != nil {
		return err
	}
	r.cache.Flush()
	return nil
}

func (r *templateRepository) List(ctx context.Context, filter *model.TemplateFilter) ([]*model.NotificationTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE deleted_at IS NULL`
	args := []interface{}{}
	n := 1
	if filter != nil {
		if filter.TriggerType != "" {
			query += fmt.Sprintf(" AND trigger_type = $%d", n)
			args = append(args, filter.TriggerType)
			n++
		}
		if filter.EntityName != "" {
			query += fmt.Sprintf(" AND entity_name = $%d", n)
			args = append(args, filter.EntityName)
			n++
		}
		if filter.ActiveOnly {
			query += " AND is_active = TRUE"
		}
	}
	query += " ORDER BY type ASC"

	var rows []templateRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templateRowsToModels(rows)
}

func (r *templateRepository) ListActiveByTrigger(ctx context.Context, trigger model.TriggerType, entityName string) ([]*model.NotificationTemplate, error) {
	cacheKey := fmt.Sprintf("trigger:%s:%s", trigger, entityName)
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached.([]*model.NotificationTemplate), nil
	}
	query := `SELECT ` + templateColumns + ` FROM notification_templates
		WHERE trigger_type = $1 AND entity_name = $2 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY type ASC`
	var rows []templateRow
	if err := r.db.SelectContext(ctx, &rows, query, trigger, entityName); err != nil {
		return nil, fmt.Errorf("failed to list templates by trigger: %w", err)
	}
	templates, err := templateRowsToModels(rows)
	if err != nil {
		return nil, err
	}
	r.cache.Set(cacheKey, templates, gocache.DefaultExpiration)
	return templates, nil
}

func templateRowsToModels(rows []templateRow) ([]*model.NotificationTemplate, error) {
	out := make([]*model.NotificationTemplate, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
