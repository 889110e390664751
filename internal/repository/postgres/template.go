package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avitalak/salon-api/internal/model"
)

func (r *templateRepository) Get(ctx context.Context, kind model.TemplateKind) (*model.EmailTemplate, error) {
	query := `
		SELECT id, kind, subject, body, enabled, created_at, updated_at
		FROM email_templates
		WHERE kind = $1
	`
	var tpl model.EmailTemplate
	err := r.db.GetContext(ctx, &tpl, query, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to get email template: %w", err)
	}
	return &tpl, nil
}

func (r *templateRepository) Upsert(ctx context.Context, tpl *model.EmailTemplate) error {
	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	now := time.Now()
	tpl.UpdatedAt = now

	query := `
		INSERT INTO email_templates (id, kind, subject, body, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (kind) DO UPDATE
		SET subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, tpl.ID, tpl.Kind, tpl.Subject, tpl.Body, tpl.Enabled, now)
	if err != nil {
		return fmt.Errorf("failed to upsert email template: %w", err)
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context) ([]*model.EmailTemplate, error) {
	query := `
		SELECT id, kind, subject, body, enabled, created_at, updated_at
		FROM email_templates
		ORDER BY kind
	`
	var templates []*model.EmailTemplate
	err := r.db.SelectContext(ctx, &templates, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list email templates: %w", err)
	}
	return templates, nil
}
