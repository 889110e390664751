package notification

import (
	"context"
	"fmt"
	"text/template"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/repository"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
)

// TemplateAdmin is the admin-facing side of the notification system: listing
// and editing the stored templates.
type TemplateAdmin interface {
	ListTemplates(ctx context.Context) ([]*model.EmailTemplate, error)
	UpsertTemplate(ctx context.Context, req *model.UpsertTemplateRequest) (*model.EmailTemplate, error)
}

type templateAdmin struct {
	templates repository.TemplateRepository
}

func NewTemplateAdmin(templates repository.TemplateRepository) TemplateAdmin {
	return &templateAdmin{templates: templates}
}

// ListTemplates merges stored rows over the built-in defaults so the admin
// UI always shows every kind.
func (a *templateAdmin) ListTemplates(ctx context.Context) ([]*model.EmailTemplate, error) {
	stored, err := a.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	byKind := make(map[model.TemplateKind]*model.EmailTemplate, len(stored))
	for _, tpl := range stored {
		byKind[tpl.Kind] = tpl
	}

	kinds := []model.TemplateKind{
		model.TemplateAppointmentCreated,
		model.TemplateAppointmentUpdated,
		model.TemplateAppointmentCancelled,
		model.TemplateAppointmentReminder,
		model.TemplateWaitlistFreed,
	}
	out := make([]*model.EmailTemplate, 0, len(kinds))
	for _, kind := range kinds {
		if tpl, ok := byKind[kind]; ok {
			out = append(out, tpl)
			continue
		}
		def := model.DefaultTemplates[kind]
		out = append(out, &def)
	}
	return out, nil
}

func (a *templateAdmin) UpsertTemplate(ctx context.Context, req *model.UpsertTemplateRequest) (*model.EmailTemplate, error) {
	if _, ok := model.DefaultTemplates[req.Kind]; !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown template kind %q", req.Kind), nil)
	}
	// Reject templates that would fail at send time.
	if _, err := template.New("subject").Parse(req.Subject); err != nil {
		return nil, apperrors.BadRequest("invalid subject template", err)
	}
	if _, err := template.New("body").Parse(req.Body); err != nil {
		return nil, apperrors.BadRequest("invalid body template", err)
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	tpl := &model.EmailTemplate{
		Kind:    req.Kind,
		Subject: req.Subject,
		Body:    req.Body,
		Enabled: enabled,
	}
	if err := a.templates.Upsert(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	return tpl, nil
}
