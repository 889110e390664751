package notification

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avitalak/salon-api/internal/model"
	apperrors "github.com/avitalak/salon-api/pkg/errors"
)

type fakeTemplateRepo struct {
	stored map[model.TemplateKind]*model.EmailTemplate
}

func (f *fakeTemplateRepo) Get(_ context.Context, kind model.TemplateKind) (*model.EmailTemplate, error) {
	tpl, ok := f.stored[kind]
	if !ok {
		return nil, apperrors.NotFound("template", nil)
	}
	return tpl, nil
}

func (f *fakeTemplateRepo) Upsert(_ context.Context, tpl *model.EmailTemplate) error {
	if f.stored == nil {
		f.stored = make(map[model.TemplateKind]*model.EmailTemplate)
	}
	f.stored[tpl.Kind] = tpl
	return nil
}

func (f *fakeTemplateRepo) List(context.Context) ([]*model.EmailTemplate, error) {
	var out []*model.EmailTemplate
	for _, tpl := range f.stored {
		out = append(out, tpl)
	}
	return out, nil
}

type sentEmail struct {
	to      string
	subject string
	body    string
}

type fakeSender struct {
	sent []sentEmail
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.sent = append(f.sent, sentEmail{to, subject, body})
	return nil
}

func TestSend_RendersStoredTemplate(t *testing.T) {
	repo := &fakeTemplateRepo{stored: map[model.TemplateKind]*model.EmailTemplate{
		model.TemplateAppointmentCreated: {
			Kind:    model.TemplateAppointmentCreated,
			Subject: "Booked: {{.Service}}",
			Body:    "See you {{.Date}} at {{.Time}}, {{.Name}}!",
			Enabled: true,
		},
	}}
	sender := &fakeSender{}
	logger := zerolog.Nop()
	svc := NewService(repo, sender, nil, &logger)

	err := svc.Send(context.Background(), model.TemplateAppointmentCreated, "dana@example.com", map[string]interface{}{
		"Name":    "Dana",
		"Service": "Color",
		"Date":    "2026-09-07",
		"Time":    "10:00",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "dana@example.com", sender.sent[0].to)
	assert.Equal(t, "Booked: Color", sender.sent[0].subject)
	assert.Equal(t, "See you 2026-09-07 at 10:00, Dana!", sender.sent[0].body)
}

func TestSend_FallsBackToDefaultTemplate(t *testing.T) {
	repo := &fakeTemplateRepo{}
	sender := &fakeSender{}
	logger := zerolog.Nop()
	svc := NewService(repo, sender, nil, &logger)

	err := svc.Send(context.Background(), model.TemplateWaitlistFreed, "dana@example.com", map[string]interface{}{
		"Name":    "Dana",
		"Service": "Color",
		"Date":    "2026-09-07",
		"Time":    "10:00",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "Dana")
	assert.Contains(t, sender.sent[0].body, "Color")
}

func TestSend_DisabledTemplateSkips(t *testing.T) {
	repo := &fakeTemplateRepo{stored: map[model.TemplateKind]*model.EmailTemplate{
		model.TemplateAppointmentReminder: {
			Kind:    model.TemplateAppointmentReminder,
			Subject: "x",
			Body:    "y",
			Enabled: false,
		},
	}}
	sender := &fakeSender{}
	logger := zerolog.Nop()
	svc := NewService(repo, sender, nil, &logger)

	err := svc.Send(context.Background(), model.TemplateAppointmentReminder, "dana@example.com", nil)
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestUpsertTemplate_RejectsBadSyntax(t *testing.T) {
	admin := NewTemplateAdmin(&fakeTemplateRepo{})

	_, err := admin.UpsertTemplate(context.Background(), &model.UpsertTemplateRequest{
		Kind:    model.TemplateAppointmentCreated,
		Subject: "ok",
		Body:    "broken {{.Name",
	})
	assert.Error(t, err)

	_, err = admin.UpsertTemplate(context.Background(), &model.UpsertTemplateRequest{
		Kind:    "no_such_kind",
		Subject: "ok",
		Body:    "ok",
	})
	assert.Error(t, err)
}

func TestListTemplates_MergesDefaults(t *testing.T) {
	repo := &fakeTemplateRepo{}
	admin := NewTemplateAdmin(repo)

	custom := &model.UpsertTemplateRequest{
		Kind:    model.TemplateAppointmentCreated,
		Subject: "custom subject",
		Body:    "custom body",
	}
	_, err := admin.UpsertTemplate(context.Background(), custom)
	require.NoError(t, err)

	templates, err := admin.ListTemplates(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, len(model.DefaultTemplates))

	var found bool
	for _, tpl := range templates {
		if tpl.Kind == model.TemplateAppointmentCreated {
			found = true
			assert.Equal(t, "custom subject", tpl.Subject)
		}
	}
	assert.True(t, found)
}
