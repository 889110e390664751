package notification

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/avitalak/salon-api/internal/email"
	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/repository"
	"github.com/avitalak/salon-api/pkg/messaging"
)

const inAppChannel = "notifications"

// Service renders the admin-editable template for a notification kind and
// hands the result to the email sender, mirroring it to the message broker
// for in-app consumers. It decides nothing about WHO gets notified; callers
// do.
type Service interface {
	Send(ctx context.Context, kind model.TemplateKind, recipient string, vars map[string]interface{}) error
}

type service struct {
	templates repository.TemplateRepository
	sender    email.Sender
	broker    messaging.Broker
	logger    *zerolog.Logger
}

func NewService(templates repository.TemplateRepository, sender email.Sender, broker messaging.Broker, logger *zerolog.Logger) Service {
	return &service{
		templates: templates,
		sender:    sender,
		broker:    broker,
		logger:    logger,
	}
}

func (s *service) Send(ctx context.Context, kind model.TemplateKind, recipient string, vars map[string]interface{}) error {
	tpl := s.lookup(ctx, kind)
	if !tpl.Enabled {
		s.logger.Debug().Str("kind", string(kind)).Msg("template disabled, skipping notification")
		return nil
	}

	subject, err := render(tpl.Subject, vars)
	if err != nil {
		return fmt.Errorf("failed to render subject for %s: %w", kind, err)
	}
	body, err := render(tpl.Body, vars)
	if err != nil {
		return fmt.Errorf("failed to render body for %s: %w", kind, err)
	}

	if err := s.sender.Send(ctx, recipient, subject, body); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", kind, err)
	}

	if s.broker != nil {
		event := map[string]interface{}{
			"kind":      kind,
			"recipient": recipient,
			"vars":      vars,
		}
		if err := s.broker.Publish(ctx, inAppChannel, event); err != nil {
			// In-app mirror is best effort; email already went out.
			s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to publish notification event")
		}
	}
	return nil
}

// lookup falls back to the built-in default when no row exists for the kind.
func (s *service) lookup(ctx context.Context, kind model.TemplateKind) *model.EmailTemplate {
	tpl, err := s.templates.Get(ctx, kind)
	if err == nil {
		return tpl
	}

	def, ok := model.DefaultTemplates[kind]
	if !ok {
		s.logger.Error().Str("kind", string(kind)).Msg("unknown notification kind")
		return &model.EmailTemplate{Kind: kind, Enabled: false}
	}
	return &def
}

func render(src string, vars map[string]interface{}) (string, error) {
	t, err := template.New("email").Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
