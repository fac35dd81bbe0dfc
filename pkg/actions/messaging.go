package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/zzpkit/zzpkit/pkg/messaging"
	"github.com/zzpkit/zzpkit/pkg/template"
)

var errNoRecipient = errors.New("no recipient: set 'to' in the action config or target items with a client email")

// bindings exposes the execution context to Liquid templates.
func bindings(execCtx ExecutionContext) map[string]any {
	name := ""
	if execCtx.Automation != nil {
		name = execCtx.Automation.Name
	}

	return map[string]any{
		"item":       execCtx.Item,
		"event":      execCtx.Event,
		"user_id":    execCtx.UserID,
		"automation": name,
	}
}

func renderField(config map[string]any, key string, execCtx ExecutionContext) (string, error) {
	raw, _ := config[key].(string)
	if raw == "" {
		return "", nil
	}

	rendered, err := template.Render(raw, bindings(execCtx))
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", key, err)
	}

	return rendered, nil
}

// resolveRecipient prefers an explicit templated 'to', then the target
// item's client email, then the event payload's.
func resolveRecipient(config map[string]any, execCtx ExecutionContext) (string, error) {
	to, err := renderField(config, "to", execCtx)
	if err != nil {
		return "", err
	}

	if to != "" {
		return to, nil
	}

	for _, source := range []map[string]any{execCtx.Item, execCtx.Event} {
		if source == nil {
			continue
		}

		for _, key := range []string{"client_email", "email", "client_phone", "phone"} {
			if value, ok := source[key].(string); ok && value != "" {
				return value, nil
			}
		}
	}

	return "", errNoRecipient
}

// SendEmailHandler delivers a templated email.
type SendEmailHandler struct {
	sender messaging.EmailSender
}

func NewSendEmailHandler(sender messaging.EmailSender) *SendEmailHandler {
	return &SendEmailHandler{sender: sender}
}

func (h *SendEmailHandler) Execute(ctx context.Context, execCtx ExecutionContext, config map[string]any) (map[string]any, error) {
	to, err := resolveRecipient(config, execCtx)
	if err != nil {
		return nil, err
	}

	subject, err := renderField(config, "subject", execCtx)
	if err != nil {
		return nil, err
	}

	body, err := renderField(config, "body", execCtx)
	if err != nil {
		return nil, err
	}

	if body == "" {
		body, err = renderField(config, "message", execCtx)
		if err != nil {
			return nil, err
		}
	}

	if err := h.sender.SendEmail(ctx, messaging.EmailMessage{To: to, Subject: subject, Body: body}); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	return map[string]any{"to": to, "subject": subject}, nil
}

// SendWhatsAppHandler delivers a templated WhatsApp message.
type SendWhatsAppHandler struct {
	sender messaging.WhatsAppSender
}

func NewSendWhatsAppHandler(sender messaging.WhatsAppSender) *SendWhatsAppHandler {
	return &SendWhatsAppHandler{sender: sender}
}

func (h *SendWhatsAppHandler) Execute(ctx context.Context, execCtx ExecutionContext, config map[string]any) (map[string]any, error) {
	to, err := resolveRecipient(config, execCtx)
	if err != nil {
		return nil, err
	}

	body, err := renderField(config, "message", execCtx)
	if err != nil {
		return nil, err
	}

	if err := h.sender.SendWhatsApp(ctx, messaging.WhatsAppMessage{To: to, Body: body}); err != nil {
		return nil, fmt.Errorf("failed to send whatsapp message: %w", err)
	}

	return map[string]any{"to": to}, nil
}

// SendNotificationHandler creates an in-app notification for the
// automation's own user.
type SendNotificationHandler struct {
	sender messaging.NotificationSender
}

func NewSendNotificationHandler(sender messaging.NotificationSender) *SendNotificationHandler {
	return &SendNotificationHandler{sender: sender}
}

func (h *SendNotificationHandler) Execute(ctx context.Context, execCtx ExecutionContext, config map[string]any) (map[string]any, error) {
	title, err := renderField(config, "title", execCtx)
	if err != nil {
		return nil, err
	}

	message, err := renderField(config, "message", execCtx)
	if err != nil {
		return nil, err
	}

	notification := messaging.Notification{
		UserID:  execCtx.UserID,
		Title:   title,
		Message: message,
	}

	if err := h.sender.SendNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	return map[string]any{"title": title}, nil
}
