// Package messaging delivers the outbound side of automation actions:
// email, WhatsApp and in-app notifications. Implementations are plain
// HTTP clients against the hosted messaging gateway; a log-only variant
// backs local development.
package messaging

import "context"

// EmailMessage is one outbound email.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// WhatsAppMessage is one outbound WhatsApp text.
type WhatsAppMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Notification is an in-app notification for a user.
type Notification struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, msg WhatsAppMessage) error
}

type NotificationSender interface {
	SendNotification(ctx context.Context, notification Notification) error
}

// Sender bundles all three delivery channels.
type Sender interface {
	EmailSender
	WhatsAppSender
	NotificationSender
}
