package messaging

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them.
// Default for local development and tests.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("module", "messaging")}
}

func (s *LogSender) SendEmail(_ context.Context, msg EmailMessage) error {
	s.logger.Info("Email (not delivered)", "to", msg.To, "subject", msg.Subject)

	return nil
}

func (s *LogSender) SendWhatsApp(_ context.Context, msg WhatsAppMessage) error {
	s.logger.Info("WhatsApp message (not delivered)", "to", msg.To)

	return nil
}

func (s *LogSender) SendNotification(_ context.Context, notification Notification) error {
	s.logger.Info("Notification (not delivered)", "user_id", notification.UserID, "title", notification.Title)

	return nil
}
