package notify

import (
	"context"
	"log/slog"
)

// LogSender is an EmailSender that only logs the outgoing message. It backs
// dry-run invocations and local development, where no mail collaborator is
// wired up.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger.With(slog.String("component", "log_sender"))}
}

var _ EmailSender = (*LogSender)(nil)

// Send implements EmailSender by logging the message instead of sending it.
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.Info("email (not sent)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)))
	return nil
}
