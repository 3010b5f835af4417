// Package notify is the boundary to the (external) notification system.
// Delivery is fire-and-forget: a failed send is logged by the caller and
// never blocks an auth flow.
package notify

import (
	"context"
	"log/slog"

	"github.com/taskhive/taskhive-backend/internal/domain"
)

type Notifier interface {
	Send(ctx context.Context, recipient, token string, purpose domain.TokenPurpose) error
}

// LogNotifier writes would-be notifications to the log. Stands in for the
// real mailer in development and tests.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, recipient, token string, purpose domain.TokenPurpose) error {
	n.log.InfoContext(ctx, "notification",
		"recipient", recipient,
		"purpose", string(purpose),
		"token", token,
	)
	return nil
}
