package events

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
)

// LogNotifier writes events to the log. It is used when no broker is configured.
// A nil Logger uses slog.Default.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ portsrepo.Notifier = LogNotifier{}

// Publish logs the event at debug level.
func (n LogNotifier) Publish(_ context.Context, event domain.GroupEvent) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Group event",
		slog.String("type", event.Type),
		slog.String("group_id", event.GroupID),
		slog.String("actor_id", event.ActorID),
		slog.Int("round_number", event.RoundNumber))
	return nil
}
