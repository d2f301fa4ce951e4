package events

import (
	"context"
	"strings"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/SscSPs/rosca_app/internal/utils"
)

// PosthogNotifier forwards group events to product analytics. The actor is
// the distinct id, so scheduler driven events are attributed to "system".
type PosthogNotifier struct {
	client *utils.PosthogClientWrapper
}

var _ portsrepo.Notifier = (*PosthogNotifier)(nil)

func NewPosthogNotifier(client *utils.PosthogClientWrapper) *PosthogNotifier {
	return &PosthogNotifier{client: client}
}

// EventName maps "payout.completed" to "rosca_payout_completed".
func (n *PosthogNotifier) EventName(eventType string) string {
	return "rosca_" + strings.ReplaceAll(eventType, ".", "_")
}

func (n *PosthogNotifier) Publish(_ context.Context, event domain.GroupEvent) error {
	props := make(map[string]any, len(event.Data)+2)
	for k, v := range event.Data {
		props[k] = v
	}
	props["group_id"] = event.GroupID
	if event.RoundNumber > 0 {
		props["round_number"] = event.RoundNumber
	}
	n.client.Enqueue(event.ActorID, n.EventName(event.Type), props)
	return nil
}
