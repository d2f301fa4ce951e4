package events

import (
	"context"
	"errors"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
)

// Fanout publishes every event to each notifier in order. A failing notifier
// does not stop the others; their errors are joined.
type Fanout []portsrepo.Notifier

var _ portsrepo.Notifier = Fanout(nil)

func (f Fanout) Publish(ctx context.Context, event domain.GroupEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
