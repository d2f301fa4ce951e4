// Package events publishes group domain events to subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/nats-io/nats.go"
)

// NatsConfig configures the NATS connection.
type NatsConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NatsNotifier publishes each event on "<prefix>.<event type>", e.g.
// "rosca.events.payout.completed". Subscribers may use wildcards.
type NatsNotifier struct {
	conn   *nats.Conn
	prefix string
}

// NewNatsNotifier connects to NATS.
func NewNatsNotifier(cfg NatsConfig, logger *slog.Logger) (*NatsNotifier, error) {
	opts := []nats.Option{
		nats.Name("rosca-backend"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsNotifier{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

var _ portsrepo.Notifier = (*NatsNotifier)(nil)

// Subject returns the subject an event type is published on.
func (n *NatsNotifier) Subject(eventType string) string {
	return n.prefix + "." + eventType
}

// Publish encodes the event as JSON and publishes it.
func (n *NatsNotifier) Publish(_ context.Context, event domain.GroupEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := n.conn.Publish(n.Subject(event.Type), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Ping reports whether the connection is usable. Used by the health check.
func (n *NatsNotifier) Ping(_ context.Context) error {
	if !n.conn.IsConnected() {
		return fmt.Errorf("nats connection status %s", n.conn.Status())
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NatsNotifier) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
