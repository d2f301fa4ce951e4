package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/rosca_app/internal/adapters/events"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/SscSPs/rosca_app/internal/utils"
	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	captured []posthog.Capture
}

func (s *captureSink) Enqueue(m posthog.Message) error {
	if c, ok := m.(posthog.Capture); ok {
		s.captured = append(s.captured, c)
	}
	return nil
}

func (s *captureSink) Close() error { return nil }

type stubNotifier struct {
	err    error
	events []domain.GroupEvent
}

func (s *stubNotifier) Publish(_ context.Context, event domain.GroupEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func payoutEvent() domain.GroupEvent {
	return domain.GroupEvent{
		Type:        domain.AuditPayoutCompleted,
		GroupID:     "g1",
		ActorID:     "system",
		RoundNumber: 2,
		Data:        map[string]any{"amount": int64(30000)},
		OccurredAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPosthogNotifier_Publish(t *testing.T) {
	sink := &captureSink{}
	n := events.NewPosthogNotifier(utils.NewPosthogClientWrapper(sink, slog.Default()))

	require.NoError(t, n.Publish(context.Background(), payoutEvent()))

	require.Len(t, sink.captured, 1)
	c := sink.captured[0]
	assert.Equal(t, "system", c.DistinctId)
	assert.Equal(t, "rosca_payout_completed", c.Event)
	assert.Equal(t, "g1", c.Properties["group_id"])
	assert.Equal(t, 2, c.Properties["round_number"])
	assert.Equal(t, int64(30000), c.Properties["amount"])
}

func TestPosthogNotifier_DisabledClientIsNoop(t *testing.T) {
	n := events.NewPosthogNotifier(&utils.PosthogClientWrapper{})
	assert.NoError(t, n.Publish(context.Background(), payoutEvent()))
}

func TestFanout_PublishesToAllAndJoinsErrors(t *testing.T) {
	failing := &stubNotifier{err: errors.New("broker down")}
	ok := &stubNotifier{}
	f := events.Fanout{failing, ok, events.LogNotifier{}}

	err := f.Publish(context.Background(), payoutEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)

	assert.NoError(t, events.Fanout{ok}.Publish(context.Background(), payoutEvent()))
}

func TestLogNotifier_WritesToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	require.NoError(t, events.LogNotifier{Logger: logger}.Publish(context.Background(), payoutEvent()))

	out := buf.String()
	assert.Contains(t, out, `"msg":"Group event"`)
	assert.Contains(t, out, `"type":"payout.completed"`)
}
