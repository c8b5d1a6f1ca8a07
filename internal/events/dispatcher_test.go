package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	channel  string
	messages [][]byte
	err      error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.channel = channel
	f.messages = append(f.messages, message.([]byte))
	cmd.SetVal(1)
	return cmd
}

func TestInMemoryDispatcher(t *testing.T) {
	t.Run("should invoke every handler even when one fails", func(t *testing.T) {
		d := NewInMemoryDispatcher()
		var calls int
		d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
			calls++
			return errors.New("boom")
		})
		d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
			calls++
			return nil
		})

		err := d.Publish(context.Background(), Event{Type: EventTicketCreated})

		assert.Error(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("should ignore events without subscribers", func(t *testing.T) {
		d := NewInMemoryDispatcher()
		assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketEscalated}))
	})

	t.Run("should deliver every workflow type to SubscribeAll handlers", func(t *testing.T) {
		d := NewInMemoryDispatcher()
		seen := map[EventType]bool{}
		SubscribeAll(d, func(_ context.Context, e Event) error {
			seen[e.Type] = true
			return nil
		})
		for _, eventType := range AllEventTypes {
			require.NoError(t, d.Publish(context.Background(), Event{Type: eventType}))
		}
		assert.Len(t, seen, len(AllEventTypes))
	})
}

func TestRedisRelay(t *testing.T) {
	t.Run("should publish events as json on the configured channel", func(t *testing.T) {
		pub := &fakePublisher{}
		d := NewInMemoryDispatcher()
		NewRedisRelay(pub, "ticket-events").Attach(d)

		event := Event{
			ID:        "evt-1",
			Type:      EventTicketAutoClosed,
			TicketID:  "t-1",
			Actor:     "AUTO_CLOSED",
			Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Payload:   TicketAutoClosedPayload{DaysThreshold: 7},
		}
		require.NoError(t, d.Publish(context.Background(), event))

		require.Len(t, pub.messages, 1)
		assert.Equal(t, "ticket-events", pub.channel)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(pub.messages[0], &decoded))
		assert.Equal(t, "ticket_auto_closed", decoded["type"])
		assert.Equal(t, "t-1", decoded["ticket_id"])
	})

	t.Run("should surface publish failures", func(t *testing.T) {
		pub := &fakePublisher{err: errors.New("connection refused")}
		err := NewRedisRelay(pub, "ticket-events").Forward(context.Background(), Event{ID: "evt-2"})
		assert.ErrorContains(t, err, "connection refused")
	})
}
