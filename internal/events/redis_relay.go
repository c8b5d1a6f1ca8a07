package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher is the subset of *redis.Client the relay needs.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay forwards dispatched events to a Redis pub/sub channel as JSON so that other
// processes can follow the workflow.
type RedisRelay struct {
	client  RedisPublisher
	channel string
}

// NewRedisRelay builds a relay publishing on channel.
func NewRedisRelay(client RedisPublisher, channel string) *RedisRelay {
	return &RedisRelay{client: client, channel: channel}
}

// Attach subscribes the relay to every workflow event on d.
func (r *RedisRelay) Attach(d Dispatcher) {
	SubscribeAll(d, r.Forward)
}

// Forward publishes a single event.
func (r *RedisRelay) Forward(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}
