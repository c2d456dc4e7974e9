package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Bus wraps the Redis connection shared by the consumer, worker and API.
// Pub/sub topics are at-most-once broadcast; the worldgen queue is a
// persistent list reordered at consumption time by the processor.
type Bus struct {
	rdb *redis.Client
}

// New connects to Redis using a redis:// URL.
func New(url string) (*Bus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse bus url: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping bus: %w", err)
	}
	return &Bus{rdb: rdb}, nil
}

func (b *Bus) Close() error { return b.rdb.Close() }

// Publish marshals v as JSON and publishes it on the topic. Fire-and-forget
// semantics: subscribers that are not listening miss the message.
func (b *Bus) Publish(ctx context.Context, topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	if err := b.rdb.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe opens a pub/sub subscription on the topic. The caller ranges
// over Channel() and closes the subscription when done.
func (b *Bus) Subscribe(ctx context.Context, topic string) *redis.PubSub {
	return b.rdb.Subscribe(ctx, topic)
}

// Queue returns the shared worldgen job queue.
func (b *Bus) Queue() *Queue {
	return &Queue{rdb: b.rdb, key: QueueWorldgen}
}

// Codes returns the link-code store.
func (b *Bus) Codes() *CodeStore {
	return &CodeStore{rdb: b.rdb}
}

// Presence returns the player presence tracker.
func (b *Bus) Presence() *Presence {
	return &Presence{bus: b, rdb: b.rdb}
}
