package bus

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

const presenceKey = "presence:online"

// Presence tracks how many players are online by consuming the plugin's
// player events. The worker uses it to skip tellraw broadcasts into an
// empty server.
type Presence struct {
	bus *Bus
	rdb *redis.Client
}

// Run subscribes to player events until the context is cancelled. The
// counter is clamped at zero; missed events (pub/sub is at-most-once)
// self-correct as players cycle.
func (p *Presence) Run(ctx context.Context) error {
	sub := p.bus.Subscribe(ctx, TopicPlayerEvents)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev PlayerEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("presence.decode", "error", err)
				continue
			}
			switch ev.EventType {
			case EventPlayerJoined:
				p.rdb.Incr(ctx, presenceKey)
			case EventPlayerLeft:
				if n, err := p.rdb.Decr(ctx, presenceKey).Result(); err == nil && n < 0 {
					p.rdb.Set(ctx, presenceKey, 0, 0)
				}
			default:
				slog.Warn("presence.unknown_event", "type", ev.EventType)
			}
		}
	}
}

// AnyOnline reports whether at least one player is connected. Errors are
// treated as "someone may be online" so broadcasts are not silently lost.
func (p *Presence) AnyOnline(ctx context.Context) bool {
	n, err := p.rdb.Get(ctx, presenceKey).Int64()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		return true
	}
	return n > 0
}
