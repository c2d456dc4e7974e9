package bus

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Queue is the shared worldgen job list. Any number of processors may
// consume it concurrently; TakeAt provides atomic "take" semantics via the
// sentinel-swap pattern (LSET a unique sentinel over the slot, LREM the
// sentinel), so each envelope is removed exactly once.
type Queue struct {
	rdb *redis.Client
	key string
}

// takeScript guards the swap: the slot must still hold the value the
// processor read during scoring, otherwise another worker won the race.
var takeScript = redis.NewScript(`
if redis.call('LINDEX', KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call('LSET', KEYS[1], ARGV[1], ARGV[3])
	redis.call('LREM', KEYS[1], 1, ARGV[3])
	return 1
end
return 0
`)

// Push appends an envelope to the tail of the queue.
func (q *Queue) Push(ctx context.Context, envelope string) error {
	if err := q.rdb.RPush(ctx, q.key, envelope).Err(); err != nil {
		return fmt.Errorf("queue push: %w", err)
	}
	return nil
}

// PushFront inserts an envelope at the head of the queue. Used for the
// one-shot Crossroads bootstrap, which must run before any village job.
func (q *Queue) PushFront(ctx context.Context, envelope string) error {
	if err := q.rdb.LPush(ctx, q.key, envelope).Err(); err != nil {
		return fmt.Errorf("queue push front: %w", err)
	}
	return nil
}

// Snapshot reads the whole list. The processor scores this snapshot and
// then takes exactly one element with TakeAt.
func (q *Queue) Snapshot(ctx context.Context) ([]string, error) {
	vals, err := q.rdb.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("queue snapshot: %w", err)
	}
	return vals, nil
}

// TakeAt removes the element at index if it still equals expected.
// Returns false when another consumer won the race; the caller re-reads.
func (q *Queue) TakeAt(ctx context.Context, index int, expected string) (bool, error) {
	sentinel := "taken:" + uuid.NewString()
	n, err := takeScript.Run(ctx, q.rdb, []string{q.key}, index, expected, sentinel).Int()
	if err != nil {
		return false, fmt.Errorf("queue take: %w", err)
	}
	return n == 1, nil
}

// Len returns the queue depth. Operators watch this; there is no shedding.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue len: %w", err)
	}
	return n, nil
}
