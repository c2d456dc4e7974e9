// Package worker drains the worldgen queue and materialises jobs through
// the serialized game-server command channel. Exactly one processor runs
// per game-server instance; the queue key is the sharding unit if
// horizontal scaling is ever needed.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/jobs"
	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

const (
	maxAttempts = 3
	idleSleep   = 500 * time.Millisecond
	backoffBase = 2 * time.Second
)

// Terminal wraps an error that must not be retried: validation failures,
// missing referenced rows, undecodable payloads. Everything else is
// treated as transient.
type Terminal struct {
	Err error
}

func (t Terminal) Error() string { return t.Err.Error() }
func (t Terminal) Unwrap() error { return t.Err }

// IsTerminal reports whether err carries a Terminal marker anywhere in
// its chain.
func IsTerminal(err error) bool {
	var t Terminal
	return errors.As(err, &t)
}

// jobQueue is the slice of the bus queue the processor needs.
type jobQueue interface {
	Snapshot(ctx context.Context) ([]string, error)
	TakeAt(ctx context.Context, index int, expected string) (bool, error)
	Push(ctx context.Context, envelope string) error
	PushFront(ctx context.Context, envelope string) error
}

// presence reports whether anyone is online, gating broadcasts.
type presence interface {
	AnyOnline(ctx context.Context) bool
}

// publisher emits best-effort activity events.
type publisher interface {
	Publish(ctx context.Context, topic string, v any) error
}

// Processor pops the pending job closest to world spawn, dispatches it,
// and writes the audit trail. Failed jobs are retried up to three
// attempts with 2/4/8 second backoff unless the error is Terminal.
type Processor struct {
	stores   store.Stores
	queue    jobQueue
	gen      *worldgen.Generator
	plugin   markerClient
	presence presence
	pub      publisher
	log      *slog.Logger

	// test seams
	idle    time.Duration
	backoff func(attempt int) time.Duration
}

// markerClient is the best-effort plugin surface the processor calls
// after successful jobs.
type markerClient interface {
	UpsertVillageMarker(ctx context.Context, id, label string, x, z int) error
	UpsertBuildingMarker(ctx context.Context, id, label string, x, z int) error
	ArchiveVillageMarker(ctx context.Context, id string) error
	ArchiveBuildingMarker(ctx context.Context, id string) error
}

// New creates a Processor.
func New(stores store.Stores, queue jobQueue, gen *worldgen.Generator, plugin markerClient, pres presence, pub publisher, log *slog.Logger) *Processor {
	return &Processor{
		stores:   stores,
		queue:    queue,
		gen:      gen,
		plugin:   plugin,
		presence: pres,
		pub:      pub,
		log:      log,
		idle:     idleSleep,
		backoff: func(attempt int) time.Duration {
			return backoffBase << (attempt - 1) // 2s, 4s, 8s
		},
	}
}

// Run reconciles dangling work, bootstraps the hub if needed, then loops
// until the context is cancelled. Shutdown is observed between envelopes;
// a job in flight finishes its current command batch.
func (p *Processor) Run(ctx context.Context) error {
	if err := p.reconcileDangling(ctx); err != nil {
		p.log.Error("startup reconciliation failed", "error", err)
	}
	if err := p.bootstrapCrossroads(ctx); err != nil {
		p.log.Error("crossroads bootstrap failed", "error", err)
	}

	p.log.Info("job processor started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		worked, err := p.Step(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.log.Error("processor pass failed", "error", err)
		}
		if !worked {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.idle):
			}
		}
	}
}

// Step performs one scheduling pass: snapshot, score, take, dispatch.
// It reports whether an envelope was processed.
func (p *Processor) Step(ctx context.Context) (bool, error) {
	snapshot, err := p.queue.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	if len(snapshot) == 0 {
		return false, nil
	}

	idx, env, ok := p.pick(snapshot)
	if !ok {
		// nothing decodable; drop the head so the queue cannot wedge
		if taken, err := p.queue.TakeAt(ctx, 0, snapshot[0]); err != nil || !taken {
			return false, err
		}
		p.log.Error("dropped undecodable envelope", "raw", snapshot[0])
		return true, nil
	}

	taken, err := p.queue.TakeAt(ctx, idx, snapshot[idx])
	if err != nil {
		return false, err
	}
	if !taken {
		return false, nil // another worker won; re-read next pass
	}

	p.dispatch(ctx, env)
	return true, nil
}

// pick scores every decodable envelope by Euclidean distance from world
// origin and returns the closest. CreateCrossroads always scores zero.
func (p *Processor) pick(snapshot []string) (int, jobs.Envelope, bool) {
	best := -1
	var bestEnv jobs.Envelope
	bestDist := math.Inf(1)
	for i, raw := range snapshot {
		env, err := jobs.Decode(raw)
		if err != nil {
			continue
		}
		x, z, err := env.Center(p.gen.Layout())
		if err != nil {
			continue
		}
		d := math.Hypot(float64(x), float64(z))
		if d < bestDist {
			best, bestEnv, bestDist = i, env, d
		}
	}
	if best < 0 {
		return 0, jobs.Envelope{}, false
	}
	return best, bestEnv, true
}

// dispatch runs one envelope through its handler and settles the audit
// row. Retryable failures re-enter the queue after backoff.
func (p *Processor) dispatch(ctx context.Context, env jobs.Envelope) {
	attempts, err := p.stores.Jobs.MarkInProgress(ctx, env.JobID)
	if err != nil {
		p.log.Error("mark in-progress failed", "jobId", env.JobID, "error", err)
		return
	}
	log := p.log.With("jobId", env.JobID, "type", env.Type, "attempt", attempts)
	log.Info("job started")

	handleErr := p.handle(ctx, env)
	if handleErr == nil {
		if err := p.stores.Jobs.Complete(ctx, env.JobID); err != nil {
			log.Error("complete failed", "error", err)
		}
		log.Info("job completed")
		p.postHooks(ctx, env)
		return
	}

	if IsTerminal(handleErr) || attempts >= maxAttempts {
		log.Error("job failed", "error", handleErr, "terminal", IsTerminal(handleErr))
		if err := p.stores.Jobs.Fail(ctx, env.JobID, handleErr.Error()); err != nil {
			log.Error("fail update failed", "error", err)
		}
		return
	}

	log.Warn("job retrying", "error", handleErr)
	if err := p.stores.Jobs.Requeue(ctx, env.JobID, handleErr.Error()); err != nil {
		log.Error("requeue update failed", "error", err)
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(p.backoff(attempts)):
	}
	raw, err := jobs.Encode(env.JobID, env.Type, env.Payload)
	if err != nil {
		log.Error("re-encode failed", "error", err)
		return
	}
	if err := p.queue.Push(ctx, raw); err != nil {
		log.Error("re-push failed", "error", err)
	}
}

// reconcileDangling flips InProgress rows left by a dead worker back to
// Pending and re-pushes their envelopes.
func (p *Processor) reconcileDangling(ctx context.Context) error {
	dangling, err := p.stores.Jobs.ResetDangling(ctx)
	if err != nil {
		return err
	}
	for _, j := range dangling {
		env, err := jobs.Encode(j.ID, j.Type, json.RawMessage(j.Payload))
		if err != nil {
			p.log.Error("dangling re-encode failed", "jobId", j.ID, "error", err)
			continue
		}
		if err := p.queue.Push(ctx, env); err != nil {
			return err
		}
		p.log.Warn("requeued dangling job", "jobId", j.ID, "type", j.Type)
	}
	return nil
}

// bootstrapCrossroads enqueues the one-shot hub build at the head of the
// queue unless a completed run already exists.
func (p *Processor) bootstrapCrossroads(ctx context.Context) error {
	done, err := p.stores.Jobs.HasCompleted(ctx, store.JobCreateCrossroads)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	payload := jobs.CrossroadsPayload{}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	j := &store.GenerationJob{Type: store.JobCreateCrossroads, Payload: raw, Status: store.JobPending}
	if err := p.stores.Jobs.Create(ctx, j); err != nil {
		return err
	}
	env, err := jobs.Encode(j.ID, store.JobCreateCrossroads, payload)
	if err != nil {
		return err
	}
	p.log.Info("enqueueing crossroads bootstrap", "jobId", j.ID)
	return p.queue.PushFront(ctx, env)
}
