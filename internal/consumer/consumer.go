// Package consumer turns chat events into catalogue mutations and
// world-generation job enqueues.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/guildforge/internal/bus"
	"github.com/nextlevelbuilder/guildforge/internal/jobs"
	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

// jobQueue is the slice of the bus queue the consumer needs.
type jobQueue interface {
	Push(ctx context.Context, envelope string) error
}

// maxCellRetries bounds how many stale grid cells group creation skips
// before giving up.
const maxCellRetries = 8

// Consumer applies chat events to the catalogue and enqueues the jobs
// that materialise them in-world. Every message runs independently; a
// failure is logged and the loop continues.
type Consumer struct {
	stores store.Stores
	queue  jobQueue
	l      worldgen.Layout
	log    *slog.Logger
}

// New creates a Consumer.
func New(stores store.Stores, queue jobQueue, l worldgen.Layout, log *slog.Logger) *Consumer {
	return &Consumer{stores: stores, queue: queue, l: l, log: log}
}

// Run subscribes to the channel-event topic and processes messages until
// the context is cancelled.
func (c *Consumer) Run(ctx context.Context, b *bus.Bus) error {
	sub := b.Subscribe(ctx, bus.TopicChannelEvents)
	defer sub.Close()

	ch := sub.Channel()
	c.log.Info("consumer started", "topic", bus.TopicChannelEvents)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("consumer subscription closed")
			}
			var ev bus.ChannelEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				c.log.Error("bad channel event", "error", err)
				continue
			}
			if err := c.Handle(ctx, ev); err != nil {
				c.log.Error("event failed", "eventType", ev.EventType, "error", err)
			}
		}
	}
}

// Handle dispatches one event. Unknown event types are logged and
// dropped; delivery is unordered, so channel events may arrive before
// their group's.
func (c *Consumer) Handle(ctx context.Context, ev bus.ChannelEvent) error {
	switch ev.EventType {
	case bus.EventGroupCreated:
		_, err := c.ensureGroup(ctx, ev)
		return err
	case bus.EventGroupDeleted:
		return c.groupDeleted(ctx, ev)
	case bus.EventChannelCreated:
		return c.channelCreated(ctx, ev)
	case bus.EventChannelDeleted:
		return c.channelDeleted(ctx, ev)
	case bus.EventChannelUpdated:
		return c.channelUpdated(ctx, ev)
	default:
		c.log.Warn("unknown event type dropped", "eventType", ev.EventType)
		return nil
	}
}

// ensureGroup upserts a group by external ID and enqueues its
// CreateVillage job when the row is new or resurrected. ChannelCreated
// calls this too, to absorb out-of-order delivery.
func (c *Consumer) ensureGroup(ctx context.Context, ev bus.ChannelEvent) (*store.Group, error) {
	g, err := c.stores.Groups.ByExternalID(ctx, ev.GroupExternalID)
	switch {
	case err == nil:
		changed := false
		if ev.GroupName != "" && g.Name != ev.GroupName {
			g.Name = ev.GroupName
			changed = true
		}
		if ev.Position != 0 && g.Position != ev.Position {
			g.Position = ev.Position
			changed = true
		}
		if changed {
			if err := c.stores.Groups.Update(ctx, g); err != nil {
				return nil, fmt.Errorf("update group %s: %w", ev.GroupExternalID, err)
			}
		}
		if g.IsArchived {
			// a re-created external ID reuses its row and its grid cell
			if err := c.stores.Groups.Unarchive(ctx, g.ID); err != nil {
				return nil, fmt.Errorf("unarchive group %s: %w", ev.GroupExternalID, err)
			}
			g.IsArchived = false
			if err := c.enqueueVillage(ctx, store.JobCreateVillage, g, 0); err != nil {
				return nil, err
			}
		}
		return g, nil
	case errors.Is(err, store.ErrNotFound):
		// fall through to create
	default:
		return nil, fmt.Errorf("lookup group %s: %w", ev.GroupExternalID, err)
	}

	idx, err := c.stores.Groups.NextVillageIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("next village index: %w", err)
	}
	name := ev.GroupName
	if name == "" {
		name = ev.GroupExternalID
	}
	for attempt := 0; attempt < maxCellRetries; attempt++ {
		cx, cz := c.l.GridAssign(idx)
		g = &store.Group{
			ExternalID:   ev.GroupExternalID,
			GuildID:      ev.GuildID,
			Name:         name,
			Position:     ev.Position,
			VillageIndex: idx,
			CenterX:      cx,
			CenterZ:      cz,
		}
		err := c.stores.Groups.Create(ctx, g)
		if err == nil {
			if err := c.enqueueVillage(ctx, store.JobCreateVillage, g, 0); err != nil {
				return nil, err
			}
			return g, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return nil, fmt.Errorf("create group %s: %w", ev.GroupExternalID, err)
		}
		// two distinct unique constraints can fire here: the external id
		// (duplicate delivery, a concurrent writer wins the row) or the
		// grid cell (a stale index). Re-read settles the first; the
		// second moves on to the next cell.
		if existing, readErr := c.stores.Groups.ByExternalID(ctx, ev.GroupExternalID); readErr == nil {
			return existing, nil
		}
		idx++
	}
	return nil, fmt.Errorf("assign grid cell for group %s: no free cell in %d attempts",
		ev.GroupExternalID, maxCellRetries)
}

func (c *Consumer) groupDeleted(ctx context.Context, ev bus.ChannelEvent) error {
	g, err := c.stores.Groups.ByExternalID(ctx, ev.GroupExternalID)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Warn("delete for unknown group", "externalId", ev.GroupExternalID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup group %s: %w", ev.GroupExternalID, err)
	}
	if g.IsArchived {
		return nil
	}

	// capture the children before the cascade flips them
	channels, err := c.stores.Channels.ListByGroup(ctx, g.ID, false)
	if err != nil {
		return fmt.Errorf("list channels of group %d: %w", g.ID, err)
	}
	if err := c.stores.Groups.Archive(ctx, g.ID); err != nil {
		return fmt.Errorf("archive group %d: %w", g.ID, err)
	}

	if err := c.enqueueVillage(ctx, store.JobArchiveVillage, g, len(channels)); err != nil {
		return err
	}
	for i := range channels {
		if err := c.enqueueBuilding(ctx, store.JobArchiveBuilding, g, &channels[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) channelCreated(ctx context.Context, ev bus.ChannelEvent) error {
	g, err := c.ensureGroup(ctx, ev)
	if err != nil {
		return err
	}

	ch, err := c.stores.Channels.ByExternalID(ctx, ev.ChannelExternalID)
	switch {
	case err == nil:
		if !ch.IsArchived {
			return nil // duplicate delivery
		}
		if err := c.stores.Channels.Unarchive(ctx, ch.ID); err != nil {
			return fmt.Errorf("unarchive channel %s: %w", ev.ChannelExternalID, err)
		}
		return c.enqueueBuilding(ctx, store.JobCreateBuilding, g, ch)
	case errors.Is(err, store.ErrNotFound):
		// fall through to create
	default:
		return fmt.Errorf("lookup channel %s: %w", ev.ChannelExternalID, err)
	}

	idx, err := c.stores.Channels.NextBuildingIndex(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("next building index: %w", err)
	}
	ch = &store.Channel{
		ExternalID:    ev.ChannelExternalID,
		GroupID:       g.ID,
		Name:          ev.ChannelName,
		Topic:         ev.Topic,
		MemberCount:   ev.MemberCount,
		Position:      ev.Position,
		BuildingIndex: idx,
	}
	if err := c.stores.Channels.Create(ctx, ch); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil // duplicate delivery
		}
		return fmt.Errorf("create channel %s: %w", ev.ChannelExternalID, err)
	}
	return c.enqueueBuilding(ctx, store.JobCreateBuilding, g, ch)
}

func (c *Consumer) channelDeleted(ctx context.Context, ev bus.ChannelEvent) error {
	ch, err := c.stores.Channels.ByExternalID(ctx, ev.ChannelExternalID)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Warn("delete for unknown channel", "externalId", ev.ChannelExternalID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup channel %s: %w", ev.ChannelExternalID, err)
	}
	if ch.IsArchived {
		return nil
	}
	g, err := c.stores.Groups.ByID(ctx, ch.GroupID)
	if err != nil {
		return fmt.Errorf("lookup group %d: %w", ch.GroupID, err)
	}
	if err := c.stores.Channels.Archive(ctx, ch.ID); err != nil {
		return fmt.Errorf("archive channel %d: %w", ch.ID, err)
	}
	return c.enqueueBuilding(ctx, store.JobArchiveBuilding, g, ch)
}

// channelUpdated propagates name and topic only. Position shifts never
// re-shuffle the building index.
func (c *Consumer) channelUpdated(ctx context.Context, ev bus.ChannelEvent) error {
	ch, err := c.stores.Channels.ByExternalID(ctx, ev.ChannelExternalID)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Warn("update for unknown channel", "externalId", ev.ChannelExternalID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup channel %s: %w", ev.ChannelExternalID, err)
	}

	changed := false
	if ev.ChannelName != "" && ch.Name != ev.ChannelName {
		ch.Name = ev.ChannelName
		changed = true
	}
	if ev.Topic != "" && ch.Topic != ev.Topic {
		ch.Topic = ev.Topic
		changed = true
	}
	if !changed || ch.IsArchived {
		return nil
	}
	if err := c.stores.Channels.Update(ctx, ch); err != nil {
		return fmt.Errorf("update channel %d: %w", ch.ID, err)
	}

	g, err := c.stores.Groups.ByID(ctx, ch.GroupID)
	if err != nil {
		return fmt.Errorf("lookup group %d: %w", ch.GroupID, err)
	}
	return c.enqueueBuilding(ctx, store.JobUpdateBuilding, g, ch)
}

func (c *Consumer) enqueueVillage(ctx context.Context, t store.JobType, g *store.Group, channelCount int) error {
	return c.enqueue(ctx, t, jobs.VillagePayload{
		GroupID:      g.ID,
		ExternalID:   g.ExternalID,
		Name:         g.Name,
		CenterX:      g.CenterX,
		CenterZ:      g.CenterZ,
		ChannelCount: channelCount,
	})
}

func (c *Consumer) enqueueBuilding(ctx context.Context, t store.JobType, g *store.Group, ch *store.Channel) error {
	return c.enqueue(ctx, t, jobs.BuildingPayload{
		ChannelID:     ch.ID,
		ExternalID:    ch.ExternalID,
		Name:          ch.Name,
		CenterX:       g.CenterX,
		CenterZ:       g.CenterZ,
		BuildingIndex: ch.BuildingIndex,
		Topic:         ch.Topic,
		MemberCount:   ch.MemberCount,
	})
}

// EnqueuePin relays a pinned chat message onto the building's interior
// signage through an UpdateBuilding job. Called by the query API.
func (c *Consumer) EnqueuePin(ctx context.Context, g *store.Group, ch *store.Channel, pin jobs.Pin) error {
	return c.enqueue(ctx, store.JobUpdateBuilding, jobs.BuildingPayload{
		ChannelID:     ch.ID,
		ExternalID:    ch.ExternalID,
		Name:          ch.Name,
		CenterX:       g.CenterX,
		CenterZ:       g.CenterZ,
		BuildingIndex: ch.BuildingIndex,
		Topic:         ch.Topic,
		MemberCount:   ch.MemberCount,
		Pin:           &pin,
	})
}

// enqueue writes the Pending audit row, then pushes the envelope. The
// audit row is the durable record; a push failure leaves it Pending for
// the sync endpoint to re-drive.
func (c *Consumer) enqueue(ctx context.Context, t store.JobType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", t, err)
	}
	j := &store.GenerationJob{Type: t, Payload: raw, Status: store.JobPending}
	if err := c.stores.Jobs.Create(ctx, j); err != nil {
		return fmt.Errorf("create %s audit: %w", t, err)
	}
	env, err := jobs.Encode(j.ID, t, payload)
	if err != nil {
		return err
	}
	if err := c.queue.Push(ctx, env); err != nil {
		return fmt.Errorf("push %s job %d: %w", t, j.ID, err)
	}
	c.log.Info("job enqueued", "type", t, "jobId", j.ID)
	return nil
}
