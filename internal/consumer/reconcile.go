package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/nextlevelbuilder/guildforge/internal/bus"
	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// GuildSnapshot is the bulk-sync input: the full current shape of a
// guild's categories and channels, as seen by the chat platform.
type GuildSnapshot struct {
	GuildID string          `json:"guildId"`
	Groups  []GroupSnapshot `json:"groups"`
}

// GroupSnapshot is one category and its channels.
type GroupSnapshot struct {
	ExternalID string            `json:"externalId"`
	Name       string            `json:"name"`
	Position   int               `json:"position"`
	Channels   []ChannelSnapshot `json:"channels"`
}

// ChannelSnapshot is one text channel.
type ChannelSnapshot struct {
	ExternalID  string `json:"externalId"`
	Name        string `json:"name"`
	Topic       string `json:"topic,omitempty"`
	Position    int    `json:"position"`
	MemberCount int    `json:"memberCount,omitempty"`
}

// SyncResult reports what a reconcile pass did.
type SyncResult struct {
	GroupsCreated   int `json:"groupsCreated"`
	GroupsUpdated   int `json:"groupsUpdated"`
	ChannelsCreated int `json:"channelsCreated"`
	ChannelsUpdated int `json:"channelsUpdated"`
}

// Sync reconciles a guild snapshot against the catalogue: missing rows
// are created (with their world-gen jobs), existing rows get name and
// topic refreshed without re-enqueueing. Running it twice is a no-op the
// second time.
func (c *Consumer) Sync(ctx context.Context, snap GuildSnapshot) (SyncResult, error) {
	var res SyncResult
	for _, gs := range snap.Groups {
		g, created, err := c.syncGroup(ctx, snap.GuildID, gs)
		if err != nil {
			return res, err
		}
		if created {
			res.GroupsCreated++
		} else {
			res.GroupsUpdated++
		}
		for _, cs := range gs.Channels {
			chCreated, err := c.syncChannel(ctx, g, cs)
			if err != nil {
				return res, err
			}
			if chCreated {
				res.ChannelsCreated++
			} else {
				res.ChannelsUpdated++
			}
		}
	}
	return res, nil
}

func (c *Consumer) syncGroup(ctx context.Context, guildID string, gs GroupSnapshot) (*store.Group, bool, error) {
	_, err := c.stores.Groups.ByExternalID(ctx, gs.ExternalID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("sync group %s: %w", gs.ExternalID, err)
	}
	created := errors.Is(err, store.ErrNotFound)

	g, err := c.ensureGroup(ctx, bus.ChannelEvent{
		EventType:       bus.EventGroupCreated,
		GuildID:         guildID,
		GroupExternalID: gs.ExternalID,
		GroupName:       gs.Name,
		Position:        gs.Position,
	})
	if err != nil {
		return nil, false, err
	}
	return g, created, nil
}

func (c *Consumer) syncChannel(ctx context.Context, g *store.Group, cs ChannelSnapshot) (bool, error) {
	ch, err := c.stores.Channels.ByExternalID(ctx, cs.ExternalID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		err := c.channelCreated(ctx, bus.ChannelEvent{
			EventType:         bus.EventChannelCreated,
			GroupExternalID:   g.ExternalID,
			ChannelExternalID: cs.ExternalID,
			ChannelName:       cs.Name,
			Topic:             cs.Topic,
			Position:          cs.Position,
			MemberCount:       cs.MemberCount,
		})
		return true, err
	case err != nil:
		return false, fmt.Errorf("sync channel %s: %w", cs.ExternalID, err)
	}

	// existing row: refresh name and topic only, no job
	changed := false
	if cs.Name != "" && ch.Name != cs.Name {
		ch.Name = cs.Name
		changed = true
	}
	if ch.Topic != cs.Topic {
		ch.Topic = cs.Topic
		changed = true
	}
	if cs.MemberCount != 0 && ch.MemberCount != cs.MemberCount {
		ch.MemberCount = cs.MemberCount
		changed = true
	}
	if changed {
		if err := c.stores.Channels.Update(ctx, ch); err != nil {
			return false, fmt.Errorf("sync update channel %d: %w", ch.ID, err)
		}
	}
	return false, nil
}
