package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/bus"
	"github.com/nextlevelbuilder/guildforge/internal/jobs"
	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

// decodePayload parses the envelope payload. A payload that cannot be
// decoded can never succeed, so the error is Terminal.
func decodePayload[T any](env jobs.Envelope) (T, error) {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return p, Terminal{Err: fmt.Errorf("decode %s payload: %w", env.Type, err)}
	}
	return p, nil
}

// handle dispatches the envelope to its generator. Command-channel
// errors bubble up retryable; validation errors come back Terminal.
func (p *Processor) handle(ctx context.Context, env jobs.Envelope) error {
	switch env.Type {
	case store.JobCreateVillage:
		vp, err := decodePayload[jobs.VillagePayload](env)
		if err != nil {
			return err
		}
		return p.gen.Village(ctx, worldgen.VillageSpec{
			Name:         vp.Name,
			CenterX:      vp.CenterX,
			CenterZ:      vp.CenterZ,
			ChannelCount: vp.ChannelCount,
		})

	case store.JobCreateBuilding:
		bp, err := decodePayload[jobs.BuildingPayload](env)
		if err != nil {
			return err
		}
		if err := p.gen.Building(ctx, buildingSpec(bp)); err != nil {
			return err
		}
		bx, bz := p.gen.Layout().BuildingPlace(bp.CenterX, bp.CenterZ, bp.BuildingIndex)
		if err := p.stores.Channels.SetCoords(ctx, bp.ChannelID, bx, bz); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Terminal{Err: fmt.Errorf("channel %d vanished: %w", bp.ChannelID, err)}
			}
			return err
		}
		return nil

	case store.JobUpdateBuilding:
		bp, err := decodePayload[jobs.BuildingPayload](env)
		if err != nil {
			return err
		}
		var pin *worldgen.PinNote
		if bp.Pin != nil {
			pin = &worldgen.PinNote{Author: bp.Pin.Author, Content: bp.Pin.Content}
		}
		return p.gen.UpdateBuilding(ctx, buildingSpec(bp), pin)

	case store.JobArchiveBuilding:
		bp, err := decodePayload[jobs.BuildingPayload](env)
		if err != nil {
			return err
		}
		ch, err := p.stores.Channels.ByID(ctx, bp.ChannelID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		// a building that was never placed has nothing to deface
		if err != nil || ch.BuildingX == nil || ch.BuildingZ == nil {
			p.log.Info("archive skipped, building never materialised",
				"channelId", bp.ChannelID, "name", bp.Name)
			return nil
		}
		return p.gen.ArchiveBuilding(ctx, worldgen.ArchiveBuildingSpec{
			ExternalID:    bp.ExternalID,
			Name:          bp.Name,
			CenterX:       bp.CenterX,
			CenterZ:       bp.CenterZ,
			BuildingIndex: bp.BuildingIndex,
		})

	case store.JobArchiveVillage:
		vp, err := decodePayload[jobs.VillagePayload](env)
		if err != nil {
			return err
		}
		return p.gen.ArchiveVillage(ctx, vp.Name, vp.CenterX, vp.CenterZ, vp.ChannelCount)

	case store.JobCreateTrack:
		tp, err := decodePayload[jobs.TrackPayload](env)
		if err != nil {
			return err
		}
		return p.gen.Track(ctx, worldgen.TrackSpec{
			SourceName: tp.SourceName,
			SrcCenterX: tp.SrcCenterX,
			SrcCenterZ: tp.SrcCenterZ,
			DestName:   tp.DestName,
			DstCenterX: tp.DestCenterX,
			DstCenterZ: tp.DestCenterZ,
		})

	case store.JobCreateCrossroads:
		return p.gen.Crossroads(ctx)
	}
	return Terminal{Err: fmt.Errorf("unknown job type %q", env.Type)}
}

func buildingSpec(bp jobs.BuildingPayload) worldgen.BuildingSpec {
	return worldgen.BuildingSpec{
		ExternalID:    bp.ExternalID,
		Name:          bp.Name,
		CenterX:       bp.CenterX,
		CenterZ:       bp.CenterZ,
		BuildingIndex: bp.BuildingIndex,
		Topic:         bp.Topic,
		MemberCount:   bp.MemberCount,
	}
}

// postHooks runs the best-effort side effects of a completed job:
// marker upserts, the hub-and-spoke track follow-up, presence-gated
// chat broadcasts and the activity event. Failures here are logged,
// never retried.
func (p *Processor) postHooks(ctx context.Context, env jobs.Envelope) {
	switch env.Type {
	case store.JobCreateVillage:
		vp, err := decodePayload[jobs.VillagePayload](env)
		if err != nil {
			return
		}
		if err := p.plugin.UpsertVillageMarker(ctx, vp.ExternalID, vp.Name, vp.CenterX, vp.CenterZ); err != nil {
			p.log.Warn("village marker failed", "error", err)
		}
		p.enqueueHubTrack(ctx, vp)
		p.broadcast(ctx, env, fmt.Sprintf("A new village has risen: %s", vp.Name), vp.CenterX, vp.CenterZ)

	case store.JobCreateBuilding:
		bp, err := decodePayload[jobs.BuildingPayload](env)
		if err != nil {
			return
		}
		bx, bz := p.gen.Layout().BuildingPlace(bp.CenterX, bp.CenterZ, bp.BuildingIndex)
		if err := p.plugin.UpsertBuildingMarker(ctx, bp.ExternalID, "#"+bp.Name, bx, bz); err != nil {
			p.log.Warn("building marker failed", "error", err)
		}
		p.broadcast(ctx, env, fmt.Sprintf("New building: #%s", bp.Name), bx, bz)

	case store.JobArchiveVillage:
		vp, err := decodePayload[jobs.VillagePayload](env)
		if err != nil {
			return
		}
		if err := p.plugin.ArchiveVillageMarker(ctx, vp.ExternalID); err != nil {
			p.log.Warn("village marker archive failed", "error", err)
		}

	case store.JobArchiveBuilding:
		bp, err := decodePayload[jobs.BuildingPayload](env)
		if err != nil {
			return
		}
		if err := p.plugin.ArchiveBuildingMarker(ctx, bp.ExternalID); err != nil {
			p.log.Warn("building marker archive failed", "error", err)
		}

	case store.JobCreateCrossroads:
		if err := p.plugin.UpsertVillageMarker(ctx, "crossroads", "Crossroads", 0, 0); err != nil {
			p.log.Warn("crossroads marker failed", "error", err)
		}
		p.broadcast(ctx, env, "The Crossroads hub is open", 0, 0)
	}
}

// enqueueHubTrack pushes the follow-up CreateTrack to the hub after a
// village completes, unless the group was archived in the meantime.
func (p *Processor) enqueueHubTrack(ctx context.Context, vp jobs.VillagePayload) {
	if vp.GroupID != 0 {
		g, err := p.stores.Groups.ByID(ctx, vp.GroupID)
		if err != nil {
			p.log.Warn("track follow-up lookup failed", "groupId", vp.GroupID, "error", err)
			return
		}
		if g.IsArchived {
			p.log.Info("skipping track for archived group", "groupId", vp.GroupID)
			return
		}
	}

	payload := jobs.TrackPayload{
		SourceName: vp.Name,
		SrcCenterX: vp.CenterX,
		SrcCenterZ: vp.CenterZ,
		DestName:   "Crossroads",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("track payload marshal failed", "error", err)
		return
	}
	j := &store.GenerationJob{Type: store.JobCreateTrack, Payload: raw, Status: store.JobPending}
	if err := p.stores.Jobs.Create(ctx, j); err != nil {
		p.log.Error("track audit create failed", "error", err)
		return
	}
	env, err := jobs.Encode(j.ID, store.JobCreateTrack, payload)
	if err != nil {
		p.log.Error("track envelope encode failed", "error", err)
		return
	}
	if err := p.queue.Push(ctx, env); err != nil {
		p.log.Error("track push failed", "jobId", j.ID, "error", err)
		return
	}
	p.log.Info("track follow-up enqueued", "jobId", j.ID, "source", vp.Name)
}

// broadcast sends the in-game announcement when someone is online and
// always emits the activity event.
func (p *Processor) broadcast(ctx context.Context, env jobs.Envelope, text string, x, z int) {
	if p.presence.AnyOnline(ctx) {
		if err := p.gen.Announce(ctx, text, "gold"); err != nil {
			p.log.Warn("broadcast failed", "error", err)
		}
	}
	if p.pub == nil {
		return
	}
	ev := bus.ActivityEvent{
		EventType: "BuildCompleted",
		JobID:     env.JobID,
		JobType:   string(env.Type),
		Label:     text,
		X:         x,
		Z:         z,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.pub.Publish(ctx, bus.TopicActivity, ev); err != nil {
		p.log.Warn("activity publish failed", "error", err)
	}
}
