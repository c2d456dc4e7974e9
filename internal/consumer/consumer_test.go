package consumer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/nextlevelbuilder/guildforge/internal/bus"
	"github.com/nextlevelbuilder/guildforge/internal/config"
	"github.com/nextlevelbuilder/guildforge/internal/jobs"
	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/store/storetest"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

type pushRecorder struct {
	mu        sync.Mutex
	envelopes []string
}

func (r *pushRecorder) Push(ctx context.Context, envelope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envelopes = append(r.envelopes, envelope)
	return nil
}

func (r *pushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.envelopes)
}

func testConsumer(mem *storetest.Memory, q *pushRecorder) *Consumer {
	layout := worldgen.LayoutFrom(config.Default().World)
	return New(mem.Stores(), q, layout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func groupCreated(externalID, name string) bus.ChannelEvent {
	return bus.ChannelEvent{
		EventType:       bus.EventGroupCreated,
		GuildID:         "guild1",
		GroupExternalID: externalID,
		GroupName:       name,
	}
}

func channelCreated(groupExt, chanExt, name string) bus.ChannelEvent {
	return bus.ChannelEvent{
		EventType:         bus.EventChannelCreated,
		GuildID:           "guild1",
		GroupExternalID:   groupExt,
		GroupName:         "gaming",
		ChannelExternalID: chanExt,
		ChannelName:       name,
	}
}

func TestGroupCreatedAssignsGridCell(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	if err := c.Handle(ctx, groupCreated("cat1", "gaming")); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(ctx, groupCreated("cat2", "music")); err != nil {
		t.Fatal(err)
	}

	g1, err := mem.Stores().Groups.ByExternalID(ctx, "cat1")
	if err != nil {
		t.Fatal(err)
	}
	g2, err := mem.Stores().Groups.ByExternalID(ctx, "cat2")
	if err != nil {
		t.Fatal(err)
	}
	// cell (0,0) is the hub; the first village lands one cell east
	if g1.VillageIndex != 1 || g1.CenterX != 175 || g1.CenterZ != 0 {
		t.Errorf("first group = index %d at (%d, %d), want 1 at (175, 0)",
			g1.VillageIndex, g1.CenterX, g1.CenterZ)
	}
	if g2.VillageIndex != 2 {
		t.Errorf("second group index = %d, want 2", g2.VillageIndex)
	}
	if vj := mem.JobsByType(store.JobCreateVillage); len(vj) != 2 {
		t.Errorf("got %d CreateVillage jobs, want 2", len(vj))
	}
	if q.count() != 2 {
		t.Errorf("pushed %d envelopes, want 2", q.count())
	}
}

func TestGroupCreationSkipsOccupiedCell(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	// a hand-migrated row squats on the cell of index 2 while holding
	// index 1, so the next assignment collides on the cell, not the
	// external id
	squatter := &store.Group{ExternalID: "legacy", GuildID: "guild1", Name: "legacy", VillageIndex: 1, CenterX: 350, CenterZ: 0}
	if err := mem.Stores().Groups.Create(ctx, squatter); err != nil {
		t.Fatal(err)
	}

	if err := c.Handle(ctx, groupCreated("cat1", "gaming")); err != nil {
		t.Fatal(err)
	}

	g, err := mem.Stores().Groups.ByExternalID(ctx, "cat1")
	if err != nil {
		t.Fatalf("event dropped on cell collision: %v", err)
	}
	if g.VillageIndex != 3 || g.CenterX != 525 || g.CenterZ != 0 {
		t.Errorf("group = index %d at (%d, %d), want 3 at (525, 0)",
			g.VillageIndex, g.CenterX, g.CenterZ)
	}
	if vj := mem.JobsByType(store.JobCreateVillage); len(vj) != 1 {
		t.Errorf("got %d CreateVillage jobs, want 1", len(vj))
	}
}

func TestChannelBeforeGroupAutoCreates(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	// the channel event lands before its category's
	if err := c.Handle(ctx, channelCreated("cat1", "ch1", "general")); err != nil {
		t.Fatal(err)
	}

	g, err := mem.Stores().Groups.ByExternalID(ctx, "cat1")
	if err != nil {
		t.Fatalf("group not auto-created: %v", err)
	}
	ch, err := mem.Stores().Channels.ByExternalID(ctx, "ch1")
	if err != nil {
		t.Fatalf("channel missing: %v", err)
	}
	if ch.GroupID != g.ID || ch.BuildingIndex != 0 {
		t.Errorf("channel = group %d index %d, want group %d index 0", ch.GroupID, ch.BuildingIndex, g.ID)
	}
	if len(mem.JobsByType(store.JobCreateVillage)) != 1 {
		t.Error("auto-created group did not enqueue its village")
	}
	if len(mem.JobsByType(store.JobCreateBuilding)) != 1 {
		t.Error("channel did not enqueue its building")
	}

	// the late GroupCreated is a benign duplicate
	if err := c.Handle(ctx, groupCreated("cat1", "gaming")); err != nil {
		t.Fatal(err)
	}
	if len(mem.JobsByType(store.JobCreateVillage)) != 1 {
		t.Error("duplicate GroupCreated enqueued a second village")
	}
}

func TestDuplicateChannelEventIsNoOp(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	ev := channelCreated("cat1", "ch1", "general")
	if err := c.Handle(ctx, ev); err != nil {
		t.Fatal(err)
	}
	before := q.count()
	if err := c.Handle(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if q.count() != before {
		t.Errorf("duplicate delivery pushed %d extra envelopes", q.count()-before)
	}
}

func TestGroupDeletedCascades(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	if err := c.Handle(ctx, channelCreated("cat1", "ch1", "general")); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(ctx, channelCreated("cat1", "ch2", "dev")); err != nil {
		t.Fatal(err)
	}

	ev := bus.ChannelEvent{EventType: bus.EventGroupDeleted, GroupExternalID: "cat1"}
	if err := c.Handle(ctx, ev); err != nil {
		t.Fatal(err)
	}

	g, err := mem.Stores().Groups.ByExternalID(ctx, "cat1")
	if err != nil {
		t.Fatal(err)
	}
	if !g.IsArchived {
		t.Error("group not archived")
	}
	for _, ext := range []string{"ch1", "ch2"} {
		ch, err := mem.Stores().Channels.ByExternalID(ctx, ext)
		if err != nil {
			t.Fatal(err)
		}
		if !ch.IsArchived {
			t.Errorf("channel %s not archived by cascade", ext)
		}
	}

	av := mem.JobsByType(store.JobArchiveVillage)
	if len(av) != 1 {
		t.Fatalf("got %d ArchiveVillage jobs, want 1", len(av))
	}
	var vp jobs.VillagePayload
	if err := json.Unmarshal(av[0].Payload, &vp); err != nil {
		t.Fatal(err)
	}
	if vp.ChannelCount != 2 {
		t.Errorf("archive payload channelCount = %d, want 2 (captured pre-cascade)", vp.ChannelCount)
	}
	if ab := mem.JobsByType(store.JobArchiveBuilding); len(ab) != 2 {
		t.Errorf("got %d ArchiveBuilding jobs, want 2", len(ab))
	}

	// replaying the delete is a no-op
	before := q.count()
	if err := c.Handle(ctx, ev); err != nil {
		t.Fatal(err)
	}
	if q.count() != before {
		t.Error("replayed delete enqueued more work")
	}
}

func TestChannelUpdatedPropagatesNameAndTopic(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	if err := c.Handle(ctx, channelCreated("cat1", "ch1", "general")); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(ctx, channelCreated("cat1", "ch2", "dev")); err != nil {
		t.Fatal(err)
	}

	err := c.Handle(ctx, bus.ChannelEvent{
		EventType:         bus.EventChannelUpdated,
		GroupExternalID:   "cat1",
		ChannelExternalID: "ch2",
		ChannelName:       "dev-talk",
		Topic:             "builds and releases",
	})
	if err != nil {
		t.Fatal(err)
	}

	ch, err := mem.Stores().Channels.ByExternalID(ctx, "ch2")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Name != "dev-talk" || ch.Topic != "builds and releases" {
		t.Errorf("channel = %q / %q after update", ch.Name, ch.Topic)
	}
	if ch.BuildingIndex != 1 {
		t.Errorf("building index = %d after rename, want 1 (never re-shuffled)", ch.BuildingIndex)
	}
	if uj := mem.JobsByType(store.JobUpdateBuilding); len(uj) != 1 {
		t.Errorf("got %d UpdateBuilding jobs, want 1", len(uj))
	}

	// a position-only shift changes nothing and enqueues nothing
	before := q.count()
	err = c.Handle(ctx, bus.ChannelEvent{
		EventType:         bus.EventChannelUpdated,
		ChannelExternalID: "ch2",
		ChannelName:       "dev-talk",
		Topic:             "builds and releases",
		Position:          9,
	})
	if err != nil {
		t.Fatal(err)
	}
	if q.count() != before {
		t.Error("no-op update enqueued work")
	}
}

func TestArchivedChannelReusesRowAndIndex(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	if err := c.Handle(ctx, channelCreated("cat1", "ch1", "general")); err != nil {
		t.Fatal(err)
	}
	orig, err := mem.Stores().Channels.ByExternalID(ctx, "ch1")
	if err != nil {
		t.Fatal(err)
	}

	err = c.Handle(ctx, bus.ChannelEvent{
		EventType:         bus.EventChannelDeleted,
		ChannelExternalID: "ch1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(ctx, channelCreated("cat1", "ch1", "general")); err != nil {
		t.Fatal(err)
	}

	ch, err := mem.Stores().Channels.ByExternalID(ctx, "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if ch.ID != orig.ID {
		t.Errorf("resurrection created row %d, want original %d reused", ch.ID, orig.ID)
	}
	if ch.IsArchived {
		t.Error("channel still archived after re-create")
	}
	if ch.BuildingIndex != orig.BuildingIndex {
		t.Errorf("building index = %d, want original %d", ch.BuildingIndex, orig.BuildingIndex)
	}
	if cj := mem.JobsByType(store.JobCreateBuilding); len(cj) != 2 {
		t.Errorf("got %d CreateBuilding jobs, want 2 (initial + rebuild)", len(cj))
	}
}

func TestArchivedGroupResurrectionKeepsCell(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	if err := c.Handle(ctx, groupCreated("cat1", "gaming")); err != nil {
		t.Fatal(err)
	}
	orig, _ := mem.Stores().Groups.ByExternalID(ctx, "cat1")
	if err := c.Handle(ctx, bus.ChannelEvent{EventType: bus.EventGroupDeleted, GroupExternalID: "cat1"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(ctx, groupCreated("cat1", "gaming")); err != nil {
		t.Fatal(err)
	}

	g, err := mem.Stores().Groups.ByExternalID(ctx, "cat1")
	if err != nil {
		t.Fatal(err)
	}
	if g.IsArchived {
		t.Error("group still archived")
	}
	if g.CenterX != orig.CenterX || g.CenterZ != orig.CenterZ || g.VillageIndex != orig.VillageIndex {
		t.Errorf("resurrected group moved: (%d, %d) index %d, want (%d, %d) index %d",
			g.CenterX, g.CenterZ, g.VillageIndex, orig.CenterX, orig.CenterZ, orig.VillageIndex)
	}
	if vj := mem.JobsByType(store.JobCreateVillage); len(vj) != 2 {
		t.Errorf("got %d CreateVillage jobs, want 2 (initial + rebuild)", len(vj))
	}
}

func TestUnknownEventTypeDropped(t *testing.T) {
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	err := c.Handle(context.Background(), bus.ChannelEvent{EventType: "GuildBoosted"})
	if err != nil {
		t.Fatalf("unknown event type returned error: %v", err)
	}
	if q.count() != 0 {
		t.Error("unknown event enqueued work")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	snap := GuildSnapshot{
		GuildID: "guild1",
		Groups: []GroupSnapshot{
			{
				ExternalID: "cat1", Name: "gaming",
				Channels: []ChannelSnapshot{
					{ExternalID: "ch1", Name: "general", Topic: "daily chatter"},
					{ExternalID: "ch2", Name: "dev", MemberCount: 12},
				},
			},
			{ExternalID: "cat2", Name: "music"},
		},
	}

	res, err := c.Sync(ctx, snap)
	if err != nil {
		t.Fatal(err)
	}
	if res.GroupsCreated != 2 || res.ChannelsCreated != 2 {
		t.Errorf("first sync = %+v, want 2 groups and 2 channels created", res)
	}
	pushed := q.count()
	// 2 villages + 2 buildings
	if pushed != 4 {
		t.Errorf("first sync pushed %d envelopes, want 4", pushed)
	}

	res, err = c.Sync(ctx, snap)
	if err != nil {
		t.Fatal(err)
	}
	if res.GroupsCreated != 0 || res.ChannelsCreated != 0 {
		t.Errorf("second sync = %+v, want nothing created", res)
	}
	if q.count() != pushed {
		t.Errorf("second sync pushed %d more envelopes, want 0", q.count()-pushed)
	}
}

func TestSyncRefreshesWithoutJobs(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &pushRecorder{}
	c := testConsumer(mem, q)

	snap := GuildSnapshot{
		GuildID: "guild1",
		Groups: []GroupSnapshot{{
			ExternalID: "cat1", Name: "gaming",
			Channels: []ChannelSnapshot{{ExternalID: "ch1", Name: "general"}},
		}},
	}
	if _, err := c.Sync(ctx, snap); err != nil {
		t.Fatal(err)
	}
	pushed := q.count()

	snap.Groups[0].Channels[0].Topic = "fresh topic"
	snap.Groups[0].Channels[0].MemberCount = 30
	if _, err := c.Sync(ctx, snap); err != nil {
		t.Fatal(err)
	}

	ch, err := mem.Stores().Channels.ByExternalID(ctx, "ch1")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Topic != "fresh topic" || ch.MemberCount != 30 {
		t.Errorf("channel not refreshed: topic %q members %d", ch.Topic, ch.MemberCount)
	}
	if q.count() != pushed {
		t.Error("metadata refresh enqueued jobs")
	}
}
