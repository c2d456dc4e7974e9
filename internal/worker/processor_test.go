package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/config"
	"github.com/nextlevelbuilder/guildforge/internal/jobs"
	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/store/storetest"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

// fakeQueue mirrors the Redis list semantics, including the sentinel
// guard: TakeAt only removes the slot if it still holds the expected
// value.
type fakeQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *fakeQueue) Snapshot(ctx context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out, nil
}

func (q *fakeQueue) TakeAt(ctx context.Context, index int, expected string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index >= len(q.items) || q.items[index] != expected {
		return false, nil
	}
	q.items = append(q.items[:index], q.items[index+1:]...)
	return true, nil
}

func (q *fakeQueue) Push(ctx context.Context, envelope string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, envelope)
	return nil
}

func (q *fakeQueue) PushFront(ctx context.Context, envelope string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]string{envelope}, q.items...)
	return nil
}

func (q *fakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// flakyExecutor fails the first failures command batches, then succeeds.
type flakyExecutor struct {
	mu       sync.Mutex
	failures int
	commands []string
}

func (e *flakyExecutor) Exec(ctx context.Context, command string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failures > 0 {
		e.failures--
		return "", errors.New("connection reset")
	}
	e.commands = append(e.commands, command)
	return "", nil
}

func (e *flakyExecutor) ExecBatch(ctx context.Context, commands []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failures > 0 {
		e.failures--
		return errors.New("connection reset")
	}
	e.commands = append(e.commands, commands...)
	return nil
}

type fakeMarkers struct{}

func (fakeMarkers) UpsertVillageMarker(ctx context.Context, id, label string, x, z int) error {
	return nil
}
func (fakeMarkers) UpsertBuildingMarker(ctx context.Context, id, label string, x, z int) error {
	return nil
}
func (fakeMarkers) ArchiveVillageMarker(ctx context.Context, id string) error  { return nil }
func (fakeMarkers) ArchiveBuildingMarker(ctx context.Context, id string) error { return nil }

type nobodyOnline struct{}

func (nobodyOnline) AnyOnline(ctx context.Context) bool { return false }

func testProcessor(t *testing.T, mem *storetest.Memory, q *fakeQueue, exec worldgen.Executor) *Processor {
	t.Helper()
	layout := worldgen.LayoutFrom(config.Default().World)
	gen := worldgen.New(exec, layout)
	p := New(mem.Stores(), q, gen, fakeMarkers{}, nobodyOnline{}, nil,
		slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	p.idle = time.Millisecond
	p.backoff = func(int) time.Duration { return 0 }
	return p
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func enqueue(t *testing.T, mem *storetest.Memory, q *fakeQueue, typ store.JobType, payload any) int64 {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	j := &store.GenerationJob{Type: typ, Payload: raw, Status: store.JobPending}
	if err := mem.Stores().Jobs.Create(context.Background(), j); err != nil {
		t.Fatal(err)
	}
	env, err := jobs.Encode(j.ID, typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Push(context.Background(), env); err != nil {
		t.Fatal(err)
	}
	return j.ID
}

func TestStepPopsClosestFirst(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	p := testProcessor(t, mem, q, &flakyExecutor{})

	farVillage := enqueue(t, mem, q, store.JobCreateVillage,
		jobs.VillagePayload{Name: "far", CenterX: 3000, CenterZ: 0})
	hub := enqueue(t, mem, q, store.JobCreateCrossroads, jobs.CrossroadsPayload{})
	village := enqueue(t, mem, q, store.JobCreateVillage,
		jobs.VillagePayload{Name: "near", CenterX: 175, CenterZ: 0})

	// the village completion pushes a hub-track follow-up, so allow extra
	// passes until all three originals settle
	var order []int64
	for i := 0; i < 6 && len(order) < 3; i++ {
		worked, err := p.Step(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !worked {
			t.Fatalf("step %d found no work", i)
		}
		for _, id := range []int64{farVillage, hub, village} {
			j := mem.Job(id)
			if j.Status == store.JobCompleted && !containsID(order, id) {
				order = append(order, id)
			}
		}
	}
	if len(order) != 3 {
		t.Fatalf("only %d of 3 jobs completed", len(order))
	}

	want := []int64{hub, village, farVillage}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("completion order = %v, want %v", order, want)
		}
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestRetryExhaustionMarksFailed(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	// every command batch fails
	p := testProcessor(t, mem, q, &flakyExecutor{failures: 1 << 20})

	id := enqueue(t, mem, q, store.JobCreateVillage,
		jobs.VillagePayload{Name: "doomed", CenterX: 175, CenterZ: 0})

	for i := 0; i < 3; i++ {
		worked, err := p.Step(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !worked {
			t.Fatalf("step %d found no work", i)
		}
	}

	j := mem.Job(id)
	if j.Status != store.JobFailed {
		t.Errorf("status = %s, want Failed", j.Status)
	}
	if j.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", j.Attempts)
	}
	if j.LastError == "" {
		t.Error("lastError empty")
	}
	if q.len() != 0 {
		t.Errorf("queue depth = %d after exhaustion, want 0", q.len())
	}
}

func TestTransientFailureRecovers(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	// first batch fails, everything after succeeds
	p := testProcessor(t, mem, q, &flakyExecutor{failures: 1})

	id := enqueue(t, mem, q, store.JobCreateVillage,
		jobs.VillagePayload{Name: "wobbly", CenterX: 175, CenterZ: 0})

	for i := 0; i < 2; i++ {
		if _, err := p.Step(ctx); err != nil {
			t.Fatal(err)
		}
	}

	j := mem.Job(id)
	if j.Status != store.JobCompleted {
		t.Errorf("status = %s, want Completed", j.Status)
	}
	if j.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", j.Attempts)
	}
}

func TestTerminalFailureSkipsRetry(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	p := testProcessor(t, mem, q, &flakyExecutor{})

	// references a channel that does not exist: SetCoords returns not
	// found, which the handler marks terminal
	id := enqueue(t, mem, q, store.JobCreateBuilding,
		jobs.BuildingPayload{ChannelID: 999, ExternalID: "1", Name: "ghost", CenterX: 175})

	worked, err := p.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !worked {
		t.Fatal("no work found")
	}

	j := mem.Job(id)
	if j.Status != store.JobFailed {
		t.Errorf("status = %s, want Failed", j.Status)
	}
	if j.Attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry)", j.Attempts)
	}
	if q.len() != 0 {
		t.Error("terminal job was re-pushed")
	}
}

func TestTwoWorkersProcessEachJobOnce(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}

	var ids []int64
	for i := 0; i < 8; i++ {
		id := enqueue(t, mem, q, store.JobCreateVillage,
			jobs.VillagePayload{Name: "v", CenterX: 175 * (i + 1), CenterZ: 0})
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	for w := 0; w < 2; w++ {
		p := testProcessor(t, mem, q, &flakyExecutor{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				worked, err := p.Step(ctx)
				if err != nil {
					t.Error(err)
					return
				}
				if !worked && q.len() == 0 {
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		j := mem.Job(id)
		if j.Status != store.JobCompleted {
			t.Errorf("job %d status = %s, want Completed", id, j.Status)
		}
		if j.Attempts != 1 {
			t.Errorf("job %d attempts = %d, want 1", id, j.Attempts)
		}
	}
}

func TestVillageCompletionEnqueuesHubTrack(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	p := testProcessor(t, mem, q, &flakyExecutor{})

	g := &store.Group{ExternalID: "cat1", Name: "gaming", VillageIndex: 1, CenterX: 175}
	if err := mem.Stores().Groups.Create(ctx, g); err != nil {
		t.Fatal(err)
	}
	enqueue(t, mem, q, store.JobCreateVillage, jobs.VillagePayload{
		GroupID: g.ID, ExternalID: "cat1", Name: "gaming", CenterX: 175, CenterZ: 0,
	})

	if _, err := p.Step(ctx); err != nil {
		t.Fatal(err)
	}

	tracks := mem.JobsByType(store.JobCreateTrack)
	if len(tracks) != 1 {
		t.Fatalf("got %d track jobs, want 1", len(tracks))
	}
	if tracks[0].Status != store.JobPending {
		t.Errorf("track status = %s, want Pending", tracks[0].Status)
	}
	if q.len() != 1 {
		t.Errorf("queue depth = %d, want 1 (the track envelope)", q.len())
	}

	var tp jobs.TrackPayload
	if err := json.Unmarshal(tracks[0].Payload, &tp); err != nil {
		t.Fatal(err)
	}
	if tp.DestCenterX != 0 || tp.DestCenterZ != 0 || tp.DestName != "Crossroads" {
		t.Errorf("track payload = %+v, want hub destination", tp)
	}
}

func TestNoTrackForArchivedGroup(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	p := testProcessor(t, mem, q, &flakyExecutor{})

	g := &store.Group{ExternalID: "cat1", Name: "gone", VillageIndex: 1, CenterX: 175}
	if err := mem.Stores().Groups.Create(ctx, g); err != nil {
		t.Fatal(err)
	}
	if err := mem.Stores().Groups.Archive(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	enqueue(t, mem, q, store.JobCreateVillage, jobs.VillagePayload{
		GroupID: g.ID, ExternalID: "cat1", Name: "gone", CenterX: 175, CenterZ: 0,
	})

	if _, err := p.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if tracks := mem.JobsByType(store.JobCreateTrack); len(tracks) != 0 {
		t.Errorf("got %d track jobs for archived group, want 0", len(tracks))
	}
}

func TestArchiveNeverBuiltBuildingIsNoOp(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	exec := &flakyExecutor{}
	p := testProcessor(t, mem, q, exec)

	g := &store.Group{ExternalID: "cat1", Name: "gaming", VillageIndex: 1, CenterX: 175}
	if err := mem.Stores().Groups.Create(ctx, g); err != nil {
		t.Fatal(err)
	}
	ch := &store.Channel{ExternalID: "ch1", GroupID: g.ID, Name: "general", BuildingIndex: 0}
	if err := mem.Stores().Channels.Create(ctx, ch); err != nil {
		t.Fatal(err)
	}
	// deleted before its CreateBuilding job ever ran: coords still null
	if err := mem.Stores().Channels.Archive(ctx, ch.ID); err != nil {
		t.Fatal(err)
	}

	id := enqueue(t, mem, q, store.JobArchiveBuilding, jobs.BuildingPayload{
		ChannelID: ch.ID, ExternalID: "ch1", Name: "general",
		CenterX: 175, CenterZ: 0, BuildingIndex: 0,
	})

	worked, err := p.Step(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !worked {
		t.Fatal("no work found")
	}
	if got := mem.Job(id).Status; got != store.JobCompleted {
		t.Errorf("status = %s, want Completed", got)
	}
	if len(exec.commands) != 0 {
		t.Errorf("emitted %d world commands for a never-built structure, e.g. %q",
			len(exec.commands), exec.commands[0])
	}
}

func TestArchivePlacedBuildingDefaces(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	exec := &flakyExecutor{}
	p := testProcessor(t, mem, q, exec)

	g := &store.Group{ExternalID: "cat1", Name: "gaming", VillageIndex: 1, CenterX: 175}
	if err := mem.Stores().Groups.Create(ctx, g); err != nil {
		t.Fatal(err)
	}
	ch := &store.Channel{ExternalID: "ch1", GroupID: g.ID, Name: "general", BuildingIndex: 0}
	if err := mem.Stores().Channels.Create(ctx, ch); err != nil {
		t.Fatal(err)
	}
	if err := mem.Stores().Channels.SetCoords(ctx, ch.ID, 103, -20); err != nil {
		t.Fatal(err)
	}
	if err := mem.Stores().Channels.Archive(ctx, ch.ID); err != nil {
		t.Fatal(err)
	}

	id := enqueue(t, mem, q, store.JobArchiveBuilding, jobs.BuildingPayload{
		ChannelID: ch.ID, ExternalID: "ch1", Name: "general",
		CenterX: 175, CenterZ: 0, BuildingIndex: 0,
	})

	if _, err := p.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if got := mem.Job(id).Status; got != store.JobCompleted {
		t.Errorf("status = %s, want Completed", got)
	}
	if len(exec.commands) == 0 {
		t.Fatal("placed building was not defaced")
	}
}

func TestBootstrapCrossroadsOnce(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	p := testProcessor(t, mem, q, &flakyExecutor{})

	// some other work already queued; the bootstrap must jump the line
	enqueue(t, mem, q, store.JobCreateVillage,
		jobs.VillagePayload{Name: "v", CenterX: 175, CenterZ: 0})

	if err := p.bootstrapCrossroads(ctx); err != nil {
		t.Fatal(err)
	}
	snapshot, _ := q.Snapshot(ctx)
	if len(snapshot) != 2 {
		t.Fatalf("queue depth = %d, want 2", len(snapshot))
	}
	head, err := jobs.Decode(snapshot[0])
	if err != nil {
		t.Fatal(err)
	}
	if head.Type != store.JobCreateCrossroads {
		t.Errorf("queue head = %s, want CreateCrossroads", head.Type)
	}

	// drain the hub job, then bootstrap again: no new enqueue
	if _, err := p.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.bootstrapCrossroads(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(mem.JobsByType(store.JobCreateCrossroads)); got != 1 {
		t.Errorf("got %d crossroads audit rows, want 1", got)
	}
}

func TestDanglingJobsRequeuedOnStartup(t *testing.T) {
	ctx := context.Background()
	mem := storetest.New()
	q := &fakeQueue{}
	p := testProcessor(t, mem, q, &flakyExecutor{})

	raw, _ := json.Marshal(jobs.VillagePayload{Name: "stuck", CenterX: 175})
	j := &store.GenerationJob{Type: store.JobCreateVillage, Payload: raw, Status: store.JobPending}
	if err := mem.Stores().Jobs.Create(ctx, j); err != nil {
		t.Fatal(err)
	}
	if _, err := mem.Stores().Jobs.MarkInProgress(ctx, j.ID); err != nil {
		t.Fatal(err)
	}

	if err := p.reconcileDangling(ctx); err != nil {
		t.Fatal(err)
	}
	if mem.Job(j.ID).Status != store.JobPending {
		t.Errorf("status = %s, want Pending", mem.Job(j.ID).Status)
	}
	if q.len() != 1 {
		t.Errorf("queue depth = %d, want 1", q.len())
	}
}
