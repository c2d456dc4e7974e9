// Package storetest provides an in-memory catalogue used by consumer,
// worker and API tests. Semantics mirror the SQL stores: uniqueness on
// external IDs and village centers, archive cascade, index floors.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// Memory implements every catalogue store over maps.
type Memory struct {
	mu       sync.Mutex
	groups   map[int64]*store.Group
	channels map[int64]*store.Channel
	jobs     map[int64]*store.GenerationJob
	nextID   int64
}

// New creates an empty in-memory catalogue.
func New() *Memory {
	return &Memory{
		groups:   map[int64]*store.Group{},
		channels: map[int64]*store.Channel{},
		jobs:     map[int64]*store.GenerationJob{},
	}
}

// Stores bundles the memory store behind the production interfaces.
func (m *Memory) Stores() store.Stores {
	return store.Stores{
		Groups:   m,
		Channels: channelView{m},
		Jobs:     jobView{m},
		Stats:    statsView{m},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// --- GroupStore ---

func (m *Memory) Create(ctx context.Context, g *store.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.groups {
		if e.ExternalID == g.ExternalID {
			return store.ErrConflict
		}
		if e.CenterX == g.CenterX && e.CenterZ == g.CenterZ {
			return store.ErrConflict
		}
	}
	g.ID = m.id()
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	cp := *g
	m.groups[g.ID] = &cp
	return nil
}

func (m *Memory) ByExternalID(ctx context.Context, externalID string) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.ExternalID == externalID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) ByID(ctx context.Context, id int64) (*store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *Memory) List(ctx context.Context, includeArchived bool) ([]store.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Group
	for _, g := range m.groups {
		if !includeArchived && g.IsArchived {
			continue
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) NextVillageIndex(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := 1
	for _, g := range m.groups {
		if g.VillageIndex >= next {
			next = g.VillageIndex + 1
		}
	}
	return next, nil
}

func (m *Memory) Update(ctx context.Context, g *store.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[g.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *g
	cp.UpdatedAt = time.Now()
	m.groups[g.ID] = &cp
	return nil
}

func (m *Memory) Archive(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	g.IsArchived = true
	for _, c := range m.channels {
		if c.GroupID == id {
			c.IsArchived = true
		}
	}
	return nil
}

func (m *Memory) Unarchive(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return store.ErrNotFound
	}
	g.IsArchived = false
	return nil
}

// --- ChannelStore ---
// Method names collide with GroupStore, so channels, jobs and stats live
// behind small view types.

func (m *Memory) channelByExternalID(externalID string) (*store.Channel, bool) {
	for _, c := range m.channels {
		if c.ExternalID == externalID {
			return c, true
		}
	}
	return nil, false
}

type channelView struct{ m *Memory }

func (v channelView) Create(ctx context.Context, c *store.Channel) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, ok := v.m.channelByExternalID(c.ExternalID); ok {
		return store.ErrConflict
	}
	c.ID = v.m.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	v.m.channels[c.ID] = &cp
	return nil
}

func (v channelView) ByExternalID(ctx context.Context, externalID string) (*store.Channel, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	c, ok := v.m.channelByExternalID(externalID)
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (v channelView) ByID(ctx context.Context, id int64) (*store.Channel, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	c, ok := v.m.channels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (v channelView) ListByGroup(ctx context.Context, groupID int64, includeArchived bool) ([]store.Channel, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var out []store.Channel
	for _, c := range v.m.channels {
		if c.GroupID != groupID {
			continue
		}
		if !includeArchived && c.IsArchived {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v channelView) NextBuildingIndex(ctx context.Context, groupID int64) (int, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	next := 0
	for _, c := range v.m.channels {
		if c.GroupID == groupID && !c.IsArchived && c.BuildingIndex >= next {
			next = c.BuildingIndex + 1
		}
	}
	return next, nil
}

func (v channelView) Update(ctx context.Context, c *store.Channel) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, ok := v.m.channels[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	cp.UpdatedAt = time.Now()
	v.m.channels[c.ID] = &cp
	return nil
}

func (v channelView) SetCoords(ctx context.Context, id int64, x, z int) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	c, ok := v.m.channels[id]
	if !ok {
		return store.ErrNotFound
	}
	c.BuildingX = &x
	c.BuildingZ = &z
	return nil
}

func (v channelView) Archive(ctx context.Context, id int64) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	c, ok := v.m.channels[id]
	if !ok {
		return store.ErrNotFound
	}
	c.IsArchived = true
	return nil
}

func (v channelView) Unarchive(ctx context.Context, id int64) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	c, ok := v.m.channels[id]
	if !ok {
		return store.ErrNotFound
	}
	c.IsArchived = false
	return nil
}

func (v channelView) Search(ctx context.Context, query string, limit int) ([]store.Channel, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	q := strings.ToLower(query)
	var out []store.Channel
	for _, c := range v.m.channels {
		if c.IsArchived {
			continue
		}
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Name) != len(out[j].Name) {
			return len(out[i].Name) < len(out[j].Name)
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- JobStore ---

type jobView struct{ m *Memory }

func (v jobView) Create(ctx context.Context, j *store.GenerationJob) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	j.ID = v.m.id()
	j.CreatedAt = time.Now()
	if j.Status == "" {
		j.Status = store.JobPending
	}
	cp := *j
	v.m.jobs[j.ID] = &cp
	return nil
}

func (v jobView) ByID(ctx context.Context, id int64) (*store.GenerationJob, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	j, ok := v.m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (v jobView) MarkInProgress(ctx context.Context, id int64) (int, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	j, ok := v.m.jobs[id]
	if !ok {
		return 0, store.ErrNotFound
	}
	j.Status = store.JobInProgress
	j.Attempts++
	return j.Attempts, nil
}

func (v jobView) Complete(ctx context.Context, id int64) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	j, ok := v.m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status = store.JobCompleted
	now := time.Now()
	j.CompletedAt = &now
	return nil
}

func (v jobView) Fail(ctx context.Context, id int64, lastError string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	j, ok := v.m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status = store.JobFailed
	j.LastError = lastError
	return nil
}

func (v jobView) Requeue(ctx context.Context, id int64, lastError string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	j, ok := v.m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status = store.JobPending
	j.LastError = lastError
	return nil
}

func (v jobView) ResetDangling(ctx context.Context) ([]store.GenerationJob, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var out []store.GenerationJob
	for _, j := range v.m.jobs {
		if j.Status == store.JobInProgress {
			j.Status = store.JobPending
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v jobView) HasCompleted(ctx context.Context, t store.JobType) (bool, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	for _, j := range v.m.jobs {
		if j.Type == t && j.Status == store.JobCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (v jobView) LastCompletedAt(ctx context.Context) (*store.GenerationJob, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var best *store.GenerationJob
	for _, j := range v.m.jobs {
		if j.Status != store.JobCompleted || j.CompletedAt == nil {
			continue
		}
		if best == nil || j.CompletedAt.After(*best.CompletedAt) {
			cp := *j
			best = &cp
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

// --- StatsStore ---

type statsView struct{ m *Memory }

func (v statsView) Stats(ctx context.Context) (store.Stats, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	var s store.Stats
	for _, g := range v.m.groups {
		if !g.IsArchived {
			s.VillageCount++
		}
	}
	for _, c := range v.m.channels {
		if !c.IsArchived {
			s.BuildingCount++
		}
	}
	return s, nil
}

func (v statsView) BuildingCountByGroup(ctx context.Context) (map[int64]int, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	out := map[int64]int{}
	for _, c := range v.m.channels {
		if !c.IsArchived {
			out[c.GroupID]++
		}
	}
	return out, nil
}

// Jobs exposes the job audit rows for assertions.
func (m *Memory) JobsByType(t store.JobType) []store.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.GenerationJob
	for _, j := range m.jobs {
		if j.Type == t {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Job returns one audit row or panics; test helper.
func (m *Memory) Job(id int64) store.GenerationJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		panic(fmt.Sprintf("no job %d", id))
	}
	return *j
}
