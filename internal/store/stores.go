package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint rejects a write
// (duplicate external ID or duplicate village center). Callers treat it as
// "another writer won" and re-read.
var ErrConflict = errors.New("conflict")

// GroupStore is the durable catalogue of groups (villages).
type GroupStore interface {
	Create(ctx context.Context, g *Group) error
	ByExternalID(ctx context.Context, externalID string) (*Group, error)
	ByID(ctx context.Context, id int64) (*Group, error)
	List(ctx context.Context, includeArchived bool) ([]Group, error)
	// NextVillageIndex returns max(village_index)+1 with a floor of 1;
	// grid cell (0,0) is reserved for the Crossroads hub.
	NextVillageIndex(ctx context.Context) (int, error)
	Update(ctx context.Context, g *Group) error
	// Archive flags the group and every one of its channels in one transaction.
	Archive(ctx context.Context, id int64) error
	Unarchive(ctx context.Context, id int64) error
}

// ChannelStore is the durable catalogue of channels (buildings).
type ChannelStore interface {
	Create(ctx context.Context, c *Channel) error
	ByExternalID(ctx context.Context, externalID string) (*Channel, error)
	ByID(ctx context.Context, id int64) (*Channel, error)
	ListByGroup(ctx context.Context, groupID int64, includeArchived bool) ([]Channel, error)
	// NextBuildingIndex returns max(building_index)+1 over the group's
	// non-archived channels. Indices are never re-assigned after archival.
	NextBuildingIndex(ctx context.Context, groupID int64) (int, error)
	Update(ctx context.Context, c *Channel) error
	// SetCoords writes back the materialised building position.
	SetCoords(ctx context.Context, id int64, x, z int) error
	Archive(ctx context.Context, id int64) error
	Unarchive(ctx context.Context, id int64) error
	// Search is a case-insensitive substring match over non-archived
	// channel names, shortest name first.
	Search(ctx context.Context, query string, limit int) ([]Channel, error)
}

// JobStore is the audit trail of world-generation jobs.
type JobStore interface {
	Create(ctx context.Context, j *GenerationJob) error
	ByID(ctx context.Context, id int64) (*GenerationJob, error)
	// MarkInProgress transitions the row and increments attempts, returning
	// the new attempt count.
	MarkInProgress(ctx context.Context, id int64) (int, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, lastError string) error
	// Requeue puts a row back to Pending after a retryable failure.
	Requeue(ctx context.Context, id int64, lastError string) error
	// ResetDangling flips InProgress rows back to Pending (startup
	// reconciliation after a worker died mid-job) and returns them.
	ResetDangling(ctx context.Context) ([]GenerationJob, error)
	// HasCompleted reports whether any job of the given type has completed.
	HasCompleted(ctx context.Context, t JobType) (bool, error)
	LastCompletedAt(ctx context.Context) (*GenerationJob, error)
}

// Stats is the read model behind /api/status.
type Stats struct {
	VillageCount  int
	BuildingCount int
}

// StatsStore serves aggregate counts for the query API.
type StatsStore interface {
	Stats(ctx context.Context) (Stats, error)
	// BuildingCountByGroup returns non-archived channel counts keyed by group ID.
	BuildingCountByGroup(ctx context.Context) (map[int64]int, error)
}

// Stores aggregates every catalogue store.
type Stores struct {
	Groups   GroupStore
	Channels ChannelStore
	Jobs     JobStore
	Stats    StatsStore
}
