package store

import "time"

// Group is a chat-platform category mapped to a village.
type Group struct {
	ID           int64
	ExternalID   string
	GuildID      string
	Name         string
	Position     int
	VillageIndex int
	CenterX      int
	CenterZ      int
	IsArchived   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Channel is a text channel mapped to a building. BuildingX/BuildingZ stay
// nil until the worker materialises the structure.
type Channel struct {
	ID            int64
	ExternalID    string
	GroupID       int64
	Name          string
	Topic         string
	MemberCount   int
	Position      int
	BuildingIndex int
	BuildingX     *int
	BuildingZ     *int
	IsArchived    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobType identifies a world-generation operation.
type JobType string

const (
	JobCreateVillage    JobType = "CreateVillage"
	JobCreateBuilding   JobType = "CreateBuilding"
	JobUpdateBuilding   JobType = "UpdateBuilding"
	JobArchiveBuilding  JobType = "ArchiveBuilding"
	JobArchiveVillage   JobType = "ArchiveVillage"
	JobCreateTrack      JobType = "CreateTrack"
	JobCreateCrossroads JobType = "CreateCrossroads"
)

// JobStatus is the audit-row lifecycle state.
// Transitions: Pending → InProgress → (Completed | Failed).
type JobStatus string

const (
	JobPending    JobStatus = "Pending"
	JobInProgress JobStatus = "InProgress"
	JobCompleted  JobStatus = "Completed"
	JobFailed     JobStatus = "Failed"
)

// GenerationJob is the audit row for every dispatched world-gen operation.
// The queue envelope references it by ID; the row is the source of truth
// for status, the queue for "ready to run".
type GenerationJob struct {
	ID          int64
	Type        JobType
	Payload     []byte
	Status      JobStatus
	Attempts    int
	LastError   string
	CreatedAt   time.Time
	CompletedAt *time.Time
}
