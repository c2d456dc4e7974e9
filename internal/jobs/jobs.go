package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

// Envelope is the in-flight queue object. The audit row referenced by
// JobID is the source of truth for status; the payload is type-specific
// and opaque to everything but the matching handler.
type Envelope struct {
	JobID   int64           `json:"jobId"`
	Type    store.JobType   `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// VillagePayload drives CreateVillage and ArchiveVillage.
type VillagePayload struct {
	GroupID      int64  `json:"groupId"`
	ExternalID   string `json:"externalId"`
	Name         string `json:"name"`
	CenterX      int    `json:"centerX"`
	CenterZ      int    `json:"centerZ"`
	ChannelCount int    `json:"channelCount,omitempty"`
}

// BuildingPayload drives CreateBuilding, UpdateBuilding and
// ArchiveBuilding. CenterX/CenterZ are the owning village's center; the
// building position is derived from them and BuildingIndex.
type BuildingPayload struct {
	ChannelID     int64  `json:"channelId"`
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	CenterX       int    `json:"centerX"`
	CenterZ       int    `json:"centerZ"`
	BuildingIndex int    `json:"buildingIndex"`
	Topic         string `json:"topic,omitempty"`
	MemberCount   int    `json:"memberCount,omitempty"`
	Pin           *Pin   `json:"pin,omitempty"`
}

// Pin is a pinned chat message relayed onto an interior sign by an
// UpdateBuilding job.
type Pin struct {
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TrackPayload drives CreateTrack. A destination of (0,0) is the hub and
// selects a radial station slot.
type TrackPayload struct {
	SourceName  string `json:"sourceName"`
	SrcCenterX  int    `json:"srcCenterX"`
	SrcCenterZ  int    `json:"srcCenterZ"`
	DestName    string `json:"destName"`
	DestCenterX int    `json:"destCenterX"`
	DestCenterZ int    `json:"destCenterZ"`
}

// CrossroadsPayload drives the one-shot hub bootstrap.
type CrossroadsPayload struct{}

// Encode builds the wire form of an envelope.
func Encode(jobID int64, t store.JobType, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Envelope{JobID: jobID, Type: t, Payload: raw})
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(data), nil
}

// Decode parses the wire form of an envelope.
func Decode(s string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}

// Center extracts the world position a job will touch, used by the
// processor's spawn-proximity scoring. CreateCrossroads is (0,0) and so
// always wins.
func (e Envelope) Center(l worldgen.Layout) (x, z int, err error) {
	switch e.Type {
	case store.JobCreateVillage, store.JobArchiveVillage:
		var p VillagePayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return 0, 0, fmt.Errorf("village payload: %w", err)
		}
		return p.CenterX, p.CenterZ, nil
	case store.JobCreateBuilding, store.JobUpdateBuilding, store.JobArchiveBuilding:
		var p BuildingPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return 0, 0, fmt.Errorf("building payload: %w", err)
		}
		bx, bz := l.BuildingPlace(p.CenterX, p.CenterZ, p.BuildingIndex)
		return bx, bz, nil
	case store.JobCreateTrack:
		var p TrackPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return 0, 0, fmt.Errorf("track payload: %w", err)
		}
		return (p.SrcCenterX + p.DestCenterX) / 2, (p.SrcCenterZ + p.DestCenterZ) / 2, nil
	case store.JobCreateCrossroads:
		return 0, 0, nil
	}
	return 0, 0, fmt.Errorf("unknown job type %q", e.Type)
}
