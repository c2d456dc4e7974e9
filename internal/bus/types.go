package bus

// Topic and queue names shared by every process.
const (
	TopicChannelEvents = "events:discord:channel"
	TopicPlayerEvents  = "events:minecraft:player"
	TopicActivity      = "events:world:activity"
	QueueWorldgen      = "queue:worldgen"
)

// Chat event types carried on TopicChannelEvents.
const (
	EventGroupCreated   = "GroupCreated"
	EventGroupDeleted   = "GroupDeleted"
	EventChannelCreated = "ChannelCreated"
	EventChannelDeleted = "ChannelDeleted"
	EventChannelUpdated = "ChannelUpdated"
)

// Player event types carried on TopicPlayerEvents (produced by the plugin).
const (
	EventPlayerJoined = "PlayerJoined"
	EventPlayerLeft   = "PlayerLeft"
)

// ChannelEvent is the unified chat event record. Unknown fields are
// ignored on decode; unknown event types are logged and dropped by the
// consumer. Delivery is at-most-once and unordered.
type ChannelEvent struct {
	EventType         string `json:"eventType"`
	Timestamp         string `json:"timestamp,omitempty"`
	GuildID           string `json:"guildId,omitempty"`
	GroupExternalID   string `json:"groupExternalId,omitempty"`
	GroupName         string `json:"groupName,omitempty"`
	Position          int    `json:"position,omitempty"`
	ChannelExternalID string `json:"channelExternalId,omitempty"`
	ChannelName       string `json:"channelName,omitempty"`
	OldName           string `json:"oldName,omitempty"`
	Topic             string `json:"topic,omitempty"`
	MemberCount       int    `json:"memberCount,omitempty"`
}

// PlayerEvent is a presence event from the game server plugin.
type PlayerEvent struct {
	EventType  string `json:"eventType"`
	PlayerUUID string `json:"playerUuid"`
	PlayerName string `json:"playerName"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ActivityEvent is a best-effort build-progress broadcast.
type ActivityEvent struct {
	EventType string `json:"eventType"` // BuildStarted | BuildCompleted
	JobID     int64  `json:"jobId"`
	JobType   string `json:"jobType"`
	Label     string `json:"label,omitempty"`
	X         int    `json:"x"`
	Z         int    `json:"z"`
	Timestamp string `json:"timestamp,omitempty"`
}
