package config

// Config is the root configuration for GuildForge.
type Config struct {
	Rcon    RconConfig    `json:"rcon"`
	Plugin  PluginConfig  `json:"plugin,omitempty"`
	BlueMap BlueMapConfig `json:"bluemap,omitempty"`
	Bus     BusConfig     `json:"bus"`
	Store   StoreConfig   `json:"store"`
	World   WorldConfig   `json:"world,omitempty"`
	API     APIConfig     `json:"api,omitempty"`
	Discord DiscordConfig `json:"discord,omitempty"`
}

// RconConfig configures the game-server console connection.
// Password is NEVER read from the config file — only from env GUILDFORGE_RCON_PASSWORD.
type RconConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Password       string `json:"-"` // from env GUILDFORGE_RCON_PASSWORD only
	CommandDelayMs int    `json:"command_delay_ms,omitempty"`
}

// PluginConfig points at the in-process server plugin's HTTP surface
// (marker upserts, lectern book placement).
type PluginConfig struct {
	BaseURL string `json:"base_url,omitempty"`
}

// BlueMapConfig points at the public web map, used for deep links only.
type BlueMapConfig struct {
	WebURL string `json:"web_url,omitempty"`
}

// BusConfig configures the Redis event bus and work queue.
// URL is read from env GUILDFORGE_BUS_URL when set.
type BusConfig struct {
	URL string `json:"url,omitempty"`
}

// StoreConfig configures the relational catalogue.
// DSN comes from env GUILDFORGE_STORE_DSN when set. A postgres:// DSN selects
// the pgx driver; anything else is treated as a SQLite path (standalone mode).
type StoreConfig struct {
	DSN string `json:"dsn,omitempty"`
}

// APIConfig configures the query API listener.
type APIConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// DiscordConfig holds the bot token used by the one-shot `sync` command.
// Token from env GUILDFORGE_DISCORD_TOKEN only.
type DiscordConfig struct {
	Token string `json:"-"`
}

// WorldConfig holds every world-geometry constant. All distances are in
// blocks; BaseY is the superflat surface.
type WorldConfig struct {
	VillageSpacing          int `json:"village_spacing,omitempty"`
	BaseY                   int `json:"base_y,omitempty"`
	CrossroadsPlazaRadius   int `json:"crossroads_plaza_radius,omitempty"`
	CrossroadsStationSlots  int `json:"crossroads_station_slots,omitempty"`
	CrossroadsStationRadius int `json:"crossroads_station_radius,omitempty"`
	VillageStationOffset    int `json:"village_station_offset,omitempty"`
	FenceRadius             int `json:"fence_radius,omitempty"`
	BuildingFootprint       int `json:"building_footprint,omitempty"`
	GridColumns             int `json:"grid_columns,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Rcon: RconConfig{
			Host:           "127.0.0.1",
			Port:           25575,
			CommandDelayMs: 50,
		},
		Bus: BusConfig{
			URL: "redis://127.0.0.1:6379/0",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 18520,
		},
		World: WorldConfig{
			VillageSpacing:          175,
			BaseY:                   -60,
			CrossroadsPlazaRadius:   30,
			CrossroadsStationSlots:  16,
			CrossroadsStationRadius: 35,
			VillageStationOffset:    17,
			FenceRadius:             150,
			BuildingFootprint:       21,
			GridColumns:             10,
		},
	}
}
