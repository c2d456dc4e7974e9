package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error — defaults plus env are enough to run.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	envStr("GUILDFORGE_RCON_HOST", &c.Rcon.Host)
	envInt("GUILDFORGE_RCON_PORT", &c.Rcon.Port)
	envStr("GUILDFORGE_RCON_PASSWORD", &c.Rcon.Password)
	envInt("GUILDFORGE_RCON_COMMAND_DELAY_MS", &c.Rcon.CommandDelayMs)

	envStr("GUILDFORGE_PLUGIN_BASE_URL", &c.Plugin.BaseURL)
	envStr("GUILDFORGE_BLUEMAP_WEB_URL", &c.BlueMap.WebURL)

	envStr("GUILDFORGE_BUS_URL", &c.Bus.URL)
	envStr("GUILDFORGE_STORE_DSN", &c.Store.DSN)

	envStr("GUILDFORGE_API_HOST", &c.API.Host)
	envInt("GUILDFORGE_API_PORT", &c.API.Port)

	envStr("GUILDFORGE_DISCORD_TOKEN", &c.Discord.Token)
}
