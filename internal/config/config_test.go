package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rcon.Port != 25575 {
		t.Errorf("rcon port = %d, want 25575", cfg.Rcon.Port)
	}
	if cfg.World.VillageSpacing != 175 || cfg.World.BaseY != -60 {
		t.Errorf("world defaults = %+v", cfg.World)
	}
	if cfg.API.Port != 18520 {
		t.Errorf("api port = %d", cfg.API.Port)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	// json5: comments and trailing commas are allowed
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		// local test server
		rcon: { host: "10.0.0.5", port: 25580, },
		store: { dsn: "guildforge.db" },
		world: { village_spacing: 200 },
	}`), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rcon.Host != "10.0.0.5" || cfg.Rcon.Port != 25580 {
		t.Errorf("rcon = %+v", cfg.Rcon)
	}
	if cfg.Store.DSN != "guildforge.db" {
		t.Errorf("dsn = %q", cfg.Store.DSN)
	}
	if cfg.World.VillageSpacing != 200 {
		t.Errorf("spacing = %d", cfg.World.VillageSpacing)
	}
	// untouched keys keep their defaults
	if cfg.World.CrossroadsStationSlots != 16 {
		t.Errorf("station slots = %d, want default 16", cfg.World.CrossroadsStationSlots)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{rcon: {host: "from-file"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GUILDFORGE_RCON_HOST", "from-env")
	t.Setenv("GUILDFORGE_RCON_PASSWORD", "sekrit")
	t.Setenv("GUILDFORGE_API_PORT", "9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rcon.Host != "from-env" {
		t.Errorf("host = %q, want env to win", cfg.Rcon.Host)
	}
	if cfg.Rcon.Password != "sekrit" {
		t.Errorf("password = %q", cfg.Rcon.Password)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("api port = %d", cfg.API.Port)
	}
}

func TestSecretsNeverSerialized(t *testing.T) {
	cfg := Default()
	cfg.Rcon.Password = "sekrit"
	cfg.Discord.Token = "bot-token"

	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, secret := range []string{"sekrit", "bot-token"} {
		if strings.Contains(string(out), secret) {
			t.Errorf("secret %q leaked into serialized config", secret)
		}
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{rcon: `), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
