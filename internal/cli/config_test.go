package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	// Point the default location at an empty directory so no real user
	// config leaks into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("default cache backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Snapshots.Backend != "file" {
		t.Errorf("default snapshots backend = %q, want file", cfg.Snapshots.Backend)
	}
	if cfg.View.Palette != "default" || cfg.View.Algorithm != "dot" {
		t.Errorf("unexpected view defaults: %+v", cfg.View)
	}
	if !cfg.View.SmartCollapseEnabled() {
		t.Error("smart collapse should default to enabled")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = "0.0.0.0:9000"

[cache]
backend = "redis"
redis_addr = "redis.internal:6379"

[view]
palette = "ocean"
smart_collapse = false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis.internal:6379" {
		t.Errorf("cache config = %+v", cfg.Cache)
	}
	if cfg.View.Palette != "ocean" {
		t.Errorf("palette = %q", cfg.View.Palette)
	}
	if cfg.View.SmartCollapseEnabled() {
		t.Error("smart collapse should be disabled by config")
	}
	// Unset sections keep their defaults.
	if cfg.Snapshots.Backend != "file" {
		t.Errorf("snapshots backend = %q, want file default", cfg.Snapshots.Backend)
	}
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	path := writeConfig(t, `
[cache]
backend = "memcached"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
}

func TestLoadConfigMongoRequiresURI(t *testing.T) {
	path := writeConfig(t, `
[snapshots]
backend = "mongo"
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for mongo backend without URI")
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("explicitly named missing config should error")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := writeConfig(t, `[server`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}
