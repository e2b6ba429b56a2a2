package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// Configuration
// =============================================================================

// Config is the TOML configuration loaded from ~/.config/flowscope/config.toml.
// Every field has a working default; the file is optional.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Cache     CacheConfig     `toml:"cache"`
	Snapshots SnapshotsConfig `toml:"snapshots"`
	View      ViewConfig      `toml:"view"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	// Backend is "file", "redis", or "none".
	Backend string `toml:"backend"`

	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// SnapshotsConfig selects the snapshot store backend.
type SnapshotsConfig struct {
	// Backend is "file" or "mongo".
	Backend string `toml:"backend"`

	// Dir overrides the file store directory.
	Dir string `toml:"dir"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ViewConfig holds display defaults applied before any interactive changes.
type ViewConfig struct {
	Palette       string `toml:"palette"`
	EdgeStyle     string `toml:"edge_style"`
	Algorithm     string `toml:"algorithm"`
	SmartCollapse *bool  `toml:"smart_collapse"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server:    ServerConfig{Addr: "127.0.0.1:8423"},
		Cache:     CacheConfig{Backend: "file", RedisAddr: "127.0.0.1:6379"},
		Snapshots: SnapshotsConfig{Backend: "file"},
		View:      ViewConfig{Palette: "default", EdgeStyle: "curved", Algorithm: "dot"},
	}
}

// LoadConfig reads the TOML config at path, or the default location when
// path is empty. A missing file yields defaults; a malformed one errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be file, redis, or none; got %q", c.Cache.Backend)
	}
	switch c.Snapshots.Backend {
	case "file", "mongo":
	default:
		return fmt.Errorf("snapshots.backend must be file or mongo; got %q", c.Snapshots.Backend)
	}
	if c.Snapshots.Backend == "mongo" && c.Snapshots.MongoURI == "" {
		return fmt.Errorf("snapshots.mongo_uri is required for the mongo backend")
	}
	return nil
}

// SmartCollapseEnabled reports the smart-collapse setting, defaulting to on.
func (c ViewConfig) SmartCollapseEnabled() bool {
	return c.SmartCollapse == nil || *c.SmartCollapse
}
