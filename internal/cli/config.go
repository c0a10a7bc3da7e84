package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/redis/go-redis/v9"

	"github.com/vizhost/vizhost/internal/server"
	"github.com/vizhost/vizhost/pkg/cache"
	"github.com/vizhost/vizhost/pkg/registry"
	"github.com/vizhost/vizhost/pkg/session"
)

// configFileName is the settings file looked up when --config is not given.
const configFileName = "vizhost.toml"

// =============================================================================
// Config Schema
// =============================================================================

// fileConfig mirrors vizhost.toml. Zero values mean "use the built-in
// default"; loadConfig fills those in so commands never see empty fields.
type fileConfig struct {
	// Listen is the serve address, e.g. ":8780".
	Listen string `toml:"listen"`

	// Defaults seeds instance configs: its Backend names the engine used
	// when a create request leaves the backend empty, and the render
	// command starts from the full struct.
	Defaults registry.Config `toml:"defaults"`

	Cache    cacheConfig   `toml:"cache"`
	Sessions sessionConfig `toml:"sessions"`
	Journal  journalConfig `toml:"journal"`

	// Theme holds CSS custom-property presets applied over the built-in
	// theme at startup, e.g. "--viz-accent" = "#7aa2f7".
	Theme map[string]string `toml:"theme"`
}

// cacheConfig selects the frame-cache backend.
type cacheConfig struct {
	// Backend is one of "file" (default), "redis", "none".
	Backend string `toml:"backend"`
	// Dir is the file-cache directory. Empty means the XDG cache dir.
	Dir string `toml:"dir"`
	// RedisAddr is the host:port for the redis backend.
	RedisAddr string `toml:"redis_addr"`
}

// sessionConfig selects the saved-session store.
type sessionConfig struct {
	// Backend is one of "file" (default), "mongo", "memory".
	Backend string `toml:"backend"`
	// Dir is the file-store directory. Empty means the XDG data dir.
	Dir string `toml:"dir"`
	// MongoURI is the connection string for the mongo backend.
	MongoURI string `toml:"mongo_uri"`
}

// journalConfig configures the interaction-event journal.
type journalConfig struct {
	// Path is the SQLite database file. Empty disables journaling.
	Path string `toml:"path"`
}

// defaultConfig returns the settings used when no file is present.
func defaultConfig() fileConfig {
	return fileConfig{
		Listen:   server.DefaultAddr,
		Cache:    cacheConfig{Backend: "file"},
		Sessions: sessionConfig{Backend: "file"},
	}
}

// =============================================================================
// Loading
// =============================================================================

// loadConfig reads the TOML settings file. An explicit path must exist; a
// discovered path (./vizhost.toml, then the XDG config dir) is optional
// and absence falls back to defaults.
func (c *CLI) loadConfig() (fileConfig, error) {
	cfg := defaultConfig()

	path := c.configPath
	if path == "" {
		path = discoverConfig()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = server.DefaultAddr
	}
	c.Logger.Debug("config loaded", "path", path)
	return cfg, nil
}

// discoverConfig returns the first settings file that exists, or "".
func discoverConfig() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	path := filepath.Join(dir, appName, configFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// =============================================================================
// Backend Builders
// =============================================================================

// frameCacheDir resolves the file-cache directory.
func (cfg cacheConfig) frameCacheDir() (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cacheDir()
}

// newFrameCache builds the configured frame cache. noCache forces the
// null backend regardless of configuration.
func newFrameCache(cfg cacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case "none", "null":
		return cache.NewNullCache(), nil
	case "redis":
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		return cache.NewRedisCache(redis.NewClient(&redis.Options{Addr: addr})), nil
	case "file", "":
		dir, err := cfg.frameCacheDir()
		if err != nil {
			// No usable cache dir is not fatal; render uncached.
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (must be 'file', 'redis', or 'none')", cfg.Backend)
	}
}

// sessionStoreDir resolves the file-store directory.
func (cfg sessionConfig) sessionStoreDir() (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// newSessionStore builds the configured session store.
func newSessionStore(ctx context.Context, cfg sessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("session backend 'mongo' needs mongo_uri")
		}
		return session.DialMongo(ctx, cfg.MongoURI)
	case "file", "":
		dir, err := cfg.sessionStoreDir()
		if err != nil {
			return nil, fmt.Errorf("resolve session dir: %w", err)
		}
		return session.NewFileStore(dir)
	default:
		return nil, fmt.Errorf("unknown session backend %q (must be 'file', 'mongo', or 'memory')", cfg.Backend)
	}
}
