// Package config loads flowtower's configuration file.
//
// The file lives at $XDG_CONFIG_HOME/flowtower/config.toml (or config.yaml)
// and is optional. TOML and YAML are both accepted, chosen by extension.
// Environment variables override the file, and command-line flags override
// both; flags are applied by the CLI, not here.
//
// Example config.toml:
//
//	[layout]
//	column_width = 320
//	row_height = 180
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//
//	[store]
//	backend = "mongo"
//	[store.mongo]
//	uri = "mongodb://localhost:27017"
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/store"
)

// Environment variables that override the file.
const (
	EnvRedisURL = "FLOWTOWER_REDIS_URL"
	EnvMongoURI = "FLOWTOWER_MONGO_URI"
	EnvAddr     = "FLOWTOWER_ADDR"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendMongo  = "mongo"
)

// Config is the full configuration.
type Config struct {
	Layout layout.Options `toml:"layout" yaml:"layout"`
	Render RenderConfig   `toml:"render" yaml:"render"`
	Cache  CacheConfig    `toml:"cache" yaml:"cache"`
	Server ServerConfig   `toml:"server" yaml:"server"`
	Store  StoreConfig    `toml:"store" yaml:"store"`
}

// RenderConfig holds default render options.
type RenderConfig struct {
	Formats  []string `toml:"formats" yaml:"formats"`
	Labels   bool     `toml:"labels" yaml:"labels"`
	Detailed bool     `toml:"detailed" yaml:"detailed"`
}

// CacheConfig selects the cache backend. A RedisURL selects Redis, otherwise
// the file cache in Dir is used.
type CacheConfig struct {
	Disabled bool   `toml:"disabled" yaml:"disabled"`
	Dir      string `toml:"dir" yaml:"dir"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// ServerConfig configures `flowtower serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr" yaml:"addr"`
	MaxBodyBytes int64         `toml:"max_body_bytes" yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	Metrics      bool          `toml:"metrics" yaml:"metrics"`
}

// StoreConfig selects the flow store.
type StoreConfig struct {
	Backend string            `toml:"backend" yaml:"backend"`
	Dir     string            `toml:"dir" yaml:"dir"`
	Mongo   store.MongoConfig `toml:"mongo" yaml:"mongo"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Layout: layout.DefaultOptions(),
		Render: RenderConfig{Formats: []string{"svg"}, Labels: true},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 4 << 20,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			Metrics:      true,
		},
		Store: StoreConfig{Backend: BackendMemory},
	}
}

// DefaultPath returns the config file path under the user config directory.
// config.toml is preferred; config.yaml and config.yml are used if present.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "flowtower")
	for _, name := range []string{"config.yaml", "config.yml"} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p, nil
		}
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the file at path over the defaults and applies environment
// overrides. An empty path means DefaultPath; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			cfg.ApplyEnv()
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := Decode(data, formatOf(path), &cfg); err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeInvalidOptions, err, "config %s", path)
		}
	}

	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

// Decode parses data as "toml" or "yaml" into cfg. Fields missing from
// data keep their current values.
func Decode(data []byte, format string, cfg *Config) error {
	switch format {
	case "toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case "yaml":
		return yaml.Unmarshal(data, cfg)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
}

// Write encodes cfg as "toml" or "yaml".
func Write(w io.Writer, cfg Config, format string) error {
	switch format {
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg Config) error {
	var buf bytes.Buffer
	if err := Write(&buf, cfg, formatOf(path)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ApplyEnv overrides fields from FLOWTOWER_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Store.Mongo.URI = v
		c.Store.Backend = BackendMongo
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks field values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", BackendMemory, BackendFile:
	case BackendMongo:
		if c.Store.Mongo.URI == "" {
			return errors.New(errors.ErrCodeInvalidOptions, "store backend mongo requires store.mongo.uri or %s", EnvMongoURI)
		}
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "unknown store backend %q", c.Store.Backend)
	}
	if c.Layout.ColumnWidth < 0 || c.Layout.RowHeight < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "layout spacing must not be negative")
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
