package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowtower/pkg/errors"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvAddr, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if cfg.Layout != def.Layout || cfg.Server.Addr != def.Server.Addr || cfg.Store.Backend != BackendMemory {
		t.Errorf("Load(missing) = %+v, want defaults", cfg)
	}
}

func TestLoadFormats(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvAddr, "")

	tests := []struct {
		name    string
		content string
	}{
		{"config.toml", `
[layout]
column_width = 320

[server]
addr = ":9090"
read_timeout = "5s"

[store]
backend = "file"
dir = "/tmp/flows"
`},
		{"config.yaml", `
layout:
  column_width: 320
server:
  addr: ":9090"
  read_timeout: 5s
store:
  backend: file
  dir: /tmp/flows
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Layout.ColumnWidth != 320 {
				t.Errorf("ColumnWidth = %v", cfg.Layout.ColumnWidth)
			}
			if cfg.Layout.RowHeight != Default().Layout.RowHeight {
				t.Errorf("RowHeight = %v, want default kept", cfg.Layout.RowHeight)
			}
			if cfg.Server.Addr != ":9090" || cfg.Server.ReadTimeout != 5*time.Second {
				t.Errorf("Server = %+v", cfg.Server)
			}
			if cfg.Store.Backend != BackendFile || cfg.Store.Dir != "/tmp/flows" {
				t.Errorf("Store = %+v", cfg.Store)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvRedisURL, "redis://cache:6379/1")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")
	t.Setenv(EnvAddr, ":7000")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, env should win over file", cfg.Server.Addr)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q", cfg.Cache.RedisURL)
	}
	if cfg.Store.Backend != BackendMongo || cfg.Store.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("Store = %+v", cfg.Store)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv(EnvMongoURI, "")

	tests := []struct {
		name    string
		content string
	}{
		{"config.toml", "[layout\n"},
		{"config.toml", "[store]\nbackend = \"cassandra\"\n"},
		{"config.yaml", "store:\n  backend: mongo\n"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), tt.name)
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidOptions) {
			t.Errorf("Load(%q) err = %v, want INVALID_OPTIONS", tt.content, err)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvMongoURI, "")
	t.Setenv(EnvAddr, "")

	for _, name := range []string{"out.toml", "out.yml"} {
		t.Run(name, func(t *testing.T) {
			want := Default()
			want.Layout.ColumnWidth = 280
			want.Cache.Prefix = "staging:"
			want.Render.Formats = []string{"svg", "dot"}

			path := filepath.Join(t.TempDir(), "nested", name)
			if err := Save(path, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Layout != want.Layout || got.Cache != want.Cache || got.Server != want.Server {
				t.Errorf("round trip:\n got %+v\nwant %+v", got, want)
			}
			if len(got.Render.Formats) != 2 || got.Render.Formats[1] != "dot" {
				t.Errorf("Formats = %v", got.Render.Formats)
			}
		})
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	var cfg Config
	if err := Decode(nil, "ini", &cfg); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v", err)
	}
}
