package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.True(t, cfg.NATS.Embedded)
	assert.Equal(t, ":9190", cfg.Metrics.Listen)
	assert.Equal(t, "@hourly", cfg.Sweep.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	defaultPath := base.Store.Path

	base.Merge(&Config{
		Store: StoreConfig{Driver: "nats"},
		NATS:  NATSConfig{URL: "nats://localhost:4222"},
	})

	assert.Equal(t, "nats", base.Store.Driver)
	assert.Equal(t, defaultPath, base.Store.Path, "unset fields stay at defaults")
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
	assert.False(t, base.NATS.Embedded, "an explicit URL turns off the embedded server")
	assert.Equal(t, ":9190", base.Metrics.Listen)

	base.Merge(nil)
	assert.Equal(t, "nats", base.Store.Driver, "nil merge is a no-op")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "sqlite with path",
			cfg:  Config{Store: StoreConfig{Driver: "sqlite", Path: "/tmp/x.db"}},
		},
		{
			name:    "sqlite without path",
			cfg:     Config{Store: StoreConfig{Driver: "sqlite"}},
			wantErr: true,
		},
		{
			name: "nats embedded",
			cfg:  Config{Store: StoreConfig{Driver: "nats"}, NATS: NATSConfig{Embedded: true}},
		},
		{
			name: "nats with url",
			cfg:  Config{Store: StoreConfig{Driver: "nats"}, NATS: NATSConfig{URL: "nats://h:4222"}},
		},
		{
			name:    "nats without url or embedded",
			cfg:     Config{Store: StoreConfig{Driver: "nats"}},
			wantErr: true,
		},
		{
			name:    "unknown driver",
			cfg:     Config{Store: StoreConfig{Driver: "postgres"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: sqlite
  path: /var/lib/cadence/cadence.db
metrics:
  listen: ":9999"
sweep:
  schedule: "@every 10m"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/var/lib/cadence/cadence.db", cfg.Store.Path)
	assert.Equal(t, ":9999", cfg.Metrics.Listen)
	assert.Equal(t, "@every 10m", cfg.Sweep.Schedule)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("store: [not a map"), 0o644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestLoadWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: nats
nats:
  url: nats://example:4222
`), 0o644))

	cfg, err := NewLoader(nil).LoadWithOverride(path)
	require.NoError(t, err)
	assert.Equal(t, "nats", cfg.Store.Driver)
	assert.Equal(t, "nats://example:4222", cfg.NATS.URL)
	assert.Equal(t, ":9190", cfg.Metrics.Listen, "defaults fill the gaps")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/cadence-test.db"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Store, loaded.Store)
	assert.Equal(t, cfg.Sweep, loaded.Sweep)
}
