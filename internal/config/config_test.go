package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, ModeAuto, cfg.Mode)
	assert.Equal(t, 6, cfg.Ranking.SamplingTimeoutSeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.UserRoot)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, cfg.Mode)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: strict
remotes:
  - name: upstream
    specifier: git+https://github.com/org/bmad-modules#main:bmad
ranking:
  sampling_timeout_seconds: 3
  boosts:
    bmm:analyst: 0.5
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeStrict, cfg.Mode)
	assert.Equal(t, 3*time.Second, cfg.SamplingTimeout())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.InDelta(t, 0.5, cfg.Ranking.Boosts["bmm:analyst"], 1e-9)

	r, ok := cfg.RemoteByName("upstream")
	require.True(t, ok)
	assert.Equal(t, "git+https://github.com/org/bmad-modules#main:bmad", r.Specifier)

	_, ok = cfg.RemoteByName("missing")
	assert.False(t, ok)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvRoot, "/srv/project/bmad")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/project/bmad", cfg.ProjectRoot)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "yolo" },
			wantErr: "unknown discovery mode",
		},
		{
			name: "remote without name",
			mutate: func(c *Config) {
				c.Remotes = []Remote{{Specifier: "git+https://example.com/r"}}
			},
			wantErr: "empty name",
		},
		{
			name: "remote without specifier",
			mutate: func(c *Config) {
				c.Remotes = []Remote{{Name: "up"}}
			},
			wantErr: "no specifier",
		},
		{
			name: "duplicate remote name",
			mutate: func(c *Config) {
				c.Remotes = []Remote{
					{Name: "up", Specifier: "git+https://example.com/a"},
					{Name: "up", Specifier: "git+https://example.com/b"},
				}
			},
			wantErr: "duplicate remote name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateRepairsNonPositiveTimeout(t *testing.T) {
	cfg := Defaults()
	cfg.Ranking.SamplingTimeoutSeconds = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 6, cfg.Ranking.SamplingTimeoutSeconds)
}
