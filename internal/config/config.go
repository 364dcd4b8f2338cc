// Package config loads and validates the bmad-mcp server configuration.
//
// Configuration lives in a single YAML file (default ~/.bmad-mcp/config.yaml)
// with a small set of environment overrides. Everything has a sensible
// default so the server runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized at load time.
const (
	// EnvRoot overrides the project-local BMAD root directory.
	EnvRoot = "BMAD_PATH"
	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "BMAD_MCP_LOG"
)

// DiscoveryMode determines which sources are active and their priority order.
type DiscoveryMode string

const (
	ModeAuto   DiscoveryMode = "auto"
	ModeStrict DiscoveryMode = "strict"
	ModeLocal  DiscoveryMode = "local"
	ModeUser   DiscoveryMode = "user"
)

// Valid reports whether m is a known discovery mode.
func (m DiscoveryMode) Valid() bool {
	switch m {
	case ModeAuto, ModeStrict, ModeLocal, ModeUser:
		return true
	}
	return false
}

// Remote is a named, pre-registered git source. The name is what the
// @<remote-name>: qualifier syntax refers to.
type Remote struct {
	Name      string `yaml:"name"`
	Specifier string `yaml:"specifier"`
}

// Ranking holds the heuristic ranker's tunables.
type Ranking struct {
	// Boosts maps an entry key ("module:name", "module" or "name") to a
	// score boost applied during heuristic ranking.
	Boosts map[string]float64 `yaml:"boosts,omitempty"`
	// SamplingTimeoutSeconds bounds one sampling-assisted ranking round
	// trip. On timeout the heuristic ordering is used.
	SamplingTimeoutSeconds int `yaml:"sampling_timeout_seconds"`
}

// Config is the full server configuration.
type Config struct {
	// Mode is the discovery mode: auto, strict, local or user.
	Mode DiscoveryMode `yaml:"mode"`
	// ProjectRoot overrides project-local root detection when set.
	ProjectRoot string `yaml:"project_root,omitempty"`
	// UserRoot is the user-global BMAD directory.
	UserRoot string `yaml:"user_root,omitempty"`
	// Remotes are the pre-registered git sources, in priority order.
	Remotes []Remote `yaml:"remotes,omitempty"`
	// CacheDir is where git source clones are kept.
	CacheDir string `yaml:"cache_dir,omitempty"`

	Ranking Ranking `yaml:"ranking"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	cfg := Config{
		Mode:     ModeAuto,
		UserRoot: filepath.Join(home, ".bmad"),
		CacheDir: filepath.Join(home, ".bmad-mcp", "cache"),
		Ranking: Ranking{
			SamplingTimeoutSeconds: 6,
		},
	}
	cfg.Logging.Level = "info"
	return cfg
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bmad-mcp", "config.yaml")
}

// Load reads the config file at path, layering it over Defaults() and
// applying environment overrides. A missing file is not an error — the
// defaults are returned.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv layers environment overrides over the loaded config.
func applyEnv(cfg *Config) {
	if root := strings.TrimSpace(os.Getenv(EnvRoot)); root != "" {
		cfg.ProjectRoot = root
	}
	if lvl := strings.TrimSpace(os.Getenv(EnvLogLevel)); lvl != "" {
		cfg.Logging.Level = lvl
	}
}

// Validate checks the config for inconsistencies.
func (c *Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("config: unknown discovery mode %q", c.Mode)
	}
	if c.Ranking.SamplingTimeoutSeconds <= 0 {
		c.Ranking.SamplingTimeoutSeconds = 6
	}
	seen := make(map[string]bool, len(c.Remotes))
	for _, r := range c.Remotes {
		if r.Name == "" {
			return fmt.Errorf("config: remote with empty name (specifier %q)", r.Specifier)
		}
		if r.Specifier == "" {
			return fmt.Errorf("config: remote %q has no specifier", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("config: duplicate remote name %q", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// SamplingTimeout returns the ranking sampling timeout as a duration.
func (c *Config) SamplingTimeout() time.Duration {
	return time.Duration(c.Ranking.SamplingTimeoutSeconds) * time.Second
}

// RemoteByName returns the named remote, if registered.
func (c *Config) RemoteByName(name string) (Remote, bool) {
	for _, r := range c.Remotes {
		if r.Name == name {
			return r, true
		}
	}
	return Remote{}, false
}
