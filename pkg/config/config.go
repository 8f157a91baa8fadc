// Package config loads spiral.yaml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chazu/spiral/pkg/stair"
)

// FileName is the config file looked up in the working directory.
const FileName = "spiral.yaml"

const defaultConfigYAML = `# spiral configuration
version: 1

kernel:
  # Marching-cubes cells along the longest axis of each part.
  mesh_cells: 200
  # Straight segments per tread arc in plan outlines.
  arc_segments: 8

output:
  dir: out
  stl: true
  dxf: true

defaults:
  direction: clockwise
  # Snap the center pole to the nearest stock size before checking.
  snap_pole: false
  # Decision policy for non-interactive runs: accept, ignore or abort.
  policy: ignore

repair:
  max_attempts: 3

source:
  # Limit for evaluating one staircase source.
  timeout: 5s

watch:
  debounce: 300ms

log:
  level: info
`

// KernelConfig tunes the solid kernel.
type KernelConfig struct {
	MeshCells   int `yaml:"mesh_cells"`
	ArcSegments int `yaml:"arc_segments"`
}

// OutputConfig selects export files.
type OutputConfig struct {
	Dir string `yaml:"dir"`
	STL bool   `yaml:"stl"`
	DXF bool   `yaml:"dxf"`
}

// DefaultsConfig holds values applied when a source or flag is silent.
type DefaultsConfig struct {
	Direction stair.Direction `yaml:"direction"`
	SnapPole  bool            `yaml:"snap_pole"`
	Policy    string          `yaml:"policy"`
}

// RepairConfig bounds the repair loop.
type RepairConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// SourceConfig tunes source evaluation.
type SourceConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// WatchConfig tunes file watching.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig sets the log level name.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config models spiral.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Kernel   KernelConfig   `yaml:"kernel"`
	Output   OutputConfig   `yaml:"output"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Repair   RepairConfig   `yaml:"repair"`
	Source   SourceConfig   `yaml:"source"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
}

// Policies lists the accepted values of defaults.policy.
var Policies = []string{"accept", "ignore", "abort"}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: default YAML is invalid: %v", err))
	}
	return &cfg
}

// DefaultYAML returns the commented default file, as written by Init.
func DefaultYAML() string {
	return defaultConfigYAML
}

// Load reads path over the defaults. A missing file is not an error.
// An empty path means FileName in the working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes the commented default file unless path already exists.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// Validate reports the first out-of-range setting.
func (c *Config) Validate() error {
	if c.Kernel.MeshCells < 16 {
		return fmt.Errorf("kernel.mesh_cells must be at least 16, got %d", c.Kernel.MeshCells)
	}
	if c.Kernel.ArcSegments < 1 {
		return fmt.Errorf("kernel.arc_segments must be at least 1, got %d", c.Kernel.ArcSegments)
	}
	if !validPolicy(c.Defaults.Policy) {
		return fmt.Errorf("defaults.policy must be one of %s, got %q", strings.Join(Policies, ", "), c.Defaults.Policy)
	}
	if c.Repair.MaxAttempts < 1 {
		return fmt.Errorf("repair.max_attempts must be at least 1, got %d", c.Repair.MaxAttempts)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func validPolicy(p string) bool {
	for _, v := range Policies {
		if p == v {
			return true
		}
	}
	return false
}

// LogLevel returns the configured slog level, Info when unparseable.
func (c *Config) LogLevel() slog.Level {
	l, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: unknown level %q", s)
	}
	return l, nil
}
