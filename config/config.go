// Package config provides configuration loading and access for the MAPF tools.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/gridmapf/motion"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all configuration parameters.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Motion    MotionConfig    `yaml:"motion"`
	Rollout   RolloutConfig   `yaml:"rollout"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Render    RenderConfig    `yaml:"render"`
	Validate  ValidateConfig  `yaml:"validate"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`
	Stream    StreamConfig    `yaml:"stream"`
	Logging   LoggingConfig   `yaml:"logging"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// DataConfig locates maps and scenarios and selects the instance slice.
type DataConfig struct {
	MapsDir  string `yaml:"maps_dir"`
	ScenDir  string `yaml:"scen_dir"`
	Map      string `yaml:"map"`
	MapPath  string `yaml:"map_path,omitempty"`  // overrides MapsDir/Map
	ScenPath string `yaml:"scen_path,omitempty"` // overrides scenario resolution
	K        int    `yaml:"k"`
	Offset   int    `yaml:"offset"`
}

// MotionConfig selects the movement model.
type MotionConfig struct {
	Connectivity int `yaml:"connectivity"`
}

// RolloutConfig holds rollout parameters.
type RolloutConfig struct {
	Steps    int    `yaml:"steps"`
	Policy   string `yaml:"policy"` // random | astar
	Seed     int64  `yaml:"seed"`
	Headless bool   `yaml:"headless"`
	LogEvery int    `yaml:"log_every"`
}

// PlaybackConfig holds GIF playback parameters.
type PlaybackConfig struct {
	FPS                 int  `yaml:"fps"`
	Stride              int  `yaml:"stride"`
	CellSize            int  `yaml:"cell_size"`
	HighlightCollisions bool `yaml:"highlight_collisions"`
}

// RenderConfig holds viewer window settings.
type RenderConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	TargetFPS      int     `yaml:"target_fps"`
	StepsPerSecond float64 `yaml:"steps_per_second"`
	CellSize       int     `yaml:"cell_size"`
}

// ValidateConfig holds batch validation settings.
type ValidateConfig struct {
	Workers int `yaml:"workers"`
}

// TelemetryConfig holds CSV output settings.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// StorageConfig selects the report store.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

// StreamConfig holds WebSocket server settings.
type StreamConfig struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	Connectivity motion.Connectivity
	LogLevel     slog.Level
}

// envPrefix prefixes every environment override.
const envPrefix = "MAPF_"

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// LoadDotEnv loads the first readable .env file among paths into the
// process environment. Existing variables are never overwritten. It
// returns the path loaded, or "" if none was found.
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env", "../.env", "../../.env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// Load loads configuration from a YAML file, merging with embedded defaults,
// then applies MAPF_* environment overrides.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv(lookup)

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from MAPF_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"MAPS_DIR", &c.Data.MapsDir},
		{"SCEN_DIR", &c.Data.ScenDir},
		{"LOG_LEVEL", &c.Logging.Level},
		{"LOG_FORMAT", &c.Logging.Format},
		{"STORAGE_BACKEND", &c.Storage.Backend},
		{"SQLITE_PATH", &c.Storage.SQLitePath},
		{"STREAM_ADDR", &c.Stream.Addr},
		{"ROLLOUT_POLICY", &c.Rollout.Policy},
	}
	for _, o := range overrides {
		if v, ok := lookup(envPrefix + o.key); ok && v != "" {
			*o.dst = v
		}
	}
}

// Refresh recomputes derived values after fields were changed in place,
// for example by command-line flags.
func (c *Config) Refresh() error {
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config and rejects
// values no command could run with.
func (c *Config) computeDerived() error {
	conn := motion.Connectivity(c.Motion.Connectivity)
	if err := conn.Check(); err != nil {
		return fmt.Errorf("motion.connectivity: %w", err)
	}
	c.Derived.Connectivity = conn

	if err := c.Derived.LogLevel.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (want text or json)", ErrInvalid, c.Logging.Format)
	}

	if c.Data.K < 0 || c.Data.Offset < 0 {
		return fmt.Errorf("%w: data.k and data.offset must be non-negative", ErrInvalid)
	}
	if c.Playback.FPS <= 0 {
		c.Playback.FPS = 5
	}
	if c.Playback.Stride <= 0 {
		c.Playback.Stride = 1
	}
	if c.Playback.CellSize <= 0 {
		c.Playback.CellSize = 16
	}
	switch c.Rollout.Policy {
	case "":
		c.Rollout.Policy = "random"
	case "random", "astar":
	default:
		return fmt.Errorf("%w: rollout.policy %q (want random or astar)", ErrInvalid, c.Rollout.Policy)
	}
	if c.Rollout.LogEvery <= 0 {
		c.Rollout.LogEvery = 1
	}
	if c.Stream.Interval <= 0 {
		c.Stream.Interval = 200 * time.Millisecond
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
