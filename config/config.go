// Package config provides configuration loading and access for the visualizer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all visualizer configuration parameters.
type Config struct {
	Canvas    CanvasConfig    `yaml:"canvas"`
	Maps      MapsConfig      `yaml:"maps"`
	Swarm     SwarmConfig     `yaml:"swarm"`
	Noise     NoiseConfig     `yaml:"noise"`
	GPU       GPUConfig       `yaml:"gpu"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// CanvasConfig holds the fixed output canvas settings.
type CanvasConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	PixelScale int    `yaml:"pixel_scale"` // Screen pixels per canvas pixel (1 = 1:1)
	TargetFPS  int    `yaml:"target_fps"`
	Title      string `yaml:"title"`
}

// MapsConfig holds map asset selection and thresholding parameters.
type MapsConfig struct {
	Active  string                  `yaml:"active"` // Name of the map set to load
	Dir     string                  `yaml:"dir"`    // Directory the map files are read from
	Sets    map[string]MapSetConfig `yaml:"sets"`
	Plain   ThresholdConfig         `yaml:"plain"`
	Traffic ThresholdConfig         `yaml:"traffic"`
}

// MapSetConfig names the two image files that make up a map pair.
type MapSetConfig struct {
	Plain   string `yaml:"plain"`   // Background map
	Traffic string `yaml:"traffic"` // Feature map
}

// ThresholdConfig holds the binarization parameters for one map.
type ThresholdConfig struct {
	Target    [3]float64 `yaml:"target"`    // RGB target color, 0-255 per channel
	Threshold float64    `yaml:"threshold"` // Pixels strictly closer than this become white
}

// SwarmConfig holds crawler population and animation parameters.
type SwarmConfig struct {
	Count              int        `yaml:"count"`
	MaxRadius          uint32     `yaml:"max_radius"`
	RadiusStep         uint32     `yaml:"radius_step"`
	AlphaStep          float32    `yaml:"alpha_step"`
	TickPeriod         float64    `yaml:"tick_period"` // Seconds between simulation ticks
	GroupEvery         int        `yaml:"group_every"` // Every Nth crawler (by creation index) is group 1
	InitialGrowthFrame uint32     `yaml:"initial_growth_frame"`
	GroupColor         [4]float32 `yaml:"group_color"`   // Group 1 RGBA
	DefaultColor       [4]float32 `yaml:"default_color"` // Group 0 RGBA
}

// NoiseConfig holds the procedural placement parameters.
type NoiseConfig struct {
	Seed        int64   `yaml:"seed"`
	TimeScale   float64 `yaml:"time_scale"`   // Noise-space step per growth frame
	XMultiplier float64 `yaml:"x_multiplier"` // Per-agent offset along the x sample axis
	YMultiplier float64 `yaml:"y_multiplier"` // Per-agent offset along the y sample axis
}

// GPUConfig holds compute stage parameters.
type GPUConfig struct {
	Shader       string  `yaml:"shader"`
	EntryPoint   string  `yaml:"entry_point"`
	TileSize     int     `yaml:"tile_size"`
	RotationStep float32 `yaml:"rotation_step"` // Radians per rendered frame
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Seconds between stats records
	PerfWindow  int     `yaml:"perf_window"`  // Frames averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CanvasW32   float32
	CanvasH32   float32
	WorkgroupsX uint32 // Canvas.Width / GPU.TileSize
	WorkgroupsY uint32 // Canvas.Height / GPU.TileSize
	ActiveSet   MapSetConfig
}

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



// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SelectMapSet switches the active map set and recomputes derived values.
func (c *Config) SelectMapSet(name string) error {
	c.Maps.Active = name
	return c.computeDerived()
}

// MapSetNames returns the configured map set names in sorted order.
func (c *Config) MapSetNames() []string {
	names := make([]string, 0, len(c.Maps.Sets))
	for name := range c.Maps.Sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// computeDerived validates the loaded config and calculates derived values.
func (c *Config) computeDerived() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.PixelScale <= 0 {
		c.Canvas.PixelScale = 1
	}
	if c.GPU.TileSize <= 0 {
		c.GPU.TileSize = 8
	}
	if c.GPU.TileSize > c.Canvas.Width || c.GPU.TileSize > c.Canvas.Height {
		return fmt.Errorf("gpu tile size %d exceeds canvas %dx%d", c.GPU.TileSize, c.Canvas.Width, c.Canvas.Height)
	}
	if c.Swarm.Count <= 0 {
		return fmt.Errorf("swarm count must be positive, got %d", c.Swarm.Count)
	}
	if c.Swarm.GroupEvery <= 0 {
		c.Swarm.GroupEvery = 5
	}
	if c.Swarm.TickPeriod <= 0 {
		return fmt.Errorf("swarm tick period must be positive, got %v", c.Swarm.TickPeriod)
	}

	set, ok := c.Maps.Sets[c.Maps.Active]
	if !ok {
		return fmt.Errorf("unknown map set %q (available: %v)", c.Maps.Active, c.MapSetNames())
	}

	c.Derived.CanvasW32 = float32(c.Canvas.Width)
	c.Derived.CanvasH32 = float32(c.Canvas.Height)
	c.Derived.WorkgroupsX = uint32(c.Canvas.Width / c.GPU.TileSize)
	c.Derived.WorkgroupsY = uint32(c.Canvas.Height / c.GPU.TileSize)
	c.Derived.ActiveSet = set
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
