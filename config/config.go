// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Sim       SimConfig       `yaml:"sim"`
	Player    PlayerConfig    `yaml:"player"`
	Lives     LivesConfig     `yaml:"lives"`
	Pursuer   PursuerConfig   `yaml:"pursuer"`
	Clone     CloneConfig     `yaml:"clone"`
	Level     LevelConfig     `yaml:"level"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Storage   StorageConfig   `yaml:"storage"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds scheduler parameters.
type SimConfig struct {
	TickRate   int  `yaml:"tick_rate"`    // Ticks per second
	StaminaHz  int  `yaml:"stamina_hz"`   // Stamina machine steps per second
	Realtime   bool `yaml:"realtime"`     // Pace ticks against the wall clock
	StopOnExit bool `yaml:"stop_on_exit"` // End the run when the protagonist reaches an exit
}

// PlayerConfig holds protagonist movement, health and stamina parameters.
type PlayerConfig struct {
	Radius             float64 `yaml:"radius"`
	Height             float64 `yaml:"height"`
	WalkSpeed          float64 `yaml:"walk_speed"`   // units per tick
	SprintSpeed        float64 `yaml:"sprint_speed"` // units per tick
	RotateSensitivity  float64 `yaml:"rotate_sensitivity"`
	StepDistance       float64 `yaml:"step_distance"`
	MaxHealth          int     `yaml:"max_health"`
	DamagePerHit       int     `yaml:"damage_per_hit"`
	HealthRegenPerTick int     `yaml:"health_regen_per_tick"`
	GraceTicks         int     `yaml:"grace_ticks"`
	MaxStamina         float64 `yaml:"max_stamina"`
	StaminaRegen       float64 `yaml:"stamina_regen"` // per second
	AttackRange        float64 `yaml:"attack_range"`
}

// LivesConfig holds the life budget of a run.
type LivesConfig struct {
	Max int `yaml:"max"` // 0 = unbounded
}

// PursuerConfig holds hostile creature parameters.
type PursuerConfig struct {
	Speed        float64 `yaml:"speed"`
	Radius       float64 `yaml:"radius"`
	StunTicks    int     `yaml:"stun_ticks"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// CloneConfig holds replay interaction rules.
type CloneConfig struct {
	AttacksStun bool `yaml:"attacks_stun"`
}

// LevelConfig holds the enclosure layout.
type LevelConfig struct {
	TileSize float64 `yaml:"tile_size"`
	Map      string  `yaml:"map"`
}

// TelemetryConfig holds logging and output parameters.
type TelemetryConfig struct {
	OutputDir      string  `yaml:"output_dir"`
	SnapshotDir    string  `yaml:"snapshot_dir"`
	StatsWindow    float64 `yaml:"stats_window"` // seconds per telemetry window
	LogLevel       string  `yaml:"log_level"`
	StatusInterval int     `yaml:"status_interval"`
}

// StorageConfig selects the run persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite
	Path   string `yaml:"path"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SecondsPerTick      float64 // 1 / TickRate
	TicksPerStaminaStep int     // TickRate / StaminaHz
	StaminaStepSeconds  float64 // Seconds covered by one stamina step
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

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
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

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the scheduler and state machines cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Sim.TickRate <= 0:
		return fmt.Errorf("sim.tick_rate must be positive, got %d", c.Sim.TickRate)
	case c.Sim.StaminaHz <= 0 || c.Sim.StaminaHz > c.Sim.TickRate:
		return fmt.Errorf("sim.stamina_hz must be in [1, tick_rate], got %d", c.Sim.StaminaHz)
	case c.Player.MaxHealth <= 0:
		return fmt.Errorf("player.max_health must be positive, got %d", c.Player.MaxHealth)
	case c.Player.MaxStamina <= 0:
		return fmt.Errorf("player.max_stamina must be positive, got %v", c.Player.MaxStamina)
	case c.Player.Radius <= 0 || c.Pursuer.Radius <= 0:
		return fmt.Errorf("body radii must be positive")
	case c.Pursuer.GridCellSize <= 0:
		return fmt.Errorf("pursuer.grid_cell_size must be positive, got %v", c.Pursuer.GridCellSize)
	case c.Level.TileSize <= 0:
		return fmt.Errorf("level.tile_size must be positive, got %v", c.Level.TileSize)
	case c.Telemetry.StatsWindow <= 0:
		return fmt.Errorf("telemetry.stats_window must be positive, got %v", c.Telemetry.StatsWindow)
	case c.Lives.Max < 0:
		return fmt.Errorf("lives.max must not be negative, got %d", c.Lives.Max)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SecondsPerTick = 1.0 / float64(c.Sim.TickRate)
	c.Derived.TicksPerStaminaStep = c.Sim.TickRate / c.Sim.StaminaHz
	c.Derived.StaminaStepSeconds = float64(c.Derived.TicksPerStaminaStep) * c.Derived.SecondsPerTick
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
