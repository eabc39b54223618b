package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World      WorldConfig      `toml:"world"`
	Player     PlayerConfig     `toml:"player"`
	Simulation SimulationConfig `toml:"simulation"`
	Data       DataConfig       `toml:"data"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Observer   ObserverConfig   `toml:"observer"`
	Logging    LoggingConfig    `toml:"logging"`
}

// WorldConfig bounds the pre-created chunk region (inclusive, chunk units).
type WorldConfig struct {
	MinChunkX int32   `toml:"min_chunk_x"`
	MinChunkY int32   `toml:"min_chunk_y"`
	MaxChunkX int32   `toml:"max_chunk_x"`
	MaxChunkY int32   `toml:"max_chunk_y"`
	WallKind  string  `toml:"wall_kind"` // kind written to chunk borders
	SpawnX    float64 `toml:"spawn_x"`
	SpawnY    float64 `toml:"spawn_y"`
}

type PlayerConfig struct {
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	Health        int32   `toml:"health"`
	MovementSpeed float64 `toml:"movement_speed"` // tiles per second
	Damping       float64 `toml:"damping"`        // fraction of velocity lost per tick
}

type SimulationConfig struct {
	TickRate          time.Duration `toml:"tick_rate"`
	IntentQueueSize   int           `toml:"intent_queue_size"`
	MaxIntentsPerTick int           `toml:"max_intents_per_tick"`
}

type DataConfig struct {
	EntitiesPath string `toml:"entities_path"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type ObserverConfig struct {
	Enabled     bool   `toml:"enabled"`
	BindAddress string `toml:"bind_address"`
	FrameEvery  int    `toml:"frame_every"` // ticks between frames
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.World.MinChunkX > c.World.MaxChunkX || c.World.MinChunkY > c.World.MaxChunkY {
		return fmt.Errorf("world: min chunk (%d, %d) exceeds max chunk (%d, %d)",
			c.World.MinChunkX, c.World.MinChunkY, c.World.MaxChunkX, c.World.MaxChunkY)
	}
	if c.Simulation.TickRate <= 0 {
		return fmt.Errorf("simulation: tick_rate must be positive")
	}
	if c.Player.Width <= 0 || c.Player.Height <= 0 {
		return fmt.Errorf("player: width and height must be positive")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			MinChunkX: -1,
			MinChunkY: -1,
			MaxChunkX: 1,
			MaxChunkY: 1,
			WallKind:  "block",
			SpawnX:    4,
			SpawnY:    4,
		},
		Player: PlayerConfig{
			Width:         1,
			Height:        2,
			Health:        100,
			MovementSpeed: 6,
			Damping:       0.08,
		},
		Simulation: SimulationConfig{
			TickRate:          time.Second / 60,
			IntentQueueSize:   256,
			MaxIntentsPerTick: 32,
		},
		Data: DataConfig{
			EntitiesPath: "data/yaml/entities.yaml",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Observer: ObserverConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1:7070",
			FrameEvery:  6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
