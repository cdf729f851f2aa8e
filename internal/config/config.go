// Package config handles demo configuration loading and management.
package config

import (
	"github.com/Faultbox/midgard-grass/internal/engine/grass"
	"github.com/Faultbox/midgard-grass/internal/engine/terrain"
)

// Config holds all settings for the grass demo and tooling.
type Config struct {
	Graphics   GraphicsConfig         `yaml:"graphics"`
	Grass      grass.Options          `yaml:"grass"`
	Appearance grass.AppearanceConfig `yaml:"appearance"`
	Terrain    terrain.Config         `yaml:"terrain"`
	Player     PlayerConfig           `yaml:"player"`
	Camera     CameraConfig           `yaml:"camera"`
	Logging    LoggingConfig          `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width         int  `yaml:"width"`
	Height        int  `yaml:"height"`
	Fullscreen    bool `yaml:"fullscreen"`
	VSync         bool `yaml:"vsync"`
	FPSLimit      int  `yaml:"fps_limit"`
	ShadowMapSize int  `yaml:"shadow_map_size"`
	ShowStats     bool `yaml:"show_stats"`
}

// PlayerConfig holds anchor movement settings.
type PlayerConfig struct {
	Speed      float32 `yaml:"speed"`      // World units per second
	EyeHeight  float32 `yaml:"eye_height"` // Anchor offset above the ground
	StartX     float32 `yaml:"start_x"`
	StartZ     float32 `yaml:"start_z"`
	AutoWalk   bool    `yaml:"auto_walk"`   // Walk in a circle without input
	WalkRadius float32 `yaml:"walk_radius"` // Radius of the auto walk circle
}

// CameraConfig holds follow camera settings.
type CameraConfig struct {
	FOV      float32 `yaml:"fov"` // Degrees
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
	Distance float32 `yaml:"distance"`
	Pitch    float32 `yaml:"pitch"` // Radians
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:         1280,
			Height:        720,
			Fullscreen:    false,
			VSync:         true,
			FPSLimit:      0,
			ShadowMapSize: 2048,
		},
		Grass:      grass.DefaultOptions(),
		Appearance: grass.DefaultAppearance(),
		Terrain:    terrain.DefaultConfig(),
		Player: PlayerConfig{
			Speed:      8,
			EyeHeight:  0,
			WalkRadius: 40,
		},
		Camera: CameraConfig{
			FOV:      60,
			Near:     0.1,
			Far:      500,
			Distance: 12,
			Pitch:    0.35,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the demo cannot run with.
func (c *Config) Validate() error {
	if err := c.Grass.Validate(); err != nil {
		return err
	}
	return c.Terrain.Validate()
}
