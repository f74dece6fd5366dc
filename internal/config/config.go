// Package config loads the application configuration in three layers:
// struct defaults, an optional YAML file, then COMPANION_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "COMPANION_CONFIG"

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

type Config struct {
	Map     MapConfig     `koanf:"map"`
	Tiles   TilesConfig   `koanf:"tiles"`
	API     APIConfig     `koanf:"api"`
	Chat    ChatConfig    `koanf:"chat"`
	Locate  LocateConfig  `koanf:"locate"`
	Session SessionConfig `koanf:"session"`
	Logging LoggingConfig `koanf:"logging"`
}

type MapConfig struct {
	CenterLat float64 `koanf:"center_lat"`
	CenterLng float64 `koanf:"center_lng"`
	Zoom      float64 `koanf:"zoom"`
	MinZoom   float64 `koanf:"min_zoom"`
	MaxZoom   float64 `koanf:"max_zoom"`

	WheelSensitivity float64 `koanf:"wheel_sensitivity"`

	// DragLatFactor scales vertical drags into latitude deltas. 0.5 is
	// the historical approximation; changing it changes drag feel.
	DragLatFactor float64 `koanf:"drag_lat_factor"`
}

type TilesConfig struct {
	// Provider selects the pipeline: "osm" (network, gaps on failure),
	// "placeholder" (offline), or "combined" (placeholder while loading).
	Provider    string `koanf:"provider"`
	URLTemplate string `koanf:"url_template"`
	Workers     int    `koanf:"workers"`
}

type APIConfig struct {
	BaseURL string `koanf:"base_url"`
	Mood    string `koanf:"mood"`
	Radius  int    `koanf:"radius"`
}

type ChatConfig struct {
	WSBaseURL string `koanf:"ws_base_url"`
}

type LocateConfig struct {
	// Mode is "ip" or "fixed".
	Mode     string  `koanf:"mode"`
	Endpoint string  `koanf:"endpoint"`
	Lat      float64 `koanf:"lat"`
	Lng      float64 `koanf:"lng"`
}

type SessionConfig struct {
	Path string `koanf:"path"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

func defaultConfig() *Config {
	return &Config{
		Map: MapConfig{
			CenterLat:        48.1372,
			CenterLng:        11.5755,
			Zoom:             14,
			MinZoom:          10,
			MaxZoom:          18,
			WheelSensitivity: 0.001,
			DragLatFactor:    0.5,
		},
		Tiles: TilesConfig{
			Provider:    "osm",
			URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Workers:     4,
		},
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Mood:    "🌍 Everything",
			Radius:  2000,
		},
		Chat: ChatConfig{
			WSBaseURL: "ws://localhost:8000",
		},
		Locate: LocateConfig{
			Mode:     "ip",
			Endpoint: "",
		},
		Session: SessionConfig{
			Path: "session.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load assembles the configuration from defaults, file and environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// COMPANION_MAP_CENTER_LAT -> map.center_lat
	envProvider := env.Provider("COMPANION_", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "COMPANION_"))
	// The section is always a single word, the rest keeps its underscores.
	if i := strings.Index(s, "_"); i > 0 {
		return s[:i] + "." + s[i+1:]
	}
	return s
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Config) Validate() error {
	if c.Map.MinZoom > c.Map.MaxZoom {
		return fmt.Errorf("map.min_zoom %v greater than map.max_zoom %v", c.Map.MinZoom, c.Map.MaxZoom)
	}
	if c.Map.Zoom < c.Map.MinZoom || c.Map.Zoom > c.Map.MaxZoom {
		return fmt.Errorf("map.zoom %v outside [%v, %v]", c.Map.Zoom, c.Map.MinZoom, c.Map.MaxZoom)
	}
	if c.Map.WheelSensitivity <= 0 {
		return fmt.Errorf("map.wheel_sensitivity must be positive")
	}
	switch c.Tiles.Provider {
	case "osm", "placeholder", "combined":
	default:
		return fmt.Errorf("unknown tiles.provider %q", c.Tiles.Provider)
	}
	switch c.Locate.Mode {
	case "ip", "fixed":
	default:
		return fmt.Errorf("unknown locate.mode %q", c.Locate.Mode)
	}
	if c.Tiles.Workers <= 0 {
		return fmt.Errorf("tiles.workers must be positive")
	}
	return nil
}
