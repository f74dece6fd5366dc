package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48.1372, cfg.Map.CenterLat)
	assert.Equal(t, 11.5755, cfg.Map.CenterLng)
	assert.Equal(t, 14.0, cfg.Map.Zoom)
	assert.Equal(t, 10.0, cfg.Map.MinZoom)
	assert.Equal(t, 18.0, cfg.Map.MaxZoom)
	assert.Equal(t, 0.001, cfg.Map.WheelSensitivity)
	assert.Equal(t, 0.5, cfg.Map.DragLatFactor)
	assert.Equal(t, "osm", cfg.Tiles.Provider)
	assert.Contains(t, cfg.Tiles.URLTemplate, "{z}/{x}/{y}.png")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COMPANION_MAP_MAX_ZOOM", "16")
	t.Setenv("COMPANION_TILES_PROVIDER", "placeholder")
	t.Setenv("COMPANION_API_BASE_URL", "http://backend:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16.0, cfg.Map.MaxZoom)
	assert.Equal(t, "placeholder", cfg.Tiles.Provider)
	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
}

func TestConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
map:
  zoom: 12
  drag_lat_factor: 1.0
tiles:
  url_template: "https://tiles.internal/{z}/{x}/{y}.png"
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12.0, cfg.Map.Zoom)
	assert.Equal(t, 1.0, cfg.Map.DragLatFactor)
	assert.Equal(t, "https://tiles.internal/{z}/{x}/{y}.png", cfg.Tiles.URLTemplate)
	// Untouched keys keep their defaults.
	assert.Equal(t, 18.0, cfg.Map.MaxZoom)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "map.center_lat", envTransform("COMPANION_MAP_CENTER_LAT"))
	assert.Equal(t, "tiles.url_template", envTransform("COMPANION_TILES_URL_TEMPLATE"))
	assert.Equal(t, "logging.level", envTransform("COMPANION_LOGGING_LEVEL"))
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Map.MinZoom = 19
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Tiles.Provider = "vector"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Map.WheelSensitivity = 0
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Locate.Mode = "gps"
	assert.Error(t, cfg.Validate())
}
