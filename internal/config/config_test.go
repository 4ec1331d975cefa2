package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "config.yaml", `
projection: mercator
palette: ["#00ff00", "#0000ff"]
layers:
  - name: roads
    color: "#ff0000"
    source: roads.geojson
  - name: pois
    geojson:
      type: FeatureCollection
      features:
        - type: Feature
          properties: {name: a}
          geometry: {type: Point, coordinates: [1, 2]}
  - name: rivers
    source: https://example.com/rivers.geojson
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Layers, 3)
	assert.Equal(t, "mercator", cfg.Projection)

	c, err := cfg.LayerColor(0)
	require.NoError(t, err)
	assert.Equal(t, document.Color{R: 255, A: 255}, c)

	c, err = cfg.LayerColor(1)
	require.NoError(t, err)
	assert.Equal(t, document.Color{B: 255, A: 255}, c)

	c, err = cfg.LayerColor(2)
	require.NoError(t, err)
	assert.Equal(t, document.Color{G: 255, A: 255}, c)

	fc, err := geo.FromValue(cfg.Layers[1].Inline)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "config.toml", `
projection = "none"

[[layers]]
name = "roads"
source = "roads.geojson"

[[layers]]
name = "pois"
color = "#000"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a source")

	path = write(t, "ok.toml", `
[[layers]]
name = "roads"
source = "roads.geojson"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Layers, 1)
	c, err := cfg.LayerColor(0)
	require.NoError(t, err)
	assert.Equal(t, document.Black, c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"projection", Config{Projection: "utm"}},
		{"palette", Config{Palette: []string{"nope"}}},
		{"no name", Config{Layers: []Layer{{Source: "a"}}}},
		{"duplicate", Config{Layers: []Layer{{Name: "a", Source: "a"}, {Name: "a", Source: "b"}}}},
		{"both sources", Config{Layers: []Layer{{Name: "a", Source: "a", Inline: map[string]interface{}{}}}}},
		{"color", Config{Layers: []Layer{{Name: "a", Source: "a", Color: "bad"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.cfg.Validate())
		})
	}

	require.NoError(t, (&Config{}).Validate())
}
