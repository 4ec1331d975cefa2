// Package config handles configuration loading and shared data structures.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

// Config represents the root configuration file structure.
type Config struct {
	Projection string   `yaml:"projection,omitempty" toml:"projection" json:"projection,omitempty"`
	Palette    []string `yaml:"palette,omitempty" toml:"palette" json:"palette,omitempty"`
	Layers     []Layer  `yaml:"layers" toml:"layers" json:"layers"`
}

// Layer is one destination layer and where its features come from.
type Layer struct {
	// defining GeoJSON directly in the config file
	Inline interface{} `yaml:"geojson,omitempty" toml:"geojson" json:"-"`

	Name   string `yaml:"name" toml:"name" json:"name"`
	Color  string `yaml:"color,omitempty" toml:"color" json:"color,omitempty"`
	Source string `yaml:"source,omitempty" toml:"source" json:"source,omitempty"`
}

// Load reads and parses the configuration file from the specified path.
// Files ending in .toml are TOML, anything else is YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}

	return &cfg, nil
}

// Validate checks names, colors and sources.
func (c *Config) Validate() error {
	if _, err := geo.ParseProjection(c.Projection); err != nil {
		return err
	}

	if _, err := c.PaletteColors(); err != nil {
		return err
	}

	seen := map[string]bool{}
	for i, l := range c.Layers {
		if l.Name == "" {
			return errors.Errorf("layer %d has no name", i)
		}
		if seen[l.Name] {
			return errors.Errorf("layer %q is defined twice", l.Name)
		}
		seen[l.Name] = true

		if l.Source == "" && l.Inline == nil {
			return errors.Errorf("layer %q needs a source or inline geojson", l.Name)
		}
		if l.Source != "" && l.Inline != nil {
			return errors.Errorf("layer %q has both a source and inline geojson", l.Name)
		}
		if _, err := document.ParseColor(l.Color); err != nil {
			return errors.Wrapf(err, "layer %q", l.Name)
		}
	}

	return nil
}

// PaletteColors parses the palette.
func (c *Config) PaletteColors() ([]document.Color, error) {
	out := make([]document.Color, 0, len(c.Palette))
	for _, s := range c.Palette {
		color, err := document.ParseColor(s)
		if err != nil {
			return nil, errors.Wrap(err, "palette")
		}
		out = append(out, color)
	}
	return out, nil
}

// LayerColor returns the color of the layer at index i. An explicit color
// wins over the palette, and black is the fallback.
func (c *Config) LayerColor(i int) (document.Color, error) {
	l := c.Layers[i]
	if l.Color != "" {
		return document.ParseColor(l.Color)
	}

	palette, err := c.PaletteColors()
	if err != nil {
		return document.Color{}, err
	}
	if len(palette) == 0 {
		return document.Black, nil
	}
	return palette[i%len(palette)], nil
}
