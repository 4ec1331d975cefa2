// Package export writes document contents as GeoJSON, YAML, SVG or a WebP
// preview image.
package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

// Format selects the FeatureCollection encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Snapshot is the read-only view of a document that exporters need.
type Snapshot struct {
	Layers  []document.Layer
	Objects []document.Object
}

// Take reads all layers and objects of doc.
func Take(doc document.Document) (*Snapshot, error) {
	layers, err := doc.Layers().List()
	if err != nil {
		return nil, errors.Wrap(err, "list layers")
	}
	objects, err := doc.Objects().List()
	if err != nil {
		return nil, errors.Wrap(err, "list objects")
	}
	return &Snapshot{Layers: layers, Objects: objects}, nil
}

// layerName returns the name of the layer at index, or "" if unassigned.
func (s *Snapshot) layerName(index int) string {
	for _, l := range s.Layers {
		if l.Index == index {
			return l.Name
		}
	}
	return ""
}

// FeatureCollection rebuilds GeoJSON from the snapshot: points become Point
// features, curves LineString features. User strings become properties, plus
// "id" and "layer".
func (s *Snapshot) FeatureCollection() (*geo.FeatureCollection, error) {
	fc := &geo.FeatureCollection{Type: "FeatureCollection", Features: make([]geo.Feature, 0, len(s.Objects))}

	for _, obj := range s.Objects {
		props := map[string]interface{}{}
		if obj.Attributes != nil {
			for _, k := range obj.Attributes.Keys() {
				v, _ := obj.Attributes.UserString(k)
				props[k] = v
			}
			if name := s.layerName(obj.Attributes.LayerIndex); name != "" {
				props["layer"] = name
			}
		}
		props["id"] = string(obj.ID)

		var geomType string
		var coords interface{}
		switch obj.Kind {
		case document.KindPoint:
			geomType = "Point"
			coords = []float64{obj.Point.X, obj.Point.Y}
		case document.KindCurve:
			geomType = "LineString"
			line := make([][]float64, len(obj.Curve.Points))
			for i, p := range obj.Curve.Points {
				line[i] = []float64{p.X, p.Y}
			}
			coords = line
		default:
			return nil, errors.Errorf("object %s has unknown kind %q", obj.ID, obj.Kind)
		}

		raw, err := json.Marshal(coords)
		if err != nil {
			return nil, errors.Wrap(err, "encode coordinates")
		}

		fc.Features = append(fc.Features, geo.Feature{
			Type:       "Feature",
			Geometry:   &geo.Geometry{Type: geomType, Coordinates: raw},
			Properties: props,
		})
	}

	return fc, nil
}

// WriteFeatureCollection encodes the snapshot as GeoJSON or YAML.
func (s *Snapshot) WriteFeatureCollection(w io.Writer, format Format) error {
	fc, err := s.FeatureCollection()
	if err != nil {
		return err
	}

	if format == FormatYAML {
		// RawMessage coordinates only make sense to JSON, so go through a
		// generic value first.
		data, err := json.Marshal(fc)
		if err != nil {
			return errors.Wrap(err, "encode feature collection")
		}
		var generic interface{}
		if err := json.Unmarshal(data, &generic); err != nil {
			return errors.Wrap(err, "decode feature collection")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(fc), "encode geojson")
}

// SaveFile creates path (and its directory) and fills it with write.
func SaveFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	if err := write(f); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	log.Info().Str("path", path).Msg("Export written")
	return nil
}
