// Package geo handles GeoJSON data structures and coordinate conversions.
package geo

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// FeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type FeatureCollection struct {
	Type     string    `json:"type" yaml:"type"`
	Features []Feature `json:"features" yaml:"features"`
}

// Feature represents a single geographic feature with geometry and properties.
// Numbers in Properties are json.Number so their literal text survives.
type Feature struct {
	Properties map[string]interface{} `json:"properties" yaml:"properties"`
	Geometry   *Geometry              `json:"geometry" yaml:"geometry"`
	Type       string                 `json:"type" yaml:"type"`
}

// Geometry represents the geometry of a feature. Coordinates stay raw until
// the geometry kind is known.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

var (
	// ErrNotObject is returned when a layered mapping is not a JSON object.
	ErrNotObject = errors.New("expected a JSON object")
	// ErrMissingFeatures is returned when a collection has no features array.
	ErrMissingFeatures = errors.New("missing features array")
	// ErrTrailingData is returned when text follows the decoded value.
	ErrTrailingData = errors.New("unexpected data after JSON value")
)

// NamedCollection is one entry of a layered mapping.
type NamedCollection struct {
	Collection *FeatureCollection
	Name       string
}

// Layers is a layer-name to FeatureCollection mapping that keeps input order.
type Layers []NamedCollection

// Names returns the layer names in order.
func (l Layers) Names() []string {
	out := make([]string, len(l))
	for i, nc := range l {
		out[i] = nc.Name
	}
	return out
}

func newDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// expectEOF fails unless dec has nothing left but whitespace.
func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		return errors.Wrapf(ErrTrailingData, "offset %d", dec.InputOffset())
	}
	return nil
}

// checkCollection rejects values that decoded without a features array,
// such as a bare Feature or null.
func checkCollection(fc *FeatureCollection) error {
	if fc.Features == nil {
		return ErrMissingFeatures
	}
	return nil
}

// Decode parses a GeoJSON FeatureCollection. The whole input must be one
// JSON value carrying a features array.
func Decode(data []byte) (*FeatureCollection, error) {
	dec := newDecoder(bytes.NewReader(data))

	var fc FeatureCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, errors.Wrap(err, "decode feature collection")
	}
	if err := expectEOF(dec); err != nil {
		return nil, errors.Wrap(err, "decode feature collection")
	}
	if err := checkCollection(&fc); err != nil {
		return nil, errors.Wrap(err, "decode feature collection")
	}
	return &fc, nil
}

// DecodeLayers parses a JSON object mapping layer names to
// FeatureCollections. The result follows the key order of the input.
func DecodeLayers(data []byte) (Layers, error) {
	dec := newDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "decode layers")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Wrapf(ErrNotObject, "decode layers: got %v", tok)
	}

	var out Layers
	index := map[string]int{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "decode layers")
		}
		name, _ := tok.(string)

		var fc FeatureCollection
		if err := dec.Decode(&fc); err != nil {
			return nil, errors.Wrapf(err, "decode layer %q", name)
		}
		if err := checkCollection(&fc); err != nil {
			return nil, errors.Wrapf(err, "decode layer %q", name)
		}

		// a repeated key replaces the earlier value in place
		if i, ok := index[name]; ok {
			out[i].Collection = &fc
			continue
		}
		index[name] = len(out)
		out = append(out, NamedCollection{Name: name, Collection: &fc})
	}

	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "decode layers")
	}
	if err := expectEOF(dec); err != nil {
		return nil, errors.Wrap(err, "decode layers")
	}

	return out, nil
}

// FromValue converts an already decoded structure (for example YAML or TOML
// config values) into a FeatureCollection.
func FromValue(v interface{}) (*FeatureCollection, error) {
	if fc, ok := v.(*FeatureCollection); ok {
		return fc, nil
	}

	data, err := json.Marshal(normalize(v))
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}
	return Decode(data)
}

// normalize turns map[interface{}]interface{} values, which JSON cannot
// encode, into string keyed maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, _ := k.(string)
			m[ks] = normalize(val)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = normalize(val)
		}
		return s
	case []map[string]interface{}:
		s := make([]interface{}, len(t))
		for i, val := range t {
			s[i] = normalize(val)
		}
		return s
	default:
		return v
	}
}
