package geo

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sample = `{ "type": "FeatureCollection",
  "features": [
    { "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [102.0, 0.5]},
      "properties": {"prop0": "value0"}
    },
    { "type": "Feature",
      "geometry": {
        "type": "LineString",
        "coordinates": [[102.0, 0.0], [103.0, 1.0], [104.0, 0.0], [105.0, 1.0]]
      },
      "properties": {"prop0": "value0", "prop1": 0.0}
    },
    { "type": "Feature",
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[100.0, 0.0], [101.0, 0.0], [101.0, 1.0], [100.0, 1.0], [100.0, 0.0]]]
      },
      "properties": {"prop0": "value0", "prop1": {"this": "that"}}
    }
  ]
}`

func TestDecode(t *testing.T) {
	fc, err := Decode([]byte(sample))
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "FeatureCollection", fc.Type)

	assert.Equal(t, "0.0", PropertyString(fc.Features[1].Properties["prop1"]))
	assert.Equal(t, `{"this":"that"}`, PropertyString(fc.Features[2].Properties["prop1"]))
	assert.Equal(t, "value0", PropertyString(fc.Features[0].Properties["prop0"]))

	_, err = Decode([]byte(`{"type":`))
	require.Error(t, err)
}

func TestDecodeRejectsTrailingData(t *testing.T) {
	point := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
		"geometry":{"type":"Point","coordinates":[1,2]}}]}`

	for _, raw := range []string{
		point + ` }garbage[`,
		point + point,
		point + ` 1`,
	} {
		_, err := Decode([]byte(raw))
		require.ErrorIs(t, err, ErrTrailingData)
	}

	fc, err := Decode([]byte(point + "\n\t "))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)

	_, err = DecodeLayers([]byte(`{"a":` + point + `} {"b":1}`))
	require.ErrorIs(t, err, ErrTrailingData)
}

func TestDecodeRequiresFeatures(t *testing.T) {
	for _, raw := range []string{
		`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}`,
		`null`,
		`{"type":"FeatureCollection"}`,
		`{"type":"FeatureCollection","features":null}`,
	} {
		_, err := Decode([]byte(raw))
		require.ErrorIs(t, err, ErrMissingFeatures, raw)
	}

	fc, err := Decode([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Empty(t, fc.Features)

	_, err = DecodeLayers([]byte(`{"a":{"type":"Feature"}}`))
	require.ErrorIs(t, err, ErrMissingFeatures)
}

func TestGeometryOrb(t *testing.T) {
	tests := []struct {
		name string
		geom string
		want orb.Geometry
	}{
		{"point", `{"type":"Point","coordinates":[102.0,0.5]}`, orb.Point{102, 0.5}},
		{"point with elevation", `{"type":"Point","coordinates":[1,2,3]}`, orb.Point{1, 2}},
		{"multipoint", `{"type":"MultiPoint","coordinates":[[1,2],[3,4]]}`, orb.MultiPoint{{1, 2}, {3, 4}}},
		{"linestring", `{"type":"LineString","coordinates":[[1,2],[3,4]]}`, orb.LineString{{1, 2}, {3, 4}}},
		{"multilinestring", `{"type":"MultiLineString","coordinates":[[[1,2],[3,4]],[[5,6],[7,8]]]}`,
			orb.MultiLineString{{{1, 2}, {3, 4}}, {{5, 6}, {7, 8}}}},
		{"polygon", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]],[[0.2,0.2],[0.4,0.2],[0.2,0.4],[0.2,0.2]]]}`,
			orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, {{0.2, 0.2}, {0.4, 0.2}, {0.2, 0.4}, {0.2, 0.2}}}},
		{"multipolygon", `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[0,0]]],[[[5,5],[6,5],[5,5]]]]}`,
			orb.MultiPolygon{{{{0, 0}, {1, 0}, {0, 0}}}, {{{5, 5}, {6, 5}, {5, 5}}}}},
		{"collection", `{"type":"GeometryCollection","geometries":[{"type":"Point","coordinates":[1,2]}]}`,
			orb.Collection{orb.Point{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Geometry
			require.NoError(t, json.Unmarshal([]byte(tt.geom), &g))

			got, err := g.Orb()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeometryOrbErrors(t *testing.T) {
	g := Geometry{Type: "Circle", Coordinates: json.RawMessage(`[1,2]`)}
	_, err := g.Orb()
	require.ErrorIs(t, err, ErrUnknownKind)

	g = Geometry{Type: "Point"}
	_, err = g.Orb()
	require.ErrorIs(t, err, ErrMissingCoordinates)

	g = Geometry{Type: "LineString", Coordinates: json.RawMessage(`"nope"`)}
	_, err = g.Orb()
	require.Error(t, err)
}

func TestGeometryOrbRejectsShortPositions(t *testing.T) {
	tests := []struct {
		name string
		geom string
		is   error
	}{
		{"empty point", `{"type":"Point","coordinates":[]}`, ErrInvalidPosition},
		{"one element point", `{"type":"Point","coordinates":[5]}`, ErrInvalidPosition},
		{"null point", `{"type":"Point","coordinates":null}`, ErrMissingCoordinates},
		{"null position", `{"type":"MultiPoint","coordinates":[[1,2],null]}`, ErrInvalidPosition},
		{"short line position", `{"type":"LineString","coordinates":[[1,2],[3]]}`, ErrInvalidPosition},
		{"short ring position", `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1],[0,0]]]}`, ErrInvalidPosition},
		{"short multipolygon position", `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[0,0]]],[[[5]]]]}`, ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Geometry
			require.NoError(t, json.Unmarshal([]byte(tt.geom), &g))

			got, err := g.Orb()
			require.ErrorIs(t, err, tt.is)
			assert.Nil(t, got)
		})
	}
}

func TestParseKind(t *testing.T) {
	for k, name := range kindNames {
		got, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.Equal(t, name, k.String())
	}

	_, err := ParseKind("point")
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeLayersKeepsOrder(t *testing.T) {
	raw := `{
		"zeta":  {"type":"FeatureCollection","features":[]},
		"alpha": {"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{}}]},
		"mid":   {"type":"FeatureCollection","features":[]}
	}`

	layers, err := DecodeLayers([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, layers.Names())
	assert.Len(t, layers[1].Collection.Features, 1)

	_, err = DecodeLayers([]byte(`[1,2]`))
	require.ErrorIs(t, err, ErrNotObject)
}

func TestFromValueYAML(t *testing.T) {
	src := `
type: FeatureCollection
features:
  - type: Feature
    properties:
      name: town
    geometry:
      type: Point
      coordinates: [10.5, 20.25]
`
	var v interface{}
	require.NoError(t, yaml.Unmarshal([]byte(src), &v))

	fc, err := FromValue(v)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	g, err := fc.Features[0].Geometry.Orb()
	require.NoError(t, err)
	assert.Equal(t, orb.Point{10.5, 20.25}, g)
	assert.Equal(t, "town", PropertyString(fc.Features[0].Properties["name"]))
}

func TestPropertyString(t *testing.T) {
	assert.Equal(t, "", PropertyString(nil))
	assert.Equal(t, "true", PropertyString(true))
	assert.Equal(t, "1.5", PropertyString(1.5))
	assert.Equal(t, "7", PropertyString(7))
	assert.Equal(t, `[1,"a"]`, PropertyString([]interface{}{json.Number("1"), "a"}))
}

func TestProjection(t *testing.T) {
	p, err := ParseProjection("")
	require.NoError(t, err)
	x, y := p.Project(orb.Point{102, 0.5})
	assert.Equal(t, 102.0, x)
	assert.Equal(t, 0.5, y)

	p, err = ParseProjection("mercator")
	require.NoError(t, err)
	x, y = p.Project(orb.Point{180, 0})
	assert.InDelta(t, 20037508.34, x, 0.01)
	assert.InDelta(t, 0, y, 1e-6)

	_, y = p.Project(orb.Point{0, 90})
	assert.InDelta(t, 20037508.34, y, 1)

	_, err = ParseProjection("utm")
	require.Error(t, err)
}
