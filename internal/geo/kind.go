package geo

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Kind is a GeoJSON geometry type.
type Kind int

const (
	KindPoint Kind = iota + 1
	KindMultiPoint
	KindLineString
	KindMultiLineString
	KindPolygon
	KindMultiPolygon
	KindGeometryCollection
)

var kindNames = map[Kind]string{
	KindPoint:              "Point",
	KindMultiPoint:         "MultiPoint",
	KindLineString:         "LineString",
	KindMultiLineString:    "MultiLineString",
	KindPolygon:            "Polygon",
	KindMultiPolygon:       "MultiPolygon",
	KindGeometryCollection: "GeometryCollection",
}

var (
	// ErrUnknownKind is returned for geometry type tags GeoJSON does not define.
	ErrUnknownKind = errors.New("unknown geometry type")
	// ErrMissingCoordinates is returned when coordinates are absent or null.
	ErrMissingCoordinates = errors.New("missing coordinates")
	// ErrInvalidPosition is returned for positions with fewer than two
	// elements.
	ErrInvalidPosition = errors.New("position needs longitude and latitude")
)

// ParseKind maps a GeoJSON type tag to a Kind. Tags are case sensitive.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kind returns the parsed type tag of the geometry.
func (g *Geometry) Kind() (Kind, error) {
	return ParseKind(g.Type)
}

// Orb decodes the coordinates into the orb geometry matching the type tag:
// orb.Point, orb.MultiPoint, orb.LineString, orb.MultiLineString,
// orb.Polygon, orb.MultiPolygon or orb.Collection. Positions keep longitude
// and latitude; any further element is dropped.
func (g *Geometry) Orb() (orb.Geometry, error) {
	kind, err := g.Kind()
	if err != nil {
		return nil, err
	}

	if kind == KindGeometryCollection {
		c := make(orb.Collection, 0, len(g.Geometries))
		for i := range g.Geometries {
			member, err := g.Geometries[i].Orb()
			if err != nil {
				return nil, errors.Wrapf(err, "member %d", i)
			}
			c = append(c, member)
		}
		return c, nil
	}

	if len(g.Coordinates) == 0 || bytes.Equal(bytes.TrimSpace(g.Coordinates), []byte("null")) {
		return nil, errors.Wrapf(ErrMissingCoordinates, "%s", kind)
	}

	var out orb.Geometry
	switch kind {
	case KindPoint:
		var raw []float64
		if err = json.Unmarshal(g.Coordinates, &raw); err == nil {
			out, err = toPoint(raw)
		}
	case KindMultiPoint:
		var raw [][]float64
		if err = json.Unmarshal(g.Coordinates, &raw); err == nil {
			var ps []orb.Point
			ps, err = toPoints(raw)
			out = orb.MultiPoint(ps)
		}
	case KindLineString:
		var raw [][]float64
		if err = json.Unmarshal(g.Coordinates, &raw); err == nil {
			var ps []orb.Point
			ps, err = toPoints(raw)
			out = orb.LineString(ps)
		}
	case KindMultiLineString:
		var raw [][][]float64
		if err = json.Unmarshal(g.Coordinates, &raw); err == nil {
			var lines [][]orb.Point
			lines, err = toLines(raw)
			mls := make(orb.MultiLineString, len(lines))
			for i, l := range lines {
				mls[i] = l
			}
			out = mls
		}
	case KindPolygon:
		var raw [][][]float64
		if err = json.Unmarshal(g.Coordinates, &raw); err == nil {
			out, err = toPolygon(raw)
		}
	case KindMultiPolygon:
		var raw [][][][]float64
		if err = json.Unmarshal(g.Coordinates, &raw); err == nil {
			mp := make(orb.MultiPolygon, 0, len(raw))
			for i, p := range raw {
				poly, perr := toPolygon(p)
				if perr != nil {
					err = errors.Wrapf(perr, "polygon %d", i)
					break
				}
				mp = append(mp, poly)
			}
			out = mp
		}
	}

	if err != nil {
		return nil, errors.Wrapf(err, "decode %s coordinates", kind)
	}
	return out, nil
}

func toPoint(p []float64) (orb.Point, error) {
	if len(p) < 2 {
		return orb.Point{}, errors.Wrapf(ErrInvalidPosition, "got %d elements", len(p))
	}
	return orb.Point{p[0], p[1]}, nil
}

func toPoints(raw [][]float64) ([]orb.Point, error) {
	out := make([]orb.Point, len(raw))
	for i, p := range raw {
		pt, err := toPoint(p)
		if err != nil {
			return nil, errors.Wrapf(err, "position %d", i)
		}
		out[i] = pt
	}
	return out, nil
}

func toLines(raw [][][]float64) ([][]orb.Point, error) {
	out := make([][]orb.Point, len(raw))
	for i, l := range raw {
		ps, err := toPoints(l)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", i)
		}
		out[i] = ps
	}
	return out, nil
}

func toPolygon(raw [][][]float64) (orb.Polygon, error) {
	rings, err := toLines(raw)
	if err != nil {
		return nil, err
	}
	poly := make(orb.Polygon, len(rings))
	for i, r := range rings {
		poly[i] = r
	}
	return poly, nil
}
