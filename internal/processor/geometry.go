package processor

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/woozymasta/geodoc/internal/document"
	"github.com/woozymasta/geodoc/internal/geo"
)

var (
	// ErrUnsupportedGeometry marks geometry kinds that decode but cannot be
	// converted yet (GeometryCollection).
	ErrUnsupportedGeometry = errors.New("geometry kind not supported yet")
	// ErrUnknownGeometry is returned for type tags outside GeoJSON.
	ErrUnknownGeometry = geo.ErrUnknownKind
	// ErrMissingGeometry is returned for features without a geometry member.
	ErrMissingGeometry = errors.New("feature has no geometry")
)

// Shape is the document-native form of one converted geometry.
type Shape interface {
	// Add creates the shape's objects and returns their identifiers in order.
	Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error)
}

// PointShape is a converted Point.
type PointShape struct{ Point document.Point3d }

// PointsShape is a converted MultiPoint, added in one AddPoints call.
type PointsShape struct{ Points []document.Point3d }

// CurveShape is a converted LineString.
type CurveShape struct{ Curve *document.Curve }

// CurvesShape is a converted MultiLineString, one curve per line.
type CurvesShape struct{ Curves []*document.Curve }

// PolygonShape is a converted Polygon. Every ring, holes included, is its
// own curve; rings are not joined into a bounded region.
type PolygonShape struct{ Rings []*document.Curve }

// PolygonsShape is a converted MultiPolygon.
type PolygonsShape struct{ Polygons []PolygonShape }

func (s PointShape) Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error) {
	id, err := objects.AddPoint(s.Point, attrs)
	if err != nil {
		return nil, err
	}
	return []document.ObjectID{id}, nil
}

func (s PointsShape) Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error) {
	return objects.AddPoints(s.Points, attrs)
}

func (s CurveShape) Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error) {
	id, err := objects.AddCurve(s.Curve, attrs)
	if err != nil {
		return nil, err
	}
	return []document.ObjectID{id}, nil
}

func (s CurvesShape) Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error) {
	return addCurves(objects, s.Curves, attrs)
}

func (s PolygonShape) Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error) {
	return addCurves(objects, s.Rings, attrs)
}

func (s PolygonsShape) Add(objects document.ObjectTable, attrs *document.Attributes) ([]document.ObjectID, error) {
	var ids []document.ObjectID
	for i, polygon := range s.Polygons {
		polyIDs, err := polygon.Add(objects, attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "polygon %d", i)
		}
		ids = append(ids, polyIDs...)
	}
	return ids, nil
}

func addCurves(objects document.ObjectTable, curves []*document.Curve, attrs *document.Attributes) ([]document.ObjectID, error) {
	ids := make([]document.ObjectID, 0, len(curves))
	for i, c := range curves {
		id, err := objects.AddCurve(c, attrs)
		if err != nil {
			return nil, errors.Wrapf(err, "curve %d", i)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Converter turns orb geometries into shapes.
type Converter struct {
	Projection geo.Projection
}

// Convert dispatches on the geometry type. Degenerate lines and rings are
// passed to the curve constructor unchecked, so its error surfaces as is.
func (c Converter) Convert(g orb.Geometry) (Shape, error) {
	switch v := g.(type) {
	case orb.Point:
		return PointShape{Point: c.point(v)}, nil
	case orb.MultiPoint:
		return PointsShape{Points: c.points(v)}, nil
	case orb.LineString:
		curve, err := c.curve(v)
		if err != nil {
			return nil, err
		}
		return CurveShape{Curve: curve}, nil
	case orb.MultiLineString:
		curves := make([]*document.Curve, 0, len(v))
		for i, ls := range v {
			curve, err := c.curve(ls)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", i)
			}
			curves = append(curves, curve)
		}
		return CurvesShape{Curves: curves}, nil
	case orb.Polygon:
		return c.polygon(v)
	case orb.MultiPolygon:
		polygons := make([]PolygonShape, 0, len(v))
		for i, p := range v {
			shape, err := c.polygon(p)
			if err != nil {
				return nil, errors.Wrapf(err, "polygon %d", i)
			}
			polygons = append(polygons, shape)
		}
		return PolygonsShape{Polygons: polygons}, nil
	case orb.Collection:
		return nil, errors.Wrapf(ErrUnsupportedGeometry, "%s with %d members", geo.KindGeometryCollection, len(v))
	case nil:
		return nil, ErrMissingGeometry
	default:
		return nil, errors.Wrap(ErrUnsupportedGeometry, fmt.Sprintf("%T", g))
	}
}

func (c Converter) point(p orb.Point) document.Point3d {
	x, y := c.Projection.Project(p)
	return document.Point3d{X: x, Y: y, Z: 0}
}

func (c Converter) points(ps []orb.Point) []document.Point3d {
	out := make([]document.Point3d, len(ps))
	for i, p := range ps {
		out[i] = c.point(p)
	}
	return out
}

func (c Converter) curve(ps []orb.Point) (*document.Curve, error) {
	return document.NewControlPointCurve(c.points(ps), 1)
}

func (c Converter) polygon(p orb.Polygon) (PolygonShape, error) {
	rings := make([]*document.Curve, 0, len(p))
	for i, r := range p {
		curve, err := c.curve(r)
		if err != nil {
			return PolygonShape{}, errors.Wrapf(err, "ring %d", i)
		}
		rings = append(rings, curve)
	}
	return PolygonShape{Rings: rings}, nil
}
