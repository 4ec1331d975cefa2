// Package document models the CAD host document that geometry is loaded into:
// a layer table and an object table holding points and curves.
package document

import (
	"math"

	"github.com/pkg/errors"
)

// NoLayer is the layer index reported when a layer does not exist, and the
// default layer index of new attributes.
const NoLayer = -1

var (
	// ErrLayerNotFound is returned for layer indices outside the table.
	ErrLayerNotFound = errors.New("layer not found")
	// ErrObjectNotFound is returned by Find for unknown identifiers.
	ErrObjectNotFound = errors.New("object not found")
	// ErrDegenerateCurve is returned for curves with fewer than two points.
	ErrDegenerateCurve = errors.New("curve needs at least two control points")
	// ErrInvalidPoint is returned for NaN or infinite coordinates.
	ErrInvalidPoint = errors.New("point coordinates must be finite")
	// ErrEmptyLayerName is returned when a layer is added without a name.
	ErrEmptyLayerName = errors.New("layer name is empty")
)

// ObjectID is the opaque handle of an object created in a document.
type ObjectID string

// Layer is an entry of the document layer table.
type Layer struct {
	Name  string `json:"name" yaml:"name"`
	Color Color  `json:"color" yaml:"color"`
	Index int    `json:"index" yaml:"index"`
}

// Kind tags what an Object holds.
type Kind string

const (
	// KindPoint objects hold a single Point.
	KindPoint Kind = "point"
	// KindCurve objects hold a Curve.
	KindCurve Kind = "curve"
)

// Object is a geometry object stored in a document.
type Object struct {
	Curve      *Curve      `json:"curve,omitempty"`
	Attributes *Attributes `json:"attributes"`
	ID         ObjectID    `json:"id"`
	Kind       Kind        `json:"kind"`
	Point      Point3d     `json:"point"`
}

// LayerTable is the layer registry of a document.
type LayerTable interface {
	// Find returns the index of the named layer or NoLayer.
	Find(name string) (int, error)
	Add(name string, color Color) (int, error)
	Get(index int) (Layer, error)
	SetColor(index int, color Color) error
	List() ([]Layer, error)
}

// ObjectTable is the object registry of a document.
type ObjectTable interface {
	AddPoint(p Point3d, attrs *Attributes) (ObjectID, error)
	// AddPoints adds every point as its own object in one call.
	AddPoints(points []Point3d, attrs *Attributes) ([]ObjectID, error)
	AddCurve(c *Curve, attrs *Attributes) (ObjectID, error)
	Find(id ObjectID) (Object, error)
	List() ([]Object, error)
}

// Document is a handle to a live document. Callers own its lifetime.
type Document interface {
	Layers() LayerTable
	Objects() ObjectTable
}

// Point3d is a point in document space.
type Point3d struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Valid reports whether all coordinates are finite.
func (p Point3d) Valid() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// EnsureLayer returns the index of the named layer, adding it when missing.
// An existing layer keeps its index and gets its color updated when it
// differs.
func EnsureLayer(layers LayerTable, name string, color Color) (int, error) {
	if name == "" {
		return NoLayer, ErrEmptyLayerName
	}
	index, err := layers.Find(name)
	if err != nil {
		return NoLayer, err
	}

	if index == NoLayer {
		return layers.Add(name, color)
	}

	layer, err := layers.Get(index)
	if err != nil {
		return NoLayer, err
	}

	if layer.Color != color {
		if err := layers.SetColor(index, color); err != nil {
			return NoLayer, err
		}
	}

	return index, nil
}
