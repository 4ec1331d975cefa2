package document

import (
	"math"

	"github.com/pkg/errors"
)

// Curve is a control point curve. Only degree 1 is evaluated exactly: the
// curve passes through every control point, with control point i at
// parameter i.
type Curve struct {
	Points []Point3d `json:"points"`
	Degree int       `json:"degree"`
}

// NewControlPointCurve builds a curve through points. The degree is clamped
// to [1, len(points)-1].
func NewControlPointCurve(points []Point3d, degree int) (*Curve, error) {
	if len(points) < 2 {
		return nil, errors.Wrapf(ErrDegenerateCurve, "got %d points", len(points))
	}

	for i, p := range points {
		if !p.Valid() {
			return nil, errors.Wrapf(ErrInvalidPoint, "control point %d", i)
		}
	}

	if degree < 1 {
		degree = 1
	}
	if degree > len(points)-1 {
		degree = len(points) - 1
	}

	cp := make([]Point3d, len(points))
	copy(cp, points)

	return &Curve{Points: cp, Degree: degree}, nil
}

// Domain returns the parameter interval of the curve.
func (c *Curve) Domain() (float64, float64) {
	return 0, float64(len(c.Points) - 1)
}

// PointAt evaluates the curve as a polyline over its control points. The
// parameter is clamped to the domain.
func (c *Curve) PointAt(t float64) Point3d {
	lo, hi := c.Domain()
	if t <= lo {
		return c.Points[0]
	}
	if t >= hi {
		return c.Points[len(c.Points)-1]
	}

	i := int(math.Floor(t))
	f := t - float64(i)
	a, b := c.Points[i], c.Points[i+1]

	return Point3d{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
		Z: a.Z + (b.Z-a.Z)*f,
	}
}

// IsClosed reports whether the first and last control points coincide.
func (c *Curve) IsClosed() bool {
	return len(c.Points) > 2 && c.Points[0] == c.Points[len(c.Points)-1]
}

// Length returns the polyline length.
func (c *Curve) Length() float64 {
	var l float64
	for i := 1; i < len(c.Points); i++ {
		a, b := c.Points[i-1], c.Points[i]
		l += math.Sqrt((b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y) + (b.Z-a.Z)*(b.Z-a.Z))
	}
	return l
}
