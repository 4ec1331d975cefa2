package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// EarthRadius is the WGS84 semi-major axis used by spherical Web Mercator.
const EarthRadius = 6378137.0

// MaxLat is the latitude where Web Mercator becomes square.
const MaxLat = 85.05112878

// Projection maps a longitude/latitude position to document x/y.
type Projection string

const (
	// ProjectionNone keeps longitude and latitude as x and y.
	ProjectionNone Projection = "none"
	// ProjectionMercator converts to spherical Web Mercator metres.
	ProjectionMercator Projection = "mercator"
)

// ParseProjection validates a projection name. Empty means ProjectionNone.
func ParseProjection(s string) (Projection, error) {
	switch Projection(s) {
	case "", ProjectionNone:
		return ProjectionNone, nil
	case ProjectionMercator:
		return ProjectionMercator, nil
	}
	return "", errors.Errorf("unknown projection %q", s)
}

// Project returns the projected x and y of p.
func (pr Projection) Project(p orb.Point) (x, y float64) {
	if pr != ProjectionMercator {
		return p.Lon(), p.Lat()
	}
	return LonLatToMercator(p.Lon(), p.Lat())
}

// LonLatToMercator converts WGS84 degrees to spherical Web Mercator metres,
// clamping latitude to ±MaxLat.
func LonLatToMercator(lon, lat float64) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	x = EarthRadius * lon * math.Pi / 180.0
	latRad := lat * math.Pi / 180.0
	y = EarthRadius * math.Log(math.Tan(math.Pi/4+latRad/2))

	return x, y
}
