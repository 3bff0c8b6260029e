// Package geo places geographic coordinates on the globe sphere.
package geo

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// DefaultRadius is the globe radius in scene units.
const DefaultRadius = 1.5

// Point is a position in scene space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean distance of p from the origin.
func (p Point) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Project maps latitude/longitude in degrees to a point on a sphere of the
// given radius. Latitude becomes the polar angle measured from +Y and
// longitude, offset by 180 degrees, the azimuth; the prime meridian ends up on +X.
func Project(lat, lon, radius float64) Point {
	phi := (s1.Angle(90-lat) * s1.Degree).Radians()
	theta := (s1.Angle(lon+180) * s1.Degree).Radians()

	return Point{
		X: -(radius * math.Sin(phi) * math.Cos(theta)),
		Y: radius * math.Cos(phi),
		Z: radius * math.Sin(phi) * math.Sin(theta),
	}
}

// Valid reports whether lat is within [-90,90] and lon within [-180,180].
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}
