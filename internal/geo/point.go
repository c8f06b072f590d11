package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether p is a usable coordinate. A zero latitude or
// longitude is treated as "not set", matching how the trip forms submit
// empty map selections.
func (p Point) Valid() bool {
	if p.Lat == 0 || p.Lon == 0 {
		return false
	}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

func (p Point) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// Orb converts to an orb point (x = lon, y = lat).
func (p Point) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb point back to a Point.
func FromOrb(o orb.Point) Point {
	return Point{Lat: o.Lat(), Lon: o.Lon()}
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusMeters
}

// IsNear reports whether b lies strictly within threshold meters of a.
func IsNear(a, b Point, threshold float64) bool {
	return Distance(a, b) < threshold
}

// Midpoint returns the point halfway along the great circle between a and b.
func Midpoint(a, b Point) Point {
	mid := s2.Interpolate(0.5, s2.PointFromLatLng(a.latLng()), s2.PointFromLatLng(b.latLng()))
	ll := s2.LatLngFromPoint(mid)
	return Point{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// Nearest returns the index of the candidate closest to p and its distance.
// It returns -1 when candidates is empty.
func Nearest(p Point, candidates []Point) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, c := range candidates {
		if d := Distance(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}
