package geo

import "github.com/paulmach/orb"

// DefaultHalfSpan is the half-width in degrees of a viewport created around a
// single point when the client has not reported its own bounds.
const DefaultHalfSpan = 0.05

// Viewport is the visible map area reported by the client.
type Viewport struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

func (v Viewport) bound() orb.Bound {
	return orb.Bound{Min: orb.Point{v.West, v.South}, Max: orb.Point{v.East, v.North}}
}

func viewportFromBound(b orb.Bound) Viewport {
	return Viewport{South: b.Min.Y(), West: b.Min.X(), North: b.Max.Y(), East: b.Max.X()}
}

// IsZero reports whether no viewport has been set.
func (v Viewport) IsZero() bool {
	return v.bound().IsZero()
}

// Valid reports whether the viewport is a proper, non-inverted box.
func (v Viewport) Valid() bool {
	b := v.bound()
	return !b.IsZero() && !b.IsEmpty() && v.South >= -90 && v.North <= 90
}

// Contains reports whether p is visible. An unset viewport contains nothing.
func (v Viewport) Contains(p Point) bool {
	if v.IsZero() {
		return false
	}
	return v.bound().Contains(p.Orb())
}

// Center returns the middle of the viewport.
func (v Viewport) Center() Point {
	return FromOrb(v.bound().Center())
}

// PanTo recenters the viewport on p, keeping its span. An unset viewport gets
// a default span around p.
func (v Viewport) PanTo(p Point) Viewport {
	halfX, halfY := DefaultHalfSpan, DefaultHalfSpan
	if !v.IsZero() {
		b := v.bound()
		halfX = (b.Max.X() - b.Min.X()) / 2
		halfY = (b.Max.Y() - b.Min.Y()) / 2
	}
	return viewportFromBound(orb.Bound{
		Min: orb.Point{p.Lon - halfX, p.Lat - halfY},
		Max: orb.Point{p.Lon + halfX, p.Lat + halfY},
	})
}
