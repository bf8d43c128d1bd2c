// Package geo provides the coarse bounding-box test used to spot duplicate shops.
package geo

import (
	"github.com/twpayne/go-geom"
)

// DedupTolerance is the half-width, in degrees, of the "same location" box (~100 m).
const DedupTolerance = 0.001

// Box returns the axis-aligned box of ±tol degrees around (lat, lng).
// Dimension 0 is longitude and dimension 1 is latitude.
func Box(lat, lng, tol float64) *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(lng-tol, lat-tol, lng+tol, lat+tol)
}

// Within reports whether (lat, lng) lies inside b. Edges are inclusive.
func Within(b *geom.Bounds, lat, lng float64) bool {
	return b.OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}

// LatRange returns the latitude bounds of b as (min, max).
func LatRange(b *geom.Bounds) (float64, float64) {
	return b.Min(1), b.Max(1)
}

// LngRange returns the longitude bounds of b as (min, max).
func LngRange(b *geom.Bounds) (float64, float64) {
	return b.Min(0), b.Max(0)
}
