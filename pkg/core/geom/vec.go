package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Radius returns the bounding-circle radius of a w×h rectangle or ellipse.
func Radius(w, h float64) float64 {
	return math.Hypot(w, h) / 2
}

// Dist is the Euclidean distance between two points.
func Dist(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r2.Vec) r2.Vec {
	return r2.Scale(0.5, r2.Add(a, b))
}

// Finite reports whether both components are neither NaN nor infinite.
func Finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// UnitOr returns the unit vector of v, or fallback when v has (near) zero length.
func UnitOr(v r2.Vec, fallback r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n < 1e-9 {
		return fallback
	}
	return r2.Scale(1/n, v)
}

// Perp returns v rotated by +90°.
func Perp(v r2.Vec) r2.Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
