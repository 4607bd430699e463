package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// NormalizeAngle maps any finite angle into [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	if a >= TwoPi {
		a = 0
	}
	return a
}

// Angle returns the normalized direction of the vector from -> to.
// Coincident points yield 0.
func Angle(from, to r2.Vec) float64 {
	d := r2.Sub(to, from)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	return NormalizeAngle(math.Atan2(d.Y, d.X))
}

// AngularDistance is the shortest unsigned distance between two angles.
func AngularDistance(a, b float64) float64 {
	d := math.Abs(NormalizeAngle(a) - NormalizeAngle(b))
	if d > math.Pi {
		d = TwoPi - d
	}
	return d
}

// Polar returns the point at the given angle and distance from center.
func Polar(center r2.Vec, angle, dist float64) r2.Vec {
	return r2.Vec{
		X: center.X + math.Cos(angle)*dist,
		Y: center.Y + math.Sin(angle)*dist,
	}
}

// Side reports the half-plane of an angle: +1 for the upper half (sin > 0),
// -1 for the lower half, and 0 on the horizontal axis.
func Side(angle float64) int {
	s := math.Sin(angle)
	switch {
	case s > 1e-9:
		return 1
	case s < -1e-9:
		return -1
	}
	return 0
}
