package geom

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Hash returns a well-mixed 64-bit value for key.
func Hash(key string) uint64 {
	return Mix(xxhash.Sum64String(key))
}

// Mix is the splitmix64 finalizer.
func Mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Unit maps key to a float in [0, 1) using the top 53 bits of its hash.
func Unit(key string) float64 {
	return float64(Hash(key)>>11) / (1 << 53)
}

// Jitter maps key to a value in [-amplitude, amplitude).
func Jitter(key string, amplitude float64) float64 {
	return (Unit(key)*2 - 1) * amplitude
}

// Direction maps key to a unit vector. It replaces zero-length vectors
// when two points coincide.
func Direction(key string) r2.Vec {
	a := Unit(key) * TwoPi
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}
