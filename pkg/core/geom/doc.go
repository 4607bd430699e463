// Package geom provides the small geometric and hashing helpers shared by the
// layout stages.
//
// Points and vectors are gonum [r2.Vec] values; this package adds the
// operations the layout code needs on top of them: angle normalization,
// polar placement, bounding-circle radii, apportionment of discrete slots
// across weighted segments, and deterministic pseudo-random values derived
// from stable string keys.
//
// # Determinism
//
// Nothing in this package reads the clock or an unseeded generator. [Hash]
// runs the key through xxhash and a splitmix64 finalizer, so the same key
// yields the same value on every platform:
//
//	u := geom.Unit("Student.ID")          // in [0, 1)
//	j := geom.Jitter("Student", 0.03)     // in [-0.03, 0.03)
//	d := geom.Direction("Student|Course") // unit vector
//
// [r2.Vec]: https://pkg.go.dev/gonum.org/v1/gonum/spatial/r2#Vec
package geom
