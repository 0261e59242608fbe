// Package kolam models kolam patterns as grids of dots joined by curves.
//
// A pattern is described by a connectivity matrix: one [Cell] per dot, where
// each cell records which of its four sides (up, right, down, left) the
// curve around that dot crosses into the neighbouring cell. The sixteen
// possible masks are also addressed by pattern id (1..16), the index used by
// curve-point datasets.
//
// # Building matrices
//
// [BuildMatrix] draws a random matrix that honours a [Symmetry]. Interior
// edges are grouped into orbits under the symmetry's generators and a single
// random bit decides each orbit, so the result always satisfies:
//
//   - neighbouring cells agree on their shared edge,
//   - no cell connects across the outer boundary,
//   - the matrix is exactly invariant under the requested symmetry.
//
// [Satisfies] checks the last property for any matrix.
//
// # Describing patterns
//
// [Describe] maps a matrix onto curve points from a [CurveSet], producing a
// [Pattern] with dot positions, curve polylines and overall dimensions.
// [Customize] derives a variant with different stroke width, dot size or
// curve density.
package kolam
