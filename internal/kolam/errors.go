package kolam

import "errors"

var (
	// ErrGridTooSmall is returned when a grid dimension is below MinGridSize.
	ErrGridTooSmall = errors.New("kolam: grid too small")

	// ErrGridTooLarge is returned when a grid dimension is above MaxGridSize.
	ErrGridTooLarge = errors.New("kolam: grid too large")

	// ErrSymmetryNeedsSquare is returned for rotational or diagonal symmetry
	// on a grid whose row and column counts differ.
	ErrSymmetryNeedsSquare = errors.New("kolam: symmetry requires a square grid")

	// ErrInvalidMatrix is returned when a matrix breaks neighbour agreement,
	// connects across the boundary, or carries an unknown pattern id.
	ErrInvalidMatrix = errors.New("kolam: invalid matrix")
)
