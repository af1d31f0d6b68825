package engine

import "errors"

// Engine lifecycle errors. Operating on missing bodies or constraints
// is a programmer error and fails loudly.
var (
	ErrWorldClosed        = errors.New("physics world is closed")
	ErrBodyNotFound       = errors.New("body not found")
	ErrConstraintNotFound = errors.New("constraint not found")
	ErrInvalidShape       = errors.New("invalid collision shape")
	ErrInvalidTimestep    = errors.New("timestep must be positive")
)
