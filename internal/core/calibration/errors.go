package calibration

import "errors"

// Calibration configuration errors. These fail fast at load time; the
// core never silently substitutes a default scene.
var (
	ErrUnknownScene         = errors.New("no calibration for scene")
	ErrIncompleteAnnotation = errors.New("annotation is missing landmarks")
	ErrUnexpectedLandmark   = errors.New("annotation contains unexpected landmark")
	ErrPixelOutOfRange      = errors.New("annotation pixel out of image bounds")
	ErrInvalidScale         = errors.New("pixels-per-meter must be positive")
)
