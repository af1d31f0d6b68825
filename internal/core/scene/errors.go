package scene

import "errors"

// Scene-level errors
var (
	ErrUnknownZLevel   = errors.New("unknown z-level")
	ErrUnknownLandmark = errors.New("unknown landmark")
)
