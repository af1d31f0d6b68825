package scene

// Action is one control tick's command: an XY translation of the
// gripper in meters plus the gripper open/close channel. Out-of-range
// deltas are not an error; the simulation clamps the resulting pose to
// its workspace bounds.
type Action struct {
	DeltaX  float64 `json:"delta_x" yaml:"delta_x"`
	DeltaY  float64 `json:"delta_y" yaml:"delta_y"`
	Gripper float64 `json:"gripper" yaml:"gripper"`
}

// Closed reports whether the gripper channel commands a closed gripper.
func (a Action) Closed() bool {
	return a.Gripper > 0.5
}
