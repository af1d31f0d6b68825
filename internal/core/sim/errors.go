package sim

import "errors"

// Simulation lifecycle errors
var (
	ErrSimulationClosed = errors.New("simulation is closed")
	ErrNoSceneLoaded    = errors.New("no scene loaded, call Reset first")
)
