package calibration

import (
	"fmt"
	"image"
	"sort"
)

// Entry holds the hand-tuned calibration parameters for one scene,
// measured from that scene's exterior photograph. Entries are immutable
// after construction.
type Entry struct {
	SceneID int

	// TableCenterPx is the table center in the photograph.
	TableCenterPx image.Point
	// TableRadiusPx is the approximate table size in pixels.
	TableRadiusPx int
	// FloorCenterPx is where the floor goal marker sits.
	FloorCenterPx image.Point

	// PixelsPerMeter scales world meters to pixel offsets.
	PixelsPerMeter float64
}

// Validate checks the entry's invariants.
func (e Entry) Validate() error {
	if e.PixelsPerMeter <= 0 {
		return fmt.Errorf("scene %d: %w", e.SceneID, ErrInvalidScale)
	}
	return nil
}

// Registry is a read-only collection of hand-tuned calibration entries
// keyed by scene id.
type Registry struct {
	entries map[int]Entry
}

// NewRegistry returns the registry of built-in calibrated scenes.
func NewRegistry() *Registry {
	return &Registry{entries: builtinEntries()}
}

// Get returns the entry for the scene, or an error naming the valid
// scene ids if the scene is unknown.
func (r *Registry) Get(sceneID int) (Entry, error) {
	e, ok := r.entries[sceneID]
	if !ok {
		return Entry{}, fmt.Errorf("%w %d, available: %v", ErrUnknownScene, sceneID, r.SceneIDs())
	}
	return e, nil
}

// SceneIDs lists the calibrated scene ids in ascending order.
func (r *Registry) SceneIDs() []int {
	ids := make([]int, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// builtinEntries returns the values measured from the scene exterior
// photographs. A fresh map per call keeps the registry immutable from
// the outside.
func builtinEntries() map[int]Entry {
	return map[int]Entry{
		1: {
			SceneID:        1,
			TableCenterPx:  image.Pt(75, 137),
			TableRadiusPx:  45,
			FloorCenterPx:  image.Pt(60, 190),
			PixelsPerMeter: 150.0, // 0.3m on table spans about 45px
		},
		2: {
			SceneID:        2,
			TableCenterPx:  image.Pt(70, 105),
			TableRadiusPx:  50,
			FloorCenterPx:  image.Pt(50, 170),
			PixelsPerMeter: 165.0, // square table, slightly larger in view
		},
		3: {
			SceneID:        3,
			TableCenterPx:  image.Pt(70, 137),
			TableRadiusPx:  42,
			FloorCenterPx:  image.Pt(65, 185),
			PixelsPerMeter: 140.0,
		},
	}
}
