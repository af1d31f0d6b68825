// Package mapper converts between 2D pixel coordinates in calibrated
// scene photographs and 3D world coordinates in meters. Each Mapper is
// specific to one scene.
package mapper

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/marblerl/gripsim/internal/core/calibration"
	"github.com/marblerl/gripsim/internal/core/scene"
	"github.com/marblerl/gripsim/pkg/generic"
)

// Params tunes the reference-frame inference used when no hand-tuned
// calibration entry is available.
type Params struct {
	// TableDiameterM is the assumed physical table diameter. The
	// inference divides the landmark pixel span by this value to get a
	// scale, which makes it the dominant source of cross-scene
	// calibration error; keep it tunable.
	TableDiameterM float64

	// FallbackPixelsPerMeter is used when the annotated landmarks have
	// zero pixel span and no scale can be inferred.
	FallbackPixelsPerMeter float64
}

// DefaultParams returns the inference parameters used by the reference
// scenes.
func DefaultParams() Params {
	return Params{
		TableDiameterM:         0.6,
		FallbackPixelsPerMeter: 100.0,
	}
}

// Mapper performs bidirectional pixel/world conversion for one scene.
// Immutable after construction.
type Mapper struct {
	sceneID        int
	tableCenterPx  image.Point
	pixelsPerMeter float64
	annotation     calibration.Annotation
}

// FromEntry builds a mapper from a hand-tuned calibration entry,
// bypassing frame inference. The annotation is still required for the
// initial layout.
func FromEntry(entry calibration.Entry, ann calibration.Annotation) (*Mapper, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := ann.Validate(); err != nil {
		return nil, fmt.Errorf("scene %d: %w", entry.SceneID, err)
	}
	return &Mapper{
		sceneID:        entry.SceneID,
		tableCenterPx:  entry.TableCenterPx,
		pixelsPerMeter: entry.PixelsPerMeter,
		annotation:     ann,
	}, nil
}

// FromAnnotation builds a mapper by inferring the scene's reference
// frame from the raw annotation: the table center is the centroid of
// the on-table landmarks and the scale comes from their pixel span
// divided by the assumed table diameter. This is a heuristic, not a
// measurement; it assumes the landmarks roughly span the table.
func FromAnnotation(sceneID int, ann calibration.Annotation, p Params) (*Mapper, error) {
	if err := ann.Validate(); err != nil {
		return nil, fmt.Errorf("scene %d: %w", sceneID, err)
	}
	if p.TableDiameterM <= 0 {
		return nil, fmt.Errorf("scene %d: table diameter %.3f: %w", sceneID, p.TableDiameterM, calibration.ErrInvalidScale)
	}

	// On-table landmarks only: the target zone sits on the floor and
	// would skew both centroid and span.
	onTable := []scene.Landmark{
		scene.LandmarkPickup,
		scene.LandmarkObstacle1,
		scene.LandmarkObstacle2,
		scene.LandmarkGripperStart,
	}
	xs := make([]float64, len(onTable))
	ys := make([]float64, len(onTable))
	for i, l := range onTable {
		xs[i] = float64(ann[l].X)
		ys[i] = float64(ann[l].Y)
	}

	center := image.Pt(
		int(math.Round(stat.Mean(xs, nil))),
		int(math.Round(stat.Mean(ys, nil))),
	)

	spanPx := math.Max(floats.Max(xs)-floats.Min(xs), floats.Max(ys)-floats.Min(ys))
	ppm := p.FallbackPixelsPerMeter
	if spanPx > 0 {
		ppm = spanPx / p.TableDiameterM
	}

	return &Mapper{
		sceneID:        sceneID,
		tableCenterPx:  center,
		pixelsPerMeter: ppm,
		annotation:     ann,
	}, nil
}

// SceneID returns the scene this mapper was calibrated for.
func (m *Mapper) SceneID() int { return m.sceneID }

// TableCenter returns the table center in pixel coordinates.
func (m *Mapper) TableCenter() image.Point { return m.tableCenterPx }

// PixelsPerMeter returns the scene's pixel scale.
func (m *Mapper) PixelsPerMeter() float64 { return m.pixelsPerMeter }

// PixelToWorld converts a pixel position to a 3D world position at the
// given z-level. The vertical image axis is negated to match the world
// up convention.
func (m *Mapper) PixelToWorld(px image.Point, level scene.ZLevel) (r3.Vector, error) {
	z, err := level.Height()
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{
		X: float64(px.X-m.tableCenterPx.X) / m.pixelsPerMeter,
		Y: -float64(px.Y-m.tableCenterPx.Y) / m.pixelsPerMeter,
		Z: z,
	}, nil
}

// WorldToPixel projects a world position onto the image, ignoring z.
// The result is clamped into [0, ImageSize): points outside the imaged
// region are visually clipped, never an error.
func (m *Mapper) WorldToPixel(pos r3.Vector) image.Point {
	px := m.tableCenterPx.X + int(math.Round(pos.X*m.pixelsPerMeter))
	py := m.tableCenterPx.Y + int(math.Round(-pos.Y*m.pixelsPerMeter))
	return image.Pt(
		generic.Clamp(px, 0, scene.ImageSize-1),
		generic.Clamp(py, 0, scene.ImageSize-1),
	)
}

// InitialLayout converts every annotated landmark to its world position
// at the z-level matching its role.
func (m *Mapper) InitialLayout() (map[scene.Landmark]r3.Vector, error) {
	layout := make(map[scene.Landmark]r3.Vector, len(m.annotation))
	for _, l := range scene.Landmarks() {
		level, err := l.Level()
		if err != nil {
			return nil, err
		}
		pos, err := m.PixelToWorld(m.annotation[l], level)
		if err != nil {
			return nil, err
		}
		layout[l] = pos
	}
	return layout, nil
}
