package calibration

import (
	"fmt"
	"image"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/marblerl/gripsim/internal/core/scene"
)

// Annotation maps landmark names to pixel coordinates for one scene.
// Produced by the external point-and-click calibration editor and
// consumed read-only here.
type Annotation map[scene.Landmark]image.Point

// Validate checks that the annotation covers exactly the expected
// landmark set and that every pixel lies inside the image.
func (a Annotation) Validate() error {
	for _, l := range scene.Landmarks() {
		p, ok := a[l]
		if !ok {
			return fmt.Errorf("%w: %s", ErrIncompleteAnnotation, l)
		}
		if p.X < 0 || p.X >= scene.ImageSize || p.Y < 0 || p.Y >= scene.ImageSize {
			return fmt.Errorf("%w: %s at (%d, %d)", ErrPixelOutOfRange, l, p.X, p.Y)
		}
	}
	for l := range a {
		if _, err := l.Level(); err != nil {
			return fmt.Errorf("%w: %s", ErrUnexpectedLandmark, l)
		}
	}
	return nil
}

// AnnotationSet holds annotations for several scenes, keyed by scene id.
type AnnotationSet map[int]Annotation

// Get returns the annotation for a scene, or an error naming the
// annotated scene ids.
func (s AnnotationSet) Get(sceneID int) (Annotation, error) {
	a, ok := s[sceneID]
	if !ok {
		return nil, fmt.Errorf("%w %d, available: %v", ErrUnknownScene, sceneID, s.SceneIDs())
	}
	return a, nil
}

// SceneIDs lists the annotated scene ids in ascending order.
func (s AnnotationSet) SceneIDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Validate validates every annotation in the set.
func (s AnnotationSet) Validate() error {
	for _, id := range s.SceneIDs() {
		if err := s[id].Validate(); err != nil {
			return fmt.Errorf("scene %d: %w", id, err)
		}
	}
	return nil
}

// annotationFile is the persisted YAML form: scene id to landmark name
// to [x, y] pixel pair.
type annotationFile map[int]map[string][2]int

// LoadAnnotations decodes an annotation set from YAML and validates it.
func LoadAnnotations(r io.Reader) (AnnotationSet, error) {
	var file annotationFile
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}

	set := make(AnnotationSet, len(file))
	for id, landmarks := range file {
		a := make(Annotation, len(landmarks))
		for name, px := range landmarks {
			a[scene.Landmark(name)] = image.Pt(px[0], px[1])
		}
		set[id] = a
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// DefaultAnnotations returns the built-in hand-placed landmark pixels
// for the calibrated scenes.
func DefaultAnnotations() AnnotationSet {
	return AnnotationSet{
		1: {
			scene.LandmarkPickup:       image.Pt(75, 137),
			scene.LandmarkObstacle1:    image.Pt(98, 122),
			scene.LandmarkObstacle2:    image.Pt(56, 118),
			scene.LandmarkGripperStart: image.Pt(88, 154),
			scene.LandmarkTargetZone:   image.Pt(60, 190),
		},
		2: {
			scene.LandmarkPickup:       image.Pt(77, 97),
			scene.LandmarkObstacle1:    image.Pt(92, 117),
			scene.LandmarkObstacle2:    image.Pt(52, 92),
			scene.LandmarkGripperStart: image.Pt(83, 124),
			scene.LandmarkTargetZone:   image.Pt(50, 170),
		},
		3: {
			scene.LandmarkPickup:       image.Pt(64, 130),
			scene.LandmarkObstacle1:    image.Pt(88, 128),
			scene.LandmarkObstacle2:    image.Pt(57, 152),
			scene.LandmarkGripperStart: image.Pt(82, 150),
			scene.LandmarkTargetZone:   image.Pt(65, 185),
		},
	}
}
