package calibration

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marblerl/gripsim/internal/core/scene"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	e, err := r.Get(1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(75, 137), e.TableCenterPx)
	assert.Equal(t, 45, e.TableRadiusPx)
	assert.Equal(t, image.Pt(60, 190), e.FloorCenterPx)
	assert.Equal(t, 150.0, e.PixelsPerMeter)
	assert.NoError(t, e.Validate())
}

func TestRegistryUnknownSceneListsValidIDs(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownScene)
	assert.Contains(t, err.Error(), "[1 2 3]")
}

func TestRegistrySceneIDsSorted(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, NewRegistry().SceneIDs())
}

func TestEntryValidateRejectsNonPositiveScale(t *testing.T) {
	e := Entry{SceneID: 7, PixelsPerMeter: 0}
	assert.ErrorIs(t, e.Validate(), ErrInvalidScale)
}

func validAnnotation() Annotation {
	return Annotation{
		scene.LandmarkPickup:       image.Pt(75, 137),
		scene.LandmarkObstacle1:    image.Pt(98, 122),
		scene.LandmarkObstacle2:    image.Pt(56, 118),
		scene.LandmarkGripperStart: image.Pt(88, 154),
		scene.LandmarkTargetZone:   image.Pt(60, 190),
	}
}

func TestAnnotationValidate(t *testing.T) {
	assert.NoError(t, validAnnotation().Validate())
}

func TestAnnotationMissingLandmark(t *testing.T) {
	a := validAnnotation()
	delete(a, scene.LandmarkObstacle2)
	assert.ErrorIs(t, a.Validate(), ErrIncompleteAnnotation)
}

func TestAnnotationPixelOutOfRange(t *testing.T) {
	a := validAnnotation()
	a[scene.LandmarkPickup] = image.Pt(scene.ImageSize, 10)
	assert.ErrorIs(t, a.Validate(), ErrPixelOutOfRange)

	a[scene.LandmarkPickup] = image.Pt(-1, 10)
	assert.ErrorIs(t, a.Validate(), ErrPixelOutOfRange)
}

func TestAnnotationUnexpectedLandmark(t *testing.T) {
	a := validAnnotation()
	a[scene.Landmark("coffee_mug")] = image.Pt(10, 10)
	assert.ErrorIs(t, a.Validate(), ErrUnexpectedLandmark)
}

func TestDefaultAnnotationsValid(t *testing.T) {
	set := DefaultAnnotations()
	require.NoError(t, set.Validate())
	assert.Equal(t, []int{1, 2, 3}, set.SceneIDs())

	// Scene 1's pick object sits exactly at the hand-tuned table center
	// so it maps to the world origin.
	assert.Equal(t, image.Pt(75, 137), set[1][scene.LandmarkPickup])
}

func TestAnnotationSetGetUnknown(t *testing.T) {
	set := DefaultAnnotations()
	_, err := set.Get(42)
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestLoadAnnotations(t *testing.T) {
	doc := `
1:
  object_to_pickup: [75, 137]
  obstacle_1: [98, 122]
  obstacle_2: [56, 118]
  gripper_start: [88, 154]
  target_zone: [60, 190]
`
	set, err := LoadAnnotations(strings.NewReader(doc))
	require.NoError(t, err)

	a, err := set.Get(1)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(75, 137), a[scene.LandmarkPickup])
	assert.Equal(t, image.Pt(60, 190), a[scene.LandmarkTargetZone])
}

func TestLoadAnnotationsRejectsIncomplete(t *testing.T) {
	doc := `
1:
  object_to_pickup: [75, 137]
`
	_, err := LoadAnnotations(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrIncompleteAnnotation)
}

func TestLoadAnnotationsRejectsMalformedYAML(t *testing.T) {
	_, err := LoadAnnotations(strings.NewReader("{not yaml: ["))
	assert.Error(t, err)
}
