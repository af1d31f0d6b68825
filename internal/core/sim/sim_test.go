package sim

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marblerl/gripsim/internal/core/calibration"
	"github.com/marblerl/gripsim/internal/core/scene"
)

func newTunedSim(t *testing.T) *Simulation {
	t.Helper()
	s, err := New(Config{Registry: calibration.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestResetPlacesScene1(t *testing.T) {
	s := newTunedSim(t)

	snap, err := s.Reset(1)
	require.NoError(t, err)

	assert.Equal(t, 1, snap.SceneID)
	assert.Equal(t, 0, snap.Step)
	assert.False(t, snap.GripperClosed)
	assert.Equal(t, scene.NoObject, snap.Grasped)

	assert.InDelta(t, 0.0, snap.Gripper.X, 1e-9)
	assert.InDelta(t, 0.0, snap.Gripper.Y, 1e-9)
	assert.InDelta(t, scene.GripperHoverZ, snap.Gripper.Z, 1e-9)

	pickup, ok := snap.Object(scene.ObjectPickup)
	require.True(t, ok)
	assert.InDelta(t, 0.0, pickup.X, 1e-9)
	assert.InDelta(t, 0.0, pickup.Y, 1e-9)
	assert.InDelta(t, scene.ObjectRestingZ, pickup.Z, 1e-9)

	require.Len(t, snap.Objects, 3)
	assert.InDelta(t, scene.FloorZ, snap.Target.Z, 1e-9)
}

// TestPickAndPlaceScenario walks the full grasp protocol on scene 1:
// close over the object, carry it, release it.
func TestPickAndPlaceScenario(t *testing.T) {
	s := newTunedSim(t)

	_, err := s.Reset(1)
	require.NoError(t, err)

	// Gripper hovers 0.02m above the pick object, inside the 0.06m
	// grasp threshold, so closing attaches immediately.
	snap, err := s.Step(scene.Action{Gripper: 1.0})
	require.NoError(t, err)
	assert.Equal(t, scene.ObjectPickup, snap.Grasped)
	assert.True(t, snap.GripperClosed)

	// Transport: the object tracks the gripper exactly while grasped.
	for i := 0; i < 10; i++ {
		snap, err = s.Step(scene.Action{DeltaX: 0.03, Gripper: 1.0})
		require.NoError(t, err)
		require.Equal(t, scene.ObjectPickup, snap.Grasped)

		obj, ok := snap.Object(scene.ObjectPickup)
		require.True(t, ok)
		assert.InDelta(t, snap.Gripper.X, obj.X, 1e-9)
		assert.InDelta(t, snap.Gripper.Y, obj.Y, 1e-9)
	}
	assert.InDelta(t, 0.30, snap.Gripper.X, 1e-9)

	// Release is instantaneous and unconditional.
	snap, err = s.Step(scene.Action{Gripper: 0.0})
	require.NoError(t, err)
	assert.Equal(t, scene.NoObject, snap.Grasped)
	assert.False(t, snap.GripperClosed)

	// After release the object moves independently: the gripper leaves
	// and the object stays behind, settling on the table.
	for i := 0; i < 5; i++ {
		snap, err = s.Step(scene.Action{DeltaX: 0.03})
		require.NoError(t, err)
	}
	obj, ok := snap.Object(scene.ObjectPickup)
	require.True(t, ok)
	assert.InDelta(t, 0.30, obj.X, 0.01)
	assert.Greater(t, snap.Gripper.X, obj.X+0.1)
	assert.InDelta(t, scene.ObjectRestingZ, obj.Z, 0.01)
}

func TestExclusivityInvariant(t *testing.T) {
	s := newTunedSim(t)

	snap, err := s.Reset(1)
	require.NoError(t, err)

	valid := map[scene.ObjectID]bool{scene.NoObject: true}
	for _, o := range snap.Objects {
		valid[o.ID] = true
	}

	actions := []scene.Action{
		{Gripper: 1.0},
		{DeltaX: 0.05, DeltaY: 0.03, Gripper: 1.0},
		{DeltaX: 0.05, DeltaY: 0.03, Gripper: 1.0},
		{Gripper: 0.0},
		{DeltaX: -0.1, Gripper: 1.0},
		{Gripper: 1.0},
		{Gripper: 0.0},
	}
	for _, a := range actions {
		snap, err = s.Step(a)
		require.NoError(t, err)
		assert.True(t, valid[snap.Grasped], "grasped %q is not a known object", snap.Grasped)
		if snap.Grasped != scene.NoObject {
			_, ok := snap.Object(snap.Grasped)
			assert.True(t, ok)
		}
	}
}

func TestStateIdempotent(t *testing.T) {
	s := newTunedSim(t)

	_, err := s.Reset(1)
	require.NoError(t, err)
	_, err = s.Step(scene.Action{DeltaX: 0.02, Gripper: 1.0})
	require.NoError(t, err)

	first, err := s.State()
	require.NoError(t, err)
	second, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWorkspaceBoundary(t *testing.T) {
	s := newTunedSim(t)

	_, err := s.Reset(1)
	require.NoError(t, err)

	var snap scene.Snapshot
	for i := 0; i < 30; i++ {
		snap, err = s.Step(scene.Action{DeltaX: 1.0, DeltaY: 1.0})
		require.NoError(t, err)
	}
	assert.InDelta(t, WorkspaceMaxX, snap.Gripper.X, 1e-9)
	assert.InDelta(t, WorkspaceMaxY, snap.Gripper.Y, 1e-9)

	for i := 0; i < 60; i++ {
		snap, err = s.Step(scene.Action{DeltaX: -1.0, DeltaY: -1.0})
		require.NoError(t, err)
	}
	assert.InDelta(t, WorkspaceMinX, snap.Gripper.X, 1e-9)
	assert.InDelta(t, WorkspaceMinY, snap.Gripper.Y, 1e-9)
	assert.InDelta(t, scene.GripperHoverZ, snap.Gripper.Z, 1e-9)
}

func TestCloseWithNothingInRangeOnlyFlipsFlag(t *testing.T) {
	s := newTunedSim(t)

	_, err := s.Reset(1)
	require.NoError(t, err)

	// Move well away from every object before closing.
	for i := 0; i < 10; i++ {
		_, err = s.Step(scene.Action{DeltaX: -0.05, DeltaY: -0.05})
		require.NoError(t, err)
	}
	snap, err := s.Step(scene.Action{Gripper: 1.0})
	require.NoError(t, err)
	assert.True(t, snap.GripperClosed)
	assert.Equal(t, scene.NoObject, snap.Grasped)

	// Opening with nothing grasped is equally uneventful.
	snap, err = s.Step(scene.Action{Gripper: 0.0})
	require.NoError(t, err)
	assert.False(t, snap.GripperClosed)
	assert.Equal(t, scene.NoObject, snap.Grasped)
}

// priorityAnnotations builds a synthetic scene whose on-table landmarks
// infer a 100 px/m frame centered at (112, 112).
func priorityAnnotations(pickup, obstacle1 image.Point) calibration.AnnotationSet {
	return calibration.AnnotationSet{
		1: {
			scene.LandmarkPickup:       pickup,
			scene.LandmarkObstacle1:    obstacle1,
			scene.LandmarkObstacle2:    image.Pt(82, 112),
			scene.LandmarkGripperStart: image.Pt(142, 112),
			scene.LandmarkTargetZone:   image.Pt(100, 200),
		},
	}
}

func TestGraspTieBreakPrefersPriorityOrder(t *testing.T) {
	// Pick object and first obstacle both at the frame center, both in
	// range of the gripper: the fixed priority order wins, not
	// distance.
	s, err := New(Config{Annotations: priorityAnnotations(image.Pt(112, 112), image.Pt(112, 112))})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Reset(1)
	require.NoError(t, err)

	snap, err := s.Step(scene.Action{Gripper: 1.0})
	require.NoError(t, err)
	assert.Equal(t, scene.ObjectPickup, snap.Grasped)
}

func TestGraspSkipsOutOfRangeObjects(t *testing.T) {
	// Pick object 0.3m away, first obstacle at the frame center: only
	// the obstacle is inside the threshold.
	s, err := New(Config{Annotations: priorityAnnotations(image.Pt(142, 112), image.Pt(112, 112))})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Reset(1)
	require.NoError(t, err)

	snap, err := s.Step(scene.Action{Gripper: 1.0})
	require.NoError(t, err)
	assert.Equal(t, scene.ObjectObstacle1, snap.Grasped)
}

func TestGraspIsLatchedUntilRelease(t *testing.T) {
	s, err := New(Config{Annotations: priorityAnnotations(image.Pt(112, 112), image.Pt(113, 112))})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Reset(1)
	require.NoError(t, err)

	snap, err := s.Step(scene.Action{Gripper: 1.0})
	require.NoError(t, err)
	require.Equal(t, scene.ObjectPickup, snap.Grasped)

	// Dragging the grasped object right past the other in-range object
	// never re-targets the grasp.
	for i := 0; i < 8; i++ {
		snap, err = s.Step(scene.Action{DeltaX: 0.01, Gripper: 1.0})
		require.NoError(t, err)
		assert.Equal(t, scene.ObjectPickup, snap.Grasped)
	}
}

func TestDeterministicAcrossInstances(t *testing.T) {
	actions := []scene.Action{
		{Gripper: 1.0},
		{DeltaX: 0.03, Gripper: 1.0},
		{DeltaX: 0.03, DeltaY: -0.02, Gripper: 1.0},
		{Gripper: 0.0},
		{DeltaX: -0.05},
	}

	run := func() []uint64 {
		s := newTunedSim(t)
		snap, err := s.Reset(1)
		require.NoError(t, err)

		sums := []uint64{snap.Checksum()}
		for _, a := range actions {
			snap, err = s.Step(a)
			require.NoError(t, err)
			sums = append(sums, snap.Checksum())
		}
		return sums
	}

	assert.Equal(t, run(), run())
}

func TestResetReplacesEpisode(t *testing.T) {
	s := newTunedSim(t)

	first, err := s.Reset(1)
	require.NoError(t, err)
	_, err = s.Step(scene.Action{Gripper: 1.0})
	require.NoError(t, err)

	second, err := s.Reset(2)
	require.NoError(t, err)
	assert.NotEqual(t, first.Episode, second.Episode)
	assert.Equal(t, 2, second.SceneID)
	assert.Equal(t, 0, second.Step)
	assert.Equal(t, scene.NoObject, second.Grasped)
}

func TestResetUnknownScene(t *testing.T) {
	s := newTunedSim(t)
	_, err := s.Reset(42)
	assert.ErrorIs(t, err, calibration.ErrUnknownScene)
}

func TestStepBeforeReset(t *testing.T) {
	s, err := New(Config{Registry: calibration.NewRegistry()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Step(scene.Action{})
	assert.ErrorIs(t, err, ErrNoSceneLoaded)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrNoSceneLoaded)
	_, err = s.Mapper()
	assert.ErrorIs(t, err, ErrNoSceneLoaded)
}

func TestClosedSimulationFailsLoudly(t *testing.T) {
	s, err := New(Config{Registry: calibration.NewRegistry()})
	require.NoError(t, err)
	_, err = s.Reset(1)
	require.NoError(t, err)

	require.NoError(t, s.Close())

	_, err = s.Reset(1)
	assert.ErrorIs(t, err, ErrSimulationClosed)
	_, err = s.Step(scene.Action{})
	assert.ErrorIs(t, err, ErrSimulationClosed)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrSimulationClosed)
	assert.ErrorIs(t, s.Close(), ErrSimulationClosed)
}

func TestNewRejectsInvalidAnnotations(t *testing.T) {
	bad := calibration.AnnotationSet{
		1: {scene.LandmarkPickup: image.Pt(10, 10)},
	}
	_, err := New(Config{Annotations: bad})
	assert.ErrorIs(t, err, calibration.ErrIncompleteAnnotation)
}

func TestMapperAccessor(t *testing.T) {
	s := newTunedSim(t)
	_, err := s.Reset(3)
	require.NoError(t, err)

	m, err := s.Mapper()
	require.NoError(t, err)
	assert.Equal(t, 3, m.SceneID())
}
