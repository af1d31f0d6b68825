// Package sim owns the manipulation simulation: a kinematic gripper
// over a calibrated tabletop scene, with a grasp/release protocol that
// rigidly attaches at most one movable object to the gripper at a time.
package sim

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marblerl/gripsim/internal/core/calibration"
	"github.com/marblerl/gripsim/internal/core/engine"
	"github.com/marblerl/gripsim/internal/core/mapper"
	"github.com/marblerl/gripsim/internal/core/scene"
	"github.com/marblerl/gripsim/pkg/generic"
)

// Config wires a simulation instance.
type Config struct {
	// Registry supplies hand-tuned calibration entries. When nil, the
	// mapper infers each scene's frame from its annotation instead.
	Registry *calibration.Registry
	// Annotations supplies landmark pixels per scene. When nil, the
	// built-in annotation set is used.
	Annotations calibration.AnnotationSet
	// MapperParams tunes frame inference. Zero value means defaults.
	MapperParams mapper.Params

	// Engine is the physics capability. When nil a built-in World is
	// created and owned by the simulation. The engine must not be
	// shared with another simulation instance.
	Engine engine.Engine
	Logger *zap.Logger
}

type movable struct {
	id   scene.ObjectID
	body engine.BodyID
}

// graspLink is the internal attachment between the gripper and the one
// grasped object. Created on a grasp transition, destroyed on release
// or reset, never exposed to callers.
type graspLink struct {
	object     scene.ObjectID
	constraint engine.ConstraintID
}

// Simulation orchestrates reset/step over an exclusively owned physics
// engine. Not safe for concurrent use: Reset and Step must be
// serialized per instance, and parallel rollouts need one fully
// independent engine per instance.
type Simulation struct {
	log *zap.Logger
	eng engine.Engine
	cfg Config

	sceneID int
	episode uuid.UUID
	mapper  *mapper.Mapper

	table    engine.BodyID
	floor    engine.BodyID
	target   engine.BodyID
	gripper  engine.BodyID
	movables []movable

	gripperPos    r3.Vector
	gripperClosed bool
	grasp         *graspLink
	steps         int

	hasScene bool
	closed   bool
}

// New creates a simulation. Call Reset before Step or State.
func New(cfg Config) (*Simulation, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Annotations == nil {
		cfg.Annotations = calibration.DefaultAnnotations()
	}
	if (cfg.MapperParams == mapper.Params{}) {
		cfg.MapperParams = mapper.DefaultParams()
	}
	if err := cfg.Annotations.Validate(); err != nil {
		return nil, err
	}

	eng := cfg.Engine
	if eng == nil {
		world, err := engine.NewWorld(engine.DefaultWorldConfig(), cfg.Logger)
		if err != nil {
			return nil, err
		}
		eng = world
	}

	return &Simulation{
		log: cfg.Logger,
		eng: eng,
		cfg: cfg,
	}, nil
}

// Reset tears down all prior bodies and builds the named scene:
// static table, floor plane and target marker, dynamic movable objects
// at their calibrated poses and the kinematic gripper at its start
// pose. The integrator runs a fixed number of settling ticks before
// the first snapshot is returned.
func (s *Simulation) Reset(sceneID int) (scene.Snapshot, error) {
	if s.closed {
		return scene.Snapshot{}, ErrSimulationClosed
	}

	m, err := s.buildMapper(sceneID)
	if err != nil {
		return scene.Snapshot{}, err
	}
	layout, err := m.InitialLayout()
	if err != nil {
		return scene.Snapshot{}, err
	}

	if err := s.teardown(); err != nil {
		return scene.Snapshot{}, fmt.Errorf("reset teardown: %w", err)
	}

	s.sceneID = sceneID
	s.mapper = m
	s.episode = uuid.New()

	s.table, err = s.eng.CreateBody(engine.BodyConfig{
		Shape:    engine.Box(r3.Vector{X: TableHalfX, Y: TableHalfY, Z: TableHalfZ}),
		Position: r3.Vector{Z: TableCenterZ},
	})
	if err != nil {
		return scene.Snapshot{}, fmt.Errorf("create table: %w", err)
	}
	s.floor, err = s.eng.CreateBody(engine.BodyConfig{Shape: engine.Plane()})
	if err != nil {
		return scene.Snapshot{}, fmt.Errorf("create floor: %w", err)
	}

	s.movables = s.movables[:0]
	for _, l := range scene.MovableLandmarks() {
		shape := engine.Cylinder(ObstacleRadiusM, ObstacleHeightM)
		mass := ObstacleMassKg
		if l == scene.LandmarkPickup {
			shape = engine.Cylinder(PickObjectRadiusM, PickObjectHeightM)
			mass = PickObjectMassKg
		}
		var body engine.BodyID
		body, err = s.eng.CreateBody(engine.BodyConfig{
			Shape:    shape,
			Mass:     mass,
			Position: layout[l],
		})
		if err != nil {
			return scene.Snapshot{}, fmt.Errorf("create %s: %w", l, err)
		}
		s.movables = append(s.movables, movable{id: scene.ObjectID(l), body: body})
	}

	s.target, err = s.eng.CreateBody(engine.BodyConfig{
		Shape:    engine.Cylinder(TargetMarkerRadiusM, TargetMarkerHeightM),
		Position: layout[scene.LandmarkTargetZone],
	})
	if err != nil {
		return scene.Snapshot{}, fmt.Errorf("create target: %w", err)
	}

	s.gripperPos = r3.Vector{Z: scene.GripperHoverZ}
	s.gripper, err = s.eng.CreateBody(engine.BodyConfig{
		Shape:     engine.Sphere(GripperRadiusM),
		Kinematic: true,
		Position:  s.gripperPos,
	})
	if err != nil {
		return scene.Snapshot{}, fmt.Errorf("create gripper: %w", err)
	}

	s.gripperClosed = false
	s.grasp = nil
	s.steps = 0
	s.hasScene = true

	for i := 0; i < SettleTicks; i++ {
		if err := s.eng.StepSimulation(); err != nil {
			return scene.Snapshot{}, fmt.Errorf("settle: %w", err)
		}
	}

	s.log.Info("scene reset",
		zap.Int("scene", sceneID),
		zap.String("episode", s.episode.String()),
		zap.Float64("pixels_per_meter", m.PixelsPerMeter()),
	)
	return s.State()
}

// Step applies one action: move the gripper within its workspace
// bounds, evaluate the grasp protocol, advance the integrator and
// return a fresh snapshot.
func (s *Simulation) Step(a scene.Action) (scene.Snapshot, error) {
	if s.closed {
		return scene.Snapshot{}, ErrSimulationClosed
	}
	if !s.hasScene {
		return scene.Snapshot{}, ErrNoSceneLoaded
	}

	s.gripperPos.X = generic.Clamp(s.gripperPos.X+a.DeltaX, WorkspaceMinX, WorkspaceMaxX)
	s.gripperPos.Y = generic.Clamp(s.gripperPos.Y+a.DeltaY, WorkspaceMinY, WorkspaceMaxY)
	s.gripperPos.Z = generic.Clamp(s.gripperPos.Z, WorkspaceMinZ, WorkspaceMaxZ)
	s.gripperClosed = a.Closed()

	// Kinematic control: write the pose directly, no actuator dynamics.
	if err := s.eng.SetBodyPosition(s.gripper, s.gripperPos); err != nil {
		return scene.Snapshot{}, fmt.Errorf("move gripper: %w", err)
	}

	if err := s.evaluateGrasp(); err != nil {
		return scene.Snapshot{}, err
	}

	for i := 0; i < SubstepsPerStep; i++ {
		if err := s.eng.StepSimulation(); err != nil {
			return scene.Snapshot{}, fmt.Errorf("step physics: %w", err)
		}
	}
	s.steps++

	return s.State()
}

// evaluateGrasp runs the level-triggered grasp transitions: commanded
// closed with nothing held attaches the first in-range object in
// priority order; commanded open with something held releases it
// unconditionally.
func (s *Simulation) evaluateGrasp() error {
	switch {
	case s.gripperClosed && s.grasp == nil:
		for _, m := range s.movables {
			pos, err := s.eng.BodyPosition(m.body)
			if err != nil {
				return fmt.Errorf("grasp scan %s: %w", m.id, err)
			}
			dist := s.gripperPos.Sub(pos).Norm()
			if dist >= GraspThresholdM {
				continue
			}
			cid, err := s.eng.CreateFixedConstraint(s.gripper, m.body)
			if err != nil {
				return fmt.Errorf("attach %s: %w", m.id, err)
			}
			s.grasp = &graspLink{object: m.id, constraint: cid}
			s.log.Debug("object grasped",
				zap.String("object", string(m.id)),
				zap.Float64("distance", dist),
				zap.Int("step", s.steps),
			)
			break
		}
	case !s.gripperClosed && s.grasp != nil:
		if err := s.eng.RemoveConstraint(s.grasp.constraint); err != nil {
			return fmt.Errorf("release %s: %w", s.grasp.object, err)
		}
		s.log.Debug("object released",
			zap.String("object", string(s.grasp.object)),
			zap.Int("step", s.steps),
		)
		s.grasp = nil
	}
	return nil
}

// State returns a fresh snapshot. Poses of non-kinematic bodies are
// re-read from the engine every call; the kinematic gripper reports its
// last commanded pose. Pure read: consecutive calls without an
// intervening Step return identical snapshots.
func (s *Simulation) State() (scene.Snapshot, error) {
	if s.closed {
		return scene.Snapshot{}, ErrSimulationClosed
	}
	if !s.hasScene {
		return scene.Snapshot{}, ErrNoSceneLoaded
	}

	objects := make([]scene.ObjectState, 0, len(s.movables))
	for _, m := range s.movables {
		pos, err := s.eng.BodyPosition(m.body)
		if err != nil {
			return scene.Snapshot{}, fmt.Errorf("read %s: %w", m.id, err)
		}
		objects = append(objects, scene.ObjectState{ID: m.id, Position: pos})
	}
	target, err := s.eng.BodyPosition(s.target)
	if err != nil {
		return scene.Snapshot{}, fmt.Errorf("read target: %w", err)
	}

	grasped := scene.NoObject
	if s.grasp != nil {
		grasped = s.grasp.object
	}

	return scene.Snapshot{
		Episode:       s.episode,
		SceneID:       s.sceneID,
		Gripper:       s.gripperPos,
		Objects:       objects,
		Target:        target,
		Grasped:       grasped,
		GripperClosed: s.gripperClosed,
		Step:          s.steps,
	}, nil
}

// Mapper returns the active scene's coordinate mapper for consumers
// that project snapshot poses back into pixel space.
func (s *Simulation) Mapper() (*mapper.Mapper, error) {
	if s.closed {
		return nil, ErrSimulationClosed
	}
	if !s.hasScene {
		return nil, ErrNoSceneLoaded
	}
	return s.mapper, nil
}

// Close releases the engine. The simulation is unusable afterward.
func (s *Simulation) Close() error {
	if s.closed {
		return ErrSimulationClosed
	}
	s.closed = true
	s.hasScene = false
	s.grasp = nil
	return s.eng.Close()
}

// buildMapper picks the hand-tuned path when a registry is configured
// and falls back to frame inference otherwise.
func (s *Simulation) buildMapper(sceneID int) (*mapper.Mapper, error) {
	ann, err := s.cfg.Annotations.Get(sceneID)
	if err != nil {
		return nil, err
	}
	if s.cfg.Registry != nil {
		entry, err := s.cfg.Registry.Get(sceneID)
		if err != nil {
			return nil, err
		}
		return mapper.FromEntry(entry, ann)
	}
	return mapper.FromAnnotation(sceneID, ann, s.cfg.MapperParams)
}

// teardown removes any grasp attachment and all bodies from a previous
// scene.
func (s *Simulation) teardown() error {
	if !s.hasScene {
		return nil
	}
	if s.grasp != nil {
		if err := s.eng.RemoveConstraint(s.grasp.constraint); err != nil {
			return err
		}
		s.grasp = nil
	}
	ids := []engine.BodyID{s.gripper, s.target, s.table, s.floor}
	for _, m := range s.movables {
		ids = append(ids, m.body)
	}
	for _, id := range ids {
		if err := s.eng.RemoveBody(id); err != nil {
			return err
		}
	}
	s.movables = s.movables[:0]
	s.hasScene = false
	return nil
}
