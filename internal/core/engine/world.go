package engine

import (
	"fmt"
	"sort"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"
)

// WorldConfig configures the built-in rigid-body world.
type WorldConfig struct {
	Gravity  r3.Vector
	Timestep float64

	// ContactDampingDiv divides horizontal velocity each tick a body is
	// in resting contact, so released objects slide to a stop instead
	// of drifting forever.
	ContactDampingDiv float64

	// MaxPenetration is how deep a body may start inside a support
	// surface and still be pushed back on top during settling.
	MaxPenetration float64
}

// DefaultWorldConfig returns the timestep and gravity the simulation is
// tuned for.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Gravity:           r3.Vector{Z: -9.81},
		Timestep:          1.0 / 240.0,
		ContactDampingDiv: 1.1,
		MaxPenetration:    0.1,
	}
}

// Validate checks the world configuration.
func (c WorldConfig) Validate() error {
	if c.Timestep <= 0 {
		return ErrInvalidTimestep
	}
	if c.ContactDampingDiv < 1 {
		return fmt.Errorf("contact damping divisor %.3f must be >= 1", c.ContactDampingDiv)
	}
	return nil
}

type worldBody struct {
	shape     Shape
	mass      float64
	kinematic bool
	pos       r3.Vector
	vel       r3.Vector
}

func (b *worldBody) dynamic() bool {
	return b.mass > 0 && !b.kinematic
}

type worldConstraint struct {
	parent BodyID
	child  BodyID
	// offset is the child's position relative to the parent, captured
	// when the constraint was created.
	offset r3.Vector
}

// World is the built-in Engine implementation: semi-implicit Euler
// integration with gravity, resting contact against static surfaces and
// rigid fixed constraints. Deterministic for a given body creation
// order. Not safe for concurrent use.
type World struct {
	cfg WorldConfig
	log *zap.Logger

	bodies      map[BodyID]*worldBody
	constraints map[ConstraintID]*worldConstraint

	nextBody       BodyID
	nextConstraint ConstraintID
	closed         bool
}

var _ Engine = (*World)(nil)

// NewWorld creates an empty physics world. A nil logger disables
// logging.
func NewWorld(cfg WorldConfig, log *zap.Logger) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		cfg:         cfg,
		log:         log,
		bodies:      make(map[BodyID]*worldBody),
		constraints: make(map[ConstraintID]*worldConstraint),
	}, nil
}

func (w *World) CreateBody(cfg BodyConfig) (BodyID, error) {
	if w.closed {
		return 0, ErrWorldClosed
	}
	if !cfg.Shape.valid() {
		return 0, ErrInvalidShape
	}
	w.nextBody++
	id := w.nextBody
	w.bodies[id] = &worldBody{
		shape:     cfg.Shape,
		mass:      cfg.Mass,
		kinematic: cfg.Kinematic,
		pos:       cfg.Position,
	}
	return id, nil
}

func (w *World) RemoveBody(id BodyID) error {
	if w.closed {
		return ErrWorldClosed
	}
	if _, ok := w.bodies[id]; !ok {
		return fmt.Errorf("%w: %d", ErrBodyNotFound, id)
	}
	delete(w.bodies, id)
	for cid, c := range w.constraints {
		if c.parent == id || c.child == id {
			delete(w.constraints, cid)
		}
	}
	return nil
}

func (w *World) BodyPosition(id BodyID) (r3.Vector, error) {
	if w.closed {
		return r3.Vector{}, ErrWorldClosed
	}
	b, ok := w.bodies[id]
	if !ok {
		return r3.Vector{}, fmt.Errorf("%w: %d", ErrBodyNotFound, id)
	}
	return b.pos, nil
}

func (w *World) SetBodyPosition(id BodyID, pos r3.Vector) error {
	if w.closed {
		return ErrWorldClosed
	}
	b, ok := w.bodies[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrBodyNotFound, id)
	}
	b.pos = pos
	b.vel = r3.Vector{}
	return nil
}

func (w *World) CreateFixedConstraint(parent, child BodyID) (ConstraintID, error) {
	if w.closed {
		return 0, ErrWorldClosed
	}
	pb, ok := w.bodies[parent]
	if !ok {
		return 0, fmt.Errorf("parent %w: %d", ErrBodyNotFound, parent)
	}
	cb, ok := w.bodies[child]
	if !ok {
		return 0, fmt.Errorf("child %w: %d", ErrBodyNotFound, child)
	}
	w.nextConstraint++
	id := w.nextConstraint
	w.constraints[id] = &worldConstraint{
		parent: parent,
		child:  child,
		offset: cb.pos.Sub(pb.pos),
	}
	return id, nil
}

func (w *World) RemoveConstraint(id ConstraintID) error {
	if w.closed {
		return ErrWorldClosed
	}
	if _, ok := w.constraints[id]; !ok {
		return fmt.Errorf("%w: %d", ErrConstraintNotFound, id)
	}
	delete(w.constraints, id)
	return nil
}

// StepSimulation advances all dynamic bodies by one timestep, resolves
// resting contact against static surfaces and re-applies fixed
// constraints.
func (w *World) StepSimulation() error {
	if w.closed {
		return ErrWorldClosed
	}
	dt := w.cfg.Timestep

	for _, id := range w.bodyIDs() {
		b := w.bodies[id]
		if !b.dynamic() {
			continue
		}
		b.vel = b.vel.Add(w.cfg.Gravity.Mul(dt))
		b.pos = b.pos.Add(b.vel.Mul(dt))

		support, supported := w.supportHeight(b)
		bottom := b.pos.Z - b.shape.halfHeight()
		if supported && bottom < support && b.vel.Z <= 0 {
			b.pos.Z = support + b.shape.halfHeight()
			b.vel.Z = 0
			b.vel.X /= w.cfg.ContactDampingDiv
			b.vel.Y /= w.cfg.ContactDampingDiv
		}
	}

	// Constraints win over dynamics: the child is pinned to the parent
	// at the captured offset with no relative motion.
	for _, id := range w.constraintIDs() {
		c := w.constraints[id]
		parent, ok := w.bodies[c.parent]
		if !ok {
			continue
		}
		child, ok := w.bodies[c.child]
		if !ok {
			continue
		}
		child.pos = parent.pos.Add(c.offset)
		child.vel = r3.Vector{}
	}
	return nil
}

func (w *World) Close() error {
	if w.closed {
		return ErrWorldClosed
	}
	w.closed = true
	w.bodies = nil
	w.constraints = nil
	w.log.Debug("physics world closed")
	return nil
}

// supportHeight finds the highest static surface under the body at its
// current XY position. Surfaces more than MaxPenetration above the
// body's lowest point are ignored, so a body below the table does not
// teleport onto it.
func (w *World) supportHeight(b *worldBody) (float64, bool) {
	bottom := b.pos.Z - b.shape.halfHeight()
	best := 0.0
	found := false

	for _, other := range w.bodies {
		if other == b || other.dynamic() || other.kinematic {
			continue
		}
		var top float64
		switch other.shape.Kind {
		case ShapePlane:
			top = other.pos.Z
		case ShapeBox:
			dx := b.pos.X - other.pos.X
			dy := b.pos.Y - other.pos.Y
			if dx < -other.shape.HalfExtents.X || dx > other.shape.HalfExtents.X ||
				dy < -other.shape.HalfExtents.Y || dy > other.shape.HalfExtents.Y {
				continue
			}
			top = other.pos.Z + other.shape.HalfExtents.Z
		default:
			// Static cylinders and spheres are visual markers; bodies
			// do not rest on them.
			continue
		}
		if top > bottom+w.cfg.MaxPenetration {
			continue
		}
		if !found || top > best {
			best = top
			found = true
		}
	}
	return best, found
}

func (w *World) bodyIDs() []BodyID {
	ids := make([]BodyID, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) constraintIDs() []ConstraintID {
	ids := make([]ConstraintID, 0, len(w.constraints))
	for id := range w.constraints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
