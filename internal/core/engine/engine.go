// Package engine provides the rigid-body physics capability the
// simulation is built on: collision shapes, body pose get/set, fixed
// constraints and a step integrator. The simulation treats the engine
// as opaque; World is the built-in implementation.
package engine

import "github.com/golang/geo/r3"

// BodyID identifies a body inside one engine instance.
type BodyID uint32

// ConstraintID identifies a constraint inside one engine instance.
type ConstraintID uint32

// BodyConfig describes a body to create. Mass zero makes the body
// static. Kinematic bodies ignore forces entirely; their pose is
// written directly each tick via SetBodyPosition.
type BodyConfig struct {
	Shape     Shape
	Mass      float64
	Kinematic bool
	Position  r3.Vector
}

// Engine is the opaque physics capability. Implementations are not
// safe for concurrent use; an instance must have exactly one owner, and
// bodies created under one instance must never be touched by another.
type Engine interface {
	// CreateBody adds a body to the world and returns its id.
	CreateBody(cfg BodyConfig) (BodyID, error)
	// RemoveBody removes a body and any constraints attached to it.
	RemoveBody(id BodyID) error

	// BodyPosition reads a body's authoritative position.
	BodyPosition(id BodyID) (r3.Vector, error)
	// SetBodyPosition writes a body's position directly, bypassing
	// dynamics. Intended for kinematic bodies.
	SetBodyPosition(id BodyID, pos r3.Vector) error

	// CreateFixedConstraint rigidly attaches child to parent at their
	// current relative offset. The child follows the parent with no
	// relative motion until the constraint is removed.
	CreateFixedConstraint(parent, child BodyID) (ConstraintID, error)
	// RemoveConstraint destroys a constraint. Removing a constraint
	// twice is an error.
	RemoveConstraint(id ConstraintID) error

	// StepSimulation advances the integrator by one timestep.
	StepSimulation() error

	// Close releases all engine-owned resources. The instance is
	// unusable afterward.
	Close() error
}
