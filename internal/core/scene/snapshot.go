package scene

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// ObjectState is one movable object's pose at a simulation tick.
type ObjectState struct {
	ID       ObjectID
	Position r3.Vector
}

// Snapshot is an immutable record of all entity poses and flags at one
// simulation tick. Every Reset/Step/State call returns a fresh value;
// callers must not assume identity across ticks and must not mutate the
// Objects slice.
type Snapshot struct {
	// Episode identifies the reset that produced this snapshot.
	Episode uuid.UUID
	SceneID int

	Gripper r3.Vector
	// Objects holds the movable objects in grasp priority order.
	Objects []ObjectState
	Target  r3.Vector

	// Grasped is the id of the currently grasped object, or NoObject.
	Grasped       ObjectID
	GripperClosed bool
	Step          int
}

// Object returns the pose of the movable object with the given id.
func (s Snapshot) Object(id ObjectID) (r3.Vector, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o.Position, true
		}
	}
	return r3.Vector{}, false
}

// Checksum returns a deterministic digest of the physical state. Two
// rollouts that took identical actions through identical scenes produce
// identical checksums. The episode id is deliberately excluded so
// checksums are comparable across independent instances.
func (s Snapshot) Checksum() uint64 {
	h := xxhash.New()
	var buf [8]byte

	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}
	writeVec := func(v r3.Vector) {
		writeFloat(v.X)
		writeFloat(v.Y)
		writeFloat(v.Z)
	}

	binary.LittleEndian.PutUint64(buf[:], uint64(s.SceneID))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(s.Step))
	_, _ = h.Write(buf[:])

	writeVec(s.Gripper)
	for _, o := range s.Objects {
		_, _ = h.WriteString(string(o.ID))
		writeVec(o.Position)
	}
	writeVec(s.Target)

	_, _ = h.WriteString(string(s.Grasped))
	if s.GripperClosed {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}

	return h.Sum64()
}
