package scene

// World-space height constants in meters. Derived from the physical
// table setup the scene photographs were calibrated against.
const (
	// TableSurfaceZ is the top of the table surface.
	TableSurfaceZ = 0.81
	// ObjectRestingZ is where a movable object sits on the table.
	ObjectRestingZ = 0.86
	// FloorZ is just above the ground plane so floor markers stay visible.
	FloorZ = 0.02
	// GripperHoverZ is the gripper's hover height above the table.
	GripperHoverZ = 0.88
)

// ZLevel is a named vertical level in the world frame. Pixel coordinates
// carry no depth, so every pixel-to-world conversion picks its z from
// this closed set.
type ZLevel uint8

const (
	ZTableSurface ZLevel = iota
	ZObjectResting
	ZFloor
	ZGripperHover
)

// Height returns the world z coordinate for the level.
func (z ZLevel) Height() (float64, error) {
	switch z {
	case ZTableSurface:
		return TableSurfaceZ, nil
	case ZObjectResting:
		return ObjectRestingZ, nil
	case ZFloor:
		return FloorZ, nil
	case ZGripperHover:
		return GripperHoverZ, nil
	default:
		return 0, ErrUnknownZLevel
	}
}

func (z ZLevel) String() string {
	switch z {
	case ZTableSurface:
		return "table_surface"
	case ZObjectResting:
		return "object_resting"
	case ZFloor:
		return "floor"
	case ZGripperHover:
		return "gripper_hover"
	default:
		return "unknown"
	}
}
