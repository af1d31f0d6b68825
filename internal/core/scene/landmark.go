package scene

// ImageSize is the side length of the calibrated scene photographs in
// pixels. All pixel coordinates live in [0, ImageSize).
const ImageSize = 224

// Landmark is a named point of interest annotated in pixel space by the
// calibration editor. The set is closed: every scene annotation must
// cover exactly these five labels.
type Landmark string

const (
	LandmarkPickup       Landmark = "object_to_pickup"
	LandmarkObstacle1    Landmark = "obstacle_1"
	LandmarkObstacle2    Landmark = "obstacle_2"
	LandmarkGripperStart Landmark = "gripper_start"
	LandmarkTargetZone   Landmark = "target_zone"
)

// Landmarks lists all annotation labels in a stable order.
func Landmarks() []Landmark {
	return []Landmark{
		LandmarkPickup,
		LandmarkObstacle1,
		LandmarkObstacle2,
		LandmarkGripperStart,
		LandmarkTargetZone,
	}
}

// MovableLandmarks lists the landmarks that become dynamic bodies, in
// grasp priority order. When several objects are inside the grasp
// threshold at once, the first in this list wins.
func MovableLandmarks() []Landmark {
	return []Landmark{
		LandmarkPickup,
		LandmarkObstacle1,
		LandmarkObstacle2,
	}
}

// Level returns the z-level a landmark's pixel annotation maps to:
// table height for movable objects, hover height for the gripper and
// floor height for the target zone.
func (l Landmark) Level() (ZLevel, error) {
	switch l {
	case LandmarkPickup, LandmarkObstacle1, LandmarkObstacle2:
		return ZObjectResting, nil
	case LandmarkGripperStart:
		return ZGripperHover, nil
	case LandmarkTargetZone:
		return ZFloor, nil
	default:
		return 0, ErrUnknownLandmark
	}
}

// ObjectID identifies a movable object inside one simulation episode.
// The zero value means "no object".
type ObjectID string

const NoObject ObjectID = ""

// Movable object ids reuse the landmark labels they were spawned from.
const (
	ObjectPickup    = ObjectID(LandmarkPickup)
	ObjectObstacle1 = ObjectID(LandmarkObstacle1)
	ObjectObstacle2 = ObjectID(LandmarkObstacle2)
)
