package sim

// Physics and task tuning. Dimensions in meters, masses in kilograms.
const (
	TimestepS       = 1.0 / 240.0 // high frequency for constraint stability
	SubstepsPerStep = 4           // integrator substeps per Step call
	SettleTicks     = 20          // ticks run after reset to resolve placement

	GraspThresholdM = 0.06 // slightly larger than the pick object radius

	// Workspace bounds for the kinematic gripper. A physical limit, not
	// an error: commanded poses are clamped componentwise.
	WorkspaceMinX = -0.5
	WorkspaceMaxX = 0.5
	WorkspaceMinY = -0.3
	WorkspaceMaxY = 0.3
	WorkspaceMinZ = 0.82
	WorkspaceMaxZ = 1.2

	// Table box: half extents generous enough for all calibrated scenes,
	// centered so the top surface carries objects at their resting height.
	TableHalfX   = 0.6
	TableHalfY   = 0.4
	TableHalfZ   = 0.025
	TableCenterZ = 0.775

	PickObjectRadiusM = 0.015
	PickObjectHeightM = 0.12
	PickObjectMassKg  = 0.05

	ObstacleRadiusM = 0.02
	ObstacleHeightM = 0.03
	ObstacleMassKg  = 0.05

	TargetMarkerRadiusM = 0.02
	TargetMarkerHeightM = 0.03

	GripperRadiusM = 0.025
)
