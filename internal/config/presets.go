package config

// RobotPreset is a single robot configuration. Gripper, when set, names a
// gripper preset mounted at the wrist; WristQuat (x y z w) and WristPos
// (x y z) are space separated and give the mounting offset.
type RobotPreset struct {
	DescriptionName       string    `json:"description_name"`
	VariantName           string    `json:"variant_name,omitempty"`
	RobotName             string    `json:"robot_name,omitempty"`
	SideName              string    `json:"side_name,omitempty"`
	TransformRobotToWorld []float32 `json:"transform_robot_to_world,omitempty"`
	DefaultJointPositions []float32 `json:"default_joint_positions,omitempty"`
	Gripper               string    `json:"gripper,omitempty"`
	WristName             string    `json:"wrist_name,omitempty"`
	WristQuat             string    `json:"wrist_quat,omitempty"`
	WristPos              string    `json:"wrist_pos,omitempty"`
	// Camera is a mounted camera section; it is not turned into a blueprint.
	Camera any `json:"camera,omitempty"`
}

// RobotGroupPreset names the robot configurations created together under one
// logical robot name. A group with neither side set is itself a single robot
// configuration.
type RobotGroupPreset struct {
	RobotName       string `json:"robot_name,omitempty"`
	LeftRobot       string `json:"left_robot,omitempty"`
	RightRobot      string `json:"right_robot,omitempty"`
	DescriptionName string `json:"description_name,omitempty"`
}

// Sides returns the configured left and right robot configs, in that order.
func (g RobotGroupPreset) Sides() []string {
	var out []string
	for _, s := range []string{g.LeftRobot, g.RightRobot} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GripperPreset describes a gripper model.
type GripperPreset struct {
	DescriptionName       string    `json:"description_name"`
	VariantName           string    `json:"variant_name,omitempty"`
	GripperName           string    `json:"gripper_name"`
	DefaultJointPositions []float32 `json:"default_joint_positions,omitempty"`
}

// CameraPreset describes a camera sensor.
type CameraPreset struct {
	CameraName string `json:"camera_name,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// CalibrationPreset holds a camera's intrinsics and its world-to-camera
// extrinsics, both row major.
type CalibrationPreset struct {
	Intrinsics [3][3]float32 `json:"intrinsics"`
	Extrinsics [4][4]float32 `json:"extrinsics"`
}
