package testutil

import (
	"fmt"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/kinematics"
	"github.com/roach88/scenekit/internal/pose"
)

// Descriptions is an in-memory kinematics.DescriptionSource.
type Descriptions map[string]kinematics.Description

// Description implements kinematics.DescriptionSource.
func (d Descriptions) Description(name string) (kinematics.Description, error) {
	desc, ok := d[name]
	if !ok {
		return kinematics.Description{}, fmt.Errorf("%w: %s", kinematics.ErrUnknownDescription, name)
	}
	return desc, nil
}

// ArmDescription is a three-joint arm (yaw, pitch, pitch) with its home
// configuration away from singularities.
func ArmDescription() kinematics.Description {
	return kinematics.Description{
		Name: "arm3",
		Joints: []kinematics.Joint{
			{Name: "base_yaw", Origin: kinematics.Origin{XYZ: [3]float32{0, 0, 0.1}}, Axis: [3]float32{0, 0, 1}, Lower: -3, Upper: 3},
			{Name: "shoulder", Origin: kinematics.Origin{XYZ: [3]float32{0, 0, 0.2}}, Axis: [3]float32{0, 1, 0}, Lower: -2, Upper: 2, Home: 0.4},
			{Name: "elbow", Origin: kinematics.Origin{XYZ: [3]float32{0, 0, 0.3}}, Axis: [3]float32{0, 1, 0}, Lower: -2.5, Upper: 2.5, Home: 0.8},
		},
		Flange: kinematics.Origin{XYZ: [3]float32{0, 0, 0.25}},
	}
}

// Box returns a box geom with the given half extents.
func Box(path string, half ...float32) *blueprint.Geom {
	if len(half) == 0 {
		half = []float32{0.05, 0.05, 0.05}
	}
	return &blueprint.Geom{
		Common:   blueprint.Common{Path: path, Pose: pose.Identity()},
		GeomType: blueprint.GeomBox,
		Size:     half,
		Mass:     1,
	}
}

// Group returns a group at the given position.
func Group(path string, x, y, z float32) *blueprint.Group {
	return &blueprint.Group{Common: blueprint.Common{Path: path, Pose: pose.Identity().WithPosition([3]float32{x, y, z})}}
}

// Gripper returns a gripper using the "pincer" description.
func Gripper(path string) *blueprint.Gripper {
	return &blueprint.Gripper{
		Common: blueprint.Common{Path: path, Pose: pose.Identity()},
		Model:  blueprint.Model{DescriptionName: "pincer"},
	}
}

// AttachedRobot returns an arm3 robot at path carrying the gripper at
// gripperPath with a 5 cm mounting offset.
func AttachedRobot(path, gripperPath string) *blueprint.Robot {
	return &blueprint.Robot{
		Common: blueprint.Common{Path: path, Pose: pose.Identity().WithPosition([3]float32{0.5, 0, 0})},
		Model:  blueprint.Model{DescriptionName: "arm3"},
		Attachment: &blueprint.Attachment{
			GripperPath: gripperPath,
			WristName:   "wrist",
			Offset:      pose.Identity().WithPosition([3]float32{0, 0, 0.05}),
		},
	}
}
