package kinematics

import (
	"errors"
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/roach88/scenekit/internal/pose"
)

// Origin is a fixed transform given as a translation and URDF-style
// roll/pitch/yaw in radians (rotation about the fixed X, then Y, then Z
// axes).
type Origin struct {
	XYZ [3]float32 `json:"xyz" yaml:"xyz"`
	RPY [3]float32 `json:"rpy" yaml:"rpy"`
}

// Pose converts o to a pose.
func (o Origin) Pose() pose.Pose {
	roll := math32.NewQuatAxisAngle(math32.Vec3(1, 0, 0), o.RPY[0])
	pitch := math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), o.RPY[1])
	yaw := math32.NewQuatAxisAngle(math32.Vec3(0, 0, 1), o.RPY[2])
	return pose.Compose(
		pose.Pose{Position: math32.Vec3(o.XYZ[0], o.XYZ[1], o.XYZ[2]), Orientation: yaw},
		pose.Pose{Orientation: pitch},
		pose.Pose{Orientation: roll},
	)
}

// Joint is one revolute joint. Lower == Upper means unlimited.
type Joint struct {
	Name   string     `json:"name" yaml:"name"`
	Origin Origin     `json:"origin" yaml:"origin"`
	Axis   [3]float32 `json:"axis" yaml:"axis"`
	Lower  float32    `json:"lower" yaml:"lower"`
	Upper  float32    `json:"upper" yaml:"upper"`
	Home   float32    `json:"home" yaml:"home"`
}

// Limited reports whether the joint has a finite range.
func (j Joint) Limited() bool {
	return j.Lower != j.Upper
}

func (j Joint) clamp(q float32) float32 {
	if !j.Limited() {
		return q
	}
	return min(max(q, j.Lower), j.Upper)
}

// Description is the kinematic model of a serial arm. Flange is the
// transform from the last joint frame to the wrist, where grippers mount.
type Description struct {
	Name   string  `json:"name" yaml:"name"`
	Joints []Joint `json:"joints" yaml:"joints"`
	Flange Origin  `json:"flange" yaml:"flange"`
}

// Validate checks the joint list.
func (d Description) Validate() error {
	if len(d.Joints) == 0 {
		return fmt.Errorf("description %q: no joints", d.Name)
	}
	var errs []error
	for i, j := range d.Joints {
		a := math32.Vec3(j.Axis[0], j.Axis[1], j.Axis[2])
		if a.Length() == 0 {
			errs = append(errs, fmt.Errorf("joint %d (%s): zero axis", i, j.Name))
		}
		if j.Lower > j.Upper {
			errs = append(errs, fmt.Errorf("joint %d (%s): lower limit above upper", i, j.Name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("description %q: %w", d.Name, err)
	}
	return nil
}

// FallbackDescription is the single-joint model used when a robot's
// description cannot be resolved.
func FallbackDescription() Description {
	return Description{
		Name: "fallback",
		Joints: []Joint{{
			Name:   "joint1",
			Origin: Origin{XYZ: [3]float32{0, 0, 0.1}},
			Axis:   [3]float32{0, 0, 1},
		}},
		Flange: Origin{XYZ: [3]float32{0, 0, 0.1}},
	}
}
