package blueprint

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/scenekit/internal/pose"
)

// ErrInapplicableChange is returned by Apply when a change names a field the
// variant does not have.
var ErrInapplicableChange = errors.New("change does not apply to blueprint kind")

// Changes is a set of whole-field replacements. Nil fields are left alone.
type Changes struct {
	Pose           *pose.Pose
	RGBA           *RGBA
	Size           []float32
	Mass           *float32
	Scale          *float32
	JointPositions []float32
}

// IsZero reports whether c changes nothing.
func (c Changes) IsZero() bool {
	return c.Pose == nil && c.RGBA == nil && c.Size == nil &&
		c.Mass == nil && c.Scale == nil && c.JointPositions == nil
}

// Apply returns a copy of bp with c applied. bp is not modified.
func Apply(bp Blueprint, c Changes) (Blueprint, error) {
	out := bp.Clone()
	h := out.common()
	if c.Pose != nil {
		h.Pose = *c.Pose
	}
	if c.RGBA != nil {
		rgba := *c.RGBA
		h.RGBA = &rgba
	}

	var size, mass, scale, joints bool
	switch v := out.(type) {
	case *Geom:
		if c.Size != nil {
			v.Size = slices.Clone(c.Size)
		}
		if c.Mass != nil {
			v.Mass = *c.Mass
		}
		size, mass = true, true
	case *Mesh:
		if c.Scale != nil {
			v.Scale = *c.Scale
		}
		scale = true
	case *Robot:
		if c.JointPositions != nil {
			v.DefaultJointPositions = slices.Clone(c.JointPositions)
		}
		joints = true
	case *Gripper:
		if c.JointPositions != nil {
			v.DefaultJointPositions = slices.Clone(c.JointPositions)
		}
		joints = true
	}

	switch {
	case c.Size != nil && !size:
		return nil, fmt.Errorf("%w: size on %s", ErrInapplicableChange, bp.Kind())
	case c.Mass != nil && !mass:
		return nil, fmt.Errorf("%w: mass on %s", ErrInapplicableChange, bp.Kind())
	case c.Scale != nil && !scale:
		return nil, fmt.Errorf("%w: scale on %s", ErrInapplicableChange, bp.Kind())
	case c.JointPositions != nil && !joints:
		return nil, fmt.Errorf("%w: joint positions on %s", ErrInapplicableChange, bp.Kind())
	}
	return out, nil
}
