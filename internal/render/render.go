package render

import (
	"image/color"

	"github.com/roach88/scenekit/internal/pose"
)

// Kind is the node primitive requested from the backend.
type Kind string

const (
	KindFrame             Kind = "frame"
	KindBox               Kind = "box"
	KindCylinder          Kind = "cylinder"
	KindIcosphere         Kind = "icosphere"
	KindMesh              Kind = "mesh"
	KindCapsule           Kind = "capsule"
	KindFrustum           Kind = "frustum"
	KindRobot             Kind = "robot"
	KindTransformControls Kind = "transform_controls"
)

// NodeSpec describes a node to create. Fields that do not apply to Kind are
// ignored.
type NodeSpec struct {
	Name string
	Kind Kind
	Pose pose.Pose

	Color   color.RGBA
	Opacity float32

	// Box
	Dimensions [3]float32
	// Cylinder, capsule, icosphere
	Radius float32
	Height float32
	// Mesh file and ellipsoid scaling
	MeshPath string
	Scale    [3]float32
	// Frustum: vertical field of view in radians and width/height.
	Fov    float32
	Aspect float32
	// Robot model
	Description    string
	JointPositions []float32
	// Transform controls
	GizmoScale float32
}

// Backend creates render nodes.
type Backend interface {
	CreateNode(spec NodeSpec) (Handle, error)
}

// Handle is a live node owned by a backend.
type Handle interface {
	Name() string
	ID() string
	Kind() Kind
	Pose() pose.Pose
	SetPose(p pose.Pose)
	// Remove detaches the node from the scene. Further calls are no-ops.
	Remove()
	// OnClick registers fn to run when the user clicks the node.
	OnClick(fn func(Handle))
}

// Colored nodes expose a display color and an opacity in [0, 1].
type Colored interface {
	Color() (color.RGBA, float32)
	SetColor(c color.RGBA, opacity float32)
}

// Boxed nodes expose full box dimensions.
type Boxed interface {
	Dimensions() [3]float32
	SetDimensions(d [3]float32)
}

// Cylindrical nodes expose a radius and a full height.
type Cylindrical interface {
	Radius() float32
	Height() float32
	SetRadius(r float32)
	SetHeight(h float32)
}

// Spherical nodes expose a radius.
type Spherical interface {
	Radius() float32
	SetRadius(r float32)
}

// Draggable nodes report user-driven pose changes.
type Draggable interface {
	OnUpdate(fn func(pose.Pose))
}

// Articulated nodes carry joint positions.
type Articulated interface {
	JointPositions() []float32
	SetJointPositions(q []float32)
}
