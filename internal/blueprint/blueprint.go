package blueprint

import (
	"fmt"

	"github.com/jinzhu/copier"

	"github.com/roach88/scenekit/internal/pose"
)

// Kind names a blueprint variant. It is also the "type" discriminator of the
// JSON document format.
type Kind string

const (
	KindGroup   Kind = "group"
	KindGeom    Kind = "geom"
	KindMesh    Kind = "mesh"
	KindCamera  Kind = "camera"
	KindRobot   Kind = "robot"
	KindGripper Kind = "gripper"
)

// GeomType selects the primitive shape of a Geom.
type GeomType string

const (
	GeomBox       GeomType = "box"
	GeomPlane     GeomType = "plane"
	GeomCylinder  GeomType = "cylinder"
	GeomCapsule   GeomType = "capsule"
	GeomSphere    GeomType = "sphere"
	GeomEllipsoid GeomType = "ellipsoid"
)

// RGBA is a color with components in [0, 1].
type RGBA [4]float32

// Blueprint is implemented by the six variants of this package only.
type Blueprint interface {
	// Kind returns the variant discriminator.
	Kind() Kind
	// Header returns a copy of the fields shared by all variants.
	Header() Common
	// Clone returns a deep copy.
	Clone() Blueprint

	common() *Common
}

// Common holds the fields shared by every variant.
//
// The zero Pose is the identity. RGBA is optional; renderers fall back to a
// neutral gray when it is nil.
type Common struct {
	Path string    `json:"path" validate:"required,scenepath"`
	Pose pose.Pose `json:"pose"`
	RGBA *RGBA     `json:"rgba,omitempty" validate:"omitempty,dive,gte=0,lte=1"`
}

// Header returns a copy of c that does not share the RGBA pointer.
func (c *Common) Header() Common {
	out := *c
	if c.RGBA != nil {
		rgba := *c.RGBA
		out.RGBA = &rgba
	}
	return out
}

func (c *Common) common() *Common { return c }

// Group is a pure hierarchy anchor.
type Group struct {
	Common
}

// Geom is a primitive shape. Size semantics depend on GeomType: half extents
// for box, [half x, half y(, thickness)] for plane, [radius, half height] for
// cylinder and capsule, [radius] for sphere and three semi-axes for
// ellipsoid.
type Geom struct {
	Common
	GeomType GeomType  `json:"geom_type" validate:"required,oneof=box plane cylinder capsule sphere ellipsoid"`
	Size     []float32 `json:"size" validate:"dive,gte=0"`
	Mass     float32   `json:"mass" validate:"gte=0"`
	IsStatic bool      `json:"is_static"`
}

// Mesh references a mesh file on disk.
type Mesh struct {
	Common
	MeshPath string  `json:"mesh_path" validate:"required"`
	Scale    float32 `json:"scale" validate:"gt=0"`
	IsStatic bool    `json:"is_static"`
}

// Camera is a pinhole camera with a 3x3 intrinsics matrix.
type Camera struct {
	Common
	Width      int           `json:"width" validate:"gt=0"`
	Height     int           `json:"height" validate:"gt=0"`
	Intrinsics [3][3]float32 `json:"intrinsics"`
}

// Model identifies a robot or gripper description.
type Model struct {
	DescriptionName string `json:"description_name" validate:"required"`
	VariantName     string `json:"variant_name,omitempty"`
	ModelPrefix     string `json:"model_prefix_name,omitempty"`
}

// QualifiedName returns the description name with the variant appended, the
// key under which variant-specific descriptions are registered.
func (m Model) QualifiedName() string {
	if m.VariantName == "" {
		return m.DescriptionName
	}
	return m.DescriptionName + "_" + m.VariantName
}

// Attachment links a robot to a gripper in the same document. Offset is the
// pose of the gripper mount relative to the wrist frame.
type Attachment struct {
	GripperPath string    `json:"gripper_path" validate:"required,scenepath"`
	WristName   string    `json:"wrist_name"`
	Offset      pose.Pose `json:"attachment_offset"`
}

// Robot is an articulated arm, optionally carrying a gripper.
type Robot struct {
	Common
	Model                 Model       `json:"model"`
	DefaultJointPositions []float32   `json:"default_joint_positions,omitempty"`
	Attachment            *Attachment `json:"attachment,omitempty"`
}

// Gripper is an end effector, usually attached to a Robot.
type Gripper struct {
	Common
	Model                 Model     `json:"model"`
	DefaultJointPositions []float32 `json:"default_joint_positions,omitempty"`
}

func (*Group) Kind() Kind   { return KindGroup }
func (*Geom) Kind() Kind    { return KindGeom }
func (*Mesh) Kind() Kind    { return KindMesh }
func (*Camera) Kind() Kind  { return KindCamera }
func (*Robot) Kind() Kind   { return KindRobot }
func (*Gripper) Kind() Kind { return KindGripper }

func (b *Group) Clone() Blueprint   { return deepCopy(&Group{}, b) }
func (b *Geom) Clone() Blueprint    { return deepCopy(&Geom{}, b) }
func (b *Mesh) Clone() Blueprint    { return deepCopy(&Mesh{}, b) }
func (b *Camera) Clone() Blueprint  { return deepCopy(&Camera{}, b) }
func (b *Robot) Clone() Blueprint   { return deepCopy(&Robot{}, b) }
func (b *Gripper) Clone() Blueprint { return deepCopy(&Gripper{}, b) }

// HasAttachment reports whether r must be rendered after its gripper.
func (r *Robot) HasAttachment() bool {
	return r.Attachment != nil
}

// deepCopy copies src into the zero value dst. Empty fields are skipped so
// nil slices and pointers stay nil in the copy.
func deepCopy[T Blueprint](dst, src T) Blueprint {
	if err := copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true, IgnoreEmpty: true}); err != nil {
		// copier only fails on mismatched kinds; dst and src share a type.
		panic(fmt.Sprintf("blueprint: clone %T: %v", src, err))
	}
	return dst
}

// CloneAll deep-copies a slice of blueprints.
func CloneAll(bps []Blueprint) []Blueprint {
	out := make([]Blueprint, len(bps))
	for i, bp := range bps {
		out[i] = bp.Clone()
	}
	return out
}
