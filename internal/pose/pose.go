package pose

import (
	"encoding/json"
	"fmt"

	"cogentcore.org/core/math32"
)

// Pose is an immutable rigid transform.
//
// The zero value is the identity: a zero orientation quaternion is read as
// (0, 0, 0, 1) so struct literals that omit Orientation stay valid.
type Pose struct {
	Position    math32.Vector3
	Orientation math32.Quat
}

// Identity returns the identity pose.
func Identity() Pose {
	return Pose{Orientation: math32.NewQuat(0, 0, 0, 1)}
}

// New builds a pose from a position and a (w, x, y, z) quaternion.
func New(position [3]float32, wxyz [4]float32) Pose {
	return Identity().WithPosition(position).WithWXYZ(wxyz)
}

// WithPosition returns a copy of p with the given position.
func (p Pose) WithPosition(position [3]float32) Pose {
	p.Position = math32.Vec3(position[0], position[1], position[2])
	return p
}

// WithWXYZ returns a copy of p with the given (w, x, y, z) orientation.
// The quaternion is normalized; an all-zero input yields the identity.
func (p Pose) WithWXYZ(wxyz [4]float32) Pose {
	p.Orientation = normalized(math32.NewQuat(wxyz[1], wxyz[2], wxyz[3], wxyz[0]))
	return p
}

// WithXYZW returns a copy of p with the given (x, y, z, w) orientation.
func (p Pose) WithXYZW(xyzw [4]float32) Pose {
	return p.WithWXYZ(XYZWToWXYZ(xyzw))
}

// Pos returns the position as an array.
func (p Pose) Pos() [3]float32 {
	return [3]float32{p.Position.X, p.Position.Y, p.Position.Z}
}

// WXYZ returns the orientation in (w, x, y, z) order.
func (p Pose) WXYZ() [4]float32 {
	q := p.quat()
	return [4]float32{q.W, q.X, q.Y, q.Z}
}

// XYZW returns the orientation in (x, y, z, w) order.
func (p Pose) XYZW() [4]float32 {
	return WXYZToXYZW(p.WXYZ())
}

// IsIdentity reports whether p is exactly the identity transform.
func (p Pose) IsIdentity() bool {
	return p.Position == (math32.Vector3{}) && p.quat() == math32.NewQuat(0, 0, 0, 1)
}

// Mul composes two poses: the result maps a point through o first and then
// through p, matching T_p · T_o for homogeneous matrices.
func (p Pose) Mul(o Pose) Pose {
	q := p.quat()
	oq := o.quat()
	rot := q.Mul(oq)
	return Pose{
		Position:    p.Position.Add(o.Position.MulQuat(q)),
		Orientation: normalized(rot),
	}
}

// Compose multiplies the poses left to right. Compose() is the identity.
func Compose(poses ...Pose) Pose {
	out := Identity()
	for _, p := range poses {
		out = out.Mul(p)
	}
	return out
}

// Inverse returns the transform that undoes p.
func (p Pose) Inverse() Pose {
	q := p.quat()
	inv := q.Inverse()
	return Pose{
		Position:    p.Position.MulQuat(inv).MulScalar(-1),
		Orientation: normalized(inv),
	}
}

// TransformPoint maps v from p's local frame into its parent frame.
func (p Pose) TransformPoint(v math32.Vector3) math32.Vector3 {
	return p.Position.Add(v.MulQuat(p.quat()))
}

// Rotate applies only the orientation of p to v.
func (p Pose) Rotate(v math32.Vector3) math32.Vector3 {
	return v.MulQuat(p.quat())
}

// ApproxEqual reports whether p and o differ by at most tol in position
// (euclidean distance) and orientation (1 - |q1·q2|). q and -q are treated as
// the same rotation.
func (p Pose) ApproxEqual(o Pose, tol float32) bool {
	if p.Position.Sub(o.Position).Length() > tol {
		return false
	}
	return 1-math32.Abs(dot(p.quat(), o.quat())) <= tol
}

// Angle returns the rotation angle in radians between the orientations of p
// and o.
func (p Pose) Angle(o Pose) float32 {
	d := math32.Abs(dot(p.quat(), o.quat()))
	if d > 1 {
		d = 1
	}
	return 2 * math32.Acos(d)
}

// EulerDeg returns the orientation as XYZ euler angles in degrees, the
// representation shown in the transform panel.
func (p Pose) EulerDeg() [3]float32 {
	q := p.quat()
	e := q.ToEuler()
	return [3]float32{math32.RadToDeg(e.X), math32.RadToDeg(e.Y), math32.RadToDeg(e.Z)}
}

// WithEulerDeg returns a copy of p whose orientation is given as XYZ euler
// angles in degrees.
func (p Pose) WithEulerDeg(deg [3]float32) Pose {
	var q math32.Quat
	q.SetFromEuler(math32.Vec3(math32.DegToRad(deg[0]), math32.DegToRad(deg[1]), math32.DegToRad(deg[2])))
	p.Orientation = normalized(q)
	return p
}

// FromMatrix decomposes a row-major homogeneous 4x4 transform. Any scale in
// the upper 3x3 block is discarded.
func FromMatrix(m [4][4]float32) Pose {
	var mm math32.Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			mm[c*4+r] = m[r][c]
		}
	}
	var q math32.Quat
	q.SetFromRotationMatrix(&mm)
	return Pose{
		Position:    math32.Vec3(m[0][3], m[1][3], m[2][3]),
		Orientation: normalized(q),
	}
}

// FromFlatMatrix decomposes 16 row-major values, the layout used by preset
// files for transforms such as transform_robot_to_world.
func FromFlatMatrix(v []float32) (Pose, error) {
	if len(v) != 16 {
		return Identity(), fmt.Errorf("pose matrix needs 16 values, got %d", len(v))
	}
	var m [4][4]float32
	for i, x := range v {
		m[i/4][i%4] = x
	}
	return FromMatrix(m), nil
}

// Matrix returns p as a row-major homogeneous 4x4 transform.
func (p Pose) Matrix() [4][4]float32 {
	q := p.quat()
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return [4][4]float32{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), p.Position.X},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), p.Position.Y},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), p.Position.Z},
		{0, 0, 0, 1},
	}
}

// String implements fmt.Stringer.
func (p Pose) String() string {
	return fmt.Sprintf("pos=%v wxyz=%v", p.Pos(), p.WXYZ())
}

type poseJSON struct {
	Position [3]float32 `json:"position"`
	WXYZ     [4]float32 `json:"wxyz"`
}

// MarshalJSON encodes p as {"position": [x,y,z], "wxyz": [w,x,y,z]}.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(poseJSON{Position: p.Pos(), WXYZ: p.WXYZ()})
}

// UnmarshalJSON decodes the form written by MarshalJSON. A missing wxyz field
// decodes to the identity orientation.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var raw poseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode pose: %w", err)
	}
	*p = New(raw.Position, raw.WXYZ)
	return nil
}

func (p Pose) quat() math32.Quat {
	if p.Orientation == (math32.Quat{}) {
		return math32.NewQuat(0, 0, 0, 1)
	}
	return p.Orientation
}

func normalized(q math32.Quat) math32.Quat {
	if q == (math32.Quat{}) {
		return math32.NewQuat(0, 0, 0, 1)
	}
	n := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	return math32.NewQuat(q.X/n, q.Y/n, q.Z/n, q.W/n)
}

func dot(a, b math32.Quat) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}
