package renderer

import (
	"fmt"

	"cogentcore.org/core/math32"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
)

// planeThickness is the box depth used to draw planes.
const planeThickness = 0.001

// cameraFlip turns the camera frame into the backend's frustum frame,
// which looks down the opposite axis.
var cameraFlip = pose.Pose{Orientation: math32.NewQuatAxisAngle(math32.Vec3(0, 1, 0), math32.Pi)}

// createNode builds the node for a single blueprint. Robots are created
// without end effector wiring; see AddRobot.
func (s *Synchronizer) createNode(bp blueprint.Blueprint) (render.Handle, error) {
	switch b := bp.(type) {
	case *blueprint.Group:
		return s.create(b.Path, render.NodeSpec{Name: b.Path, Kind: render.KindFrame, Pose: b.Pose})
	case *blueprint.Geom:
		spec, err := geomSpec(b)
		if err != nil {
			return nil, err
		}
		return s.create(b.Path, spec)
	case *blueprint.Mesh:
		return s.create(b.Path, meshSpec(b))
	case *blueprint.Camera:
		return s.create(b.Path, cameraSpec(b))
	case *blueprint.Robot:
		if b.HasAttachment() {
			s.logger.Debug("robot created without attachment wiring", "path", b.Path, "gripper", b.Attachment.GripperPath)
		}
		return s.robotHandle(b.Path, b.Model, b.Pose, b.DefaultJointPositions)
	case *blueprint.Gripper:
		return s.robotHandle(b.Path, b.Model, b.Pose, b.DefaultJointPositions)
	default:
		return nil, &NodeError{
			Code:    CodeUnsupportedVariant,
			Path:    bp.Header().Path,
			Message: fmt.Sprintf("no node for blueprint kind %q", bp.Kind()),
		}
	}
}

func (s *Synchronizer) robotHandle(path string, model blueprint.Model, p pose.Pose, joints []float32) (render.Handle, error) {
	rn, err := s.newRobotNode(path, model, p, joints)
	if err != nil {
		return nil, err
	}
	return rn, nil
}

func (s *Synchronizer) create(path string, spec render.NodeSpec) (render.Handle, error) {
	h, err := s.backend.CreateNode(spec)
	if err != nil {
		return nil, &NodeError{Code: CodeBackend, Path: path, Message: fmt.Sprintf("create %s node", spec.Kind), Err: err}
	}
	return h, nil
}

// geomSpec maps a geom to a node. Box and plane sizes are half extents and
// are doubled; cylinder and capsule heights are doubled half heights.
func geomSpec(g *blueprint.Geom) (render.NodeSpec, error) {
	c, opacity := blueprint.ColorFromRGBA(g.RGBA)
	spec := render.NodeSpec{Name: g.Path, Pose: g.Pose, Color: c, Opacity: opacity}

	need := func(n int) error {
		if len(g.Size) < n {
			return &NodeError{
				Code:    CodeInvalidGeometry,
				Path:    g.Path,
				Message: fmt.Sprintf("%s needs %d size values, got %d", g.GeomType, n, len(g.Size)),
			}
		}
		return nil
	}

	switch g.GeomType {
	case blueprint.GeomBox:
		if err := need(3); err != nil {
			return spec, err
		}
		spec.Kind = render.KindBox
		spec.Dimensions = [3]float32{g.Size[0] * 2, g.Size[1] * 2, g.Size[2] * 2}
	case blueprint.GeomPlane:
		if err := need(2); err != nil {
			return spec, err
		}
		spec.Kind = render.KindBox
		spec.Dimensions = [3]float32{g.Size[0] * 2, g.Size[1] * 2, planeThickness}
	case blueprint.GeomCylinder:
		if err := need(2); err != nil {
			return spec, err
		}
		spec.Kind = render.KindCylinder
		spec.Radius = g.Size[0]
		spec.Height = g.Size[1] * 2
	case blueprint.GeomCapsule:
		if err := need(2); err != nil {
			return spec, err
		}
		spec.Kind = render.KindCapsule
		spec.Radius = g.Size[0]
		spec.Height = g.Size[1] * 2
	case blueprint.GeomEllipsoid:
		if err := need(3); err != nil {
			return spec, err
		}
		// Unit icosphere scaled by the semi-axes.
		spec.Kind = render.KindMesh
		spec.Scale = [3]float32{g.Size[0], g.Size[1], g.Size[2]}
	case blueprint.GeomSphere:
		if err := need(1); err != nil {
			return spec, err
		}
		spec.Kind = render.KindIcosphere
		spec.Radius = g.Size[0]
	default:
		return spec, &NodeError{
			Code:    CodeUnsupportedVariant,
			Path:    g.Path,
			Message: fmt.Sprintf("unsupported geom type %q", g.GeomType),
		}
	}
	return spec, nil
}

func meshSpec(m *blueprint.Mesh) render.NodeSpec {
	scale := m.Scale
	if scale == 0 {
		scale = 1
	}
	c, opacity := blueprint.ColorFromRGBA(m.RGBA)
	return render.NodeSpec{
		Name:     m.Path,
		Kind:     render.KindMesh,
		Pose:     m.Pose,
		Color:    c,
		Opacity:  opacity,
		MeshPath: m.MeshPath,
		Scale:    [3]float32{scale, scale, scale},
	}
}

func cameraSpec(c *blueprint.Camera) render.NodeSpec {
	spec := render.NodeSpec{
		Name: c.Path,
		Kind: render.KindFrustum,
		Pose: c.Pose.Mul(cameraFlip),
		Fov:  pose.HorizontalFov(c.Intrinsics[0][0], c.Width),
	}
	if c.Height > 0 {
		spec.Aspect = float32(c.Width) / float32(c.Height)
	}
	return spec
}
