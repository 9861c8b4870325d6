package renderer

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/kinematics"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
)

// Gizmo names and sizes.
const (
	endEffectorGizmo      = "eef_gizmo"
	endEffectorGizmoScale = 0.2
	selectionGizmoSuffix  = "_transform"
	selectionGizmoScale   = 0.8
)

// RobotNode is the render node of a robot or gripper. Attached robots also
// own an end effector gizmo and, when the gripper node was found, drive the
// gripper node from it.
//
// The gizmo and the gripper are children of the robot's base frame, so both
// carry poses in the robot base frame and the gripper simply takes the
// gizmo's pose.
type RobotNode struct {
	base    render.Handle
	gizmo   render.Handle
	gripper render.Handle
	solver  kinematics.Solver
	joints  []float32
	logger  *slog.Logger
}

var (
	_ render.Handle      = (*RobotNode)(nil)
	_ render.Articulated = (*RobotNode)(nil)
)

func (s *Synchronizer) newRobotNode(path string, model blueprint.Model, p pose.Pose, joints []float32) (*RobotNode, error) {
	if model.VariantName != "" {
		s.logger.Debug("using qualified description name", "path", path, "description", model.QualifiedName())
	}
	base, err := s.create(path, render.NodeSpec{
		Name:           path,
		Kind:           render.KindRobot,
		Pose:           p,
		Description:    model.QualifiedName(),
		JointPositions: joints,
	})
	if err != nil {
		return nil, err
	}
	return &RobotNode{base: base, joints: slices.Clone(joints), logger: s.logger}, nil
}

func (n *RobotNode) Name() string        { return n.base.Name() }
func (n *RobotNode) ID() string          { return n.base.ID() }
func (n *RobotNode) Kind() render.Kind   { return render.KindRobot }
func (n *RobotNode) Pose() pose.Pose     { return n.base.Pose() }
func (n *RobotNode) SetPose(p pose.Pose) { n.base.SetPose(p) }
func (n *RobotNode) OnClick(fn func(render.Handle)) {
	n.base.OnClick(func(render.Handle) { fn(n) })
}

// Remove removes the base node and the end effector gizmo. The gripper node
// is left to its own registration.
func (n *RobotNode) Remove() {
	n.base.Remove()
	if n.gizmo != nil {
		n.gizmo.Remove()
	}
}

// JointPositions returns the current joint configuration.
func (n *RobotNode) JointPositions() []float32 {
	return slices.Clone(n.joints)
}

// SetJointPositions replaces the joint configuration. Once a solver is
// bound, q is cut or padded to its DOF; padding keeps the current value of
// each missing joint, or the solver's initial one.
func (n *RobotNode) SetJointPositions(q []float32) {
	if n.solver != nil {
		q = n.fit(q)
	}
	n.joints = slices.Clone(q)
	if a, ok := n.base.(render.Articulated); ok {
		a.SetJointPositions(n.joints)
	}
}

func (n *RobotNode) fit(q []float32) []float32 {
	dof := n.solver.DOF()
	if len(q) == dof {
		return q
	}
	n.logger.Warn("joint positions do not match robot", "robot", n.Name(), "got", len(q), "want", dof)
	out := make([]float32, dof)
	initial := n.solver.Initial()
	for i := range out {
		switch {
		case i < len(q):
			out[i] = q[i]
		case i < len(n.joints):
			out[i] = n.joints[i]
		case i < len(initial):
			out[i] = initial[i]
		}
	}
	return out
}

// EndEffector returns the end effector gizmo pose in the robot base frame.
func (n *RobotNode) EndEffector() (pose.Pose, bool) {
	if n.gizmo == nil {
		return pose.Identity(), false
	}
	return n.gizmo.Pose(), true
}

// Gizmo returns the end effector gizmo handle, if any.
func (n *RobotNode) Gizmo() (render.Handle, bool) {
	return n.gizmo, n.gizmo != nil
}

// Gripper returns the attached gripper node, if it was resolved.
func (n *RobotNode) Gripper() (render.Handle, bool) {
	return n.gripper, n.gripper != nil
}

// follow solves for target and moves the gripper there. A configuration
// that did not converge is still applied; it is the closest one found.
func (n *RobotNode) follow(target pose.Pose) {
	if n.solver != nil {
		q, err := n.solver.Solve(n.joints, target)
		switch {
		case err == nil:
		case kinematics.IsConvergenceError(err):
			n.logger.Debug("ik did not converge, using best configuration", "robot", n.Name(), "error", err)
		default:
			n.logger.Warn("ik failed", "robot", n.Name(), "error", err)
			q = nil
		}
		if q != nil {
			n.SetJointPositions(q)
		}
	}
	if n.gripper != nil {
		n.gripper.SetPose(target)
	}
}

// AddRobot creates a robot node. When the robot carries an attachment it
// also creates the end effector gizmo at the solver's initial end effector
// pose and binds gizmo updates to IK and to the gripper node at the
// attachment's gripper path.
//
// If the gripper node is not registered the robot is still rendered and
// registered, and the returned error has code ATTACHMENT_UNRESOLVED.
func (s *Synchronizer) AddRobot(bp *blueprint.Robot, gripper *blueprint.Gripper) (*RobotNode, error) {
	if old, ok := s.nodes[bp.Path]; ok {
		s.unregister(bp.Path, old)
	}
	rn, err := s.newRobotNode(bp.Path, bp.Model, bp.Pose, bp.DefaultJointPositions)
	if err != nil {
		s.fail(err)
		return nil, err
	}

	var wireErr error
	if bp.HasAttachment() {
		wireErr = s.wireEndEffector(rn, bp, gripper)
		if wireErr != nil {
			s.fail(wireErr)
		}
	}
	s.register(rn)
	return rn, wireErr
}

func (s *Synchronizer) wireEndEffector(rn *RobotNode, bp *blueprint.Robot, gripper *blueprint.Gripper) error {
	solver, err := s.solvers.NewSolver(bp, gripper)
	if err != nil {
		return &NodeError{Code: CodeNoEndEffector, Path: bp.Path, Message: "no kinematic solver", Err: err}
	}
	initial := solver.Initial()
	eef, err := solver.EndEffectorPose(initial)
	if err != nil {
		return &NodeError{Code: CodeNoEndEffector, Path: bp.Path, Message: "initial end effector pose", Err: err}
	}

	gizmo, err := s.create(bp.Path, render.NodeSpec{
		Name:       blueprint.Join(bp.Path, endEffectorGizmo),
		Kind:       render.KindTransformControls,
		Pose:       eef,
		GizmoScale: endEffectorGizmoScale,
	})
	if err != nil {
		return err
	}
	rn.gizmo = gizmo
	rn.solver = solver
	rn.SetJointPositions(initial)

	if d, ok := gizmo.(render.Draggable); ok {
		d.OnUpdate(rn.follow)
	}

	var unresolved error
	if h, ok := s.nodes[bp.Attachment.GripperPath]; ok {
		rn.gripper = h
	} else {
		unresolved = &NodeError{
			Code:    CodeAttachmentUnresolved,
			Path:    bp.Path,
			Message: "unable to find gripper node " + bp.Attachment.GripperPath,
		}
	}
	rn.follow(eef)
	return unresolved
}

// MoveEndEffector moves the end effector gizmo of the robot at path as if
// the user had dragged it to p.
func (s *Synchronizer) MoveEndEffector(path string, p pose.Pose) error {
	h, ok := s.nodes[path]
	if !ok {
		return notFound(path)
	}
	rn, ok := h.(*RobotNode)
	if !ok || rn.gizmo == nil {
		return &NodeError{Code: CodeNoEndEffector, Path: path, Message: "node has no end effector"}
	}
	rn.gizmo.SetPose(p)
	rn.follow(p)
	return nil
}

// fail logs err and counts it by code.
func (s *Synchronizer) fail(err error) {
	code := CodeBackend
	path := ""
	var ne *NodeError
	if errors.As(err, &ne) {
		code = ne.Code
		path = ne.Path
	}
	s.metrics.NodeFailures.WithLabelValues(code).Inc()
	s.logger.Error("render node failure", "path", path, "code", code, "error", err)
}
