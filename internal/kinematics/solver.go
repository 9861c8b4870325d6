package kinematics

import (
	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/pose"
)

// Solver computes robot kinematics in the robot base frame.
type Solver interface {
	// DOF returns the number of actuated joints.
	DOF() int
	// Initial returns the configuration the robot starts in.
	Initial() []float32
	// EndEffectorPose returns the gripper mount pose for q.
	EndEffectorPose(q []float32) (pose.Pose, error)
	// Solve returns joint positions that move the mount towards target,
	// starting from current.
	Solve(current []float32, target pose.Pose) ([]float32, error)
}

// Factory builds a Solver for a robot and the gripper attached to it.
type Factory interface {
	NewSolver(robot *blueprint.Robot, gripper *blueprint.Gripper) (Solver, error)
}
