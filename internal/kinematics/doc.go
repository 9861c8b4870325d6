// Package kinematics provides the forward/inverse kinematics capability
// used to drive robot end effectors from the viewer.
//
// A Solver works in the robot base frame: EndEffectorPose maps joint
// positions to the pose of the gripper mount, and Solve searches for joint
// positions that put the mount at a target pose.
//
// Chain is the built-in Solver for serial revolute arms. It composes joint
// origins and rotations for forward kinematics and runs damped least squares
// with an analytic Jacobian for inverse kinematics. When Solve cannot reach
// the thresholds within the iteration budget it still returns the best
// configuration it found, together with a *ConvergenceError.
package kinematics
