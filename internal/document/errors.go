package document

import "errors"

var (
	// ErrNotFound is returned when a path names no entity.
	ErrNotFound = errors.New("blueprint not found")

	// ErrExists is returned by Add when the path is taken.
	ErrExists = errors.New("blueprint already exists")

	// ErrGripperUpdate is returned by Update for gripper entities, which
	// only change through their robot's end effector.
	ErrGripperUpdate = errors.New("gripper blueprints cannot be updated")
)
