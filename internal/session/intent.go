package session

import (
	"context"
	"fmt"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/pose"
)

// Intent is one UI request, applied to the controller on the Run goroutine.
type Intent struct {
	// Op names the request in logs.
	Op string
	// Path is the entity the request targets, if any.
	Path string
	// Seq is stamped by Submit.
	Seq int64

	apply func(ctx context.Context, c *controller.Controller) error
	done  chan error
}

// Func wraps an arbitrary controller call. Use it for backend events that
// must be delivered on the Run goroutine.
func Func(op string, fn func(ctx context.Context, c *controller.Controller) error) Intent {
	return Intent{Op: op, apply: fn}
}

// Select selects path.
func Select(path string) Intent {
	return Intent{Op: "select", Path: path, apply: func(_ context.Context, c *controller.Controller) error {
		if _, ok := c.Select(path); !ok {
			return fmt.Errorf("select %q: no such node", path)
		}
		return nil
	}}
}

// UpdatePose sets the pose of path.
func UpdatePose(path string, p pose.Pose) Intent {
	return Intent{Op: "update_pose", Path: path, apply: func(_ context.Context, c *controller.Controller) error {
		return c.UpdatePose(path, p)
	}}
}

// UpdateElement applies ch to path.
func UpdateElement(path string, ch blueprint.Changes) Intent {
	return Intent{Op: "update_element", Path: path, apply: func(_ context.Context, c *controller.Controller) error {
		return c.UpdateElement(path, ch)
	}}
}

// Remove deletes path and everything below it.
func Remove(path string) Intent {
	return Intent{Op: "remove", Path: path, apply: func(_ context.Context, c *controller.Controller) error {
		return c.Remove(path)
	}}
}

// Undo steps back one edit.
func Undo() Intent {
	return Intent{Op: "undo", apply: func(_ context.Context, c *controller.Controller) error {
		c.Undo()
		return nil
	}}
}

// Redo re-applies one undone edit.
func Redo() Intent {
	return Intent{Op: "redo", apply: func(_ context.Context, c *controller.Controller) error {
		c.Redo()
		return nil
	}}
}

// Reset clears the scene.
func Reset() Intent {
	return Intent{Op: "reset", apply: func(_ context.Context, c *controller.Controller) error {
		c.Reset()
		return nil
	}}
}
