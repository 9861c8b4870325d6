package harness

import (
	"fmt"
	"strings"

	"cogentcore.org/core/math32"

	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/pose"
)

// Pose assertion tolerances used when the assertion sets none. Rotations
// are compared in degrees.
const (
	defaultTolerance      = 1e-4
	defaultAngleTolerance = 0.1
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Paths    []string // Final document for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nDocument:\n")
	for _, p := range e.Paths {
		fmt.Fprintf(&buf, "  %s\n", p)
	}
	return buf.String()
}

// EvaluateAssertions checks all assertions against the controller's final
// state and returns one message per failure.
func EvaluateAssertions(c *controller.Controller, assertions []Assertion) []string {
	var paths []string
	for _, bp := range c.Blueprints() {
		paths = append(paths, bp.Header().Path)
	}

	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertPathsPresent:
			err = assertPaths(c, a, true)
		case AssertPathsAbsent:
			err = assertPaths(c, a, false)
		case AssertNodeCount:
			err = assertNodeCount(c, a)
		case AssertHistory:
			err = assertHistory(c.History(), a)
		case AssertPose:
			err = assertPose(c, a)
		default:
			err = &AssertionError{Type: a.Type, Expected: "known assertion type", Actual: a.Type}
		}
		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Paths = paths
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertPaths(c *controller.Controller, a Assertion, present bool) error {
	var wrong []string
	for _, p := range a.Paths {
		if _, ok := c.Get(p); ok != present {
			wrong = append(wrong, p)
		}
	}
	if len(wrong) == 0 {
		return nil
	}
	if present {
		return &AssertionError{
			Type:     AssertPathsPresent,
			Expected: fmt.Sprintf("paths present: %v", a.Paths),
			Actual:   fmt.Sprintf("missing: %v", wrong),
		}
	}
	return &AssertionError{
		Type:     AssertPathsAbsent,
		Expected: fmt.Sprintf("paths absent: %v", a.Paths),
		Actual:   fmt.Sprintf("present: %v", wrong),
	}
}

func assertNodeCount(c *controller.Controller, a Assertion) error {
	got := len(c.Nodes())
	if got == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNodeCount,
		Expected: fmt.Sprintf("%d nodes", *a.Count),
		Actual:   fmt.Sprintf("%d nodes: %v", got, c.Nodes()),
	}
}

func assertHistory(h controller.History, a Assertion) error {
	var diffs []string
	if a.CanUndo != nil && *a.CanUndo != h.CanUndo {
		diffs = append(diffs, fmt.Sprintf("can_undo=%t", h.CanUndo))
	}
	if a.CanRedo != nil && *a.CanRedo != h.CanRedo {
		diffs = append(diffs, fmt.Sprintf("can_redo=%t", h.CanRedo))
	}
	if a.Past != nil && *a.Past != h.Past {
		diffs = append(diffs, fmt.Sprintf("past=%d", h.Past))
	}
	if a.NextSequence != "" && a.NextSequence != h.NextSequence {
		diffs = append(diffs, fmt.Sprintf("next_sequence=%s", h.NextSequence))
	}
	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertHistory,
		Expected: formatHistory(a),
		Actual:   strings.Join(diffs, " "),
	}
}

func formatHistory(a Assertion) string {
	var parts []string
	if a.CanUndo != nil {
		parts = append(parts, fmt.Sprintf("can_undo=%t", *a.CanUndo))
	}
	if a.CanRedo != nil {
		parts = append(parts, fmt.Sprintf("can_redo=%t", *a.CanRedo))
	}
	if a.Past != nil {
		parts = append(parts, fmt.Sprintf("past=%d", *a.Past))
	}
	if a.NextSequence != "" {
		parts = append(parts, fmt.Sprintf("next_sequence=%s", a.NextSequence))
	}
	return strings.Join(parts, " ")
}

func assertPose(c *controller.Controller, a Assertion) error {
	bp, ok := c.Get(a.Path)
	if !ok {
		return &AssertionError{
			Type:     AssertPose,
			Expected: fmt.Sprintf("pose of %s", a.Path),
			Actual:   "path not in document",
		}
	}
	tol, angleTol := float32(defaultTolerance), float32(defaultAngleTolerance)
	if a.Tolerance > 0 {
		tol, angleTol = a.Tolerance, a.Tolerance
	}

	p := bp.Header().Pose
	if a.Position != nil && !within(p.Pos(), a.Position, tol) {
		return &AssertionError{
			Type:     AssertPose,
			Expected: fmt.Sprintf("%s at %v", a.Path, a.Position),
			Actual:   fmt.Sprintf("at %v", p.Pos()),
		}
	}
	if a.EulerDeg != nil {
		want := pose.Identity().WithEulerDeg([3]float32{a.EulerDeg[0], a.EulerDeg[1], a.EulerDeg[2]})
		// compare rotations, not angle triples, so equivalent Euler sets match
		if deg := math32.RadToDeg(p.Angle(want)); deg > angleTol {
			return &AssertionError{
				Type:     AssertPose,
				Expected: fmt.Sprintf("%s rotated %v deg", a.Path, a.EulerDeg),
				Actual:   fmt.Sprintf("rotated %v deg", p.EulerDeg()),
			}
		}
	}
	return nil
}

func within(got [3]float32, want []float32, tol float32) bool {
	for i := range got {
		d := got[i] - want[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}
