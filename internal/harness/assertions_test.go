package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/document"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
	"github.com/roach88/scenekit/internal/renderer"
	"github.com/roach88/scenekit/internal/testutil"
)

func newAssertController(t *testing.T) *controller.Controller {
	t.Helper()
	c := controller.New(document.New(), renderer.New(render.NewMemory()))
	table := testutil.Group("/table", 0, 0, 0.5)
	table.Pose = table.Pose.WithEulerDeg([3]float32{0, 0, 90})
	require.NoError(t, c.LoadBlueprints([]blueprint.Blueprint{table, testutil.Box("/table/box")}))
	require.NoError(t, c.UpdatePose("/table/box", pose.Identity().WithPosition([3]float32{0.1, 0, 0})))
	return c
}

func ptr[T any](v T) *T { return &v }

func TestEvaluateAssertions_Pass(t *testing.T) {
	c := newAssertController(t)

	errs := EvaluateAssertions(c, []Assertion{
		{Type: AssertPathsPresent, Paths: []string{"/table", "/table/box"}},
		{Type: AssertPathsAbsent, Paths: []string{"/tab", "/table/box/lid"}},
		{Type: AssertNodeCount, Count: ptr(2)},
		{Type: AssertHistory, CanUndo: ptr(true), CanRedo: ptr(false), Past: ptr(1)},
		{Type: AssertPose, Path: "/table", Position: []float32{0, 0, 0.5}, EulerDeg: []float32{0, 0, 90}},
		{Type: AssertPose, Path: "/table/box", Position: []float32{0.1, 0, 0}},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	c := newAssertController(t)

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"missing path", Assertion{Type: AssertPathsPresent, Paths: []string{"/table", "/shelf"}}, "missing: [/shelf]"},
		{"present path", Assertion{Type: AssertPathsAbsent, Paths: []string{"/table/box"}}, "present: [/table/box]"},
		{"node count", Assertion{Type: AssertNodeCount, Count: ptr(5)}, "Expected: 5 nodes"},
		{"history", Assertion{Type: AssertHistory, CanRedo: ptr(true), NextSequence: "0009"}, "can_redo=false next_sequence="},
		{"pose position", Assertion{Type: AssertPose, Path: "/table", Position: []float32{0, 0, 1}}, "/table at [0 0 1]"},
		{"pose rotation", Assertion{Type: AssertPose, Path: "/table", EulerDeg: []float32{0, 0, 45}}, "rotated [0 0 45] deg"},
		{"pose path", Assertion{Type: AssertPose, Path: "/ghost", Position: []float32{0, 0, 0}}, "path not in document"},
		{"unknown type", Assertion{Type: "vibes"}, "Assertion failed: vibes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(c, []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "assertions[0]")
			assert.Contains(t, errs[0], tt.want)
			assert.Contains(t, errs[0], "Document:\n  /table\n  /table/box\n")
		})
	}
}

func TestEvaluateAssertions_Tolerance(t *testing.T) {
	c := newAssertController(t)

	errs := EvaluateAssertions(c, []Assertion{
		{Type: AssertPose, Path: "/table", Position: []float32{0, 0, 0.52}, Tolerance: 0.05},
		{Type: AssertPose, Path: "/table", EulerDeg: []float32{0, 0, 92}, Tolerance: 5},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(c, []Assertion{
		{Type: AssertPose, Path: "/table", Position: []float32{0, 0, 0.52}},
	})
	assert.Len(t, errs, 1)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertNodeCount,
		Expected: "3 nodes",
		Actual:   "2 nodes",
		Paths:    []string{"/a", "/b"},
	}
	assert.Equal(t,
		"Assertion failed: node_count\n  Expected: 3 nodes\n  Actual: 2 nodes\n\nDocument:\n  /a\n  /b\n",
		err.Error())
}
