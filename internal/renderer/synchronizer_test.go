package renderer

import (
	"image/color"
	"sync"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/kinematics"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
	"github.com/roach88/scenekit/internal/testutil"
)

const tol = 1e-4

func newTestSync(t *testing.T, opts ...Option) (*Synchronizer, *render.Memory) {
	t.Helper()
	mem := render.NewMemory(render.WithIDGenerator(testutil.NewSequenceIDGenerator("")))
	factory := kinematics.NewChainFactory(testutil.Descriptions{"arm3": testutil.ArmDescription()}, nil)
	opts = append([]Option{WithSolverFactory(factory)}, opts...)
	return New(mem, opts...), mem
}

func camera(path string) *blueprint.Camera {
	return &blueprint.Camera{
		Common: blueprint.Common{Path: path, Pose: pose.Identity().WithPosition([3]float32{0, 0, 1})},
		Width:  640,
		Height: 480,
		Intrinsics: [3][3]float32{
			{320, 0, 320},
			{0, 320, 240},
			{0, 0, 1},
		},
	}
}

func geom(path string, gt blueprint.GeomType, size ...float32) *blueprint.Geom {
	g := testutil.Box(path)
	g.GeomType = gt
	g.Size = size
	return g
}

func TestAdd_NodeKinds(t *testing.T) {
	tests := []struct {
		name  string
		bp    blueprint.Blueprint
		kind  render.Kind
		check func(t *testing.T, spec render.NodeSpec)
	}{
		{"group", testutil.Group("/g", 1, 2, 3), render.KindFrame, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, [3]float32{1, 2, 3}, spec.Pose.Pos())
		}},
		{"box", geom("/box", blueprint.GeomBox, 0.1, 0.2, 0.3), render.KindBox, func(t *testing.T, spec render.NodeSpec) {
			assert.InDeltaSlice(t, []float32{0.2, 0.4, 0.6}, spec.Dimensions[:], 1e-6)
			assert.Equal(t, blueprint.DefaultColor, spec.Color)
			assert.Equal(t, float32(1), spec.Opacity)
		}},
		{"plane", geom("/plane", blueprint.GeomPlane, 2, 3), render.KindBox, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, [3]float32{4, 6, planeThickness}, spec.Dimensions)
		}},
		{"cylinder", geom("/cyl", blueprint.GeomCylinder, 0.1, 0.5), render.KindCylinder, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, float32(0.1), spec.Radius)
			assert.Equal(t, float32(1), spec.Height)
		}},
		{"capsule", geom("/cap", blueprint.GeomCapsule, 0.1, 0.5), render.KindCapsule, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, float32(1), spec.Height)
		}},
		{"sphere", geom("/sph", blueprint.GeomSphere, 0.3), render.KindIcosphere, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, float32(0.3), spec.Radius)
		}},
		{"ellipsoid", geom("/ell", blueprint.GeomEllipsoid, 1, 2, 3), render.KindMesh, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, [3]float32{1, 2, 3}, spec.Scale)
			assert.Empty(t, spec.MeshPath)
		}},
		{"mesh", &blueprint.Mesh{Common: blueprint.Common{Path: "/chair"}, MeshPath: "chair.obj", Scale: 0.01}, render.KindMesh, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, "chair.obj", spec.MeshPath)
			assert.Equal(t, [3]float32{0.01, 0.01, 0.01}, spec.Scale)
		}},
		{"camera", camera("/cam"), render.KindFrustum, func(t *testing.T, spec render.NodeSpec) {
			assert.InDelta(t, math32.Pi/2, spec.Fov, 1e-5)
			assert.InDelta(t, 640.0/480.0, spec.Aspect, 1e-5)
			assert.InDelta(t, math32.Pi, spec.Pose.Angle(pose.Identity()), 1e-3)
		}},
		{"gripper", testutil.Gripper("/grip"), render.KindRobot, func(t *testing.T, spec render.NodeSpec) {
			assert.Equal(t, "pincer", spec.Description)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem := newTestSync(t)
			h, err := s.Add(tt.bp)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, h.Kind())

			spec, ok := mem.Spec(tt.bp.Header().Path)
			require.True(t, ok)
			assert.Equal(t, tt.kind, spec.Kind)
			tt.check(t, spec)

			got, ok := s.Handle(tt.bp.Header().Path)
			require.True(t, ok)
			assert.Equal(t, h.ID(), got.ID())
		})
	}
}

func TestAdd_RobotWithoutWiring(t *testing.T) {
	s, mem := newTestSync(t)
	robot := testutil.AttachedRobot("/arm", "/arm/gripper")
	robot.Model.VariantName = "long"
	robot.DefaultJointPositions = []float32{0.1, 0.2, 0.3}

	h, err := s.Add(robot)
	require.NoError(t, err)
	rn, ok := h.(*RobotNode)
	require.True(t, ok)

	_, hasGizmo := rn.Gizmo()
	assert.False(t, hasGizmo)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, rn.JointPositions())
	spec, _ := mem.Spec("/arm")
	assert.Equal(t, "arm3_long", spec.Description)
	assert.Equal(t, []string{"/arm"}, mem.Names())
}

func TestAdd_UnsupportedGeom(t *testing.T) {
	s, mem := newTestSync(t)

	_, err := s.Add(geom("/torus", blueprint.GeomType("torus"), 1))
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnsupportedVariant))
	assert.Zero(t, s.Len())
	assert.Zero(t, mem.Len())
	assert.Equal(t, 1.0, promtest.ToFloat64(s.Metrics().NodeFailures.WithLabelValues(CodeUnsupportedVariant)))

	_, err = s.Add(geom("/short", blueprint.GeomBox, 1))
	assert.True(t, IsCode(err, CodeInvalidGeometry))
}

func TestAdd_ReplacesExistingPath(t *testing.T) {
	s, mem := newTestSync(t)
	first, err := s.Add(testutil.Box("/box"))
	require.NoError(t, err)
	second, err := s.Replace(geom("/box", blueprint.GeomSphere, 1))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, mem.Len())
	assert.Equal(t, render.KindIcosphere, second.Kind())
}

func TestRenderFromState_IsolatesFailures(t *testing.T) {
	s, _ := newTestSync(t)
	err := s.RenderFromState([]blueprint.Blueprint{
		testutil.Box("/a"),
		geom("/b", blueprint.GeomType("torus"), 1),
		geom("/c", blueprint.GeomSphere, 1),
	})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnsupportedVariant))
	assert.Equal(t, []string{"/a", "/c"}, s.Names())
	assert.Equal(t, 2.0, promtest.ToFloat64(s.Metrics().Nodes))
	assert.Equal(t, 1.0, promtest.ToFloat64(s.Metrics().Passes))
}

func TestRenderFromState_ReplacesPreviousNodes(t *testing.T) {
	s, mem := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{testutil.Box("/old")}))
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{testutil.Box("/new")}))

	assert.Equal(t, []string{"/new"}, s.Names())
	assert.Equal(t, []string{"/new"}, mem.Names())
}

func TestRenderFromState_TwoPass(t *testing.T) {
	robot := testutil.AttachedRobot("/arm", "/arm/gripper")
	gripper := testutil.Gripper("/arm/gripper")

	orders := map[string][]blueprint.Blueprint{
		"gripper first": {gripper, robot, testutil.Box("/table")},
		"robot first":   {robot, testutil.Box("/table"), gripper},
	}
	for name, bps := range orders {
		t.Run(name, func(t *testing.T) {
			s, mem := newTestSync(t)
			require.NoError(t, s.RenderFromState(bps))

			assert.Equal(t, []string{"/arm", "/arm/gripper", "/table"}, s.Names())
			assert.Equal(t, []string{"/arm", "/arm/eef_gizmo", "/arm/gripper", "/table"}, mem.Names())

			h, _ := s.Handle("/arm")
			rn := h.(*RobotNode)
			gh, ok := rn.Gripper()
			require.True(t, ok)
			gripperNode, _ := s.Handle("/arm/gripper")
			assert.Equal(t, gripperNode.ID(), gh.ID())

			solver, err := kinematics.NewChainFactory(testutil.Descriptions{"arm3": testutil.ArmDescription()}, nil).NewSolver(robot, gripper)
			require.NoError(t, err)
			site, err := solver.EndEffectorPose(rn.JointPositions())
			require.NoError(t, err)
			assert.True(t, gripperNode.Pose().ApproxEqual(site, tol), "gripper %v, site %v", gripperNode.Pose(), site)

			eef, ok := rn.EndEffector()
			require.True(t, ok)
			assert.True(t, eef.ApproxEqual(site, tol))
		})
	}
}

func TestRenderFromState_AttachmentUnresolved(t *testing.T) {
	s, _ := newTestSync(t)
	err := s.RenderFromState([]blueprint.Blueprint{testutil.AttachedRobot("/arm", "/arm/gripper")})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeAttachmentUnresolved))

	h, ok := s.Handle("/arm")
	require.True(t, ok)
	rn := h.(*RobotNode)
	_, hasGripper := rn.Gripper()
	assert.False(t, hasGripper)
	_, hasGizmo := rn.Gizmo()
	assert.True(t, hasGizmo)
}

func TestDragEndEffector_GripperFollows(t *testing.T) {
	s, mem := newTestSync(t)
	robot := testutil.AttachedRobot("/arm", "/arm/gripper")
	gripper := testutil.Gripper("/arm/gripper")
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{robot, gripper}))

	solver, err := kinematics.NewChainFactory(testutil.Descriptions{"arm3": testutil.ArmDescription()}, nil).NewSolver(robot, gripper)
	require.NoError(t, err)
	target, err := solver.EndEffectorPose([]float32{0.1, 0.5, 0.7})
	require.NoError(t, err)

	require.NoError(t, mem.Drag("/arm/eef_gizmo", target))

	gripperNode, _ := s.Handle("/arm/gripper")
	assert.Equal(t, target, gripperNode.Pose())

	joints := s.JointPositions()["/arm"]
	require.Len(t, joints, 3)
	reached, err := solver.EndEffectorPose(joints)
	require.NoError(t, err)
	assert.True(t, reached.ApproxEqual(target, 1e-3), "reached %v, target %v", reached, target)

	spec, _ := mem.Spec("/arm")
	assert.Equal(t, joints, spec.JointPositions)
}

func TestMoveEndEffector(t *testing.T) {
	s, _ := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{
		testutil.AttachedRobot("/arm", "/arm/gripper"),
		testutil.Gripper("/arm/gripper"),
		testutil.Box("/box"),
	}))

	target := pose.Identity().WithPosition([3]float32{0.1, 0, 0.7})
	require.NoError(t, s.MoveEndEffector("/arm", target))
	h, _ := s.Handle("/arm")
	eef, _ := h.(*RobotNode).EndEffector()
	assert.Equal(t, target, eef)
	g, _ := s.Handle("/arm/gripper")
	assert.Equal(t, target, g.Pose())

	assert.True(t, IsCode(s.MoveEndEffector("/nope", target), CodeNotFound))
	assert.True(t, IsCode(s.MoveEndEffector("/box", target), CodeNoEndEffector))
	assert.True(t, IsCode(s.MoveEndEffector("/arm/gripper", target), CodeNoEndEffector))
}

func TestUpdateElement_JointsFitChain(t *testing.T) {
	s, mem := newTestSync(t)
	robot := testutil.AttachedRobot("/arm", "/arm/gripper")
	gripper := testutil.Gripper("/arm/gripper")
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{robot, gripper}))
	home := s.JointPositions()["/arm"]
	require.Len(t, home, 3)

	long := robot.Clone().(*blueprint.Robot)
	long.DefaultJointPositions = []float32{0.1, 0.2, 0.3, 0.04, 0.04}
	require.NoError(t, s.UpdateElement(long))
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, s.JointPositions()["/arm"])
	spec, _ := mem.Spec("/arm")
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, spec.JointPositions)

	short := robot.Clone().(*blueprint.Robot)
	short.DefaultJointPositions = []float32{0.5}
	require.NoError(t, s.UpdateElement(short))
	assert.Equal(t, []float32{0.5, 0.2, 0.3}, s.JointPositions()["/arm"])

	// IK keeps working on the fitted vector
	solver, err := kinematics.NewChainFactory(testutil.Descriptions{"arm3": testutil.ArmDescription()}, nil).NewSolver(robot, gripper)
	require.NoError(t, err)
	target, err := solver.EndEffectorPose([]float32{0.1, 0.5, 0.7})
	require.NoError(t, err)
	require.NoError(t, s.MoveEndEffector("/arm", target))
	joints := s.JointPositions()["/arm"]
	require.Len(t, joints, 3)
	assert.NotEqual(t, []float32{0.5, 0.2, 0.3}, joints)
}

func TestRemove_SeparatorRule(t *testing.T) {
	s, mem := newTestSync(t)
	for _, p := range []string{"/foo", "/foo/bar", "/foobar"} {
		_, err := s.Add(testutil.Box(p))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, s.Remove("/foo"))
	assert.Equal(t, []string{"/foobar"}, s.Names())
	assert.Equal(t, []string{"/foobar"}, mem.Names())
	assert.Zero(t, s.Remove("/missing"))
}

func TestRemove_RobotTakesGizmoAndGripper(t *testing.T) {
	s, mem := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{
		testutil.AttachedRobot("/arm", "/arm/gripper"),
		testutil.Gripper("/arm/gripper"),
	}))
	_, err := s.Select("/arm")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Remove("/arm"))
	assert.Empty(t, mem.Names())
	assert.Empty(t, s.Selected())
}

func TestReset(t *testing.T) {
	s, mem := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{testutil.Box("/a"), testutil.Box("/b")}))
	s.Reset()
	assert.Zero(t, s.Len())
	assert.Zero(t, mem.Len())
	assert.Equal(t, 0.0, promtest.ToFloat64(s.Metrics().Nodes))
}

func TestGlobalPose(t *testing.T) {
	s, _ := newTestSync(t)
	quarter := pose.New([3]float32{1, 0, 0}, [4]float32{math32.Cos(math32.Pi / 4), 0, 0, math32.Sin(math32.Pi / 4)})
	a := testutil.Group("/a", 0, 0, 0)
	a.Pose = quarter
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{
		a,
		testutil.Group("/a/b/c", 1, 0, 0),
		testutil.Group("/x", 5, 5, 5),
	}))

	// "/a/b" has no node and contributes the identity
	got := s.GlobalPose("/a/b/c")
	gotPos := got.Pos()
	assert.InDeltaSlice(t, []float32{1, 1, 0}, gotPos[:], 1e-5)
	assert.True(t, got.ApproxEqual(pose.Compose(quarter, pose.Identity().WithPosition([3]float32{1, 0, 0})), tol))

	assert.True(t, s.GlobalPose("/missing").IsIdentity())
}

func TestSelect_Properties(t *testing.T) {
	s, _ := newTestSync(t)
	red := blueprint.RGBA{1, 0, 0, 0.5}
	box := geom("/box", blueprint.GeomBox, 0.1, 0.1, 0.1)
	box.RGBA = &red
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{
		box,
		geom("/cyl", blueprint.GeomCylinder, 0.2, 0.5),
		geom("/sph", blueprint.GeomSphere, 0.3),
		geom("/cap", blueprint.GeomCapsule, 0.1, 0.2),
		camera("/cam"),
		testutil.Gripper("/grip"),
	}))

	tests := []struct {
		path    string
		enabled []string
	}{
		{"/box", []string{"color", "opacity", "dimensions"}},
		{"/cyl", []string{"color", "opacity", "radius", "height"}},
		{"/sph", []string{"color", "opacity", "radius"}},
		{"/cap", nil},
		{"/cam", nil},
		{"/grip", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			props, err := s.Select(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.enabled, props.Enabled())
			assert.Equal(t, tt.path, s.Selected())
			assert.Equal(t, tt.path, s.Panel().Get().Path)
		})
	}

	props, err := s.Select("/box")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, *props.Color)
	assert.Equal(t, float32(0.5), *props.Opacity)
	assert.InDeltaSlice(t, []float32{0.2, 0.2, 0.2}, props.Dimensions[:], 1e-6)

	_, err = s.Select("/nope")
	assert.True(t, IsCode(err, CodeNotFound))
}

func TestSelect_CameraPoseIsUnflipped(t *testing.T) {
	s, _ := newTestSync(t)
	cam := camera("/cam")
	_, err := s.Add(cam)
	require.NoError(t, err)

	props, err := s.Select("/cam")
	require.NoError(t, err)
	assert.True(t, props.Pose.ApproxEqual(cam.Pose, tol))
	assert.True(t, s.GlobalPose("/cam").ApproxEqual(cam.Pose, tol))
}

func TestSelect_GizmoMovesNode(t *testing.T) {
	s, mem := newTestSync(t)
	_, err := s.Add(testutil.Box("/table/box"))
	require.NoError(t, err)

	var moved []string
	s.OnMove(func(path string, p pose.Pose) { moved = append(moved, path) })

	_, err = s.Select("/table/box")
	require.NoError(t, err)
	assert.Contains(t, mem.Names(), "/table/box_transform")

	target := pose.Identity().WithPosition([3]float32{0, 0, 2})
	require.NoError(t, mem.Drag("/table/box_transform", target))

	h, _ := s.Handle("/table/box")
	assert.Equal(t, target, h.Pose())
	assert.Equal(t, [3]float32{0, 0, 2}, s.Panel().Get().Position)
	assert.Equal(t, []string{"/table/box"}, moved)

	// selecting again replaces the gizmo
	_, err = s.Select("/table/box")
	require.NoError(t, err)
	assert.Equal(t, []string{"/table/box", "/table/box_transform"}, mem.Names())
}

func TestRevertMove(t *testing.T) {
	s, mem := newTestSync(t)
	_, err := s.Add(testutil.Box("/box"))
	require.NoError(t, err)
	start := pose.Identity()

	assert.False(t, s.RevertMove("/box"), "nothing selected")

	_, err = s.Select("/box")
	require.NoError(t, err)
	require.NoError(t, mem.Drag("/box_transform", pose.Identity().WithPosition([3]float32{0, 0, 1})))
	require.NoError(t, mem.Drag("/box_transform", pose.Identity().WithPosition([3]float32{0, 0, 2})))

	require.True(t, s.RevertMove("/box"))
	h, _ := s.Handle("/box")
	assert.Equal(t, start, h.Pose())
	gizmo, _ := mem.Spec("/box_transform")
	assert.Equal(t, start, gizmo.Pose)
	assert.Equal(t, [3]float32{}, s.Panel().Get().Position)
	assert.False(t, s.RevertMove("/box"), "already reverted")

	// a committed move leaves nothing to revert
	target := pose.Identity().WithPosition([3]float32{1, 0, 0})
	require.NoError(t, mem.Drag("/box_transform", target))
	require.NoError(t, s.UpdatePose("/box", target))
	assert.False(t, s.RevertMove("/box"))
	assert.Equal(t, target, h.Pose())
}

func TestUpdatePose(t *testing.T) {
	s, mem := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{testutil.Box("/a"), testutil.Box("/b")}))
	_, err := s.Select("/a")
	require.NoError(t, err)
	before := s.Panel().Get()

	p := pose.Identity().WithPosition([3]float32{1, 2, 3}).WithEulerDeg([3]float32{0, 0, 90})
	require.NoError(t, s.UpdatePose("/a", p))

	h, _ := s.Handle("/a")
	assert.Equal(t, p, h.Pose())
	gizmo, ok := mem.Node("/a_transform")
	require.True(t, ok)
	assert.Equal(t, p, gizmo.Pose())
	state := s.Panel().Get()
	assert.Equal(t, before.Version+1, state.Version)
	assert.Equal(t, [3]float32{1, 2, 3}, state.Position)
	assert.True(t, state.Pose().ApproxEqual(p, tol))

	// an unselected node leaves the panel alone
	require.NoError(t, s.UpdatePose("/b", p))
	assert.Equal(t, state, s.Panel().Get())

	assert.True(t, IsCode(s.UpdatePose("/nope", p), CodeNotFound))
}

func TestUpdateElement(t *testing.T) {
	s, _ := newTestSync(t)
	box := geom("/box", blueprint.GeomBox, 0.1, 0.1, 0.1)
	ell := geom("/ell", blueprint.GeomEllipsoid, 1, 1, 1)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{box, ell, testutil.Gripper("/grip")}))
	boxBefore, _ := s.Handle("/box")
	ellBefore, _ := s.Handle("/ell")

	green := blueprint.RGBA{0, 1, 0, 1}
	box.RGBA = &green
	box.Size = []float32{0.5, 0.5, 0.5}
	require.NoError(t, s.UpdateElement(box))

	boxAfter, _ := s.Handle("/box")
	assert.Equal(t, boxBefore.ID(), boxAfter.ID(), "box is updated in place")
	c, _ := boxAfter.(render.Colored).Color()
	assert.Equal(t, uint8(255), c.G)
	assert.Equal(t, [3]float32{1, 1, 1}, boxAfter.(render.Boxed).Dimensions())

	ell.Size = []float32{1, 2, 3}
	require.NoError(t, s.UpdateElement(ell))
	ellAfter, _ := s.Handle("/ell")
	assert.NotEqual(t, ellBefore.ID(), ellAfter.ID(), "mesh-backed geoms are replaced")

	grip := testutil.Gripper("/grip")
	grip.DefaultJointPositions = []float32{0.02}
	require.NoError(t, s.UpdateElement(grip))
	assert.Equal(t, []float32{0.02}, s.JointPositions()["/grip"])

	assert.True(t, IsCode(s.UpdateElement(testutil.Box("/nope")), CodeNotFound))
}

func TestClickSelectsWhenEnabled(t *testing.T) {
	s, mem := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{
		testutil.Box("/box"),
		testutil.AttachedRobot("/arm", "/arm/gripper"),
		testutil.Gripper("/arm/gripper"),
	}))
	var selected []string
	s.OnSelect(func(path string) { selected = append(selected, path) })

	require.NoError(t, mem.Click("/box"))
	require.NoError(t, mem.Click("/arm"))
	s.SetMouseSelect(false)
	require.NoError(t, mem.Click("/box"))

	assert.Equal(t, []string{"/box", "/arm"}, selected)
}

func TestJointPositions(t *testing.T) {
	s, _ := newTestSync(t)
	require.NoError(t, s.RenderFromState([]blueprint.Blueprint{
		testutil.AttachedRobot("/arm", "/arm/gripper"),
		testutil.Gripper("/arm/gripper"),
		testutil.Box("/box"),
	}))
	q := s.JointPositions()
	assert.Len(t, q, 2)
	assert.Equal(t, testutil.ArmDescription().Joints[1].Home, q["/arm"][1])
	assert.Contains(t, q, "/arm/gripper")
}

func TestRegistererExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, _ := newTestSync(t, WithRegisterer(reg))
	_, err := s.Add(testutil.Box("/a"))
	require.NoError(t, err)

	n, err := promtest.GatherAndCount(reg, "scenekit_render_nodes")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1.0, promtest.ToFloat64(s.Metrics().Nodes))
}

func TestTransformPanel_NoTornReads(t *testing.T) {
	panel := &TransformPanel{}
	a := pose.Identity().WithPosition([3]float32{1, 1, 1}).WithEulerDeg([3]float32{10, 0, 0})
	b := pose.Identity().WithPosition([3]float32{2, 2, 2}).WithEulerDeg([3]float32{0, 0, 20})
	panel.Set("/x", a)

	pa, pb := a.Pos(), b.Pos()
	ea, eb := a.EulerDeg(), b.EulerDeg()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				panel.Set("/x", b)
			} else {
				panel.Set("/x", a)
			}
		}
	}()
	for i := 0; i < 1000; i++ {
		st := panel.Get()
		switch st.Position {
		case pa:
			assert.Equal(t, ea, st.EulerDeg)
		case pb:
			assert.Equal(t, eb, st.EulerDeg)
		default:
			t.Fatalf("unexpected position %v", st.Position)
		}
	}
	close(stop)
	wg.Wait()
}
