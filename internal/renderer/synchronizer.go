package renderer

import (
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/kinematics"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
)

// Synchronizer mirrors blueprints as render nodes.
//
// INVARIANTS:
//   - At most one registered handle per path.
//   - A handle is removed from the backend before it is dropped from the map.
//   - Removal uses the separator rule: removing "/foo" never touches "/foobar".
type Synchronizer struct {
	backend render.Backend
	solvers kinematics.Factory
	nodes   map[string]render.Handle

	panel       *TransformPanel
	selected    string
	selGizmo    render.Handle
	moveFrom    pose.Pose // pose of the selection before an uncommitted drag
	moving      bool
	mouseSelect bool
	onSelect    func(path string)
	onMove      func(path string, p pose.Pose)

	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithSolverFactory sets the kinematics used for attached robots.
// Default: a ChainFactory without descriptions, which always uses the
// fallback model.
func WithSolverFactory(f kinematics.Factory) Option {
	return func(s *Synchronizer) {
		s.solvers = f
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// WithRegisterer registers the synchronizer metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Synchronizer) {
		s.metrics = NewMetrics(reg)
	}
}

// New returns a synchronizer drawing into backend.
func New(backend render.Backend, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		backend:     backend,
		nodes:       make(map[string]render.Handle),
		panel:       &TransformPanel{},
		mouseSelect: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	if s.solvers == nil {
		s.solvers = kinematics.NewChainFactory(nil, s.logger)
	}
	return s
}

// OnSelect sets the hook run when a node is clicked while mouse selection
// is enabled.
func (s *Synchronizer) OnSelect(fn func(path string)) {
	s.onSelect = fn
}

// OnMove sets the hook run after the selection gizmo moved a node. The
// move stays pending until UpdatePose commits it or RevertMove undoes it.
func (s *Synchronizer) OnMove(fn func(path string, p pose.Pose)) {
	s.onMove = fn
}

// SetMouseSelect enables or disables selection by clicking nodes.
func (s *Synchronizer) SetMouseSelect(enabled bool) {
	s.mouseSelect = enabled
}

// Panel returns the transform panel.
func (s *Synchronizer) Panel() *TransformPanel {
	return s.panel
}

// Metrics returns the synchronizer metrics.
func (s *Synchronizer) Metrics() *Metrics {
	return s.metrics
}

// RenderFromState replaces every node with nodes for bps.
//
// Blueprints are visited in path order. The first pass renders everything
// except robots with an attachment, remembering grippers by path; the second
// pass adds the attached robots through AddRobot so their gripper nodes
// already exist. A failing node does not stop the others; all failures are
// returned joined.
func (s *Synchronizer) RenderFromState(bps []blueprint.Blueprint) error {
	s.Reset()
	s.metrics.Passes.Inc()

	sorted := slices.Clone(bps)
	slices.SortFunc(sorted, func(a, b blueprint.Blueprint) int {
		return strings.Compare(a.Header().Path, b.Header().Path)
	})

	grippers := make(map[string]*blueprint.Gripper)
	var deferred []*blueprint.Robot
	var errs []error
	for _, bp := range sorted {
		if r, ok := bp.(*blueprint.Robot); ok && r.HasAttachment() {
			deferred = append(deferred, r)
			continue
		}
		if g, ok := bp.(*blueprint.Gripper); ok {
			grippers[g.Path] = g
		}
		if _, err := s.Add(bp); err != nil {
			errs = append(errs, err)
		}
	}
	for _, r := range deferred {
		if _, err := s.AddRobot(r, grippers[r.Attachment.GripperPath]); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Debug("rendered document", "blueprints", len(bps), "nodes", len(s.nodes), "failures", len(errs))
	return errors.Join(errs...)
}

// Add creates and registers the node for bp. A node already registered at
// the path is removed first. Robot attachments are not wired; use AddRobot.
func (s *Synchronizer) Add(bp blueprint.Blueprint) (render.Handle, error) {
	path := bp.Header().Path
	s.logger.Debug("adding render node", "path", path, "kind", bp.Kind())
	if old, ok := s.nodes[path]; ok {
		s.unregister(path, old)
	}
	h, err := s.createNode(bp)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.register(h)
	return h, nil
}

// Replace removes the node at bp's path, if any, and adds bp.
func (s *Synchronizer) Replace(bp blueprint.Blueprint) (render.Handle, error) {
	if old, ok := s.nodes[bp.Header().Path]; ok {
		s.unregister(bp.Header().Path, old)
	}
	return s.Add(bp)
}

// Remove deletes the node at path and every node below it, and drops the
// selection gizmo. It returns how many nodes were removed.
func (s *Synchronizer) Remove(path string) int {
	n := 0
	for _, name := range s.Names() {
		if blueprint.IsPathOrDescendant(name, path) {
			s.unregister(name, s.nodes[name])
			n++
		}
	}
	s.clearSelection()
	if n == 0 {
		s.logger.Warn("no render node to remove", "path", path)
	}
	return n
}

// Reset removes every node.
func (s *Synchronizer) Reset() {
	for name, h := range s.nodes {
		s.unregister(name, h)
	}
	s.clearSelection()
}

// Handle returns the node registered at path.
func (s *Synchronizer) Handle(path string) (render.Handle, bool) {
	h, ok := s.nodes[path]
	return h, ok
}

// Names returns the registered paths in order.
func (s *Synchronizer) Names() []string {
	return slices.Sorted(maps.Keys(s.nodes))
}

// Len returns the number of registered nodes.
func (s *Synchronizer) Len() int {
	return len(s.nodes)
}

// Selected returns the selected path, or "".
func (s *Synchronizer) Selected() string {
	return s.selected
}

// JointPositions returns the live joint configuration of every articulated
// node, keyed by path.
func (s *Synchronizer) JointPositions() map[string][]float32 {
	out := make(map[string][]float32)
	for name, h := range s.nodes {
		if a, ok := h.(render.Articulated); ok {
			out[name] = a.JointPositions()
		}
	}
	return out
}

// UpdatePose moves the node at path. When path is selected, the node, the
// selection gizmo and the transform panel change together.
func (s *Synchronizer) UpdatePose(path string, p pose.Pose) error {
	h, ok := s.nodes[path]
	if !ok {
		s.logger.Warn("unable to update pose", "path", path)
		return notFound(path)
	}
	setNodePose(h, p)
	if path == s.selected {
		s.moving = false
		if s.selGizmo != nil {
			s.selGizmo.SetPose(p)
		}
		s.panel.Set(path, p)
	}
	return nil
}

// UpdateElement applies the color, geometry and joint positions of bp to
// its node. Nodes that cannot take a change in place are replaced.
func (s *Synchronizer) UpdateElement(bp blueprint.Blueprint) error {
	hdr := bp.Header()
	h, ok := s.nodes[hdr.Path]
	if !ok {
		s.logger.Warn("unable to update element", "path", hdr.Path)
		return notFound(hdr.Path)
	}

	colored, isColored := h.(render.Colored)
	if isColored {
		colored.SetColor(blueprint.ColorFromRGBA(hdr.RGBA))
	}

	switch b := bp.(type) {
	case *blueprint.Geom:
		spec, err := geomSpec(b)
		if err != nil {
			s.fail(err)
			return err
		}
		if !isColored || !applyGeometry(h, spec) {
			_, err := s.Replace(bp)
			return err
		}
	case *blueprint.Mesh:
		_, err := s.Replace(bp)
		return err
	case *blueprint.Robot:
		s.setJoints(h, b.DefaultJointPositions)
	case *blueprint.Gripper:
		s.setJoints(h, b.DefaultJointPositions)
	}
	return nil
}

func (s *Synchronizer) setJoints(h render.Handle, q []float32) {
	if len(q) == 0 {
		return
	}
	if a, ok := h.(render.Articulated); ok {
		a.SetJointPositions(q)
	}
}

// GlobalPose composes the poses of the nodes registered at each prefix of
// path, root first. Prefixes without a node contribute the identity.
func (s *Synchronizer) GlobalPose(path string) pose.Pose {
	global := pose.Identity()
	for _, prefix := range blueprint.Ancestors(path) {
		h, ok := s.nodes[prefix]
		if !ok {
			s.logger.Debug("no node at path prefix", "path", prefix)
			continue
		}
		global = global.Mul(nodePose(h))
	}
	return global
}

// Select makes path the selection: the transform panel shows its pose, a
// selection gizmo replaces the previous one and the node's editable
// properties are returned.
func (s *Synchronizer) Select(path string) (Properties, error) {
	h, ok := s.nodes[path]
	if !ok {
		s.logger.Warn("unable to select node", "path", path)
		return Properties{}, notFound(path)
	}
	local := nodePose(h)
	props := Properties{Path: path, Pose: local, GlobalPose: s.GlobalPose(path)}
	readProperties(h, &props)

	s.panel.Set(path, local)
	s.clearSelection()
	s.selected = path

	gizmo, err := s.backend.CreateNode(render.NodeSpec{
		Name:       blueprint.Join(blueprint.Parent(path), blueprint.Base(path)+selectionGizmoSuffix),
		Kind:       render.KindTransformControls,
		Pose:       local,
		GizmoScale: selectionGizmoScale,
	})
	if err != nil {
		s.logger.Warn("unable to create selection gizmo", "path", path, "error", err)
		return props, nil
	}
	s.selGizmo = gizmo
	if d, ok := gizmo.(render.Draggable); ok {
		d.OnUpdate(func(p pose.Pose) { s.moveSelected(path, p) })
	}
	return props, nil
}

func (s *Synchronizer) moveSelected(path string, p pose.Pose) {
	h, ok := s.nodes[path]
	if !ok {
		return
	}
	if !s.moving {
		s.moveFrom = nodePose(h)
		s.moving = true
	}
	setNodePose(h, p)
	s.panel.Set(path, p)
	if s.onMove != nil {
		s.onMove(path, p)
	}
}

// RevertMove puts the selected node at path, its gizmo and the transform
// panel back where they were before the pending drag. It reports false when
// path has no pending drag.
func (s *Synchronizer) RevertMove(path string) bool {
	if !s.moving || path != s.selected {
		return false
	}
	if err := s.UpdatePose(path, s.moveFrom); err != nil {
		return false
	}
	s.logger.Debug("drag reverted", "path", path)
	return true
}

func (s *Synchronizer) clearSelection() {
	if s.selGizmo != nil {
		s.selGizmo.Remove()
		s.selGizmo = nil
	}
	s.selected = ""
	s.moving = false
}

func (s *Synchronizer) register(h render.Handle) {
	name := h.Name()
	s.nodes[name] = h
	h.OnClick(func(render.Handle) {
		if s.mouseSelect && s.onSelect != nil {
			s.onSelect(name)
		}
	})
	s.metrics.Nodes.Set(float64(len(s.nodes)))
}

func (s *Synchronizer) unregister(name string, h render.Handle) {
	h.Remove()
	delete(s.nodes, name)
	s.metrics.Nodes.Set(float64(len(s.nodes)))
}

// nodePose returns the pose of the entity behind h. Frustum nodes are
// stored flipped.
func nodePose(h render.Handle) pose.Pose {
	if h.Kind() == render.KindFrustum {
		return h.Pose().Mul(cameraFlip.Inverse())
	}
	return h.Pose()
}

func setNodePose(h render.Handle, p pose.Pose) {
	if h.Kind() == render.KindFrustum {
		p = p.Mul(cameraFlip)
	}
	h.SetPose(p)
}
