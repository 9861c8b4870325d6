package render

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/scenekit/internal/pose"
)

// ErrNoNode is returned by Memory.Click and Memory.Drag for unknown names.
var ErrNoNode = errors.New("render: no such node")

// Memory is a headless Backend that keeps nodes in memory.
//
// Thread-safety: all methods are safe for concurrent use. Callbacks run on
// the caller's goroutine without internal locks held.
type Memory struct {
	mu     sync.Mutex
	nodes  map[string]*memNode
	ids    IDGenerator
	logger *slog.Logger

	created int
}

// MemoryOption configures a Memory backend.
type MemoryOption func(*Memory)

// WithIDGenerator sets the handle ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) MemoryOption {
	return func(m *Memory) {
		m.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) MemoryOption {
	return func(m *Memory) {
		m.logger = l
	}
}

// NewMemory returns an empty backend.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		nodes:  make(map[string]*memNode),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateNode implements Backend. A live node with the same name is removed
// first.
func (m *Memory) CreateNode(spec NodeSpec) (Handle, error) {
	if spec.Name == "" {
		return nil, errors.New("render: node name is required")
	}
	if !knownKind(spec.Kind) {
		return nil, fmt.Errorf("render: unknown node kind %q", spec.Kind)
	}
	spec.JointPositions = slices.Clone(spec.JointPositions)

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.nodes[spec.Name]; ok {
		old.removed = true
		m.logger.Debug("replacing render node", "name", spec.Name, "old_id", old.id)
	}
	n := &memNode{m: m, id: m.ids.Generate(), spec: spec}
	n.self = wrap(n)
	m.nodes[spec.Name] = n
	m.created++
	return n.self, nil
}

// Node returns the live node with the given name.
func (m *Memory) Node(name string) (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[name]
	if !ok {
		return nil, false
	}
	return n.self, true
}

// Spec returns the current properties of the named node.
func (m *Memory) Spec(name string) (NodeSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[name]
	if !ok {
		return NodeSpec{}, false
	}
	spec := n.spec
	spec.JointPositions = slices.Clone(spec.JointPositions)
	return spec, true
}

// Names returns the names of all live nodes in lexicographic order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.nodes))
}

// Len returns the number of live nodes.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// Created returns how many nodes were ever created.
func (m *Memory) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

// Click simulates a user click on the named node.
func (m *Memory) Click(name string) error {
	m.mu.Lock()
	n, ok := m.nodes[name]
	var fns []func(Handle)
	if ok {
		fns = slices.Clone(n.onClick)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("click %q: %w", name, ErrNoNode)
	}
	for _, fn := range fns {
		fn(n.self)
	}
	return nil
}

// Drag simulates the user moving the named transform control to p.
func (m *Memory) Drag(name string, p pose.Pose) error {
	m.mu.Lock()
	n, ok := m.nodes[name]
	var fns []func(pose.Pose)
	if ok {
		if n.spec.Kind != KindTransformControls {
			m.mu.Unlock()
			return fmt.Errorf("drag %q: node is a %s", name, n.spec.Kind)
		}
		n.spec.Pose = p
		fns = slices.Clone(n.onUpdate)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("drag %q: %w", name, ErrNoNode)
	}
	for _, fn := range fns {
		fn(p)
	}
	return nil
}

func knownKind(k Kind) bool {
	switch k {
	case KindFrame, KindBox, KindCylinder, KindIcosphere, KindMesh, KindCapsule,
		KindFrustum, KindRobot, KindTransformControls:
		return true
	}
	return false
}

// wrap selects the handle type, and with it the capability set, for n.
func wrap(n *memNode) Handle {
	switch n.spec.Kind {
	case KindBox:
		return &boxNode{colorNode{n}}
	case KindCylinder:
		return &cylinderNode{colorNode{n}}
	case KindIcosphere:
		return &sphereNode{colorNode{n}}
	case KindRobot:
		return &robotNode{n}
	case KindTransformControls:
		return &controlsNode{n}
	default:
		return n
	}
}

// memNode carries the state shared by every node kind.
type memNode struct {
	m       *Memory
	id      string
	spec    NodeSpec
	removed bool
	self    Handle

	onClick  []func(Handle)
	onUpdate []func(pose.Pose)
}

func (n *memNode) Name() string { return n.spec.Name }
func (n *memNode) ID() string   { return n.id }
func (n *memNode) Kind() Kind   { return n.spec.Kind }

func (n *memNode) Pose() pose.Pose {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.spec.Pose
}

func (n *memNode) SetPose(p pose.Pose) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.Pose = p
}

func (n *memNode) Remove() {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	if n.removed {
		return
	}
	n.removed = true
	if n.m.nodes[n.spec.Name] == n {
		delete(n.m.nodes, n.spec.Name)
	}
}

func (n *memNode) OnClick(fn func(Handle)) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.onClick = append(n.onClick, fn)
}

type colorNode struct{ *memNode }

func (n colorNode) Color() (color.RGBA, float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.spec.Color, n.spec.Opacity
}

func (n colorNode) SetColor(c color.RGBA, opacity float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.Color, n.spec.Opacity = c, opacity
}

type boxNode struct{ colorNode }

func (n *boxNode) Dimensions() [3]float32 {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.spec.Dimensions
}

func (n *boxNode) SetDimensions(d [3]float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.Dimensions = d
}

type cylinderNode struct{ colorNode }

func (n *cylinderNode) Radius() float32 {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.spec.Radius
}

func (n *cylinderNode) Height() float32 {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.spec.Height
}

func (n *cylinderNode) SetRadius(r float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.Radius = r
}

func (n *cylinderNode) SetHeight(h float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.Height = h
}

type sphereNode struct{ colorNode }

func (n *sphereNode) Radius() float32 {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.spec.Radius
}

func (n *sphereNode) SetRadius(r float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.Radius = r
}

type robotNode struct{ *memNode }

func (n *robotNode) JointPositions() []float32 {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return slices.Clone(n.spec.JointPositions)
}

func (n *robotNode) SetJointPositions(q []float32) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.spec.JointPositions = slices.Clone(q)
}

type controlsNode struct{ *memNode }

func (n *controlsNode) OnUpdate(fn func(pose.Pose)) {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	n.onUpdate = append(n.onUpdate, fn)
}
