package controller

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/scenekit/internal/adapter"
	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/config"
	"github.com/roach88/scenekit/internal/document"
	"github.com/roach88/scenekit/internal/inventory"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/renderer"
)

var (
	// ErrNoPresets is returned by operations that need presets when the
	// controller has none.
	ErrNoPresets = errors.New("no preset source configured")

	// ErrNoRobotConfig is returned by CreateRobot for presets that describe
	// neither a single robot nor a left/right pair.
	ErrNoRobotConfig = errors.New("preset names no robot configuration")
)

// DefaultRobotName is used when a robot preset has no robot_name.
const DefaultRobotName = "robot"

// Presets is everything the controller reads from the preset directory.
// *config.Resolver implements it.
type Presets interface {
	adapter.PresetSource
	RobotGroup(name string) (config.RobotGroupPreset, error)
}

// Controller is the public edit surface. Every mutation is applied to the
// document store first and mirrored into the synchronizer second, so the
// document stays the source of truth.
//
// Operations on unknown paths are logged and ignored.
//
// Thread-safety: not safe for concurrent use. Drive it from one goroutine,
// normally a session.Session.
type Controller struct {
	store *document.Store
	sync  *renderer.Synchronizer

	presets   Presets
	adapter   *adapter.Adapter
	fetcher   inventory.Fetcher
	converter inventory.Converter
	scales    *inventory.ScaleOverrides
	exporters []Exporter

	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithPresets sets the preset source used by CreateCamera and CreateRobot.
func WithPresets(p Presets) Option {
	return func(c *Controller) {
		c.presets = p
	}
}

// WithFetcher sets the remote asset fetcher used by AddAsset.
func WithFetcher(f inventory.Fetcher) Option {
	return func(c *Controller) {
		c.fetcher = f
	}
}

// WithConverter sets the mesh converter used by AddAsset.
// Default: inventory.PassthroughConverter.
func WithConverter(conv inventory.Converter) Option {
	return func(c *Controller) {
		c.converter = conv
	}
}

// WithScaleOverrides sets the per-asset unit scales.
func WithScaleOverrides(s *inventory.ScaleOverrides) Option {
	return func(c *Controller) {
		c.scales = s
	}
}

// WithExporters sets the exporters run by ExportScene.
func WithExporters(e ...Exporter) Option {
	return func(c *Controller) {
		c.exporters = append(c.exporters, e...)
	}
}

// New returns a controller editing store and drawing through sync.
func New(store *document.Store, sync *renderer.Synchronizer, opts ...Option) *Controller {
	c := &Controller{
		store:     store,
		sync:      sync,
		converter: inventory.PassthroughConverter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scales == nil {
		c.scales = inventory.NewScaleOverrides(inventory.DefaultScale, nil)
	}
	if c.presets != nil {
		c.adapter = adapter.New(c.presets, adapter.WithLogger(c.logger))
	}
	return c
}

// OnSelect forwards node clicks to fn.
func (c *Controller) OnSelect(fn func(path string)) {
	c.sync.OnSelect(fn)
}

// OnMove forwards selection gizmo drags to fn.
func (c *Controller) OnMove(fn func(path string, p pose.Pose)) {
	c.sync.OnMove(fn)
}

// SetMouseSelect enables or disables selection by clicking nodes.
func (c *Controller) SetMouseSelect(enabled bool) {
	c.sync.SetMouseSelect(enabled)
}

// LoadBlueprints replaces the document with bps, clears history and renders
// the result. The returned error joins per-node render failures; the
// document is loaded even when it is non-nil.
func (c *Controller) LoadBlueprints(bps []blueprint.Blueprint) error {
	for _, bp := range bps {
		if err := blueprint.Validate(bp); err != nil {
			return fmt.Errorf("load blueprints: %w", err)
		}
	}
	if err := c.store.Load(bps); err != nil {
		return fmt.Errorf("load blueprints: %w", err)
	}
	c.logger.Info("document loaded", "blueprints", c.store.Len(), "next_seq", c.store.NextSequence())
	return c.sync.RenderFromState(c.store.Blueprints())
}

// UpdatePose sets the pose of the entity at path. When the document rejects
// the pose, a pending selection drag of path is reverted so the node keeps
// the document's pose.
func (c *Controller) UpdatePose(path string, p pose.Pose) error {
	if err := c.store.Update(path, blueprint.Changes{Pose: &p}); err != nil {
		if c.sync.RevertMove(path) {
			c.logger.Warn("move rejected, node restored", "path", path, "error", err)
		}
		return c.ignoreNotFound(err, "update pose", path)
	}
	return c.ignoreNotFound(c.sync.UpdatePose(path, p), "update pose", path)
}

// UpdateElement applies ch to the entity at path. Grippers reject every
// change with document.ErrGripperUpdate.
func (c *Controller) UpdateElement(path string, ch blueprint.Changes) error {
	if err := c.store.Update(path, ch); err != nil {
		if errors.Is(err, document.ErrGripperUpdate) {
			c.logger.Warn("gripper update not supported", "path", path)
			return err
		}
		return c.ignoreNotFound(err, "update element", path)
	}
	bp, err := c.store.Get(path)
	if err != nil {
		return err
	}
	if err := c.sync.UpdateElement(bp); err != nil {
		c.logger.Warn("element update not rendered", "path", path, "error", err)
	}
	if ch.Pose != nil {
		return c.ignoreNotFound(c.sync.UpdatePose(path, *ch.Pose), "update element", path)
	}
	return nil
}

// Remove deletes the entity at path with everything below it.
func (c *Controller) Remove(path string) error {
	if err := c.store.Remove(path); err != nil {
		return c.ignoreNotFound(err, "remove", path)
	}
	n := c.sync.Remove(path)
	c.logger.Debug("removed", "path", path, "nodes", n)
	return nil
}

// Undo restores the previous document and re-renders it. It reports false
// when there was nothing to undo.
func (c *Controller) Undo() bool {
	if !c.store.Undo() {
		return false
	}
	c.rerender("undo")
	return true
}

// Redo re-applies the last undone change and re-renders. It reports false
// when there was nothing to redo.
func (c *Controller) Redo() bool {
	if !c.store.Redo() {
		return false
	}
	c.rerender("redo")
	return true
}

// Reset clears the document, its history and every render node.
func (c *Controller) Reset() {
	c.store.Reset()
	c.sync.Reset()
}

// Select makes path the selection and returns its editable properties. Mass
// is filled in for geoms. It reports false for unknown paths.
func (c *Controller) Select(path string) (renderer.Properties, bool) {
	props, err := c.sync.Select(path)
	if err != nil {
		return renderer.Properties{}, false
	}
	bp, err := c.store.Get(path)
	if err != nil {
		c.logger.Warn("selected node has no blueprint", "path", path)
		return props, true
	}
	if g, ok := bp.(*blueprint.Geom); ok {
		mass := g.Mass
		props.Mass = &mass
	}
	return props, true
}

// MoveEndEffector drags the end effector of the robot at path to p.
func (c *Controller) MoveEndEffector(path string, p pose.Pose) error {
	if err := c.sync.MoveEndEffector(path, p); err != nil {
		if renderer.IsCode(err, renderer.CodeNotFound) {
			c.logger.Warn("unable to move end effector", "path", path)
			return nil
		}
		return err
	}
	return nil
}

// History summarises the undo state.
type History struct {
	CanUndo      bool   `json:"can_undo"`
	CanRedo      bool   `json:"can_redo"`
	Past         int    `json:"past"`
	Future       int    `json:"future"`
	NextSequence string `json:"next_sequence"`
}

// History returns the undo state.
func (c *Controller) History() History {
	past, future := c.store.HistoryDepth()
	return History{
		CanUndo:      c.store.CanUndo(),
		CanRedo:      c.store.CanRedo(),
		Past:         past,
		Future:       future,
		NextSequence: c.store.NextSequence(),
	}
}

// Blueprints returns copies of every entity in path order.
func (c *Controller) Blueprints() []blueprint.Blueprint {
	return c.store.Blueprints()
}

// Get returns a copy of the entity at path.
func (c *Controller) Get(path string) (blueprint.Blueprint, bool) {
	bp, err := c.store.Get(path)
	return bp, err == nil
}

// Nodes returns the paths of the live render nodes.
func (c *Controller) Nodes() []string {
	return c.sync.Names()
}

// JointPositions returns the live joint configuration of every robot and
// gripper node.
func (c *Controller) JointPositions() map[string][]float32 {
	return c.sync.JointPositions()
}

// Panel returns the transform panel state.
func (c *Controller) Panel() renderer.PanelState {
	return c.sync.Panel().Get()
}

func (c *Controller) rerender(op string) {
	if err := c.sync.RenderFromState(c.store.Blueprints()); err != nil {
		c.logger.Warn("re-render incomplete", "op", op, "error", err)
	}
}

// ignoreNotFound logs and swallows not-found errors from either side.
func (c *Controller) ignoreNotFound(err error, op, path string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, document.ErrNotFound) || renderer.IsCode(err, renderer.CodeNotFound) {
		c.logger.Warn("unknown path", "op", op, "path", path)
		return nil
	}
	return err
}
