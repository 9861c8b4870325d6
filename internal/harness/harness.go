package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/config"
	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/document"
	"github.com/roach88/scenekit/internal/inventory"
	"github.com/roach88/scenekit/internal/kinematics"
	"github.com/roach88/scenekit/internal/pose"
	"github.com/roach88/scenekit/internal/render"
	"github.com/roach88/scenekit/internal/renderer"
	"github.com/roach88/scenekit/internal/session"
	"github.com/roach88/scenekit/internal/testutil"
)

var (
	errNothingToUndo = errors.New("nothing to undo")
	errNothingToRedo = errors.New("nothing to redo")
)

// defaultRGBA is used by create steps without rgba.
var defaultRGBA = blueprint.RGBA{0.5, 0.5, 0.5, 1}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger for the scenario's components. Default: logs
// are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a scenario against a fresh in-memory scene and returns the
// result.
//
// Each scenario gets its own document, synchronizer and render backend.
// Node IDs come from a sequence generator so results are reproducible.
// Steps are submitted through a session, the same way UI callbacks are.
//
// Execution flow:
// 1. Build the controller (presets, kinematics, memory backend)
// 2. Load the document, if any
// 3. Apply steps, recording each outcome
// 4. Export the final scene and evaluate assertions
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mem := render.NewMemory(
		render.WithIDGenerator(testutil.NewSequenceIDGenerator("node")),
		render.WithLogger(logger),
	)
	syncOpts := []renderer.Option{renderer.WithLogger(logger)}
	ctrlOpts := []controller.Option{controller.WithLogger(logger)}
	if scenario.Presets != "" {
		presets, err := config.NewResolver(scenario.Presets, config.WithResolverLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open presets: %w", err)
		}
		syncOpts = append(syncOpts, renderer.WithSolverFactory(kinematics.NewChainFactory(presets, logger)))
		ctrlOpts = append(ctrlOpts, controller.WithPresets(presets))
	}

	if scenario.AssetCache != "" {
		ctrlOpts = append(ctrlOpts, controller.WithFetcher(inventory.NewCacheFetcher(scenario.AssetCache)))
	}

	store := document.New(document.WithHistoryLimit(scenario.HistoryLimit), document.WithLogger(logger))
	ctrl := controller.New(store, renderer.New(mem, syncOpts...), ctrlOpts...)

	var initial []blueprint.Blueprint
	if scenario.Document != "" {
		data, err := os.ReadFile(scenario.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		initial, err = blueprint.UnmarshalDocument(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
	}

	sess := session.New(ctrl, session.WithLogger(logger))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sess.Run(runCtx) }()

	result := NewResult()

	if initial != nil {
		err := sess.Call(ctx, session.Func("load", func(_ context.Context, c *controller.Controller) error {
			return c.LoadBlueprints(initial)
		}))
		if err != nil {
			result.AddError(fmt.Sprintf("load document: %v", err))
		}
	}

	for i, step := range scenario.Steps {
		rec := StepRecord{Index: i, Op: step.Op}
		err := sess.Call(ctx, session.Func(step.Op, func(ctx context.Context, c *controller.Controller) error {
			paths, err := apply(ctx, c, step)
			rec.Paths = paths
			return err
		}))
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("scenario interrupted at step %d: %w", i, err)
			}
			rec.Error = err.Error()
		}
		result.Steps = append(result.Steps, rec)

		switch {
		case err != nil && !step.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
		case err == nil && step.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected an error", i, step.Op))
		}
		logger.Debug("step completed", "step", i, "op", step.Op, "error", err)
	}

	sess.Stop()
	if err := <-done; err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	exported, err := ctrl.ExportScene(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export scene: %w", err)
	}
	if result.Export, err = blueprint.MarshalDocument(exported); err != nil {
		return nil, fmt.Errorf("failed to encode scene: %w", err)
	}
	for _, bp := range ctrl.Blueprints() {
		result.Paths = append(result.Paths, bp.Header().Path)
	}
	result.Nodes = len(ctrl.Nodes())
	result.History = ctrl.History()

	for _, msg := range EvaluateAssertions(ctrl, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// apply runs one step on the controller and returns the paths it created.
func apply(ctx context.Context, c *controller.Controller, st Step) ([]string, error) {
	one := func(p string, err error) ([]string, error) {
		if err != nil {
			return nil, err
		}
		return []string{p}, nil
	}

	switch st.Op {
	case OpCreateGroup:
		return one(c.CreateGroup(st.Parent, st.Name))
	case OpCreateBox:
		return one(c.CreateBox(st.Parent, [3]float32{st.Size[0], st.Size[1], st.Size[2]}, rgba(st.RGBA)))
	case OpCreateSphere:
		return one(c.CreateSphere(st.Parent, st.Radius, rgba(st.RGBA)))
	case OpCreateCylinder:
		return one(c.CreateCylinder(st.Parent, st.Radius, st.Height, rgba(st.RGBA)))
	case OpCreateMesh:
		var scale float32
		if st.Scale != nil {
			scale = *st.Scale
		}
		return one(c.CreateMesh(st.Parent, st.Mesh, scale))
	case OpCreateCamera:
		return one(c.CreateCamera(st.Config))
	case OpCreateRobot:
		return c.CreateRobot(st.Config)
	case OpAddAsset:
		return one(addAsset(ctx, c, st))
	case OpUpdatePose:
		bp, ok := c.Get(st.Path)
		if !ok {
			return nil, fmt.Errorf("update pose %q: %w", st.Path, document.ErrNotFound)
		}
		return nil, c.UpdatePose(st.Path, override(bp.Header().Pose, st))
	case OpUpdateElement:
		bp, ok := c.Get(st.Path)
		if !ok {
			return nil, fmt.Errorf("update element %q: %w", st.Path, document.ErrNotFound)
		}
		return nil, c.UpdateElement(st.Path, changes(bp.Header().Pose, st))
	case OpRemove:
		return nil, c.Remove(st.Path)
	case OpUndo:
		if !c.Undo() {
			return nil, errNothingToUndo
		}
		return nil, nil
	case OpRedo:
		if !c.Redo() {
			return nil, errNothingToRedo
		}
		return nil, nil
	case OpReset:
		c.Reset()
		return nil, nil
	case OpSelect:
		if _, ok := c.Select(st.Path); !ok {
			return nil, fmt.Errorf("select %q: %w", st.Path, document.ErrNotFound)
		}
		return nil, nil
	case OpMoveEndEffector:
		return nil, c.MoveEndEffector(st.Path, override(pose.Identity(), st))
	case OpExport:
		_, err := c.ExportScene(ctx)
		return nil, err
	default:
		return nil, fmt.Errorf("unknown op %q", st.Op)
	}
}

// addAsset adds a remote asset when st names a uid, fetching it from the
// cache unless a mesh is given, and a local inventory asset otherwise.
func addAsset(ctx context.Context, c *controller.Controller, st Step) (string, error) {
	if st.UID == "" {
		ext := filepath.Ext(st.Mesh)
		return c.AddLocalAsset(st.Parent, inventory.Asset{
			Name: strings.TrimSuffix(filepath.Base(st.Mesh), ext),
			Path: st.Mesh,
			Ext:  strings.ToLower(ext),
		})
	}
	if st.Scale != nil {
		c.SetAssetScale(st.UID, *st.Scale)
	}
	return c.AddAsset(ctx, st.Parent, inventory.RemoteItem{UID: st.UID, Name: st.Name, Path: st.Mesh}, nil)
}

// override replaces the parts of base that st sets.
func override(base pose.Pose, st Step) pose.Pose {
	out := base
	if st.Position != nil {
		out = out.WithPosition([3]float32{st.Position[0], st.Position[1], st.Position[2]})
	}
	if st.EulerDeg != nil {
		out = out.WithEulerDeg([3]float32{st.EulerDeg[0], st.EulerDeg[1], st.EulerDeg[2]})
	}
	return out
}

func changes(current pose.Pose, st Step) blueprint.Changes {
	var ch blueprint.Changes
	if st.Position != nil || st.EulerDeg != nil {
		p := override(current, st)
		ch.Pose = &p
	}
	if st.RGBA != nil {
		c := rgba(st.RGBA)
		ch.RGBA = &c
	}
	ch.Size = st.Size
	ch.Mass = st.Mass
	ch.Scale = st.Scale
	ch.JointPositions = st.Joints
	return ch
}

func rgba(v []float32) blueprint.RGBA {
	if len(v) != 4 {
		return defaultRGBA
	}
	return blueprint.RGBA{v[0], v[1], v[2], v[3]}
}
