package kinematics

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/pose"
)

// DescriptionSource resolves kinematic descriptions by name.
// Implemented by config.Resolver.
type DescriptionSource interface {
	Description(name string) (Description, error)
}

// ChainFactory builds Chain solvers from named descriptions.
//
// The robot's qualified model name (description plus variant) is tried
// first, then the bare description name. When neither resolves, the
// factory logs a warning and falls back to FallbackDescription so the robot
// still gets an interactive end effector.
type ChainFactory struct {
	source  DescriptionSource
	logger  *slog.Logger
	options []ChainOption
}

// NewChainFactory returns a factory reading descriptions from source, which
// may be nil.
func NewChainFactory(source DescriptionSource, logger *slog.Logger, opts ...ChainOption) *ChainFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainFactory{source: source, logger: logger, options: opts}
}

// NewSolver implements Factory.
func (f *ChainFactory) NewSolver(robot *blueprint.Robot, gripper *blueprint.Gripper) (Solver, error) {
	if robot == nil {
		return nil, errors.New("kinematics: nil robot")
	}
	desc := f.resolve(robot.Model)

	tool := pose.Identity()
	if robot.Attachment != nil {
		tool = robot.Attachment.Offset
	}
	opts := append([]ChainOption{WithInitial(robot.DefaultJointPositions)}, f.options...)
	chain, err := NewChain(desc, tool, opts...)
	if err != nil {
		return nil, fmt.Errorf("build solver for %q: %w", robot.Path, err)
	}

	attrs := []any{"robot", robot.Path, "description", desc.Name, "dof", chain.DOF()}
	if gripper != nil {
		attrs = append(attrs, "gripper", gripper.Path)
	}
	f.logger.Debug("kinematic solver ready", attrs...)
	return chain, nil
}

func (f *ChainFactory) resolve(m blueprint.Model) Description {
	if f.source != nil {
		names := []string{m.QualifiedName()}
		if m.VariantName != "" {
			names = append(names, m.DescriptionName)
		}
		for _, name := range names {
			desc, err := f.source.Description(name)
			if err == nil {
				return desc
			}
			if !errors.Is(err, ErrUnknownDescription) {
				f.logger.Warn("kinematic description failed to load", "name", name, "error", err)
			}
		}
	}
	f.logger.Warn("unable to find kinematic model, using fallback model", "description", m.QualifiedName())
	return FallbackDescription()
}
