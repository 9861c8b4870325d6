// Package adapter turns named presets into blueprints.
package adapter

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/config"
	"github.com/roach88/scenekit/internal/pose"
)

// Defaults for optional preset keys.
const (
	DefaultCameraName = "camera"
	DefaultWristName  = "wrist"
)

// PresetSource loads typed presets. *config.Resolver implements it.
type PresetSource interface {
	Robot(name string) (config.RobotPreset, error)
	Gripper(name string) (config.GripperPreset, error)
	Camera(name string) (config.CameraPreset, error)
	Calibration(name string) (config.CalibrationPreset, error)
}

// Adapter builds camera and robot blueprints from presets.
type Adapter struct {
	presets PresetSource
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// New returns an adapter reading from presets.
func New(presets PresetSource, opts ...Option) *Adapter {
	a := &Adapter{presets: presets, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CalibrationName is the preset holding the calibration of a camera.
func CalibrationName(cameraName string) string {
	return "calibration_" + cameraName + "_camera"
}

// Camera builds the camera blueprint for a camera preset. The path is
// /<camera_name>_<seq>. The pose is the inverse of the calibration's
// extrinsics.
func (a *Adapter) Camera(configName, seq string) (*blueprint.Camera, error) {
	cfg, err := a.presets.Camera(configName)
	if err != nil {
		return nil, fmt.Errorf("camera %q: %w", configName, err)
	}
	name := cfg.CameraName
	if name == "" {
		name = DefaultCameraName
	}
	calib, err := a.presets.Calibration(CalibrationName(name))
	if err != nil {
		return nil, fmt.Errorf("camera %q: %w", configName, err)
	}
	return &blueprint.Camera{
		Common: blueprint.Common{
			Path: blueprint.CleanPath(fmt.Sprintf("/%s_%s", name, seq)),
			Pose: pose.FromMatrix(calib.Extrinsics).Inverse(),
		},
		Width:      cfg.Width,
		Height:     cfg.Height,
		Intrinsics: calib.Intrinsics,
	}, nil
}

// Robot builds the robot blueprint for a robot preset and, when the preset
// names a gripper, the gripper blueprint and the attachment linking them.
//
// The robot path is /<robotName>_<side>_<seq>, or /<robotName>_<seq>
// without a side. The gripper lives at <robot path>/<gripper_name>.
func (a *Adapter) Robot(configName, robotName, seq string) (*blueprint.Robot, *blueprint.Gripper, error) {
	cfg, err := a.presets.Robot(configName)
	if err != nil {
		return nil, nil, fmt.Errorf("robot %q: %w", configName, err)
	}

	base := pose.Identity()
	if len(cfg.TransformRobotToWorld) > 0 {
		base, err = pose.FromFlatMatrix(cfg.TransformRobotToWorld)
		if err != nil {
			return nil, nil, fmt.Errorf("robot %q: transform_robot_to_world: %w", configName, err)
		}
	}

	path := fmt.Sprintf("/%s_%s", robotName, seq)
	if cfg.SideName != "" {
		path = fmt.Sprintf("/%s_%s_%s", robotName, cfg.SideName, seq)
	}
	path = blueprint.CleanPath(path)

	if cfg.Camera != nil {
		a.logger.Info("skipping camera configuration", "robot", configName, "camera", cfg.Camera)
	}

	robot := &blueprint.Robot{
		Common: blueprint.Common{Path: path, Pose: base},
		Model: blueprint.Model{
			DescriptionName: cfg.DescriptionName,
			VariantName:     cfg.VariantName,
			ModelPrefix:     blueprint.Base(path),
		},
		DefaultJointPositions: cfg.DefaultJointPositions,
	}
	if cfg.Gripper == "" {
		return robot, nil, nil
	}

	gripper, attachment, err := a.gripper(cfg, path)
	if err != nil {
		return nil, nil, fmt.Errorf("robot %q: %w", configName, err)
	}
	robot.Attachment = attachment
	return robot, gripper, nil
}

func (a *Adapter) gripper(cfg config.RobotPreset, robotPath string) (*blueprint.Gripper, *blueprint.Attachment, error) {
	offset := pose.Identity()
	if cfg.WristQuat != "" {
		q, err := parseFloats(cfg.WristQuat, 4)
		if err != nil {
			return nil, nil, fmt.Errorf("wrist_quat: %w", err)
		}
		offset = offset.WithXYZW([4]float32(q))
	}
	if cfg.WristPos != "" {
		p, err := parseFloats(cfg.WristPos, 3)
		if err != nil {
			return nil, nil, fmt.Errorf("wrist_pos: %w", err)
		}
		offset = offset.WithPosition([3]float32(p))
	}

	gcfg, err := a.presets.Gripper(cfg.Gripper)
	if err != nil {
		return nil, nil, fmt.Errorf("gripper %q: %w", cfg.Gripper, err)
	}
	gripper := &blueprint.Gripper{
		Common: blueprint.Common{
			Path: blueprint.Join(robotPath, gcfg.GripperName),
			Pose: pose.Identity(),
		},
		Model: blueprint.Model{
			DescriptionName: gcfg.DescriptionName,
			VariantName:     gcfg.VariantName,
		},
		DefaultJointPositions: gcfg.DefaultJointPositions,
	}

	wrist := cfg.WristName
	if wrist == "" {
		wrist = DefaultWristName
	}
	return gripper, &blueprint.Attachment{
		GripperPath: gripper.Path,
		WristName:   wrist,
		Offset:      offset,
	}, nil
}

// parseFloats reads exactly n space separated numbers.
func parseFloats(s string, n int) ([]float32, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("want %d numbers, got %d in %q", n, len(fields), s)
	}
	out := make([]float32, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
