package controller

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/pose"
)

// name returns the path of a new entity below parent. The document's
// sequence suffix is appended to base.
func (c *Controller) name(parent, base string) string {
	return blueprint.Join(parent, base+"_"+c.store.NextSequence())
}

// add validates bp, stores it and renders it.
func (c *Controller) add(bp blueprint.Blueprint) (string, error) {
	path := bp.Header().Path
	if err := blueprint.Validate(bp); err != nil {
		return "", fmt.Errorf("create %s: %w", bp.Kind(), err)
	}
	if err := c.store.Add(bp); err != nil {
		return "", fmt.Errorf("create %s: %w", bp.Kind(), err)
	}
	if _, err := c.sync.Add(bp); err != nil {
		c.logger.Warn("created entity has no render node", "path", path, "error", err)
	}
	c.logger.Info("created", "path", path, "kind", bp.Kind())
	return path, nil
}

// CreateGroup adds an empty group named <name>_<seq> below parent.
func (c *Controller) CreateGroup(parent, name string) (string, error) {
	return c.add(&blueprint.Group{
		Common: blueprint.Common{Path: c.name(parent, name), Pose: pose.Identity()},
	})
}

// CreateBox adds a box with full extents dims below parent.
func (c *Controller) CreateBox(parent string, dims [3]float32, rgba blueprint.RGBA) (string, error) {
	return c.add(&blueprint.Geom{
		Common:   blueprint.Common{Path: c.name(parent, "box"), Pose: pose.Identity(), RGBA: &rgba},
		GeomType: blueprint.GeomBox,
		Size:     []float32{dims[0] / 2, dims[1] / 2, dims[2] / 2},
	})
}

// CreateSphere adds a sphere below parent.
func (c *Controller) CreateSphere(parent string, radius float32, rgba blueprint.RGBA) (string, error) {
	return c.add(&blueprint.Geom{
		Common:   blueprint.Common{Path: c.name(parent, "sphere"), Pose: pose.Identity(), RGBA: &rgba},
		GeomType: blueprint.GeomSphere,
		Size:     []float32{radius},
	})
}

// CreateCylinder adds a cylinder of full height height below parent.
func (c *Controller) CreateCylinder(parent string, radius, height float32, rgba blueprint.RGBA) (string, error) {
	return c.add(&blueprint.Geom{
		Common:   blueprint.Common{Path: c.name(parent, "cylinder"), Pose: pose.Identity(), RGBA: &rgba},
		GeomType: blueprint.GeomCylinder,
		Size:     []float32{radius, height / 2},
	})
}

// CreateMesh adds the mesh file at meshPath below parent, named after the
// file.
func (c *Controller) CreateMesh(parent, meshPath string, scale float32) (string, error) {
	if scale <= 0 {
		scale = 1
	}
	return c.add(&blueprint.Mesh{
		Common:   blueprint.Common{Path: c.name(parent, "asset_"+filepath.Base(meshPath)), Pose: pose.Identity()},
		MeshPath: meshPath,
		Scale:    scale,
	})
}

// CreateCamera adds the camera described by the camera preset configName.
func (c *Controller) CreateCamera(configName string) (string, error) {
	if c.adapter == nil {
		return "", ErrNoPresets
	}
	bp, err := c.adapter.Camera(configName, c.store.NextSequence())
	if err != nil {
		c.logger.Error("unable to build camera", "config", configName, "error", err)
		return "", err
	}
	return c.add(bp)
}

// CreateRobot adds the robots described by the preset configName. A preset
// with left_robot and/or right_robot adds one robot per side, all sharing
// the preset's robot_name; a preset with a description_name is itself a
// robot configuration. Each robot's gripper, if any, is added before the
// robot so the end effector can bind to it.
func (c *Controller) CreateRobot(configName string) ([]string, error) {
	if c.adapter == nil {
		return nil, ErrNoPresets
	}
	group, err := c.presets.RobotGroup(configName)
	if err != nil {
		c.logger.Error("unable to load robot preset", "config", configName, "error", err)
		return nil, err
	}
	robotName := group.RobotName
	if robotName == "" {
		robotName = DefaultRobotName
	}

	configs := group.Sides()
	if group.DescriptionName != "" {
		configs = append(configs, configName)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("create robot %q: %w", configName, ErrNoRobotConfig)
	}

	var paths []string
	for _, cfg := range configs {
		added, err := c.addRobot(cfg, robotName)
		paths = append(paths, added...)
		if err != nil {
			return paths, err
		}
	}
	return paths, nil
}

func (c *Controller) addRobot(configName, robotName string) ([]string, error) {
	robot, gripper, err := c.adapter.Robot(configName, robotName, c.store.NextSequence())
	if err != nil {
		c.logger.Error("unable to build robot", "config", configName, "error", err)
		return nil, err
	}
	if err := blueprint.Validate(robot); err != nil {
		return nil, fmt.Errorf("create robot %q: %w", configName, err)
	}

	var paths []string
	if gripper != nil {
		p, err := c.add(gripper)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}

	if err := c.store.Add(robot); err != nil {
		return paths, fmt.Errorf("create robot %q: %w", configName, err)
	}
	if _, err := c.sync.AddRobot(robot, gripper); err != nil {
		c.logger.Warn("robot rendered without end effector binding", "path", robot.Path, "error", err)
	}
	c.logger.Info("created", "path", robot.Path, "kind", robot.Kind(), "config", configName)
	return append(paths, robot.Path), nil
}
