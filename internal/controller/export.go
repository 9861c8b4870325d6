package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/scenekit/internal/blueprint"
)

// Exporter writes an export-ready blueprint list somewhere.
type Exporter interface {
	Export(ctx context.Context, bps []blueprint.Blueprint) error
}

// JSONExporter writes the blueprint document as JSON.
type JSONExporter struct {
	path string
}

// NewJSONExporter returns an exporter writing to path with its extension
// replaced by .json.
func NewJSONExporter(path string) *JSONExporter {
	return &JSONExporter{path: strings.TrimSuffix(path, filepath.Ext(path)) + ".json"}
}

// Path returns the output file.
func (e *JSONExporter) Path() string {
	return e.path
}

// Export implements Exporter.
func (e *JSONExporter) Export(_ context.Context, bps []blueprint.Blueprint) error {
	data, err := blueprint.MarshalDocument(bps)
	if err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	if err := os.WriteFile(e.path, data, 0o644); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

// ExportScene builds the export list and runs every exporter on it. Robots
// and grippers carry their live joint positions; the document, its history
// and the render nodes are left untouched. The list is returned even when
// an exporter fails.
func (c *Controller) ExportScene(ctx context.Context) ([]blueprint.Blueprint, error) {
	joints := c.sync.JointPositions()

	bps := c.store.Blueprints()
	for i, bp := range bps {
		switch b := bp.(type) {
		case *blueprint.Robot:
			next := b.Clone().(*blueprint.Robot)
			next.DefaultJointPositions = slices.Clone(joints[b.Path])
			bps[i] = next
		case *blueprint.Gripper:
			next := b.Clone().(*blueprint.Gripper)
			next.DefaultJointPositions = slices.Clone(joints[b.Path])
			bps[i] = next
		}
	}

	var errs []error
	for _, e := range c.exporters {
		if err := e.Export(ctx, bps); err != nil {
			c.logger.Error("export failed", "error", err)
			errs = append(errs, err)
		}
	}
	c.logger.Info("scene exported", "blueprints", len(bps), "exporters", len(c.exporters))
	return bps, errors.Join(errs...)
}
