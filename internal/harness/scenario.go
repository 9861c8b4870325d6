package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted editing session with checks on the final scene.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Presets is the preset directory used by create_camera and
	// create_robot. Relative paths are resolved against the scenario file.
	Presets string `yaml:"presets,omitempty"`

	// Document is an optional blueprint JSON file loaded before the steps.
	Document string `yaml:"document,omitempty"`

	// AssetCache is the remote asset cache read by add_asset steps with a
	// uid. Relative paths are resolved against the scenario file.
	AssetCache string `yaml:"asset_cache,omitempty"`

	// HistoryLimit caps the undo stack. Zero means unlimited.
	HistoryLimit int `yaml:"history_limit,omitempty"`

	// Steps are applied in order through a session.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the final scene.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one controller operation.
type Step struct {
	// Op selects the operation; see the Op constants.
	Op string `yaml:"op"`

	Path   string `yaml:"path,omitempty"`
	Parent string `yaml:"parent,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Config string `yaml:"config,omitempty"`
	Mesh   string `yaml:"mesh,omitempty"`
	UID    string `yaml:"uid,omitempty"`

	// Size holds full box extents for create_box and half sizes for
	// update_element.
	Size   []float32 `yaml:"size,omitempty"`
	Radius float32   `yaml:"radius,omitempty"`
	Height float32   `yaml:"height,omitempty"`
	RGBA   []float32 `yaml:"rgba,omitempty"`
	Mass   *float32  `yaml:"mass,omitempty"`
	Scale  *float32  `yaml:"scale,omitempty"`
	Joints []float32 `yaml:"joints,omitempty"`

	// Position and EulerDeg override the corresponding part of the
	// current pose.
	Position []float32 `yaml:"position,omitempty"`
	EulerDeg []float32 `yaml:"euler_deg,omitempty"`

	// ExpectError inverts the step outcome.
	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpCreateGroup     = "create_group"
	OpCreateBox       = "create_box"
	OpCreateSphere    = "create_sphere"
	OpCreateCylinder  = "create_cylinder"
	OpCreateMesh      = "create_mesh"
	OpCreateCamera    = "create_camera"
	OpCreateRobot     = "create_robot"
	OpAddAsset        = "add_asset"
	OpUpdatePose      = "update_pose"
	OpUpdateElement   = "update_element"
	OpRemove          = "remove"
	OpUndo            = "undo"
	OpRedo            = "redo"
	OpReset           = "reset"
	OpSelect          = "select"
	OpMoveEndEffector = "move_end_effector"
	OpExport          = "export"
)

// Assertion checks the final scene.
type Assertion struct {
	// Type specifies the assertion type:
	// - "paths_present": every path in Paths is in the document
	// - "paths_absent": no path in Paths is in the document
	// - "node_count": the renderer holds exactly Count entity nodes
	// - "history": undo state matches the fields that are set
	// - "pose": the document pose of Path matches Position / EulerDeg
	Type string `yaml:"type"`

	Paths []string `yaml:"paths,omitempty"`
	Path  string   `yaml:"path,omitempty"`
	Count *int     `yaml:"count,omitempty"`

	CanUndo      *bool  `yaml:"can_undo,omitempty"`
	CanRedo      *bool  `yaml:"can_redo,omitempty"`
	Past         *int   `yaml:"past,omitempty"`
	NextSequence string `yaml:"next_sequence,omitempty"`

	Position  []float32 `yaml:"position,omitempty"`
	EulerDeg  []float32 `yaml:"euler_deg,omitempty"`
	Tolerance float32   `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertPathsPresent = "paths_present"
	AssertPathsAbsent  = "paths_absent"
	AssertNodeCount    = "node_count"
	AssertHistory      = "history"
	AssertPose         = "pose"
)

// LoadScenario reads and parses a scenario YAML file. Presets and Document
// are resolved relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative paths against
// baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Presets = resolve(baseDir, scenario.Presets)
	scenario.Document = resolve(baseDir, scenario.Document)
	scenario.AssetCache = resolve(baseDir, scenario.AssetCache)
	for i := range scenario.Steps {
		if scenario.Steps[i].Op == OpAddAsset {
			scenario.Steps[i].Mesh = resolve(baseDir, scenario.Steps[i].Mesh)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 && s.Document == "" {
		return fmt.Errorf("steps list is required unless a document is loaded")
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative")
	}

	if s.Presets != "" {
		if info, err := os.Stat(s.Presets); err != nil || !info.IsDir() {
			return fmt.Errorf("presets directory not found: %s", s.Presets)
		}
	}
	if s.Document != "" {
		if _, err := os.Stat(s.Document); err != nil {
			return fmt.Errorf("document file not found: %s", s.Document)
		}
	}
	if s.AssetCache != "" {
		if info, err := os.Stat(s.AssetCache); err != nil || !info.IsDir() {
			return fmt.Errorf("asset cache directory not found: %s", s.AssetCache)
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i], s.Presets != "", s.AssetCache != ""); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step, havePresets, haveCache bool) error {
	if st.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if err := vecLen("position", st.Position, 3); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}
	if err := vecLen("euler_deg", st.EulerDeg, 3); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}
	if err := vecLen("rgba", st.RGBA, 4); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}

	switch st.Op {
	case OpCreateGroup:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, st.Op)
		}
	case OpCreateBox:
		if len(st.Size) != 3 {
			return fmt.Errorf("steps[%d]: size needs 3 values for %s", index, st.Op)
		}
	case OpCreateSphere:
		if st.Radius <= 0 {
			return fmt.Errorf("steps[%d]: radius must be positive for %s", index, st.Op)
		}
	case OpCreateCylinder:
		if st.Radius <= 0 || st.Height <= 0 {
			return fmt.Errorf("steps[%d]: radius and height must be positive for %s", index, st.Op)
		}
	case OpCreateMesh:
		if st.Mesh == "" {
			return fmt.Errorf("steps[%d]: mesh is required for %s", index, st.Op)
		}
	case OpCreateCamera, OpCreateRobot:
		if st.Config == "" {
			return fmt.Errorf("steps[%d]: config is required for %s", index, st.Op)
		}
		if !havePresets {
			return fmt.Errorf("steps[%d]: %s needs a presets directory", index, st.Op)
		}
	case OpAddAsset:
		switch {
		case st.UID == "" && st.Mesh == "":
			return fmt.Errorf("steps[%d]: uid or mesh is required for %s", index, st.Op)
		case st.UID == "" && st.Scale != nil:
			return fmt.Errorf("steps[%d]: scale needs a uid for %s", index, st.Op)
		case st.Mesh == "" && !haveCache:
			return fmt.Errorf("steps[%d]: %s by uid needs an asset_cache directory", index, st.Op)
		case st.Mesh != "":
			if _, err := os.Stat(st.Mesh); err != nil {
				return fmt.Errorf("steps[%d]: mesh file not found: %s", index, st.Mesh)
			}
		}
	case OpUpdatePose, OpMoveEndEffector:
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", index, st.Op)
		}
		if st.Position == nil && st.EulerDeg == nil {
			return fmt.Errorf("steps[%d]: position or euler_deg is required for %s", index, st.Op)
		}
	case OpUpdateElement, OpRemove, OpSelect:
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", index, st.Op)
		}
	case OpUndo, OpRedo, OpReset, OpExport:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertPathsPresent, AssertPathsAbsent:
		if len(a.Paths) == 0 {
			return fmt.Errorf("assertions[%d]: paths list is required for %s", index, a.Type)
		}
	case AssertNodeCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for node_count", index)
		}
	case AssertHistory:
		if a.CanUndo == nil && a.CanRedo == nil && a.Past == nil && a.NextSequence == "" {
			return fmt.Errorf("assertions[%d]: history needs at least one expected field", index)
		}
	case AssertPose:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for pose", index)
		}
		if a.Position == nil && a.EulerDeg == nil {
			return fmt.Errorf("assertions[%d]: position or euler_deg is required for pose", index)
		}
		if err := vecLen("position", a.Position, 3); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if err := vecLen("euler_deg", a.EulerDeg, 3); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func vecLen(field string, v []float32, n int) error {
	if v != nil && len(v) != n {
		return fmt.Errorf("%s needs %d values, got %d", field, n, len(v))
	}
	return nil
}
