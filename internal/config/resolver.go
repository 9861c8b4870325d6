package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/scenekit/internal/kinematics"
)

//go:embed schema.cue
var schemaSource []byte

// DescriptionsDir is the presets subdirectory holding kinematic
// descriptions.
const DescriptionsDir = "descriptions"

// ErrPresetNotFound is wrapped by LoadError when no file exists for a
// preset name.
var ErrPresetNotFound = errors.New("preset not found")

// presetExtensions are tried in order when resolving a name.
var presetExtensions = []string{".cue", ".yaml", ".yml", ".json"}

// Schema definitions in schema.cue.
const (
	defRobot       = "#Robot"
	defRobotGroup  = "#RobotGroup"
	defGripper     = "#Gripper"
	defCamera      = "#Camera"
	defCalibration = "#Calibration"
	defDescription = "#Description"
)

// Resolver loads named presets from a directory.
//
// INVARIANTS:
//   - A name resolves to at most one file; extensions are tried in
//     presetExtensions order and the first match wins.
//   - Typed loaders never return a value that failed its schema.
type Resolver struct {
	dir    string
	ctx    *cue.Context
	schema cue.Value
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for preset diagnostics.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver returns a resolver for presets in dir. The directory does not
// need to exist until a preset is loaded.
func NewResolver(dir string, opts ...ResolverOption) (*Resolver, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "schema", err)
	}
	r := &Resolver{dir: dir, ctx: ctx, schema: schema, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the presets directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// Names lists the top-level preset names, sorted and without extensions.
func (r *Resolver) Names() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("presets directory not found: %s", r.dir), Err: err}
		}
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !slices.Contains(presetExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Load returns the preset as a generic key/value document.
func (r *Resolver) Load(name string) (map[string]any, error) {
	v, err := r.value(r.dir, name)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeSchema, name, err)
	}
	var doc map[string]any
	if err := v.Decode(&doc); err != nil {
		return nil, cueLoadError(ErrCodeDecode, name, err)
	}
	return doc, nil
}

// Robot loads a single robot configuration.
func (r *Resolver) Robot(name string) (RobotPreset, error) {
	var p RobotPreset
	err := r.decode(r.dir, name, defRobot, &p)
	return p, err
}

// RobotGroup loads a robot group configuration.
func (r *Resolver) RobotGroup(name string) (RobotGroupPreset, error) {
	var p RobotGroupPreset
	err := r.decode(r.dir, name, defRobotGroup, &p)
	return p, err
}

// Gripper loads a gripper configuration.
func (r *Resolver) Gripper(name string) (GripperPreset, error) {
	var p GripperPreset
	err := r.decode(r.dir, name, defGripper, &p)
	return p, err
}

// Camera loads a camera configuration.
func (r *Resolver) Camera(name string) (CameraPreset, error) {
	var p CameraPreset
	err := r.decode(r.dir, name, defCamera, &p)
	return p, err
}

// Calibration loads a camera calibration.
func (r *Resolver) Calibration(name string) (CalibrationPreset, error) {
	var p CalibrationPreset
	err := r.decode(r.dir, name, defCalibration, &p)
	return p, err
}

// Description loads a kinematic description from the descriptions
// subdirectory. Unknown names yield an error matching
// kinematics.ErrUnknownDescription, so Resolver is a
// kinematics.DescriptionSource.
func (r *Resolver) Description(name string) (kinematics.Description, error) {
	var d kinematics.Description
	if err := r.decode(filepath.Join(r.dir, DescriptionsDir), name, defDescription, &d); err != nil {
		if errors.Is(err, ErrPresetNotFound) {
			return d, fmt.Errorf("%w: %s", kinematics.ErrUnknownDescription, name)
		}
		return d, err
	}
	if d.Name == "" {
		d.Name = name
	}
	if err := d.Validate(); err != nil {
		return d, &LoadError{Code: ErrCodeSchema, Preset: name, Message: err.Error(), Err: err}
	}
	return d, nil
}

func (r *Resolver) decode(dir, name, def string, out any) error {
	v, err := r.value(dir, name)
	if err != nil {
		return err
	}
	u := r.schema.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		r.logger.Debug("preset rejected by schema", "preset", name, "definition", def, "error", err)
		return cueLoadError(ErrCodeSchema, name, err)
	}
	if err := u.Decode(out); err != nil {
		return cueLoadError(ErrCodeDecode, name, err)
	}
	return nil
}

// value finds and compiles the file for name in dir.
func (r *Resolver) value(dir, name string) (cue.Value, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return cue.Value{}, &LoadError{Code: ErrCodeGeneric, Preset: name, Message: "invalid preset name"}
	}
	for _, ext := range presetExtensions {
		path := filepath.Join(dir, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Preset: name, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
		}
		return r.compile(path, ext, data, name)
	}
	return cue.Value{}, &LoadError{
		Code:    ErrCodeNotFound,
		Preset:  name,
		Message: fmt.Sprintf("no preset file in %s", dir),
		Err:     ErrPresetNotFound,
	}
}

func (r *Resolver) compile(path, ext string, data []byte, name string) (cue.Value, error) {
	var v cue.Value
	switch ext {
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, cueLoadError(ErrCodeLoadFailed, name, err)
		}
		v = r.ctx.BuildFile(f)
	default:
		v = r.ctx.CompileBytes(data, cue.Filename(path))
	}
	if err := v.Err(); err != nil {
		return cue.Value{}, cueLoadError(ErrCodeBuildFailed, name, err)
	}
	r.logger.Debug("preset loaded", "preset", name, "file", path)
	return v, nil
}
