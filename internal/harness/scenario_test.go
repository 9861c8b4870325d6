package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/table_with_box.yaml")
	require.NoError(t, err)

	assert.Equal(t, "table_with_box", sc.Name)
	require.Len(t, sc.Steps, 6)
	assert.Equal(t, OpCreateGroup, sc.Steps[0].Op)
	assert.Equal(t, []float32{0, 0, 0.5}, sc.Steps[1].Position)
	assert.Equal(t, []float32{1, 0.5, 0.25}, sc.Steps[2].Size)
	assert.True(t, sc.Steps[5].ExpectError)

	require.Len(t, sc.Assertions, 4)
	require.NotNil(t, sc.Assertions[1].Count)
	assert.Equal(t, 2, *sc.Assertions[1].Count)
	require.NotNil(t, sc.Assertions[2].CanRedo)
	assert.False(t, *sc.Assertions[2].CanRedo)
	assert.Equal(t, "0002", sc.Assertions[2].NextSequence)
}

func TestLoadScenario_ResolvesRelativePaths(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/robot_with_camera.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "presets"), sc.Presets)

	sc, err = LoadScenario("testdata/scenarios/remove_subtree.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "scene.json"), sc.Document)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: misspelt key
steps:
  - op: undo
assertion:
  - type: node_count
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "description: d\nsteps: [{op: undo}]\n", "name is required"},
		{"no description", "name: n\nsteps: [{op: undo}]\n", "description is required"},
		{"no steps", "name: n\ndescription: d\n", "steps list is required"},
		{"negative limit", "name: n\ndescription: d\nhistory_limit: -1\nsteps: [{op: undo}]\n", "history_limit"},
		{"missing presets", "name: n\ndescription: d\npresets: nowhere\nsteps: [{op: undo}]\n", "presets directory not found"},
		{"missing document", "name: n\ndescription: d\ndocument: nowhere.json\n", "document file not found"},
		{"empty op", "name: n\ndescription: d\nsteps: [{path: /a}]\n", "steps[0]: op is required"},
		{"unknown op", "name: n\ndescription: d\nsteps: [{op: fly}]\n", `unknown op "fly"`},
		{"box size", "name: n\ndescription: d\nsteps: [{op: create_box, size: [1, 2]}]\n", "size needs 3 values"},
		{"sphere radius", "name: n\ndescription: d\nsteps: [{op: create_sphere}]\n", "radius must be positive"},
		{"cylinder height", "name: n\ndescription: d\nsteps: [{op: create_cylinder, radius: 1}]\n", "radius and height"},
		{"group name", "name: n\ndescription: d\nsteps: [{op: create_group}]\n", "name is required for create_group"},
		{"mesh file", "name: n\ndescription: d\nsteps: [{op: create_mesh}]\n", "mesh is required"},
		{"robot without presets", "name: n\ndescription: d\nsteps: [{op: create_robot, config: solo}]\n", "needs a presets directory"},
		{"camera config", "name: n\ndescription: d\nsteps: [{op: create_camera}]\n", "config is required"},
		{"pose without values", "name: n\ndescription: d\nsteps: [{op: update_pose, path: /a}]\n", "position or euler_deg"},
		{"remove path", "name: n\ndescription: d\nsteps: [{op: remove}]\n", "path is required for remove"},
		{"short rgba", "name: n\ndescription: d\nsteps: [{op: create_sphere, radius: 1, rgba: [1, 1]}]\n", "rgba needs 4 values"},
		{"asset source", "name: n\ndescription: d\nsteps: [{op: add_asset}]\n", "uid or mesh is required"},
		{"asset uid without cache", "name: n\ndescription: d\nsteps: [{op: add_asset, uid: u}]\n", "needs an asset_cache directory"},
		{"asset scale without uid", "name: n\ndescription: d\nsteps: [{op: add_asset, mesh: m.obj, scale: 2}]\n", "scale needs a uid"},
		{"asset mesh file", "name: n\ndescription: d\nsteps: [{op: add_asset, mesh: m.obj}]\n", "mesh file not found"},
		{"missing asset cache", "name: n\ndescription: d\nasset_cache: nowhere\nsteps: [{op: undo}]\n", "asset cache directory not found"},
		{"assertion type", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{paths: [/a]}]\n", "type is required"},
		{"unknown assertion", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{type: vibes}]\n", `unknown assertion type "vibes"`},
		{"paths list", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{type: paths_present}]\n", "paths list is required"},
		{"node count", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{type: node_count}]\n", "non-negative count"},
		{"empty history", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{type: history}]\n", "at least one expected field"},
		{"pose path", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{type: pose, position: [0, 0, 0]}]\n", "path is required for pose"},
		{"pose values", "name: n\ndescription: d\nsteps: [{op: undo}]\nassertions: [{type: pose, path: /a}]\n", "position or euler_deg is required for pose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseScenario_DocumentOnly(t *testing.T) {
	abs, err := filepath.Abs("testdata/scene.json")
	require.NoError(t, err)

	sc, err := ParseScenario([]byte("name: n\ndescription: d\ndocument: "+abs+"\n"), "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, abs, sc.Document)
	assert.Empty(t, sc.Steps)
}
