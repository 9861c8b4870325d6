package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/blueprint"
)

func TestNew_RobotCameraAndGroup(t *testing.T) {
	output := filepath.Join(t.TempDir(), "scene.json")

	out, err := execute(t, "--format", "json", "--presets", testPresets,
		"new", "--group", "table", "--robot", "solo", "--camera", "wrist", output)
	require.NoError(t, err, out)

	var res NewResult
	resp := decodeResponse(t, out, &res)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, output, res.Output)
	require.Len(t, res.Paths, 4)
	assert.Equal(t, "/table_0000", res.Paths[0])

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	bps, err := blueprint.UnmarshalDocument(data)
	require.NoError(t, err)

	kinds := make(map[string]blueprint.Kind)
	for _, bp := range bps {
		kinds[bp.Header().Path] = bp.Kind()
	}
	assert.Len(t, kinds, 4)
	for _, p := range res.Paths {
		assert.Contains(t, kinds, p)
	}
	assert.Equal(t, blueprint.KindGripper, kinds[res.Paths[1]])
	assert.Equal(t, blueprint.KindRobot, kinds[res.Paths[2]])
	assert.Equal(t, blueprint.KindCamera, kinds[res.Paths[3]])
}

func TestNew_TextOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "scene.json")

	out, err := execute(t, "new", "--group", "a,b", output)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote "+output)
	assert.Contains(t, out, "  /a_0000\n")
	assert.Contains(t, out, "  /b_0001\n")
}

func TestNew_RefusesToOverwrite(t *testing.T) {
	output := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, os.WriteFile(output, []byte("keep"), 0o644))

	out, err := execute(t, "new", "--group", "a", output)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "use --force")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))

	_, err = execute(t, "new", "--force", "--group", "a", output)
	require.NoError(t, err)
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/a_0000")
}

func TestNew_UnknownPreset(t *testing.T) {
	output := filepath.Join(t.TempDir(), "scene.json")

	out, err := execute(t, "--presets", testPresets, "new", "--robot", "no_such_robot", output)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodePreset)
	assert.NoFileExists(t, output)
}
