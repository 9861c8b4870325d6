package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/render"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Robot   string
	Cameras []string
	Groups  []string
	Force   bool
}

// NewResult is the JSON payload of the new command.
type NewResult struct {
	Output string   `json:"output"`
	Paths  []string `json:"paths"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <output.json>",
		Short: "Create a scene document from presets",
		Long: `Create a scene document from a robot preset, camera presets and
empty groups, and write it as JSON.

Example:
  scenekit new --presets ./presets --robot solo --camera wrist scene.json
  scenekit new --group table --group shelf scene.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Robot, "robot", "", "robot or robot group preset")
	cmd.Flags().StringArrayVar(&opts.Cameras, "camera", nil, "camera preset (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Groups, "group", nil, "empty top-level group names")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing output file")

	return cmd
}

func runNew(opts *NewOptions, output string, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	if !opts.Force {
		if _, err := os.Stat(output); err == nil {
			return e.out.Fail(ExitCommandError, ErrCodeGeneric,
				fmt.Sprintf("output exists: %s (use --force to overwrite)", output), nil)
		}
	}

	ctrl := e.newController(render.NewMemory(render.WithLogger(e.logger)), nil, controller.NewJSONExporter(output))

	var paths []string
	for _, name := range opts.Groups {
		p, err := ctrl.CreateGroup("", name)
		if err != nil {
			return e.out.Fail(ExitFailure, ErrCodeDocument, fmt.Sprintf("failed to create group %q", name), err)
		}
		paths = append(paths, p)
	}
	if opts.Robot != "" {
		created, err := ctrl.CreateRobot(opts.Robot)
		if err != nil {
			return e.out.Fail(ExitCommandError, ErrCodePreset, fmt.Sprintf("failed to create robot %q", opts.Robot), err)
		}
		paths = append(paths, created...)
	}
	for _, name := range opts.Cameras {
		p, err := ctrl.CreateCamera(name)
		if err != nil {
			return e.out.Fail(ExitCommandError, ErrCodePreset, fmt.Sprintf("failed to create camera %q", name), err)
		}
		paths = append(paths, p)
	}

	if _, err := ctrl.ExportScene(commandContext(cmd)); err != nil {
		return e.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to write document", err)
	}
	e.logger.Debug("document written", "output", output, "created", len(paths))

	var text strings.Builder
	fmt.Fprintf(&text, "✓ Wrote %s\n", output)
	for _, p := range paths {
		fmt.Fprintf(&text, "  %s\n", p)
	}
	return e.out.Success(NewResult{Output: output, Paths: paths}, text.String())
}
