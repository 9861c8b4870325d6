package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Export string
}

// RenderResult is the JSON payload of the render command.
type RenderResult struct {
	Document string               `json:"document"`
	Nodes    []string             `json:"nodes"`
	Joints   map[string][]float32 `json:"joints,omitempty"`
	Metrics  map[string]float64   `json:"metrics"`
	Failures []string             `json:"failures,omitempty"`
	Export   string               `json:"export,omitempty"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <doc.json>",
		Short: "Render a scene document headlessly",
		Long: `Load a scene document into an in-memory renderer and report the
resulting nodes and robot joint positions.

Robots are rendered in two passes: grippers first, then robots carrying
their attached gripper. Nodes that cannot be rendered are reported and
make the command fail.

Example:
  scenekit render scene.json
  scenekit render --export posed.json scene.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "", "write the rendered scene with live joint positions")

	return cmd
}

func runRender(opts *RenderOptions, doc string, cmd *cobra.Command) error {
	e, err := newEnv(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	bps, err := e.readDocument(doc)
	if err != nil {
		return err
	}

	var exporters []controller.Exporter
	if opts.Export != "" {
		exporters = append(exporters, controller.NewJSONExporter(opts.Export))
	}
	reg := prometheus.NewRegistry()
	ctrl := e.newController(render.NewMemory(render.WithLogger(e.logger)), reg, exporters...)

	result := RenderResult{Document: doc, Export: opts.Export}
	if err := ctrl.LoadBlueprints(bps); err != nil {
		result.Failures = renderFailures(err)
	}
	result.Nodes = ctrl.Nodes()
	result.Joints = ctrl.JointPositions()

	if opts.Export != "" {
		if _, err := ctrl.ExportScene(commandContext(cmd)); err != nil {
			return e.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to export scene", err)
		}
	}

	result.Metrics, err = gatherMetrics(reg)
	if err != nil {
		return e.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to gather render metrics", err)
	}

	if len(result.Failures) > 0 {
		if e.out.IsJSON() {
			_ = e.out.Error(ErrCodeRender, fmt.Sprintf("%d node(s) failed to render", len(result.Failures)), result)
		} else {
			fmt.Fprintf(e.out.Writer, "✗ %d node(s) failed to render:\n", len(result.Failures))
			for _, f := range result.Failures {
				fmt.Fprintf(e.out.Writer, "  %s\n", f)
			}
		}
		return NewExitError(ExitFailure, "render failed")
	}

	return e.out.Success(result, renderText(result))
}

// renderFailures splits a joined render error into one line per node.
func renderFailures(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}

// gatherMetrics flattens the render gauges and counters, summing over labels.
func gatherMetrics(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetGauge().GetValue() + m.GetCounter().GetValue()
		}
		out[mf.GetName()] = sum
	}
	return out, nil
}

func renderText(r RenderResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Rendered %s: %d node(s)\n", r.Document, len(r.Nodes))
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "  %s", n)
		if q, ok := r.Joints[n]; ok {
			fmt.Fprintf(&b, " joints=%v", q)
		}
		b.WriteString("\n")
	}
	for _, name := range slices.Sorted(maps.Keys(r.Metrics)) {
		fmt.Fprintf(&b, "%s %g\n", name, r.Metrics[name])
	}
	if r.Export != "" {
		fmt.Fprintf(&b, "exported %s\n", r.Export)
	}
	return b.String()
}
