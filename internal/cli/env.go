package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/blueprint"
	"github.com/roach88/scenekit/internal/config"
	"github.com/roach88/scenekit/internal/controller"
	"github.com/roach88/scenekit/internal/document"
	"github.com/roach88/scenekit/internal/inventory"
	"github.com/roach88/scenekit/internal/kinematics"
	"github.com/roach88/scenekit/internal/render"
	"github.com/roach88/scenekit/internal/renderer"
)

// env bundles what every command derives from the global flags.
type env struct {
	out      *OutputFormatter
	logger   *slog.Logger
	settings config.Settings
	presets  *config.Resolver
}

// newEnv reads the settings file and opens the preset directory. Logs go to
// stderr at Info, or Debug with --verbose.
func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	settings, err := config.LoadSettings(opts.Config)
	if err != nil {
		code := ErrCodeSettings
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, out.Fail(ExitCommandError, code, "failed to load settings", err)
	}
	if opts.Presets != "" {
		settings.PresetsDir = opts.Presets
	}

	presets, err := config.NewResolver(settings.PresetsDir, config.WithResolverLogger(logger))
	if err != nil {
		return nil, out.Fail(ExitCommandError, ErrCodePreset, "failed to load preset schemas", err)
	}
	out.VerboseLog("presets: %s", settings.PresetsDir)

	return &env{out: out, logger: logger, settings: settings, presets: presets}, nil
}

// newController builds an editing stack on backend. A nil reg leaves the
// render metrics unregistered.
func (e *env) newController(backend render.Backend, reg prometheus.Registerer, exporters ...controller.Exporter) *controller.Controller {
	store := document.New(
		document.WithHistoryLimit(e.settings.HistoryLimit),
		document.WithLogger(e.logger),
	)
	sync := renderer.New(backend,
		renderer.WithLogger(e.logger),
		renderer.WithSolverFactory(kinematics.NewChainFactory(e.presets, e.logger)),
		renderer.WithRegisterer(reg),
	)

	opts := []controller.Option{
		controller.WithLogger(e.logger),
		controller.WithPresets(e.presets),
		controller.WithScaleOverrides(inventory.NewScaleOverrides(e.settings.DefaultScale, e.settings.ScaleOverrides)),
		controller.WithExporters(exporters...),
	}
	if e.settings.RemoteCacheRoot != "" {
		opts = append(opts, controller.WithFetcher(inventory.NewCacheFetcher(e.settings.RemoteCacheRoot)))
	}
	return controller.New(store, sync, opts...)
}

// openInventory opens the asset cache database from the settings.
func (e *env) openInventory() (*inventory.Store, error) {
	inv, err := inventory.Open(e.settings.CacheDB,
		inventory.WithStaleness(e.settings.AssetStaleness),
		inventory.WithLogger(e.logger),
	)
	if err != nil {
		return nil, e.out.Fail(ExitCommandError, ErrCodeInventory, "failed to open asset cache", err)
	}
	return inv, nil
}

// readDocument loads and validates a scene document.
func (e *env) readDocument(path string) ([]blueprint.Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, e.out.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("document not found: %s", path), nil)
		}
		return nil, e.out.Fail(ExitCommandError, ErrCodeGeneric, "failed to read document", err)
	}
	bps, err := blueprint.UnmarshalDocument(data)
	if err != nil {
		return nil, e.out.Fail(ExitFailure, ErrCodeDocument, fmt.Sprintf("invalid document %s", path), err)
	}
	return bps, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
