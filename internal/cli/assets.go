package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/scenekit/internal/inventory"
)

// AssetList is the JSON payload of assets list.
type AssetList struct {
	Root   string            `json:"root"`
	Assets []inventory.Asset `json:"assets"`
}

// RemoteList is the JSON payload of assets remote.
type RemoteList struct {
	Root  string                 `json:"root"`
	Items []inventory.RemoteItem `json:"items"`
}

// AssetScale is the JSON payload of assets scale.
type AssetScale struct {
	UID      string  `json:"uid"`
	Scale    float32 `json:"scale"`
	Override bool    `json:"override"`
}

// NewAssetsCommand creates the assets command group.
func NewAssetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect the mesh asset library",
		Long: `Inspect local mesh assets and the downloaded remote asset cache.

Directory scans are cached in a SQLite database (cache_db in the settings
file) and reused until they are older than asset_staleness.`,
	}

	cmd.AddCommand(newAssetsListCommand(rootOpts))
	cmd.AddCommand(newAssetsFindCommand(rootOpts))
	cmd.AddCommand(newAssetsRemoteCommand(rootOpts))
	cmd.AddCommand(newAssetsScaleCommand(rootOpts))

	return cmd
}

func newAssetsListCommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:           "list [root]",
		Short:         "List mesh files under an asset root",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			root := e.settings.AssetsRoot
			if len(args) == 1 {
				root = args[0]
			}
			inv, err := e.openInventory()
			if err != nil {
				return err
			}
			defer inv.Close()

			assets, err := inv.List(commandContext(cmd), root, refresh)
			if err != nil {
				return e.out.Fail(ExitCommandError, ErrCodeInventory, "failed to list assets", err)
			}

			var text strings.Builder
			fmt.Fprintf(&text, "%d asset(s) in %s\n", len(assets), root)
			for _, a := range assets {
				fmt.Fprintf(&text, "  %-24s %s\n", a.Name, a.Path)
			}
			return e.out.Success(AssetList{Root: root, Assets: assets}, text.String())
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rescan even when the cached scan is fresh")
	return cmd
}

func newAssetsFindCommand(rootOpts *RootOptions) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:           "find <name>",
		Short:         "Find a mesh asset by name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			if root == "" {
				root = e.settings.AssetsRoot
			}
			inv, err := e.openInventory()
			if err != nil {
				return err
			}
			defer inv.Close()

			a, err := inv.Find(commandContext(cmd), root, args[0])
			if errors.Is(err, inventory.ErrAssetNotFound) {
				return e.out.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("asset %q not found in %s", args[0], root), nil)
			}
			if err != nil {
				return e.out.Fail(ExitCommandError, ErrCodeInventory, "failed to search assets", err)
			}
			return e.out.Success(a, a.Path+"\n")
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "asset root (defaults to assets_root)")
	return cmd
}

func newAssetsRemoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remote",
		Short:         "List downloaded remote assets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			root := e.settings.RemoteCacheRoot
			if root == "" {
				return e.out.Fail(ExitCommandError, ErrCodeSettings, "remote_cache_root is not set", nil)
			}
			items, err := inventory.NewCacheFetcher(root).ListLocal(commandContext(cmd))
			if err != nil {
				return e.out.Fail(ExitCommandError, ErrCodeInventory, "failed to read remote cache", err)
			}

			var text strings.Builder
			fmt.Fprintf(&text, "%d cached asset(s) in %s\n", len(items), root)
			for _, it := range items {
				fmt.Fprintf(&text, "  %-24s %s\n", it.Name, it.UID)
			}
			return e.out.Success(RemoteList{Root: root, Items: items}, text.String())
		},
	}
}

func newAssetsScaleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "scale <uid>",
		Short:         "Show the import scale applied to a remote asset",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(rootOpts, cmd)
			if err != nil {
				return err
			}
			uid := args[0]
			_, override := e.settings.ScaleOverrides[uid]
			scales := inventory.NewScaleOverrides(e.settings.DefaultScale, e.settings.ScaleOverrides)
			res := AssetScale{UID: uid, Scale: scales.Lookup(uid), Override: override}

			text := fmt.Sprintf("%s %g (default)\n", uid, res.Scale)
			if override {
				text = fmt.Sprintf("%s %g\n", uid, res.Scale)
			}
			return e.out.Success(res, text)
		},
	}
}
