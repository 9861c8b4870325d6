package controller

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/roach88/scenekit/internal/inventory"
)

// ErrNoFetcher is returned by AddAsset for items that need downloading when
// no fetcher is configured.
var ErrNoFetcher = errors.New("no asset fetcher configured")

// Control is the UI element that triggered a long-running operation.
type Control interface {
	SetDisabled(disabled bool)
}

// AddLocalAsset adds a mesh from the local inventory at unit scale.
func (c *Controller) AddLocalAsset(parent string, a inventory.Asset) (string, error) {
	return c.CreateMesh(parent, a.Path, 1)
}

// AddAsset adds a remote asset below parent: the mesh is fetched when it is
// not local yet, converted, and only then added with the asset's scale.
// Nothing is added when any step fails. ctrl, if not nil, is disabled for
// the duration and re-enabled on every outcome.
func (c *Controller) AddAsset(ctx context.Context, parent string, item inventory.RemoteItem, ctrl Control) (string, error) {
	if ctrl != nil {
		ctrl.SetDisabled(true)
		defer ctrl.SetDisabled(false)
	}

	src := item.Path
	if src == "" {
		if c.fetcher == nil {
			return "", fmt.Errorf("add asset %q: %w", item.UID, ErrNoFetcher)
		}
		c.logger.Info("downloading asset", "uid", item.UID, "name", item.Name)
		p, err := c.fetcher.Fetch(ctx, item.UID)
		if err != nil {
			c.logger.Error("download failed", "uid", item.UID, "error", err)
			return "", err
		}
		src = p
	}

	mesh, err := c.converter.Convert(ctx, src)
	if err != nil {
		c.logger.Error("conversion failed", "uid", item.UID, "mesh", src, "error", err)
		return "", err
	}
	if abs, err := filepath.Abs(mesh); err == nil {
		mesh = abs
	}
	return c.CreateMesh(parent, mesh, c.scales.Lookup(item.UID))
}

// AssetScale returns the unit scale used for the remote asset uid.
func (c *Controller) AssetScale(uid string) float32 {
	return c.scales.Lookup(uid)
}

// SetAssetScale overrides the unit scale of the remote asset uid.
func (c *Controller) SetAssetScale(uid string, scale float32) {
	c.scales.Set(uid, scale)
}
