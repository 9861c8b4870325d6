package inventory

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrAssetNotFound is returned by Find for names absent from a root.
var ErrAssetNotFound = errors.New("asset not found")

// Extensions lists the mesh formats picked up by a directory scan.
var Extensions = []string{".obj", ".stl", ".ply", ".glb", ".gltf", ".usd", ".usda", ".usdc"}

// Asset is one mesh file found under a root.
type Asset struct {
	// Name is the file name without extension.
	Name string `json:"name"`
	// Path is the absolute file path.
	Path string `json:"path"`
	// Ext is the lower-cased extension including the dot.
	Ext string `json:"ext"`
}

// List returns the assets under root sorted case-insensitively by name.
//
// A cached scan younger than the staleness window is returned as is unless
// refresh is set. A root that does not exist or is not a directory yields
// an empty list and is not cached.
func (s *Store) List(ctx context.Context, root string, refresh bool) ([]Asset, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		s.logger.Debug("asset root unavailable", "root", abs)
		return nil, nil
	}

	if !refresh {
		fresh, err := s.fresh(ctx, abs)
		if err != nil {
			return nil, err
		}
		if fresh {
			return s.cached(ctx, abs)
		}
	}

	assets, err := scan(ctx, abs, Extensions)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", abs, err)
	}
	if err := s.save(ctx, abs, assets); err != nil {
		return nil, err
	}
	s.logger.Info("asset scan complete", "root", abs, "assets", len(assets))
	return assets, nil
}

// Names returns the asset names under root in List order.
func (s *Store) Names(ctx context.Context, root string) ([]string, error) {
	assets, err := s.List(ctx, root, false)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	return names, nil
}

// Find returns the first asset under root whose name matches exactly.
func (s *Store) Find(ctx context.Context, root, name string) (Asset, error) {
	assets, err := s.List(ctx, root, false)
	if err != nil {
		return Asset{}, err
	}
	for _, a := range assets {
		if a.Name == name {
			return a, nil
		}
	}
	return Asset{}, fmt.Errorf("%w: %q under %s", ErrAssetNotFound, name, root)
}

// ScannedAt reports when root was last scanned.
func (s *Store) ScannedAt(ctx context.Context, root string) (time.Time, bool, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return time.Time{}, false, err
	}
	var nanos int64
	err = s.db.QueryRowContext(ctx, `SELECT scanned_at FROM scans WHERE root = ?`, abs).Scan(&nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read scan time: %w", err)
	}
	return time.Unix(0, nanos), true, nil
}

// Invalidate drops the cached scan of root.
func (s *Store) Invalidate(ctx context.Context, root string) error {
	abs, err := resolveRoot(root)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE root = ?`, abs); err != nil {
		return fmt.Errorf("invalidate %s: %w", abs, err)
	}
	return nil
}

func (s *Store) fresh(ctx context.Context, root string) (bool, error) {
	at, ok, err := s.ScannedAt(ctx, root)
	if err != nil || !ok {
		return false, err
	}
	return s.now().Sub(at) < s.staleness, nil
}

func (s *Store) cached(ctx context.Context, root string) ([]Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, name, ext FROM assets
		WHERE root = ?
		ORDER BY path ASC
	`, root)
	if err != nil {
		return nil, fmt.Errorf("read cached assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.Path, &a.Name, &a.Ext); err != nil {
			return nil, fmt.Errorf("scan cached asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cached assets: %w", err)
	}
	sortAssets(assets)
	return assets, nil
}

// save replaces the cached scan of root in one transaction.
func (s *Store) save(ctx context.Context, root string, assets []Asset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM assets WHERE root = ?`, root); err != nil {
		return fmt.Errorf("clear cached assets: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO scans (root, scanned_at, asset_count) VALUES (?, ?, ?)
		ON CONFLICT(root) DO UPDATE SET scanned_at = excluded.scanned_at, asset_count = excluded.asset_count
	`, root, s.now().UnixNano(), len(assets))
	if err != nil {
		return fmt.Errorf("record scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assets (root, path, name, ext) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare asset insert: %w", err)
	}
	defer stmt.Close()
	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx, root, a.Path, a.Name, a.Ext); err != nil {
			return fmt.Errorf("insert asset %s: %w", a.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// scan walks root and collects files whose extension is in exts.
func scan(ctx context.Context, root string, exts []string) ([]Asset, error) {
	var assets []Asset
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !slices.Contains(exts, ext) {
			return nil
		}
		base := filepath.Base(p)
		assets = append(assets, Asset{
			Name: strings.TrimSuffix(base, filepath.Ext(base)),
			Path: p,
			Ext:  ext,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortAssets(assets)
	return assets, nil
}

func sortAssets(assets []Asset) {
	slices.SortStableFunc(assets, func(a, b Asset) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.Path, b.Path),
		)
	})
}

func resolveRoot(root string) (string, error) {
	if strings.HasPrefix(root, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", root, err)
		}
		root = filepath.Join(home, strings.TrimPrefix(root, "~"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	return abs, nil
}
