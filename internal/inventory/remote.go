package inventory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Error codes for remote asset failures.
const (
	ErrCodeDownload   = "DOWNLOAD_FAILED"
	ErrCodeConversion = "CONVERSION_FAILED"
)

// ErrNotCached is returned by CacheFetcher for assets that have not been
// downloaded.
var ErrNotCached = errors.New("asset is not in the local cache")

// RemoteExtensions lists the formats a downloaded asset may arrive in.
var RemoteExtensions = []string{".glb", ".gltf", ".obj", ".ply"}

// AssetError reports a failed fetch or conversion.
type AssetError struct {
	Code  string
	Asset string
	Err   error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Asset, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err carries an *AssetError with the given code.
func IsCode(err error, code string) bool {
	var ae *AssetError
	return errors.As(err, &ae) && ae.Code == code
}

// RemoteItem is an asset identified by a remote UID.
type RemoteItem struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	// Path is the local mesh, empty until downloaded.
	Path string `json:"path,omitempty"`
}

// Local reports whether the item has been downloaded.
func (it RemoteItem) Local() bool {
	return it.Path != ""
}

// Fetcher makes a remote asset available as a local file.
type Fetcher interface {
	Fetch(ctx context.Context, uid string) (string, error)
}

// Converter turns a mesh into a format the exporter accepts. It returns the
// path of the converted file, which may be src itself.
type Converter interface {
	Convert(ctx context.Context, src string) (string, error)
}

// CacheFetcher resolves assets from a download cache laid out as
// <root>/<collection>/<uid>/**/<mesh>. It never downloads.
type CacheFetcher struct {
	root string
}

// NewCacheFetcher returns a fetcher reading the cache at root.
func NewCacheFetcher(root string) *CacheFetcher {
	return &CacheFetcher{root: root}
}

// Root returns the cache directory.
func (f *CacheFetcher) Root() string {
	return f.root
}

// Fetch implements Fetcher.
func (f *CacheFetcher) Fetch(ctx context.Context, uid string) (string, error) {
	p, err := f.Locate(ctx, uid)
	if err != nil {
		return "", &AssetError{Code: ErrCodeDownload, Asset: uid, Err: err}
	}
	if p == "" {
		return "", &AssetError{Code: ErrCodeDownload, Asset: uid, Err: ErrNotCached}
	}
	return p, nil
}

// Locate returns the first mesh file cached for uid, or "" when there is
// none.
func (f *CacheFetcher) Locate(ctx context.Context, uid string) (string, error) {
	if uid == "" || strings.ContainsAny(uid, `/\`) {
		return "", fmt.Errorf("invalid uid %q", uid)
	}
	collections, err := os.ReadDir(f.root)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	for _, c := range collections {
		if !c.IsDir() {
			continue
		}
		dir := filepath.Join(f.root, c.Name(), uid)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		assets, err := scan(ctx, dir, RemoteExtensions)
		if err != nil {
			return "", err
		}
		if len(assets) > 0 {
			return assets[0].Path, nil
		}
	}
	return "", nil
}

// ListLocal returns every cached asset, one per UID, sorted
// case-insensitively by name.
func (f *CacheFetcher) ListLocal(ctx context.Context) ([]RemoteItem, error) {
	collections, err := os.ReadDir(f.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]RemoteItem)
	for _, c := range collections {
		if !c.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(f.root, c.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if _, ok := seen[e.Name()]; ok {
				continue
			}
			p, err := f.Locate(ctx, e.Name())
			if err != nil {
				return nil, err
			}
			if p == "" {
				continue
			}
			base := filepath.Base(p)
			seen[e.Name()] = RemoteItem{
				UID:  e.Name(),
				Name: strings.TrimSuffix(base, filepath.Ext(base)),
				Path: p,
			}
		}
	}

	items := make([]RemoteItem, 0, len(seen))
	for _, it := range seen {
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b RemoteItem) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			cmp.Compare(a.UID, b.UID),
		)
	})
	return items, nil
}

// PassthroughConverter accepts meshes already in an exportable format and
// rejects everything else.
type PassthroughConverter struct{}

// ExportFormats are the mesh formats the exporter reads directly.
var ExportFormats = []string{".obj", ".stl"}

// Convert implements Converter.
func (PassthroughConverter) Convert(_ context.Context, src string) (string, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if !slices.Contains(ExportFormats, ext) {
		return "", &AssetError{
			Code:  ErrCodeConversion,
			Asset: src,
			Err:   fmt.Errorf("no converter for %q meshes", ext),
		}
	}
	if _, err := os.Stat(src); err != nil {
		return "", &AssetError{Code: ErrCodeConversion, Asset: src, Err: err}
	}
	return src, nil
}
