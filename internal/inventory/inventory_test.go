package inventory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "assets.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("mesh"), 0o644))
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	tests := []struct{ name, want string }{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, s.verifyPragma(tt.name, tt.want))
		})
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestList_ScansMatchingExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Mug.OBJ"))
	touch(t, filepath.Join(root, "nested", "deep", "bowl.glb"))
	touch(t, filepath.Join(root, "apple.stl"))
	touch(t, filepath.Join(root, "readme.txt"))
	touch(t, filepath.Join(root, "scene.usda"))

	s := openTestStore(t)
	assets, err := s.List(context.Background(), root, false)
	require.NoError(t, err)

	var names []string
	for _, a := range assets {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"apple", "bowl", "Mug", "scene"}, names)
	assert.Equal(t, ".obj", assets[2].Ext)
	assert.True(t, filepath.IsAbs(assets[0].Path))
}

func TestList_MissingRootIsEmpty(t *testing.T) {
	s := openTestStore(t)
	missing := filepath.Join(t.TempDir(), "nope")

	assets, err := s.List(context.Background(), missing, false)
	require.NoError(t, err)
	assert.Empty(t, assets)

	_, ok, err := s.ScannedAt(context.Background(), missing)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestList_UsesCacheUntilStale(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.obj"))

	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := openTestStore(t, WithClock(clock.now), WithStaleness(time.Hour))

	first, err := s.List(ctx, root, false)
	require.NoError(t, err)
	require.Len(t, first, 1)

	touch(t, filepath.Join(root, "b.obj"))

	clock.t = clock.t.Add(30 * time.Minute)
	cached, err := s.List(ctx, root, false)
	require.NoError(t, err)
	assert.Len(t, cached, 1, "fresh scan reused")

	clock.t = clock.t.Add(time.Hour)
	rescanned, err := s.List(ctx, root, false)
	require.NoError(t, err)
	assert.Len(t, rescanned, 2, "stale scan replaced")

	at, ok, err := s.ScannedAt(ctx, root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(clock.t))
}

func TestList_RefreshForcesRescan(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.obj"))

	s := openTestStore(t)
	_, err := s.List(ctx, root, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "a.obj")))
	touch(t, filepath.Join(root, "c.ply"))

	assets, err := s.List(ctx, root, true)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "c", assets[0].Name)

	cached, err := s.List(ctx, root, false)
	require.NoError(t, err)
	assert.Equal(t, assets, cached)
}

func TestList_CacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.obj"))
	db := filepath.Join(t.TempDir(), "assets.db")

	s1, err := Open(db)
	require.NoError(t, err)
	_, err = s1.List(ctx, root, false)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	touch(t, filepath.Join(root, "b.obj"))

	s2, err := Open(db)
	require.NoError(t, err)
	defer s2.Close()
	assets, err := s2.List(ctx, root, false)
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.obj"))

	s := openTestStore(t)
	_, err := s.List(ctx, root, false)
	require.NoError(t, err)
	touch(t, filepath.Join(root, "b.obj"))

	require.NoError(t, s.Invalidate(ctx, root))
	assets, err := s.List(ctx, root, false)
	require.NoError(t, err)
	assert.Len(t, assets, 2)
}

func TestFindAndNames(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, filepath.Join(root, "mug.obj"))
	touch(t, filepath.Join(root, "plate.stl"))

	s := openTestStore(t)
	names, err := s.Names(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"mug", "plate"}, names)

	a, err := s.Find(ctx, root, "plate")
	require.NoError(t, err)
	assert.Equal(t, ".stl", a.Ext)

	_, err = s.Find(ctx, root, "fork")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestCacheFetcher(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	touch(t, filepath.Join(root, "hf-v1", "uid-b", "meshes", "banana.glb"))
	touch(t, filepath.Join(root, "hf-v1", "uid-a", "apple.obj"))
	touch(t, filepath.Join(root, "hf-v1", "uid-empty", "notes.txt"))
	touch(t, filepath.Join(root, "other", "uid-a", "apple-copy.obj"))

	f := NewCacheFetcher(root)

	p, err := f.Fetch(ctx, "uid-b")
	require.NoError(t, err)
	assert.Equal(t, "banana.glb", filepath.Base(p))

	_, err = f.Fetch(ctx, "uid-empty")
	assert.True(t, IsCode(err, ErrCodeDownload))
	assert.ErrorIs(t, err, ErrNotCached)

	_, err = f.Fetch(ctx, "../escape")
	assert.True(t, IsCode(err, ErrCodeDownload))

	items, err := f.ListLocal(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "apple", items[0].Name)
	assert.Equal(t, "uid-a", items[0].UID)
	assert.True(t, items[1].Local())
}

func TestCacheFetcher_MissingRoot(t *testing.T) {
	f := NewCacheFetcher(filepath.Join(t.TempDir(), "missing"))

	items, err := f.ListLocal(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.Fetch(context.Background(), "uid")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestPassthroughConverter(t *testing.T) {
	dir := t.TempDir()
	obj := filepath.Join(dir, "mug.obj")
	touch(t, obj)
	glb := filepath.Join(dir, "mug.glb")
	touch(t, glb)

	var c Converter = PassthroughConverter{}
	got, err := c.Convert(context.Background(), obj)
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	_, err = c.Convert(context.Background(), glb)
	assert.True(t, IsCode(err, ErrCodeConversion))

	_, err = c.Convert(context.Background(), filepath.Join(dir, "gone.stl"))
	assert.True(t, IsCode(err, ErrCodeConversion))
}

func TestScaleOverrides(t *testing.T) {
	s := NewScaleOverrides(0, map[string]float32{"uid-a": 0.5, "uid-bad": -1})
	assert.Equal(t, DefaultScale, s.Default())
	assert.Equal(t, float32(0.5), s.Lookup("uid-a"))
	assert.Equal(t, DefaultScale, s.Lookup("uid-bad"))

	s.Set("uid-b", 2)
	assert.Equal(t, float32(2), s.Lookup("uid-b"))
	s.Set("uid-b", 0)
	assert.Equal(t, DefaultScale, s.Lookup("uid-b"))

	all := s.All()
	all["uid-a"] = 9
	assert.Equal(t, float32(0.5), s.Lookup("uid-a"))
}
