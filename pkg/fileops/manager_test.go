package fileops

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/linuxautomation/autokit/pkg/errors"
	"github.com/linuxautomation/autokit/pkg/fileops/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/data"

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixtureFile struct {
	path string
	size int
	age  time.Duration
}

func setupFs(t *testing.T, files []fixtureFile, dirs ...string) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0755))
	for _, d := range dirs {
		require.NoError(t, fs.MkdirAll(filepath.Join(root, d), 0755))
	}
	for _, f := range files {
		p := filepath.Join(root, f.path)
		require.NoError(t, fs.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, afero.WriteFile(fs, p, make([]byte, f.size), 0644))
		mtime := fixedNow.Add(-f.age)
		require.NoError(t, fs.Chtimes(p, mtime, mtime))
	}
	return fs
}

func TestExtensionDir(t *testing.T) {
	for name, want := range map[string]string{
		"report.pdf":     "pdf",
		"archive.tar.gz": "gz",
		"Makefile":       NoExtensionDir,
		".bashrc":        NoExtensionDir,
		".config.yaml":   "yaml",
		"trailing.":      NoExtensionDir,
	} {
		assert.Equalf(t, want, ExtensionDir(name), "for %q", name)
	}
}

func TestOrganizeByExtension(t *testing.T) {
	fs := setupFs(t, []fixtureFile{
		{path: "a.txt"},
		{path: "b.txt"},
		{path: "c.jpg"},
		{path: "README"},
		{path: "sub/nested.txt"},
	})
	m := New(fs, WithClock(clock))

	res, err := m.OrganizeByExtension(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Organized)
	assert.Zero(t, res.Errors)
	assert.Contains(t, res.Details, "Moved c.jpg to jpg/")

	for _, p := range []string{"txt/a.txt", "txt/b.txt", "jpg/c.jpg", "no_extension/README", "sub/nested.txt"} {
		ok, err := afero.Exists(fs, filepath.Join(root, p))
		require.NoError(t, err)
		assert.Truef(t, ok, "expected %s", p)
	}
	ok, _ := afero.Exists(fs, filepath.Join(root, "a.txt"))
	assert.False(t, ok)
}

func TestOrganizeDoesNotOverwrite(t *testing.T) {
	fs := setupFs(t, []fixtureFile{
		{path: "a.txt", size: 3},
		{path: "txt/a.txt", size: 7},
	})
	m := New(fs)

	res, err := m.OrganizeByExtension(context.Background(), root)
	require.NoError(t, err)
	assert.Zero(t, res.Organized)
	assert.Equal(t, 1, res.Errors)
	assert.True(t, errors.Is(res.Err(), status.ErrDestinationExists))

	fi, err := fs.Stat(filepath.Join(root, "txt", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), fi.Size())
}

func TestOrganizeDryRun(t *testing.T) {
	fs := setupFs(t, []fixtureFile{{path: "a.txt"}})
	res, err := New(fs, WithDryRun(true)).OrganizeByExtension(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Organized)
	assert.True(t, res.DryRun)

	ok, _ := afero.Exists(fs, filepath.Join(root, "a.txt"))
	assert.True(t, ok)
	ok, _ = afero.DirExists(fs, filepath.Join(root, "txt"))
	assert.False(t, ok)
}

func TestMissingTarget(t *testing.T) {
	m := New(afero.NewMemMapFs())
	ctx := context.Background()

	_, err := m.OrganizeByExtension(ctx, "/nowhere")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = m.CleanupEmptyDirs(ctx, "/nowhere", true)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = m.CleanupOldFiles(ctx, "/nowhere", DefaultMaxAge)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = m.ChangePermissions(ctx, "/nowhere", 0700, false)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = m.FindLargeFiles(ctx, "/nowhere", 1)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestTargetIsAFile(t *testing.T) {
	fs := setupFs(t, []fixtureFile{{path: "plain"}})
	_, err := New(fs).CleanupOldFiles(context.Background(), filepath.Join(root, "plain"), time.Hour)
	assert.True(t, errors.Is(err, status.ErrNotDirectory))
}

func TestCleanupOldFiles(t *testing.T) {
	day := 24 * time.Hour
	fs := setupFs(t, []fixtureFile{
		{path: "old.log", size: 10, age: 31 * day},
		{path: "deep/er/old.bin", size: 5, age: 90 * day},
		{path: "fresh.log", size: 10, age: 29 * day},
		{path: "edge.log", size: 1, age: 30 * day},
	})
	m := New(fs, WithClock(clock))

	res, err := m.CleanupOldFiles(context.Background(), root, DefaultMaxAge)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, int64(15), res.FreedBytes)
	assert.Zero(t, res.Errors)
	sort.Strings(res.Details)
	assert.Equal(t, []string{"Deleted old.bin", "Deleted old.log"}, res.Details)

	for p, want := range map[string]bool{
		"old.log":         false,
		"deep/er/old.bin": false,
		"fresh.log":       true,
		"edge.log":        true,
	} {
		ok, err := afero.Exists(fs, filepath.Join(root, p))
		require.NoError(t, err)
		assert.Equalf(t, want, ok, "for %s", p)
	}
	// directories are left to CleanupEmptyDirs
	ok, _ := afero.DirExists(fs, filepath.Join(root, "deep", "er"))
	assert.True(t, ok)
}

func TestCleanupOldFilesDryRun(t *testing.T) {
	fs := setupFs(t, []fixtureFile{{path: "old.log", size: 4, age: 400 * time.Hour}})
	res, err := New(fs, WithClock(clock), WithDryRun(true)).CleanupOldFiles(context.Background(), root, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	ok, _ := afero.Exists(fs, filepath.Join(root, "old.log"))
	assert.True(t, ok)
}

func TestCleanupOldFilesNegativeAge(t *testing.T) {
	_, err := New(setupFs(t, nil)).CleanupOldFiles(context.Background(), root, -time.Second)
	assert.True(t, errors.Is(err, status.ErrInvalidThreshold))
}

func TestCleanupOldFilesCancelled(t *testing.T) {
	fs := setupFs(t, []fixtureFile{{path: "old.log", age: 1000 * time.Hour}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fs, WithClock(clock)).CleanupOldFiles(ctx, root, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	ok, _ := afero.Exists(fs, filepath.Join(root, "old.log"))
	assert.True(t, ok)
}

func TestCleanupEmptyDirs(t *testing.T) {
	fs := setupFs(t,
		[]fixtureFile{{path: "keep/file.txt"}},
		"empty", "chain/of/empty/dirs", "keep/empty-child",
	)
	m := New(fs)

	res, err := m.CleanupEmptyDirs(context.Background(), root, true)
	require.NoError(t, err)
	assert.Zero(t, res.Errors)
	// empty, chain, chain/of, chain/of/empty, chain/of/empty/dirs, keep/empty-child
	assert.Equal(t, 6, res.Removed)

	for p, want := range map[string]bool{
		"":                 true,
		"keep":             true,
		"keep/empty-child": false,
		"empty":            false,
		"chain":            false,
	} {
		ok, err := afero.DirExists(fs, filepath.Join(root, p))
		require.NoError(t, err)
		assert.Equalf(t, want, ok, "for %q", p)
	}
}

func TestCleanupEmptyDirsNonRecursive(t *testing.T) {
	fs := setupFs(t, nil, "empty", "parent/child")
	res, err := New(fs).CleanupEmptyDirs(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)

	ok, _ := afero.DirExists(fs, filepath.Join(root, "parent", "child"))
	assert.True(t, ok)
}

func TestCleanupEmptyDirsDryRunSeesCascade(t *testing.T) {
	fs := setupFs(t, nil, "a/b/c")
	res, err := New(fs, WithDryRun(true)).CleanupEmptyDirs(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Removed)

	ok, _ := afero.DirExists(fs, filepath.Join(root, "a", "b", "c"))
	assert.True(t, ok)
}

func TestChangePermissions(t *testing.T) {
	fs := setupFs(t, []fixtureFile{{path: "dir/a"}, {path: "dir/sub/b"}, {path: "single"}})
	m := New(fs)
	ctx := context.Background()

	res, err := m.ChangePermissions(ctx, filepath.Join(root, "single"), 0600, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changed)
	assert.Equal(t, "0600", res.Mode)
	fi, _ := fs.Stat(filepath.Join(root, "single"))
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	res, err = m.ChangePermissions(ctx, filepath.Join(root, "dir"), 0750, true)
	require.NoError(t, err)
	// a, sub, sub/b
	assert.Equal(t, 3, res.Changed)
	fi, _ = fs.Stat(filepath.Join(root, "dir", "sub", "b"))
	assert.Equal(t, os.FileMode(0750), fi.Mode().Perm())
	fi, _ = fs.Stat(filepath.Join(root, "dir"))
	assert.Equal(t, os.FileMode(0755), fi.Mode().Perm(), "root of a recursive change is left alone")
}

func TestFindLargeFiles(t *testing.T) {
	fs := setupFs(t, []fixtureFile{
		{path: "small", size: 10},
		{path: "exact", size: 100},
		{path: "big/one", size: 150},
		{path: "big/two", size: 300},
		{path: "big/three", size: 150},
	})
	large, err := New(fs).FindLargeFiles(context.Background(), root, 100)
	require.NoError(t, err)
	assert.Equal(t, []LargeFile{
		{Path: "/data/big/two", Size: 300},
		{Path: "/data/big/one", Size: 150},
		{Path: "/data/big/three", Size: 150},
	}, large)

	_, err = New(fs).FindLargeFiles(context.Background(), root, -1)
	assert.True(t, errors.Is(err, status.ErrInvalidThreshold))
}
