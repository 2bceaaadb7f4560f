/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fscache

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/internal/mapfs"
	"bennypowers.dev/noderesolve/packagejson"
)

func newTestFS() *mapfs.MapFileSystem {
	mfs := mapfs.New()
	mfs.AddFile("/proj/index.js", "export {}", 0644)
	mfs.AddFile("/proj/package.json", `{"name": "proj"}`, 0644)
	mfs.AddFile("/proj/bad/package.json", `{"name": `, 0644)
	mfs.AddFile("/proj/packages/real/lib/a.js", "", 0644)
	mfs.AddDir("/proj/empty", 0755)
	mfs.AddSymlink("/proj/node_modules/real", "../packages/real")
	mfs.AddSymlink("/proj/node_modules/abs", "/proj/packages/real/lib")
	return mfs
}

func TestStatus(t *testing.T) {
	c := New(newTestFS())

	tests := []struct {
		path string
		want Status
	}{
		{"/proj/index.js", File},
		{"/proj", Directory},
		{"/proj/empty", Directory},
		{"/proj/missing.js", Missing},
		{"/proj/index.js/child", Missing},
		{"/proj/node_modules/real", Directory},
		{"/proj/node_modules/real/lib/a.js", File},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := c.Status(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_Memoized(t *testing.T) {
	c := New(newTestFS())

	_, err := c.Status("/proj/missing.js")
	require.NoError(t, err)
	first := c.Stats()

	s, err := c.Status("/proj/missing.js")
	require.NoError(t, err)
	assert.Equal(t, Missing, s)

	second := c.Stats()
	assert.Equal(t, first.Probes, second.Probes, "second lookup must not probe")
	assert.Equal(t, first.Hits+1, second.Hits)
}

func TestStatus_AccessError(t *testing.T) {
	mfs := newTestFS()
	mfs.Deny("/proj/secret")
	c := New(mfs)

	_, err := c.Status("/proj/secret/a.js")

	var accessErr *AccessError
	require.True(t, errors.As(err, &accessErr), "expected *AccessError, got %v", err)
	assert.Equal(t, "stat", accessErr.Op)
	assert.ErrorIs(t, err, iofs.ErrPermission)

	_, again := c.Status("/proj/secret/a.js")
	assert.Equal(t, err, again, "failures are cached too")
}

func TestStatus_Concurrent(t *testing.T) {
	c := New(newTestFS())

	var wg sync.WaitGroup
	for range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.Status("/proj/index.js")
			assert.NoError(t, err)
			assert.Equal(t, File, s)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), c.Stats().Probes)
}

func TestReadDescriptor(t *testing.T) {
	c := New(newTestFS())

	pkg, err := c.ReadDescriptor("/proj/package.json")
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, "proj", pkg.Name)

	again, err := c.ReadDescriptor("/proj/package.json")
	require.NoError(t, err)
	assert.Same(t, pkg, again)

	missing, err := c.ReadDescriptor("/proj/empty/package.json")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReadDescriptor_Malformed(t *testing.T) {
	c := New(newTestFS())

	pkg, err := c.ReadDescriptor("/proj/bad/package.json")

	var syntaxErr *packagejson.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	require.NotNil(t, pkg)
	assert.NotNil(t, pkg.Malformed)

	// Unrelated entries are unaffected.
	good, err := c.ReadDescriptor("/proj/package.json")
	require.NoError(t, err)
	assert.Equal(t, "proj", good.Name)
}

func TestReadDir(t *testing.T) {
	c := New(newTestFS())

	entries, err := c.ReadDir("/proj/packages/real/lib")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.js", entries[0].Name())

	entries, err = c.ReadDir("/proj/nope")
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRealPath(t *testing.T) {
	c := New(newTestFS())

	tests := []struct {
		path string
		want string
	}{
		{"/proj/index.js", "/proj/index.js"},
		{"/proj/node_modules/real/lib/a.js", "/proj/packages/real/lib/a.js"},
		{"/proj/node_modules/abs/a.js", "/proj/packages/real/lib/a.js"},
		{"/proj/node_modules/real", "/proj/packages/real"},
		{"/proj/missing/x.js", "/proj/missing/x.js"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := c.RealPath(filepath.FromSlash(tt.path))
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestRealPath_Loop(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddSymlink("/loop/a", "b")
	mfs.AddSymlink("/loop/b", "a")
	c := New(mfs)

	_, err := c.RealPath("/loop/a/x.js")
	var accessErr *AccessError
	require.True(t, errors.As(err, &accessErr))
	assert.ErrorIs(t, err, syscall.ELOOP)
}

func TestRealPath_Memoized(t *testing.T) {
	c := New(newTestFS())

	_, err := c.RealPath("/proj/node_modules/real/lib/a.js")
	require.NoError(t, err)
	probes := c.Stats().Probes

	_, err = c.RealPath("/proj/node_modules/real/lib/a.js")
	require.NoError(t, err)
	assert.Equal(t, probes, c.Stats().Probes)

	// Shared prefixes reuse their link lookups.
	_, err = c.RealPath("/proj/node_modules/real/lib")
	require.NoError(t, err)
	assert.Equal(t, probes, c.Stats().Probes)
}

func TestRealPath_OS(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "packages", "pkg")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "index.js"), nil, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0755))
	if err := os.Symlink(filepath.Join("..", "packages", "pkg"), filepath.Join(dir, "node_modules", "pkg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	c := New(fs.NewOSFileSystem())
	got, err := c.RealPath(filepath.Join(dir, "node_modules", "pkg", "index.js"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(target, "index.js"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
