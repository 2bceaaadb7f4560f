/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package testutil provides testing utilities for noderesolve.
package testutil

import (
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/noderesolve/internal/mapfs"
)

// updateGolden enables updating golden files with actual output when -update flag is set.
var updateGolden = flag.Bool("update", false, "update golden files with actual output")

// testdataPath finds rel under the testdata directory of the module,
// whichever package the test runs in. The second result reports whether
// the path exists.
func testdataPath(rel string) (string, bool) {
	candidates := []string{
		filepath.Join("testdata", rel),
		filepath.Join("..", "testdata", rel),
		filepath.Join("..", "..", "testdata", rel),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return candidates[0], false
}

// NewFixtureFS loads fixture files from testdata and returns a MapFileSystem
// with files mapped to the specified root path.
func NewFixtureFS(t *testing.T, fixtureDir string, rootPath string) *mapfs.MapFileSystem {
	t.Helper()

	fixturePath, ok := testdataPath(fixtureDir)
	if !ok {
		t.Fatalf("Could not find fixtures at %s (tried all paths)", fixtureDir)
	}

	mfs := mapfs.New()
	err := filepath.WalkDir(fixturePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(fixturePath, path)
		if err != nil {
			return err
		}
		mfs.AddFile(filepath.Join(rootPath, relPath), string(content), 0644)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to load fixtures from %s: %v", fixtureDir, err)
	}
	return mfs
}

// CopyFixture copies a fixture directory into a fresh temporary directory
// on disk and returns its path, for tests that run against the real
// filesystem.
func CopyFixture(t *testing.T, fixtureDir string) string {
	t.Helper()

	fixturePath, ok := testdataPath(fixtureDir)
	if !ok {
		t.Fatalf("Could not find fixtures at %s (tried all paths)", fixtureDir)
	}
	dir := t.TempDir()
	if err := os.CopyFS(dir, os.DirFS(fixturePath)); err != nil {
		t.Fatalf("Failed to copy fixtures from %s: %v", fixtureDir, err)
	}
	return dir
}

// Golden compares actual against the golden file at goldenPath under
// testdata. With -update the golden file is rewritten instead.
func Golden(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()

	if *updateGolden {
		path, _ := testdataPath(filepath.Dir(goldenPath))
		path = filepath.Join(path, filepath.Base(goldenPath))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for golden file %s: %v", goldenPath, err)
		}
		if err := os.WriteFile(path, actual, 0644); err != nil {
			t.Fatalf("Failed to write golden file %s: %v", goldenPath, err)
		}
		t.Logf("Updated golden file: %s", path)
		return
	}

	path, ok := testdataPath(goldenPath)
	if !ok {
		t.Fatalf("Missing golden file %s (run with -update)", goldenPath)
	}
	expected, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden file %s: %v", goldenPath, err)
	}
	if string(expected) != string(actual) {
		t.Errorf("Output does not match %s\ngot:\n%s\nwant:\n%s", goldenPath, actual, expected)
	}
}
