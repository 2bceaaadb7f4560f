/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolve

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/noderesolve/cmd/render"
	"bennypowers.dev/noderesolve/resolver"
	"bennypowers.dev/noderesolve/testutil"
)

func TestResolve(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/resolver/project", "/project")
	r, err := resolver.New(mfs, nil)
	require.NoError(t, err)

	rows := Resolve(r, "/project/src", []string{"./feature", "dep", "fs", "nope"})
	require.Len(t, rows, 4)
	assert.Equal(t, render.StatusFound, rows[0].Status)
	assert.Equal(t, "/project/src/feature.js", rows[0].Target)
	assert.Equal(t, "dep", rows[1].Package)
	assert.Equal(t, render.StatusFound, rows[2].Status)
	assert.Equal(t, "/project/node_modules/fs/index.js", rows[2].Target)
	assert.Equal(t, render.StatusMissing, rows[3].Status)
}

func TestCmd(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("src/a.js", "")
	write("node_modules/dep/package.json", `{"name": "dep", "main": "main.js"}`)
	write("node_modules/dep/main.js", "")

	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetArgs([]string{"--base", dir, "--format", "json", "./src/a", "dep", "missing"})
	err := Cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolved), "expected ErrUnresolved, got %v", err)

	var rows []struct {
		Specifier string         `json:"specifier"`
		Result    map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 3)

	real, err := filepath.EvalSymlinks(filepath.Join(dir, "node_modules", "dep", "main.js"))
	require.NoError(t, err)
	assert.Equal(t, real, rows[1].Result["path"])
	assert.Equal(t, false, rows[2].Result["status"])
}
