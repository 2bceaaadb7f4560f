/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	for _, data := range []string{`{}`, `null`, `{"unknown": 1}`} {
		t.Run(data, func(t *testing.T) {
			cfg, err := Parse([]byte(data))
			require.NoError(t, err)
			assert.Equal(t, Default(), cfg)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{".js", ".json", ".node"}, cfg.Extensions)
	assert.Equal(t, []string{"main"}, cfg.MainFields)
	assert.Equal(t, []string{"index"}, cfg.MainFiles)
	assert.Equal(t, []string{"node", "require"}, cfg.Conditions)
	assert.Equal(t, []string{"node_modules"}, cfg.Modules)
	assert.Equal(t, "package.json", cfg.DescriptionFile)
	assert.True(t, cfg.Symlinks)
	assert.False(t, cfg.Builtins)
	assert.False(t, cfg.PreferRelative)
	assert.False(t, cfg.EnforcesExtension())
	assert.Zero(t, cfg.ResultCacheSize)
}

func TestParse_Options(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"extensions": ["ts", ".js", ""],
		"mainFields": ["module", "main"],
		"conditions": ["import"],
		"symlinks": false,
		"alias": {"@": "./src", "@/lib": ["./lib", "./vendor"], "fs": false}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{".ts", ".js", ""}, cfg.Extensions)
	assert.True(t, cfg.EnforcesExtension(), `"" in extensions enables enforceExtension`)
	assert.Equal(t, []string{"module", "main"}, cfg.MainFields)
	assert.Equal(t, []string{"import"}, cfg.Conditions)
	assert.False(t, cfg.Symlinks)

	entries := cfg.AliasEntries()
	require.Len(t, entries, 3)
	assert.Equal(t, "@/lib", entries[0].Prefix)
	assert.Equal(t, []string{"./lib", "./vendor"}, entries[0].Targets)
	assert.Equal(t, "fs", entries[1].Prefix)
	assert.True(t, entries[1].Ignore)
	assert.Equal(t, "@", entries[2].Prefix)
}

func TestParse_EnforceExtensionOverride(t *testing.T) {
	cfg, err := Parse([]byte(`{"extensions": ["", ".js"], "enforceExtension": false}`))
	require.NoError(t, err)
	assert.False(t, cfg.EnforcesExtension())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		field string
	}{
		{"malformed json", `{"extensions": [`, ""},
		{"not an object", `[]`, ""},
		{"empty input", ``, ""},
		{"wrong shape", `{"mainFields": "main"}`, ""},
		{"wrong bool", `{"symlinks": "yes"}`, ""},
		{"alias true", `{"alias": {"a": true}}`, ""},
		{"descriptor path", `{"descriptionFile": "pkg/package.json"}`, "descriptionFile"},
		{"empty main file", `{"mainFiles": [""]}`, "mainFiles"},
		{"empty alias key", `{"alias": {"": "./x"}}`, "alias"},
		{"empty alias list", `{"fallback": {"x": []}}`, "fallback"},
		{"empty alias target", `{"alias": {"x": ""}}`, "alias"},
		{"empty alias in list", `{"alias": {"x": ["./a", ""]}}`, "alias"},
		{"relative tsconfig", `{"tsconfig": "tsconfig.json"}`, "tsconfig"},
		{"negative cache", `{"resultCacheSize": -1}`, "resultCacheSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "expected *config.Error, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestParseYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte("extensions: [ts]\nalias:\n  fs: false\n  util: ./util\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{".ts"}, cfg.Extensions)
	assert.True(t, cfg.Alias["fs"].Ignore)
	assert.Equal(t, []string{"./util"}, cfg.Alias["util"].Targets)

	_, err = ParseYAML([]byte("alias:\n  fs: true\n"))
	assert.Error(t, err)

	cfg, err = ParseYAML([]byte("alias:\n  fs: null\n  ws: ~\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Alias["fs"].Ignore)
	assert.True(t, cfg.Alias["ws"].Ignore)
}

func TestParse_NullAlias(t *testing.T) {
	cfg, err := Parse([]byte(`{"alias": {"x": null}, "fallback": {"y": null}}`))
	require.NoError(t, err)

	assert.Equal(t, AliasTarget{Ignore: true}, cfg.Alias["x"])
	assert.Equal(t, AliasTarget{Ignore: true}, cfg.Fallback["y"])
}

func TestAliasTarget_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]AliasTarget{
		"a": {Targets: []string{"./a"}},
		"b": {Targets: []string{"./b", "./c"}},
		"c": {Ignore: true},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "./a", "b": ["./b", "./c"], "c": false}`, string(data))
}

func TestClone(t *testing.T) {
	cfg, err := Parse([]byte(`{"extensionAlias": {".js": [".ts"]}, "enforceExtension": true}`))
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.Extensions[0] = ".mjs"
	clone.ExtensionAlias[".js"][0] = ".mts"
	*clone.EnforceExtension = false

	assert.Equal(t, ".js", cfg.Extensions[0])
	assert.Equal(t, ".ts", cfg.ExtensionAlias[".js"][0])
	assert.True(t, *cfg.EnforceExtension)
}
