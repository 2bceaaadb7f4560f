/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package tsconfig

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/internal/mapfs"
)

func newFS(t *testing.T, files map[string]string) *mapfs.MapFileSystem {
	t.Helper()
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
	mfs := mapfs.New()
	for p, content := range files {
		mfs.AddFile(p, content, 0644)
	}
	return mfs
}

// joinExtends finds relative "extends" entries, with or without ".json".
func joinExtends(mfs *mapfs.MapFileSystem) ExtendsFunc {
	return func(dir, request string) (string, bool, error) {
		p := filepath.Join(dir, request)
		for _, candidate := range []string{p, p + ".json"} {
			if _, err := mfs.Stat(candidate); err == nil {
				return candidate, true, nil
			}
		}
		return "", false, nil
	}
}

func mustLoad(t *testing.T, files map[string]string, path string) *Config {
	t.Helper()
	mfs := newFS(t, files)
	cfg, err := Load(mfs.ReadFile, path, joinExtends(mfs))
	require.NoError(t, err)
	return cfg
}

func TestLoad_WildcardPaths(t *testing.T) {
	cfg := mustLoad(t, map[string]string{
		"/app/tsconfig.json": `{
			// comments and trailing commas are allowed
			"compilerOptions": {
				"baseUrl": ".",
				"paths": {
					"@lib/*": ["src/lib/*", "vendor/*"],
					"@lib/core/*": ["core/*"],
					"config": ["src/config.ts"],
					"*.css": ["styles/*.css"],
				},
			},
		}`,
	}, "/app/tsconfig.json")

	assert.Equal(t, "/app", cfg.BaseURL)
	assert.Equal(t, []string{"/app/core/io", "/app/src/lib/core/io", "/app/vendor/core/io"}, cfg.Candidates("@lib/core/io"))
	assert.Equal(t, []string{"/app/src/lib/util", "/app/vendor/util"}, cfg.Candidates("@lib/util"))
	assert.Equal(t, []string{"/app/src/config.ts"}, cfg.Candidates("config"))
	assert.Equal(t, []string{"/app/styles/theme.css"}, cfg.Candidates("theme.css"))
	assert.Empty(t, cfg.Candidates("other"))
	assert.Empty(t, cfg.Candidates("configs"))
}

func TestLoad_MappingOrder(t *testing.T) {
	cfg := mustLoad(t, map[string]string{
		"/app/tsconfig.json": `{"compilerOptions": {"paths": {
			"*": ["types/*"],
			"a/*": ["a/*"],
			"a/b/*": ["ab/*"],
			"a/b/c": ["abc"]
		}}}`,
	}, "/app/tsconfig.json")

	var patterns []string
	for _, m := range cfg.Mappings {
		patterns = append(patterns, m.Pattern)
	}
	assert.Equal(t, []string{"a/b/c", "a/b/*", "a/*", "*"}, patterns)
	assert.Equal(t, []string{"/app/abc", "/app/ab/c", "/app/a/b/c", "/app/types/a/b/c"}, cfg.Candidates("a/b/c"))
}

func TestLoad_BaseURLOnly(t *testing.T) {
	cfg := mustLoad(t, map[string]string{
		"/app/tsconfig.json": `{"compilerOptions": {"baseUrl": "./src"}}`,
	}, "/app/tsconfig.json")

	assert.Equal(t, "/app/src", cfg.BaseURL)
	assert.Empty(t, cfg.Mappings)
	assert.Empty(t, cfg.Candidates("anything"))
}

func TestLoad_PathsWithoutBaseURL(t *testing.T) {
	cfg := mustLoad(t, map[string]string{
		"/app/config/tsconfig.json": `{"compilerOptions": {"paths": {"~/*": ["../src/*"]}}}`,
	}, "/app/config/tsconfig.json")

	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, []string{"/app/src/x"}, cfg.Candidates("~/x"))
}

func TestLoad_ExtendsChain(t *testing.T) {
	files := map[string]string{
		"/app/base/tsconfig.json": `{"compilerOptions": {"baseUrl": "./src", "paths": {"@base/*": ["*"]}}}`,
		"/app/mid.json":           `{"extends": "./base/tsconfig"}`,
		"/app/tsconfig.json":      `{"extends": "./mid.json", "compilerOptions": {"paths": {"@app/*": ["app/*"]}}}`,
	}

	t.Run("inherits base url", func(t *testing.T) {
		cfg := mustLoad(t, files, "/app/tsconfig.json")
		assert.Equal(t, "/app/base/src", cfg.BaseURL)
		assert.Equal(t, []string{"/app/base/src/app/x"}, cfg.Candidates("@app/x"))
		assert.Empty(t, cfg.Candidates("@base/x"), "own paths replace inherited paths")
	})

	t.Run("inherits paths", func(t *testing.T) {
		cfg := mustLoad(t, files, "/app/mid.json")
		assert.Equal(t, []string{"/app/base/src/x"}, cfg.Candidates("@base/x"))
	})

	t.Run("own base url wins", func(t *testing.T) {
		files := map[string]string{
			"/app/base/tsconfig.json": `{"compilerOptions": {"baseUrl": "./src", "paths": {"@base/*": ["*"]}}}`,
			"/app/tsconfig.json":      `{"extends": "./base/tsconfig.json", "compilerOptions": {"baseUrl": "lib"}}`,
		}
		cfg := mustLoad(t, files, "/app/tsconfig.json")
		assert.Equal(t, "/app/lib", cfg.BaseURL)
		assert.Equal(t, []string{"/app/lib/x"}, cfg.Candidates("@base/x"))
	})

	t.Run("later extends entry wins", func(t *testing.T) {
		files := map[string]string{
			"/app/a.json":        `{"compilerOptions": {"baseUrl": "a"}}`,
			"/app/b.json":        `{"compilerOptions": {"baseUrl": "b"}}`,
			"/app/tsconfig.json": `{"extends": ["./a", "./b"]}`,
		}
		cfg := mustLoad(t, files, "/app/tsconfig.json")
		assert.Equal(t, "/app/b", cfg.BaseURL)
	})

	t.Run("missing parent is skipped", func(t *testing.T) {
		cfg := mustLoad(t, map[string]string{
			"/app/tsconfig.json": `{"extends": "./nope", "compilerOptions": {"baseUrl": "."}}`,
		}, "/app/tsconfig.json")
		assert.Equal(t, "/app", cfg.BaseURL)
	})
}

func TestLoad_Errors(t *testing.T) {
	mfs := newFS(t, map[string]string{
		"/app/a.json":       `{"extends": "./b"}`,
		"/app/b.json":       `{"extends": "./a.json"}`,
		"/app/invalid.json": `{"compilerOptions": `,
		"/app/extends.json": `{"extends": 42}`,
	})

	_, err := Load(mfs.ReadFile, "/app/a.json", joinExtends(mfs))
	assert.ErrorIs(t, err, ErrExtendsCycle)

	_, err = Load(mfs.ReadFile, "/app/invalid.json", joinExtends(mfs))
	assert.Error(t, err)

	_, err = Load(mfs.ReadFile, "/app/extends.json", joinExtends(mfs))
	assert.Error(t, err)

	_, err = Load(mfs.ReadFile, "/app/missing.json", joinExtends(mfs))
	assert.Error(t, err)
}

func TestLoad_InvalidPatterns(t *testing.T) {
	cfg := mustLoad(t, map[string]string{
		"/app/tsconfig.json": `{"compilerOptions": {"paths": {
			"a/*/b/*": ["x/*"],
			"c/*": ["c/*/*", "d/*"]
		}}}`,
	}, "/app/tsconfig.json")

	require.Len(t, cfg.Mappings, 1)
	assert.Equal(t, []string{"/app/d/z"}, cfg.Candidates("c/z"))
}
