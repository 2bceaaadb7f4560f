/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"errors"
	"io"
	"os"
	"slices"
	"testing"

	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/testutil"
)

func TestLoad_YAML(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/config/yaml", "/project")

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if !slices.Equal(cfg.Extensions, []string{".ts", ".js"}) {
		t.Errorf("expected extensions [.ts .js], got %v", cfg.Extensions)
	}

	if !slices.Equal(cfg.MainFields, []string{"browser", "module", "main"}) {
		t.Errorf("unexpected mainFields %v", cfg.MainFields)
	}

	if !slices.Equal(cfg.Conditions, []string{"import", "browser"}) {
		t.Errorf("unexpected conditions %v", cfg.Conditions)
	}

	if !cfg.PreferRelative {
		t.Error("expected preferRelative to be true")
	}

	if cfg.ResultCacheSize != 256 {
		t.Errorf("expected resultCacheSize 256, got %d", cfg.ResultCacheSize)
	}

	if !cfg.Symlinks {
		t.Error("expected symlinks to keep its default")
	}

	if got := cfg.Alias["fs"]; !got.Ignore {
		t.Errorf("expected fs alias to be ignored, got %+v", got)
	}

	if got := cfg.Alias["lodash"].Targets; !slices.Equal(got, []string{"lodash-es", "lodash"}) {
		t.Errorf("unexpected lodash alias targets %v", got)
	}

	if got := cfg.ExtensionAlias[".js"]; !slices.Equal(got, []string{".ts", ".js"}) {
		t.Errorf("unexpected extensionAlias %v", got)
	}
}

func TestLoad_JSONC(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/config/jsonc", "/project")

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if cfg.Symlinks {
		t.Error("expected symlinks to be false")
	}

	if !slices.Equal(cfg.Modules, []string{"node_modules", "/opt/shared/modules"}) {
		t.Errorf("unexpected modules %v", cfg.Modules)
	}

	if !cfg.Fallback["crypto"].Ignore {
		t.Errorf("expected crypto fallback to be ignored")
	}

	if !slices.Equal(cfg.MainFiles, []string{"index"}) {
		t.Errorf("expected default mainFiles, got %v", cfg.MainFiles)
	}
}

func TestLoad_NotFound(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/config/empty", "/project")

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	mfs := testutil.NewFixtureFS(t, "fixtures/config/invalid", "/project")

	_, err := Load(mfs, "/project")
	if err == nil {
		t.Fatal("expected error for wrongly shaped extensions")
	}

	var cfgErr *Error
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *config.Error, got %T", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	for _, fixture := range []string{"fixtures/config/empty", "fixtures/config/invalid"} {
		t.Run(fixture, func(t *testing.T) {
			mfs := testutil.NewFixtureFS(t, fixture, "/project")
			cfg := LoadOrDefault(mfs, "/project")
			if !slices.Equal(cfg.Extensions, Default().Extensions) {
				t.Errorf("expected default extensions, got %v", cfg.Extensions)
			}
		})
	}
}
