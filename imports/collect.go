/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package imports

import (
	"context"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/resolver"
)

// DefaultPatterns match JavaScript sources.
var DefaultPatterns = []string{"**/*.{js,mjs,cjs,jsx}"}

// Options configures Collect.
type Options struct {
	// Root is the absolute directory patterns are relative to.
	Root string

	// Patterns are doublestar globs. Empty means DefaultPatterns.
	Patterns []string

	// Concurrency bounds the files processed at once. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// Resolved is an import together with its resolution.
type Resolved struct {
	Import
	Result resolver.Result `json:"result"`

	// Err is set when resolution failed with an error rather than
	// simply not finding the module.
	Err error `json:"-"`
}

// File is a scanned source file.
type File struct {
	Path    string     `json:"path"`
	Imports []Resolved `json:"imports"`
}

// Dependencies returns the files this file's imports resolved to.
func (f *File) Dependencies() []string {
	var deps []string
	for _, imp := range f.Imports {
		if imp.Err == nil && imp.Result.Found {
			deps = append(deps, imp.Result.Path)
		}
	}
	return deps
}

// Unresolved returns the imports that were neither found, ignored nor
// builtin.
func (f *File) Unresolved() []Resolved {
	var out []Resolved
	for _, imp := range f.Imports {
		r := imp.Result
		if imp.Err != nil || (!r.Found && !r.Ignored && r.Builtin == "") {
			out = append(out, imp)
		}
	}
	return out
}

// Collect expands the patterns under opts.Root, scans every matching file
// and resolves its imports from the file's directory. Files are returned
// sorted by path.
func Collect(ctx context.Context, r *resolver.Resolver, opts Options) ([]*File, error) {
	fsys := r.Cache().FileSystem()
	paths, err := Expand(fsys, opts.Root, opts.Patterns)
	if err != nil {
		return nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	files := make([]*File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := collectFile(fsys, r, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func collectFile(fsys fs.FileSystem, r *resolver.Resolver, path string) (*File, error) {
	src, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	found, err := Scan(src)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	f := &File{Path: path, Imports: make([]Resolved, 0, len(found))}
	dir := filepath.Dir(path)
	for _, imp := range found {
		res, err := r.Resolve(dir, imp.Specifier)
		if err != nil {
			logger.Warn("%s:%d: %v", path, imp.Line, err)
		}
		f.Imports = append(f.Imports, Resolved{Import: imp, Result: res, Err: err})
	}
	logger.Debug("scanned %s: %d imports", path, len(found))
	return f, nil
}

// Expand returns the files under root matching any of patterns, sorted
// and without duplicates. node_modules directories are skipped unless a
// pattern names them.
func Expand(fsys fs.FileSystem, root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}

	var matches []string
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if !filepath.IsAbs(filepath.FromSlash(pattern)) {
			pattern = filepath.ToSlash(filepath.Join(root, pattern))
		}
		found, err := expandGlob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		matches = append(matches, found...)
	}

	slices.Sort(matches)
	return slices.Compact(matches), nil
}

// expandGlob walks the non-glob prefix of pattern and matches every file
// below it.
func expandGlob(fsys fs.FileSystem, pattern string) ([]string, error) {
	base, relPattern := doublestar.SplitPattern(pattern)
	base = filepath.FromSlash(base)

	if !containsGlob(relPattern) {
		if fsys.Exists(filepath.FromSlash(pattern)) {
			return []string{filepath.FromSlash(pattern)}, nil
		}
		return nil, nil
	}

	keepModules := strings.Contains(pattern, "node_modules")
	var matches []string
	err := iofs.WalkDir(fsys, base, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't read
			if d != nil && d.IsDir() {
				return iofs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !keepModules && d.Name() == "node_modules" {
				return iofs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(relPattern, filepath.ToSlash(rel)); ok {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// containsGlob returns true if the pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
