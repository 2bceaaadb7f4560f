/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package tsconfig reads the module mapping options of a TypeScript
// project file: compilerOptions.baseUrl and compilerOptions.paths,
// following "extends" chains.
package tsconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"

	"bennypowers.dev/noderesolve/internal/logger"
)

// ErrExtendsCycle is returned when project files extend each other.
var ErrExtendsCycle = errors.New("tsconfig extends cycle")

// ReadFunc reads a file.
type ReadFunc func(path string) ([]byte, error)

// ExtendsFunc locates the file named by an "extends" entry, relative to
// the directory of the file declaring it. found is false when nothing
// matches.
type ExtendsFunc func(dir, request string) (path string, found bool, err error)

// Mapping is one "paths" entry with absolute targets. Pattern and
// targets hold at most one "*".
type Mapping struct {
	Pattern string
	Targets []string
}

// Config is the resolved mapping configuration of a project file.
type Config struct {
	// Path is the project file that was loaded.
	Path string

	// BaseURL is the absolute directory non-relative requests are looked
	// up in, or "" when no file in the chain sets baseUrl.
	BaseURL string

	// Mappings are the "paths" entries, exact patterns first, then
	// wildcard patterns by descending prefix length.
	Mappings []Mapping
}

type file struct {
	Extends         extendsList `json:"extends"`
	CompilerOptions struct {
		BaseURL *string             `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// extendsList accepts a single file or, as TypeScript 5 does, a list.
type extendsList []string

func (e *extendsList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = extendsList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("extends must be a string or an array of strings")
	}
	*e = list
	return nil
}

// layer is the effective configuration after one file of the chain.
type layer struct {
	baseURL  string
	paths    map[string][]string
	pathsDir string
}

func (l *layer) overlay(next layer) {
	if next.baseURL != "" {
		l.baseURL = next.baseURL
	}
	if next.paths != nil {
		l.paths = next.paths
		l.pathsDir = next.pathsDir
	}
}

// Load reads the project file at path and every file it extends. Later
// entries of an "extends" list override earlier ones, and the file
// itself overrides all of them. A baseUrl is relative to the file that
// sets it; "paths" targets are relative to the effective baseUrl, or to
// the file declaring "paths" when there is none.
func Load(read ReadFunc, path string, extends ExtendsFunc) (*Config, error) {
	l, err := load(read, extends, filepath.Clean(path), map[string]bool{})
	if err != nil {
		return nil, err
	}

	root := l.baseURL
	if root == "" {
		root = l.pathsDir
	}
	cfg := &Config{Path: path, BaseURL: l.baseURL}
	for pattern, targets := range l.paths {
		if strings.Count(pattern, "*") > 1 {
			logger.Warn("%s: ignoring paths pattern %q with more than one '*'", path, pattern)
			continue
		}
		m := Mapping{Pattern: pattern}
		for _, t := range targets {
			if strings.Count(t, "*") > 1 {
				logger.Warn("%s: ignoring paths target %q with more than one '*'", path, t)
				continue
			}
			t = filepath.FromSlash(t)
			if !filepath.IsAbs(t) {
				t = filepath.Join(root, t)
			}
			m.Targets = append(m.Targets, t)
		}
		cfg.Mappings = append(cfg.Mappings, m)
	}
	sort.Slice(cfg.Mappings, func(i, j int) bool {
		return mappingBefore(cfg.Mappings[i].Pattern, cfg.Mappings[j].Pattern)
	})
	return cfg, nil
}

func load(read ReadFunc, extends ExtendsFunc, path string, seen map[string]bool) (layer, error) {
	if seen[path] {
		return layer{}, fmt.Errorf("%w: %s", ErrExtendsCycle, path)
	}
	seen[path] = true
	defer delete(seen, path)

	data, err := read(path)
	if err != nil {
		return layer{}, err
	}
	var f file
	if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
		return layer{}, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	var out layer
	for _, request := range f.Extends {
		parentPath, found, err := extends(dir, request)
		if err != nil {
			return layer{}, err
		}
		if !found {
			logger.Warn("%s: cannot find extended config %q", path, request)
			continue
		}
		parent, err := load(read, extends, filepath.Clean(parentPath), seen)
		if err != nil {
			return layer{}, err
		}
		out.overlay(parent)
	}

	own := layer{}
	if base := f.CompilerOptions.BaseURL; base != nil {
		own.baseURL = filepath.Join(dir, filepath.FromSlash(*base))
	}
	if f.CompilerOptions.Paths != nil {
		own.paths = f.CompilerOptions.Paths
		own.pathsDir = dir
	}
	out.overlay(own)
	return out, nil
}

// mappingBefore orders exact patterns before wildcards, and wildcards
// by longer prefix first.
func mappingBefore(a, b string) bool {
	ai, bi := strings.Index(a, "*"), strings.Index(b, "*")
	switch {
	case ai < 0 && bi < 0:
		return a < b
	case ai < 0:
		return true
	case bi < 0:
		return false
	case ai != bi:
		return ai > bi
	default:
		return a < b
	}
}

// Candidates returns the paths request maps to, in the order they
// should be tried. Every matching pattern contributes, most specific
// first.
func (c *Config) Candidates(request string) []string {
	var out []string
	for _, m := range c.Mappings {
		match, ok := matchPattern(m.Pattern, request)
		if !ok {
			continue
		}
		for _, t := range m.Targets {
			out = append(out, strings.Replace(t, "*", match, 1))
		}
	}
	return out
}

func matchPattern(pattern, request string) (string, bool) {
	star := strings.Index(pattern, "*")
	if star < 0 {
		return "", pattern == request
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if len(request) < len(prefix)+len(suffix) ||
		!strings.HasPrefix(request, prefix) || !strings.HasSuffix(request, suffix) {
		return "", false
	}
	return request[len(prefix) : len(request)-len(suffix)], true
}
