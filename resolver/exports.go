/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"strings"

	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/packagejson"
	"bennypowers.dev/noderesolve/specifier"
)

// resolveExports resolves spec through the first export map pkg
// declares. handled is false when pkg has none; otherwise the map is
// authoritative and an unexported subpath is not found.
func (r *Resolver) resolveExports(st *state, pkg *packagejson.Package, spec *specifier.Specifier) (Result, bool, error) {
	for _, field := range r.cfg.ExportsFields {
		m := pkg.Exports(field)
		if m == nil {
			continue
		}
		if strings.HasSuffix(spec.SubPath, "/") {
			return Result{}, true, nil
		}
		key := "." + spec.SubPath
		targets, matched := m.Match(key, r.conditions)
		if !matched {
			logger.Debug("%s does not export %q", pkg.Path, key)
			return Result{}, true, nil
		}
		res, err := r.resolveTargets(st, pkg.Dir, spec, targets)
		return res, true, err
	}
	return Result{}, false, nil
}

// resolveImports resolves a "#" specifier through the import map of the
// enclosing package.
func (r *Resolver) resolveImports(st *state, spec *specifier.Specifier, pkg *packagejson.Package) (Result, error) {
	if pkg == nil || spec.Request == "#" || strings.HasPrefix(spec.Request, "#/") {
		return Result{}, nil
	}
	for _, field := range r.cfg.ImportsFields {
		m := pkg.Imports(field)
		if m == nil {
			continue
		}
		targets, matched := m.Match(spec.Request, r.conditions)
		if !matched {
			logger.Debug("%s does not import %q", pkg.Path, spec.Request)
			return Result{}, nil
		}
		return r.resolveTargets(st, pkg.Dir, spec, targets)
	}
	return Result{}, nil
}

// resolveTargets returns the first of targets that resolves from dir.
func (r *Resolver) resolveTargets(st *state, dir string, spec *specifier.Specifier, targets []string) (Result, error) {
	for _, target := range targets {
		res, err := r.resolve(st, dir, spec.WithRequest(target))
		if err != nil || res.Found || res.Ignored || res.Builtin != "" {
			return res, err
		}
	}
	return Result{}, nil
}

// applyAliasFields applies the alias fields (e.g. "browser") of pkg to a
// request made from dir. matched is false when no entry applies, in
// which case resolution continues normally.
func (r *Resolver) applyAliasFields(st *state, dir string, spec *specifier.Specifier, pkg *packagejson.Package) (Result, bool, error) {
	var request string
	if spec.IsPath() {
		request = r.join(dir, spec.Request)
	}

	for _, field := range r.cfg.AliasFields {
		for _, a := range pkg.Aliases(field) {
			if a.Key == "." || !r.aliasFieldMatches(pkg, a.Key, spec, request) {
				continue
			}
			if a.Ignored {
				logger.Debug("%s field of %s ignores %q", field, pkg.Path, spec.Request)
				return Result{Ignored: true}, true, nil
			}
			if a.Target == a.Key || (request != "" && r.join(pkg.Dir, a.Target) == request) {
				return Result{}, false, nil
			}
			res, err := r.resolve(st, pkg.Dir, spec.WithRequest(a.Target))
			if err != nil {
				return Result{}, true, err
			}
			return res, true, nil
		}
	}
	return Result{}, false, nil
}

// aliasFieldMatches reports whether key names the request. Bare keys
// compare by name; path keys compare as files inside pkg, with or
// without one of the configured extensions on the request.
func (r *Resolver) aliasFieldMatches(pkg *packagejson.Package, key string, spec *specifier.Specifier, request string) bool {
	if request == "" {
		return key == spec.Request
	}
	if !specifier.IsRelative(key) && !specifier.IsAbsolute(key) {
		key = "./" + key
	}
	keyPath := r.join(pkg.Dir, key)
	if keyPath == request {
		return true
	}
	for _, ext := range r.cfg.Extensions {
		if ext != "" && keyPath == request+ext {
			return true
		}
	}
	return false
}
