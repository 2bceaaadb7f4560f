/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/specifier"
)

// resolvePackage resolves a bare specifier: first as a self-reference
// to the enclosing package, then through the module directories of dir
// and each of its ancestors, then through absolute module directories.
func (r *Resolver) resolvePackage(st *state, dir string, spec *specifier.Specifier) (Result, error) {
	self, err := r.loader.Nearest(dir)
	if err != nil {
		return Result{}, err
	}
	if self != nil && self.Name != "" && self.Name == spec.Package {
		res, handled, err := r.resolveExports(st, self, spec)
		if err != nil || handled {
			return res, err
		}
	}

	var relative, absolute []string
	for _, m := range r.cfg.Modules {
		if filepath.IsAbs(filepath.FromSlash(m)) {
			absolute = append(absolute, filepath.Clean(filepath.FromSlash(m)))
		} else {
			relative = append(relative, m)
		}
	}

	for current := dir; ; {
		for _, name := range relative {
			if filepath.Base(current) == name {
				continue
			}
			res, done, err := r.resolveInModules(st, filepath.Join(current, name), spec)
			if err != nil || done {
				return res, err
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	for _, modulesDir := range absolute {
		res, done, err := r.resolveInModules(st, modulesDir, spec)
		if err != nil || done {
			return res, err
		}
	}

	logger.Debug("package %q not found from %s", spec.Package, dir)
	return Result{}, nil
}

// resolveInModules looks spec up in one module directory. done reports
// that the search must stop here, either because the module resolved or
// because its exports map excluded the request.
func (r *Resolver) resolveInModules(st *state, modulesDir string, spec *specifier.Specifier) (Result, bool, error) {
	isDir, err := r.cache.IsDir(modulesDir)
	if err != nil || !isDir {
		return Result{}, false, err
	}

	root := filepath.Join(modulesDir, filepath.FromSlash(spec.Package))
	isDir, err = r.cache.IsDir(root)
	if err != nil {
		return Result{}, false, err
	}
	if !isDir {
		// node_modules/name.js
		res, err := r.resolveAsFile(filepath.Join(modulesDir, filepath.FromSlash(spec.Request)))
		return res, res.Found, err
	}

	pkg, err := r.loader.At(root)
	if err != nil {
		return Result{}, false, err
	}
	if pkg != nil {
		res, handled, err := r.resolveExports(st, pkg, spec)
		if err != nil || handled {
			return res, true, err
		}
	}

	var res Result
	if spec.SubPath == "" || spec.SubPath == "/" {
		res, err = r.resolveAsDirectory(st, root)
	} else {
		res, err = r.resolve(st, root, spec.WithRequest("./"+strings.TrimPrefix(spec.SubPath, "/")))
	}
	if err != nil {
		return Result{}, false, err
	}
	return res, res.Found || res.Ignored, nil
}
