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

// found builds a successful result for an existing file.
func found(path string) Result {
	return Result{Path: path, Found: true}
}

// resolvePath resolves an absolute candidate path: as a file first,
// then as a directory. dirOnly skips the file probes.
func (r *Resolver) resolvePath(st *state, path string, dirOnly bool) (Result, error) {
	if !dirOnly {
		res, err := r.resolveAsFile(path)
		if err != nil || res.Found {
			return res, err
		}
	}
	return r.resolveAsDirectory(st, path)
}

// resolveAsFile tries the exact path, then each configured extension.
// A path ending in an aliased extension tries the alias list instead.
func (r *Resolver) resolveAsFile(path string) (Result, error) {
	for _, ext := range r.extAliases {
		if !strings.HasSuffix(path, ext) || len(path) == len(ext) {
			continue
		}
		base := strings.TrimSuffix(path, ext)
		for _, alt := range r.cfg.ExtensionAlias[ext] {
			ok, err := r.cache.IsFile(base + alt)
			if err != nil {
				return Result{}, err
			}
			if ok {
				return found(base + alt), nil
			}
		}
		if len(r.cfg.ExtensionAlias[ext]) > 0 {
			return Result{}, nil
		}
	}

	if !r.enforceExt {
		ok, err := r.cache.IsFile(path)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return found(path), nil
		}
	}

	for _, ext := range r.cfg.Extensions {
		ok, err := r.cache.IsFile(path + ext)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return found(path + ext), nil
		}
	}
	return Result{}, nil
}

// resolveAsDirectory resolves a directory through its descriptor's main
// fields, then through the configured main files.
func (r *Resolver) resolveAsDirectory(st *state, dir string) (Result, error) {
	isDir, err := r.cache.IsDir(dir)
	if err != nil || !isDir {
		return Result{}, err
	}

	pkg, err := r.loader.At(dir)
	if err != nil {
		return Result{}, err
	}

	if pkg != nil {
		// A string alias field replaces the package's main entry.
		for _, field := range r.cfg.AliasFields {
			for _, a := range pkg.Aliases(field) {
				if a.Key != "." {
					continue
				}
				if a.Ignored {
					return Result{Ignored: true}, nil
				}
				res, err := r.resolve(st, dir, specifier.Classify(relativeRequest(a.Target)))
				if err != nil || res.Found || res.Ignored {
					return res, err
				}
			}
		}

		for _, field := range r.cfg.MainFields {
			main, ok := pkg.String(field)
			if !ok {
				continue
			}
			if main == "." || main == "./" {
				break
			}
			logger.Debug("using %q field %q of %s", field, main, pkg.Path)
			res, err := r.resolve(st, dir, specifier.Classify(relativeRequest(main)))
			if err != nil || res.Found || res.Ignored {
				return res, err
			}
		}
	}

	for _, name := range r.cfg.MainFiles {
		res, err := r.resolveAsFile(filepath.Join(dir, name))
		if err != nil || res.Found {
			return res, err
		}
	}
	return Result{}, nil
}

// relativeRequest turns a descriptor path like "lib/index.js" into
// "./lib/index.js".
func relativeRequest(p string) string {
	if specifier.IsRelative(p) || specifier.IsAbsolute(p) {
		return p
	}
	return "./" + p
}
