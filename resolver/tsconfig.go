/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"bennypowers.dev/noderesolve/config"
	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/specifier"
	"bennypowers.dev/noderesolve/tsconfig"
)

// loadTSConfig reads the configured tsconfig.json. Packages named in
// "extends" are looked up with this resolver.
func (r *Resolver) loadTSConfig() error {
	if r.cfg.TSConfig == "" {
		return nil
	}
	ts, err := tsconfig.Load(r.cache.FileSystem().ReadFile, r.cfg.TSConfig, r.findExtends)
	if err != nil {
		return &config.Error{Field: "tsconfig", Err: err}
	}
	r.tsconfig = ts
	return nil
}

func (r *Resolver) findExtends(dir, request string) (string, bool, error) {
	requests := []string{request}
	if !strings.HasSuffix(request, ".json") {
		requests = append(requests, request+".json")
	}
	for _, req := range requests {
		res, err := r.resolve(&state{}, dir, specifier.Classify(filepath.ToSlash(req)))
		if err != nil {
			return "", false, fmt.Errorf("extends %q: %w", request, err)
		}
		if res.Found {
			return res.Path, true, nil
		}
	}
	return "", false, nil
}

// resolveTSConfig maps a non-relative request through the tsconfig
// "paths" candidates, then through baseUrl. It reports false when none
// of them resolves.
func (r *Resolver) resolveTSConfig(st *state, dir string, spec *specifier.Specifier) (Result, bool, error) {
	if r.tsconfig == nil || strings.HasPrefix(spec.Request, "node:") ||
		(spec.Kind != specifier.KindBare && spec.Kind != specifier.KindBuiltin) {
		return Result{}, false, nil
	}
	candidates := r.tsconfig.Candidates(spec.Request)
	if r.tsconfig.BaseURL != "" {
		candidates = append(candidates, filepath.Join(r.tsconfig.BaseURL, filepath.FromSlash(spec.Request)))
	}
	for _, candidate := range candidates {
		res, err := r.resolve(st, dir, spec.WithRequest(filepath.ToSlash(candidate)))
		if err != nil {
			return Result{}, false, err
		}
		if res.Found || res.Ignored || res.Builtin != "" {
			logger.Debug("tsconfig mapped %q to %s", spec.Request, candidate)
			return res, true, nil
		}
	}
	return Result{}, false, nil
}
