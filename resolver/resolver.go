/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver resolves JavaScript module specifiers to files using
// Node's module resolution rules.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"bennypowers.dev/noderesolve/config"
	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/fscache"
	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/packagejson"
	"bennypowers.dev/noderesolve/specifier"
	"bennypowers.dev/noderesolve/tsconfig"
)

// maxDepth bounds nested resolutions (aliases, main fields, export
// targets) within one Resolve call.
const maxDepth = 127

var (
	// ErrEmptySpecifier is returned when resolving "".
	ErrEmptySpecifier = errors.New("empty specifier")

	// ErrRelativeBaseDir is returned when the base directory is not absolute.
	ErrRelativeBaseDir = errors.New("base directory must be absolute")

	// ErrRecursionLimit is returned when aliases or package fields
	// redirect into each other without end.
	ErrRecursionLimit = errors.New("resolution recursion limit exceeded")
)

// Result is the outcome of a resolution.
type Result struct {
	// Path is the resolved file, set only when Found.
	Path string

	// Found reports that Path named an existing file.
	Found bool

	// Query and Fragment are carried over from the specifier.
	Query    string
	Fragment string

	// Ignored is set when an alias mapped the request to false.
	Ignored bool

	// Builtin names the Node core module the specifier refers to,
	// e.g. "node:fs". Builtins are never found on disk.
	Builtin string

	// Package is the descriptor governing the resolved file, if any.
	Package *packagejson.Package
}

// Summary is the JSON form of a Result.
type Summary struct {
	Path     string          `json:"path,omitempty"`
	Status   bool            `json:"status"`
	Query    string          `json:"query,omitempty"`
	Fragment string          `json:"fragment,omitempty"`
	Ignored  bool            `json:"ignored,omitempty"`
	Builtin  string          `json:"builtin,omitempty"`
	Package  *PackageSummary `json:"package,omitempty"`
}

// PackageSummary names the descriptor governing a result.
type PackageSummary struct {
	Name string `json:"name,omitempty"`
	Dir  string `json:"dir"`
}

// Summary returns the result in its JSON form.
func (r Result) Summary() Summary {
	out := Summary{
		Path:     r.Path,
		Status:   r.Found,
		Query:    r.Query,
		Fragment: r.Fragment,
		Ignored:  r.Ignored,
		Builtin:  r.Builtin,
	}
	if r.Package != nil {
		out.Package = &PackageSummary{Name: r.Package.Name, Dir: r.Package.Dir}
	}
	return out
}

// MarshalJSON encodes the result as {"path": ..., "status": ...}.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Summary())
}

// Resolver resolves specifiers against one configuration. It owns its
// filesystem cache and is safe for concurrent use.
type Resolver struct {
	cfg        *config.Config
	cache      *fscache.Cache
	loader     *packagejson.Loader
	conditions packagejson.Conditions
	aliases    []config.AliasEntry
	fallbacks  []config.AliasEntry
	extAliases []string // extensionAlias keys, longest first
	enforceExt bool
	tsconfig   *tsconfig.Config
	results    *lru.Cache[string, Result]
}

// New creates a resolver. A nil cfg uses config.Default.
func New(fsys fs.FileSystem, cfg *config.Config) (*Resolver, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}

	cache := fscache.New(fsys)
	r := &Resolver{
		cfg:        cfg,
		cache:      cache,
		loader:     packagejson.NewLoader(cache, cfg.DescriptionFile),
		conditions: packagejson.NewConditions(cfg.Conditions...),
		aliases:    cfg.AliasEntries(),
		fallbacks:  cfg.FallbackEntries(),
		enforceExt: cfg.EnforcesExtension(),
	}
	for ext := range cfg.ExtensionAlias {
		r.extAliases = append(r.extAliases, ext)
	}
	slices.SortFunc(r.extAliases, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	if cfg.ResultCacheSize > 0 {
		results, err := lru.New[string, Result](cfg.ResultCacheSize)
		if err != nil {
			return nil, &config.Error{Field: "resultCacheSize", Err: err}
		}
		r.results = results
	}
	if err := r.loadTSConfig(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFromJSON creates a resolver from a JSON configuration object.
func NewFromJSON(fsys fs.FileSystem, data []byte) (*Resolver, error) {
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, err
	}
	return New(fsys, cfg)
}

// Config returns a copy of the resolver's configuration.
func (r *Resolver) Config() *config.Config {
	return r.cfg.Clone()
}

// Cache returns the resolver's filesystem cache.
func (r *Resolver) Cache() *fscache.Cache {
	return r.cache
}

// Stats reports filesystem cache activity.
func (r *Resolver) Stats() fscache.Stats {
	return r.cache.Stats()
}

// state tracks one Resolve call.
type state struct {
	depth int

	// literalFragment is set when the fragment turned out to be part
	// of the file name.
	literalFragment bool
}

// Resolve resolves raw relative to the absolute directory baseDir.
// A module that cannot be found is not an error: the result has
// Found unset. Errors report invalid input, filesystem access failures
// and runaway recursion.
func (r *Resolver) Resolve(baseDir, raw string) (Result, error) {
	if raw == "" {
		return Result{}, ErrEmptySpecifier
	}
	baseDir = filepath.Clean(filepath.FromSlash(baseDir))
	if !filepath.IsAbs(baseDir) {
		return Result{}, fmt.Errorf("%w: %q", ErrRelativeBaseDir, baseDir)
	}

	key := baseDir + "\x00" + raw
	if r.results != nil {
		if res, ok := r.results.Get(key); ok {
			return res, nil
		}
	}

	res, err := r.resolveTop(baseDir, specifier.Parse(raw))
	if err != nil {
		return Result{}, fmt.Errorf("resolve %q in %s: %w", raw, baseDir, err)
	}

	if r.results != nil {
		r.results.Add(key, res)
	}
	return res, nil
}

func (r *Resolver) resolveTop(baseDir string, spec *specifier.Specifier) (Result, error) {
	st := &state{}
	logger.Debug("resolving %q in %s", spec.Raw, baseDir)

	res, mapped, err := r.resolveTSConfig(st, baseDir, spec)
	if err != nil {
		return Result{}, err
	}
	if !mapped {
		res, err = r.resolve(st, baseDir, spec)
		if err != nil {
			return Result{}, err
		}
	}

	if !res.Found && !res.Ignored && res.Builtin == "" && len(r.fallbacks) > 0 {
		var matched bool
		res, matched, err = r.applyAlias(st, baseDir, spec, r.fallbacks)
		if err != nil {
			return Result{}, err
		}
		if !matched {
			res = Result{}
		}
	}

	if res.Found {
		if r.cfg.Symlinks {
			real, err := r.cache.RealPath(res.Path)
			if err != nil {
				return Result{}, err
			}
			res.Path = real
		}
		pkg, err := r.loader.Nearest(filepath.Dir(res.Path))
		if err != nil {
			return Result{}, err
		}
		res.Package = pkg
		logger.Debug("resolved %q to %s", spec.Raw, res.Path)
	}

	res.Query = spec.Query
	if !st.literalFragment {
		res.Fragment = spec.Fragment
	}
	return res, nil
}

// resolve runs the full pipeline for spec in dir. It is re-entered for
// every redirection so that each step sees the same rules.
func (r *Resolver) resolve(st *state, dir string, spec *specifier.Specifier) (Result, error) {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > maxDepth {
		return Result{}, ErrRecursionLimit
	}

	// "./file#hash.js" may name a file literally.
	if spec.Fragment != "" && spec.Query == "" && spec.Request != "" {
		literal := spec.WithRequest(spec.Request + spec.Fragment)
		literal.Fragment = ""
		res, err := r.resolve(st, dir, literal)
		if err != nil || res.Found || res.Ignored {
			if st.depth == 1 && err == nil {
				st.literalFragment = true
			}
			return res, err
		}
		spec = spec.WithRequest(spec.Request)
		spec.Fragment = ""
	}

	if res, matched, err := r.applyAlias(st, dir, spec, r.aliases); err != nil || matched {
		return res, err
	}

	if r.cfg.PreferRelative && spec.Kind == specifier.KindBare {
		res, err := r.resolve(st, dir, spec.WithRequest("./"+spec.Request))
		if err != nil || res.Found || res.Ignored {
			return res, err
		}
	}

	pkg, err := r.loader.Nearest(dir)
	if err != nil {
		return Result{}, err
	}

	if spec.Kind == specifier.KindInternal {
		return r.resolveImports(st, spec, pkg)
	}

	if pkg != nil {
		if res, matched, err := r.applyAliasFields(st, dir, spec, pkg); err != nil || matched {
			return res, err
		}
	}

	if spec.Kind == specifier.KindBuiltin {
		if r.cfg.Builtins {
			return Result{Builtin: "node:" + spec.Package}, nil
		}
		if strings.HasPrefix(spec.Request, "node:") {
			return Result{}, nil
		}
		spec = spec.AsBare()
	}

	switch spec.Kind {
	case specifier.KindRelative, specifier.KindAbsolute:
		return r.resolvePath(st, r.join(dir, spec.Request), spec.IsDirectory())
	default:
		return r.resolvePackage(st, dir, spec)
	}
}

// join makes request absolute against dir, normalizing separators.
func (r *Resolver) join(dir, request string) string {
	request = filepath.FromSlash(request)
	if filepath.IsAbs(request) || specifier.IsAbsolute(request) {
		return filepath.Clean(request)
	}
	return filepath.Join(dir, request)
}

// applyAlias rewrites a request through the first matching alias rule.
// matched is false when no rule applies or every target failed, so
// resolution continues with the original request.
func (r *Resolver) applyAlias(st *state, dir string, spec *specifier.Specifier, entries []config.AliasEntry) (Result, bool, error) {
	request := spec.Request
	for _, e := range entries {
		var rest string
		switch {
		case request == e.Prefix:
		case strings.HasSuffix(e.Prefix, "/") && strings.HasPrefix(request, e.Prefix):
			rest = request[len(e.Prefix):]
		case strings.HasPrefix(request, e.Prefix+"/"):
			rest = request[len(e.Prefix):]
		default:
			continue
		}

		if e.Ignore {
			logger.Debug("alias %q ignores %q", e.Prefix, request)
			return Result{Ignored: true}, true, nil
		}

		for _, target := range e.Targets {
			if request == target || strings.HasPrefix(request, strings.TrimSuffix(target, "/")+"/") {
				continue
			}
			next := target + rest
			if strings.HasSuffix(target, "/") && strings.HasPrefix(rest, "/") {
				next = target + rest[1:]
			}
			logger.Debug("alias %q maps %q to %q", e.Prefix, request, next)
			res, err := r.resolve(st, dir, spec.WithRequest(next))
			if err != nil {
				return Result{}, true, err
			}
			if res.Found || res.Ignored || res.Builtin != "" {
				return res, true, nil
			}
		}
	}
	return Result{}, false, nil
}
