/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package packagejson parses package descriptors and matches their
// export, import and alias maps.
package packagejson

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
)

// SyntaxError reports a descriptor file that exists but cannot be parsed.
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed package descriptor %s: %v", e.Path, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Package is a parsed package descriptor. It is immutable once parsed and
// may be shared between goroutines; derived maps are memoized on first use.
type Package struct {
	// Name is the "name" field, empty when absent.
	Name string

	// Dir is the directory containing the descriptor.
	Dir string

	// Path is the descriptor file itself.
	Path string

	// Malformed is set when the file failed to parse. Such a package
	// behaves as if it declared no fields.
	Malformed error

	fields  map[string]json.RawMessage
	exports sync.Map // field -> *Map
	imports sync.Map // field -> *Map
	aliases sync.Map // field -> []Alias
}

// Empty returns a package with no fields for the descriptor at path.
func Empty(path string) *Package {
	return &Package{
		Dir:    filepath.Dir(path),
		Path:   path,
		fields: map[string]json.RawMessage{},
	}
}

// Parse parses descriptor data read from path. On a syntax error it
// returns an empty package marked Malformed together with a *SyntaxError.
func Parse(data []byte, path string) (*Package, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		pkg := Empty(path)
		syntaxErr := &SyntaxError{Path: path, Err: err}
		pkg.Malformed = syntaxErr
		return pkg, syntaxErr
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	pkg := &Package{
		Dir:    filepath.Dir(path),
		Path:   path,
		fields: fields,
	}
	if name, ok := pkg.String("name"); ok {
		pkg.Name = name
	}
	return pkg, nil
}

// Has reports whether the descriptor declares field.
func (p *Package) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

// String returns a top-level field when it is a JSON string.
func (p *Package) String(field string) (string, bool) {
	raw, ok := p.fields[field]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Exports returns the export map declared in field, or nil when the
// field is absent or unusable.
func (p *Package) Exports(field string) *Map {
	if cached, ok := p.exports.Load(field); ok {
		return cached.(*Map)
	}
	var m *Map
	if raw, ok := p.fields[field]; ok {
		if root, err := decodeTarget(raw); err == nil {
			m = newExportsMap(root)
		}
	}
	actual, _ := p.exports.LoadOrStore(field, m)
	return actual.(*Map)
}

// Imports returns the import map declared in field, or nil.
func (p *Package) Imports(field string) *Map {
	if cached, ok := p.imports.Load(field); ok {
		return cached.(*Map)
	}
	var m *Map
	if raw, ok := p.fields[field]; ok {
		if root, err := decodeTarget(raw); err == nil {
			m = newImportsMap(root)
		}
	}
	actual, _ := p.imports.LoadOrStore(field, m)
	return actual.(*Map)
}

// Aliases returns the alias entries declared in field (e.g. "browser")
// in declaration order.
func (p *Package) Aliases(field string) []Alias {
	if cached, ok := p.aliases.Load(field); ok {
		return cached.([]Alias)
	}
	var aliases []Alias
	if raw, ok := p.fields[field]; ok {
		if root, err := decodeTarget(raw); err == nil {
			aliases = newAliases(root)
		}
	}
	actual, _ := p.aliases.LoadOrStore(field, aliases)
	return actual.([]Alias)
}
