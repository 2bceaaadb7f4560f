/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

import (
	"errors"
	"path/filepath"
	"sync"

	"bennypowers.dev/noderesolve/internal/logger"
)

// Reader loads descriptor files. It returns (nil, nil) when the file
// does not exist, and a *SyntaxError alongside an empty package when
// it cannot be parsed.
type Reader interface {
	ReadDescriptor(path string) (*Package, error)
}

// Loader finds package descriptors on behalf of the resolver.
type Loader struct {
	reader   Reader
	fileName string
	nearest  sync.Map // dir -> *Package, nil when none up to the root
	warned   sync.Map // descriptor path -> struct{}
}

// NewLoader creates a loader for descriptors named fileName
// (usually "package.json").
func NewLoader(reader Reader, fileName string) *Loader {
	if fileName == "" {
		fileName = "package.json"
	}
	return &Loader{reader: reader, fileName: fileName}
}

// FileName returns the descriptor file name this loader looks for.
func (l *Loader) FileName() string {
	return l.fileName
}

// At returns the descriptor located directly in dir, or nil.
// Malformed descriptors are reported once and treated as empty.
func (l *Loader) At(dir string) (*Package, error) {
	path := filepath.Join(dir, l.fileName)
	pkg, err := l.reader.ReadDescriptor(path)
	if err != nil {
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, err
		}
		if _, seen := l.warned.LoadOrStore(path, struct{}{}); !seen {
			logger.Warn("%v; treating it as empty", err)
		}
		if pkg == nil {
			pkg = Empty(path)
			pkg.Malformed = syntaxErr
		}
	}
	return pkg, nil
}

// Nearest returns the closest descriptor in dir or any of its
// ancestors, or nil if there is none.
func (l *Loader) Nearest(dir string) (*Package, error) {
	if cached, ok := l.nearest.Load(dir); ok {
		return cached.(*Package), nil
	}

	pkg, err := l.At(dir)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		if parent := filepath.Dir(dir); parent != dir {
			if pkg, err = l.Nearest(parent); err != nil {
				return nil, err
			}
		}
	}

	l.nearest.Store(dir, pkg)
	return pkg, nil
}
