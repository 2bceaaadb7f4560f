/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package fscache memoizes filesystem probes for module resolution.
//
// Every distinct path is probed at most once for the lifetime of a Cache.
// Results, including "missing" and access failures, are never invalidated.
package fscache

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"sync"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/singleflight"

	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/packagejson"
)

// Status is the cached kind of a path.
type Status int

const (
	// Missing means nothing exists at the path.
	Missing Status = iota
	// File is a regular file (or a link to one).
	File
	// Directory is a directory (or a link to one).
	Directory
)

func (s Status) String() string {
	switch s {
	case File:
		return "file"
	case Directory:
		return "directory"
	default:
		return "missing"
	}
}

// AccessError is a filesystem failure other than "does not exist",
// such as permission denied or an I/O error.
type AccessError struct {
	Op   string
	Path string
	Err  error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Stats counts cache activity.
type Stats struct {
	// Probes is the number of underlying filesystem lookups performed.
	Probes int64
	// Hits is the number of lookups answered from memory.
	Hits int64
}

type entry[T any] struct {
	value T
	err   error
}

// Cache memoizes stat, descriptor, directory and realpath lookups.
// It is safe for concurrent use.
type Cache struct {
	fsys fs.FileSystem

	status      sync.Map // path -> entry[Status]
	descriptors sync.Map // path -> entry[*packagejson.Package]
	dirs        sync.Map // path -> entry[[]iofs.DirEntry]
	links       sync.Map // path -> entry[link]
	real        sync.Map // path -> entry[string]

	group  singleflight.Group
	probes atomic.Int64
	hits   atomic.Int64
}

// New creates an empty cache over fsys.
func New(fsys fs.FileSystem) *Cache {
	return &Cache{fsys: fsys}
}

// FileSystem returns the underlying filesystem.
func (c *Cache) FileSystem() fs.FileSystem {
	return c.fsys
}

// Stats returns a snapshot of the probe and hit counters.
func (c *Cache) Stats() Stats {
	return Stats{Probes: c.probes.Load(), Hits: c.hits.Load()}
}

// memo returns the cached entry for key, probing once on a miss.
// Concurrent misses for the same key share one probe.
func memo[T any](c *Cache, m *sync.Map, kind, key string, probe func() (T, error)) (T, error) {
	if cached, ok := m.Load(key); ok {
		c.hits.Add(1)
		e := cached.(entry[T])
		return e.value, e.err
	}

	v, _, _ := c.group.Do(kind+"\x00"+key, func() (any, error) {
		if cached, ok := m.Load(key); ok {
			return cached, nil
		}
		c.probes.Add(1)
		value, err := probe()
		e := entry[T]{value: value, err: err}
		m.Store(key, e)
		return e, nil
	})
	e := v.(entry[T])
	return e.value, e.err
}

// isMissing reports errors that mean the path does not exist.
func isMissing(err error) bool {
	return errors.Is(err, iofs.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.ENAMETOOLONG) ||
		errors.Is(err, syscall.ELOOP)
}

// Status reports whether path is a file, a directory or missing.
func (c *Cache) Status(path string) (Status, error) {
	return memo(c, &c.status, "stat", path, func() (Status, error) {
		info, err := c.fsys.Stat(path)
		if err != nil {
			if isMissing(err) {
				return Missing, nil
			}
			return Missing, &AccessError{Op: "stat", Path: path, Err: err}
		}
		if info.IsDir() {
			return Directory, nil
		}
		return File, nil
	})
}

// IsFile reports whether path is an existing file.
func (c *Cache) IsFile(path string) (bool, error) {
	s, err := c.Status(path)
	return s == File, err
}

// IsDir reports whether path is an existing directory.
func (c *Cache) IsDir(path string) (bool, error) {
	s, err := c.Status(path)
	return s == Directory, err
}

// ReadDescriptor reads and parses the package descriptor at path.
// It returns (nil, nil) when there is no such file. A file that fails
// to parse yields an empty package and a *packagejson.SyntaxError; the
// failure is cached like any other outcome.
func (c *Cache) ReadDescriptor(path string) (*packagejson.Package, error) {
	return memo(c, &c.descriptors, "descriptor", path, func() (*packagejson.Package, error) {
		s, err := c.Status(path)
		if err != nil || s != File {
			return nil, err
		}
		data, err := c.fsys.ReadFile(path)
		if err != nil {
			if isMissing(err) {
				return nil, nil
			}
			return nil, &AccessError{Op: "read", Path: path, Err: err}
		}
		return packagejson.Parse(data, path)
	})
}

// ReadDir lists a directory. A missing directory yields no entries.
func (c *Cache) ReadDir(path string) ([]iofs.DirEntry, error) {
	return memo(c, &c.dirs, "readdir", path, func() ([]iofs.DirEntry, error) {
		entries, err := c.fsys.ReadDir(path)
		if err != nil {
			if isMissing(err) {
				return nil, nil
			}
			return nil, &AccessError{Op: "readdir", Path: path, Err: err}
		}
		return entries, nil
	})
}
