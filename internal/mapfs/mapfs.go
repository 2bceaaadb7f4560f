/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mapfs provides an in-memory filesystem implementation for testing.
package mapfs

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"syscall"
	"testing/fstest"
	"time"
)

// maxLinkHops matches the ELOOP limit of common kernels.
const maxLinkHops = 40

// errLinkLoop is reported when symlink resolution exceeds maxLinkHops,
// the same error the OS returns.
var errLinkLoop error = syscall.ELOOP

// MapFileSystem implements FileSystem using an in-memory fstest.MapFS.
// Symbolic links are kept in a side table and followed on every lookup,
// so the real filesystem's realpath behavior can be reproduced in tests.
type MapFileSystem struct {
	mu      sync.RWMutex
	mapFS   fstest.MapFS
	links   map[string]string
	denied  map[string]bool
	modTime time.Time
}

// New creates a new in-memory filesystem for testing.
func New() *MapFileSystem {
	return &MapFileSystem{
		mapFS:   make(fstest.MapFS),
		links:   make(map[string]string),
		denied:  make(map[string]bool),
		modTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddFile adds a file to the in-memory filesystem.
func (mfs *MapFileSystem) AddFile(p string, content string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = mfs.cleanPath(p)
	mfs.mapFS[p] = &fstest.MapFile{
		Data:    []byte(content),
		Mode:    mode,
		ModTime: mfs.modTime,
	}
}

// AddDir adds a directory to the in-memory filesystem.
func (mfs *MapFileSystem) AddDir(p string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	mfs.addDirLocked(mfs.cleanPath(p), mode)
}

// AddSymlink adds a symbolic link at link pointing to target.
// An absolute target is taken from the filesystem root; a relative
// target is interpreted against the directory containing the link.
func (mfs *MapFileSystem) AddSymlink(link, target string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	link = mfs.cleanPath(link)
	mfs.links[link] = target
	if dir := path.Dir(link); dir != "." {
		mfs.addDirLocked(dir, 0755)
	}
}

// Deny makes every access to p fail with fs.ErrPermission.
// It simulates unreadable directories and files.
func (mfs *MapFileSystem) Deny(p string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.denied[mfs.cleanPath(p)] = true
}

// WriteFile implements FileSystem.
func (mfs *MapFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	name, err := mfs.resolveLocked("write", mfs.cleanPath(name), true)
	if err != nil {
		return err
	}

	if err := mfs.ensureParentDirLocked(name); err != nil {
		return err
	}

	mfs.mapFS[name] = &fstest.MapFile{
		Data:    append([]byte(nil), data...),
		Mode:    perm,
		ModTime: mfs.modTime,
	}

	return nil
}

// ReadFile implements FileSystem.
func (mfs *MapFileSystem) ReadFile(name string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	resolved, err := mfs.resolveLocked("read", mfs.cleanPath(name), true)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(mfs.mapFS, resolved)
}

// Stat implements FileSystem.
func (mfs *MapFileSystem) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	resolved, err := mfs.resolveLocked("stat", mfs.cleanPath(name), true)
	if err != nil {
		return nil, err
	}
	return fs.Stat(mfs.mapFS, resolved)
}

// Lstat implements FileSystem.
func (mfs *MapFileSystem) Lstat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	resolved, err := mfs.resolveLocked("lstat", mfs.cleanPath(name), false)
	if err != nil {
		return nil, err
	}
	if _, ok := mfs.links[resolved]; ok {
		return linkInfo{name: path.Base(resolved), modTime: mfs.modTime}, nil
	}
	return fs.Stat(mfs.mapFS, resolved)
}

// Readlink implements FileSystem.
func (mfs *MapFileSystem) Readlink(name string) (string, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	resolved, err := mfs.resolveLocked("readlink", mfs.cleanPath(name), false)
	if err != nil {
		return "", err
	}
	target, ok := mfs.links[resolved]
	if !ok {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return target, nil
}

// Exists implements FileSystem.
func (mfs *MapFileSystem) Exists(p string) bool {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, err := mfs.resolveLocked("stat", mfs.cleanPath(p), true)
	if err != nil {
		return false
	}

	if p == "." {
		return true
	}

	if _, exists := mfs.mapFS[p]; exists {
		return true
	}

	prefix := p + "/"
	for filePath := range mfs.mapFS {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}

	return false
}

// ReadDir implements FileSystem.
func (mfs *MapFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	resolved, err := mfs.resolveLocked("readdir", mfs.cleanPath(name), true)
	if err != nil {
		return nil, err
	}
	return fs.ReadDir(mfs.mapFS, resolved)
}

// Open implements FileSystem.
func (mfs *MapFileSystem) Open(name string) (fs.File, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	resolved, err := mfs.resolveLocked("open", mfs.cleanPath(name), true)
	if err != nil {
		return nil, err
	}
	return mfs.mapFS.Open(resolved)
}

// cleanPath maps an absolute or relative path onto a MapFS key.
// The filesystem root becomes ".".
func (mfs *MapFileSystem) cleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean(p)
	if !path.IsAbs(cleaned) {
		cleaned = "/" + cleaned
	}
	cleaned = path.Clean(cleaned)
	if cleaned == "/" {
		return "."
	}
	return strings.TrimPrefix(cleaned, "/")
}

// resolveLocked follows symlinks in each component of p. The final
// component is only followed when followLast is set.
func (mfs *MapFileSystem) resolveLocked(op, p string, followLast bool) (string, error) {
	if mfs.denied[p] {
		return "", &fs.PathError{Op: op, Path: "/" + p, Err: fs.ErrPermission}
	}
	if p == "." || len(mfs.links) == 0 && len(mfs.denied) == 0 {
		return p, nil
	}

	parts := strings.Split(p, "/")
	resolved := "."
	hops := 0
	for i := 0; i < len(parts); i++ {
		next := parts[i]
		if resolved != "." {
			next = resolved + "/" + parts[i]
		}
		if mfs.denied[next] {
			return "", &fs.PathError{Op: op, Path: "/" + p, Err: fs.ErrPermission}
		}
		target, isLink := mfs.links[next]
		if !isLink || (i == len(parts)-1 && !followLast) {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &fs.PathError{Op: op, Path: "/" + p, Err: errLinkLoop}
		}

		var dest string
		if path.IsAbs(target) {
			dest = mfs.cleanPath(target)
		} else {
			dest = mfs.cleanPath("/" + path.Join(resolved, target))
		}

		rest := parts[i+1:]
		parts = nil
		if dest != "." {
			parts = strings.Split(dest, "/")
		}
		parts = append(parts, rest...)
		resolved = "."
		i = -1
	}
	return resolved, nil
}

func (mfs *MapFileSystem) addDirLocked(p string, mode fs.FileMode) {
	keepFile := ".keep"
	if p != "." {
		keepFile = p + "/.keep"
	}
	mfs.mapFS[keepFile] = &fstest.MapFile{
		Data:    []byte(""),
		Mode:    mode.Perm(),
		ModTime: mfs.modTime,
	}
}

func (mfs *MapFileSystem) ensureParentDirLocked(filePath string) error {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" || dir == "" {
		return nil
	}

	if file, exists := mfs.mapFS[dir]; exists && !file.Mode.IsDir() {
		return &fs.PathError{Op: "open", Path: filePath, Err: fmt.Errorf("not a directory")}
	}

	return nil
}

// linkInfo describes a symlink itself, as returned by Lstat.
type linkInfo struct {
	name    string
	modTime time.Time
}

func (l linkInfo) Name() string       { return l.name }
func (l linkInfo) Size() int64        { return 0 }
func (l linkInfo) Mode() fs.FileMode  { return fs.ModeSymlink | 0777 }
func (l linkInfo) ModTime() time.Time { return l.modTime }
func (l linkInfo) IsDir() bool        { return false }
func (l linkInfo) Sys() any           { return nil }
