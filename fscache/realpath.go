/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fscache

import (
	iofs "io/fs"
	"path/filepath"
	"strings"
	"syscall"
)

// maxLinkHops matches the ELOOP limit of common kernels.
const maxLinkHops = 40

type link struct {
	target string
	isLink bool
}

// readLink reports whether path itself is a symbolic link and where it
// points. Missing paths are not links.
func (c *Cache) readLink(path string) (link, error) {
	return memo(c, &c.links, "lstat", path, func() (link, error) {
		info, err := c.fsys.Lstat(path)
		if err != nil {
			if isMissing(err) {
				return link{}, nil
			}
			return link{}, &AccessError{Op: "lstat", Path: path, Err: err}
		}
		if info.Mode()&iofs.ModeSymlink == 0 {
			return link{}, nil
		}
		target, err := c.fsys.Readlink(path)
		if err != nil {
			return link{}, &AccessError{Op: "readlink", Path: path, Err: err}
		}
		return link{target: target, isLink: true}, nil
	})
}

// RealPath returns the canonical form of an absolute path with every
// symbolic link component resolved. Components that do not exist are
// kept as written.
func (c *Cache) RealPath(path string) (string, error) {
	path = filepath.Clean(path)
	if cached, ok := c.real.Load(path); ok {
		c.hits.Add(1)
		e := cached.(entry[string])
		return e.value, e.err
	}

	resolved, err := c.walkLinks(path)
	c.real.Store(path, entry[string]{value: resolved, err: err})
	return resolved, err
}

func (c *Cache) walkLinks(path string) (string, error) {
	root, parts := splitPath(path)
	resolved := root
	hops := 0

	for i := 0; i < len(parts); i++ {
		next := filepath.Join(resolved, parts[i])
		l, err := c.readLink(next)
		if err != nil {
			return "", err
		}
		if !l.isLink {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &AccessError{Op: "realpath", Path: path, Err: syscall.ELOOP}
		}

		target := filepath.FromSlash(l.target)
		if !filepath.IsAbs(target) {
			target = filepath.Join(resolved, target)
		}
		var targetParts []string
		root, targetParts = splitPath(filepath.Clean(target))
		parts = append(targetParts, parts[i+1:]...)
		resolved = root
		i = -1
	}

	return resolved, nil
}

// splitPath separates a clean absolute path into its root (volume plus
// separator) and its non-empty components.
func splitPath(path string) (string, []string) {
	sep := string(filepath.Separator)
	vol := filepath.VolumeName(path)
	rest := strings.TrimPrefix(path[len(vol):], sep)
	var parts []string
	for _, p := range strings.Split(rest, sep) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return vol + sep, parts
}
