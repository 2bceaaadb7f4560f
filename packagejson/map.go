/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package packagejson

import (
	"slices"
	"strings"
)

// Conditions lists the active condition names in priority order. The
// "default" condition is always active and is tried last unless listed.
type Conditions []string

// NewConditions builds a condition list, dropping duplicates.
func NewConditions(names ...string) Conditions {
	c := make(Conditions, 0, len(names)+1)
	for _, n := range names {
		if !slices.Contains(c, n) {
			c = append(c, n)
		}
	}
	return c
}

// Priority returns the names to try against a condition object, in order.
func (c Conditions) Priority() []string {
	if slices.Contains(c, "default") {
		return c
	}
	return append(slices.Clip(c), "default")
}

// Entry is a subpath key of an export or import map.
type Entry struct {
	Key    string
	Target *Target
}

// Map is a normalized export or import map. Keys are "." or "./..."
// for exports and "#..." for imports.
type Map struct {
	Entries []Entry

	// allowBare permits targets that are package names, which only
	// import maps may use.
	allowBare bool
}

func newExportsMap(root *Target) *Map {
	m := &Map{}
	switch root.Kind {
	case TargetConditions:
		if len(root.Conditions) > 0 && strings.HasPrefix(root.Conditions[0].Name, ".") {
			for _, c := range root.Conditions {
				if strings.HasPrefix(c.Name, ".") {
					m.Entries = append(m.Entries, Entry{Key: c.Name, Target: c.Target})
				}
			}
			return m
		}
		m.Entries = []Entry{{Key: ".", Target: root}}
	case TargetPath, TargetArray, TargetNull:
		m.Entries = []Entry{{Key: ".", Target: root}}
	}
	return m
}

func newImportsMap(root *Target) *Map {
	m := &Map{allowBare: true}
	if root.Kind != TargetConditions {
		return m
	}
	for _, c := range root.Conditions {
		if strings.HasPrefix(c.Name, "#") {
			m.Entries = append(m.Entries, Entry{Key: c.Name, Target: c.Target})
		}
	}
	return m
}

// Match looks up request (e.g. "./feature" or "#dep") and returns the
// targets it maps to for the given conditions, in preference order.
// A condition object picks the first branch named by conditions that
// yields a target, then its "default" branch.
// matched is false when no key applies; a matched key whose targets
// are all excluded returns matched with no targets.
//
// Keys are tried exactly first, then the "*" pattern with the longest
// prefix, then the longest legacy folder key ending in "/".
func (m *Map) Match(request string, conditions Conditions) (targets []string, matched bool) {
	if m == nil {
		return nil, false
	}

	for _, e := range m.Entries {
		if e.Key == request && !strings.Contains(e.Key, "*") {
			return m.resolve(e.Target, "", matchExact, conditions)
		}
	}

	var best *Entry
	var bestSub string
	for i := range m.Entries {
		e := &m.Entries[i]
		star := strings.IndexByte(e.Key, '*')
		if star < 0 || strings.IndexByte(e.Key[star+1:], '*') >= 0 {
			continue
		}
		prefix, trailer := e.Key[:star], e.Key[star+1:]
		if !strings.HasPrefix(request, prefix) || request == prefix {
			continue
		}
		if len(request) < len(e.Key) || !strings.HasSuffix(request, trailer) {
			continue
		}
		if best == nil || patternBefore(e.Key, best.Key) {
			best = e
			bestSub = request[len(prefix) : len(request)-len(trailer)]
		}
	}
	if best != nil {
		return m.resolve(best.Target, bestSub, matchPattern, conditions)
	}

	var folder *Entry
	for i := range m.Entries {
		e := &m.Entries[i]
		if !strings.HasSuffix(e.Key, "/") || !strings.HasPrefix(request, e.Key) {
			continue
		}
		if folder == nil || len(e.Key) > len(folder.Key) {
			folder = e
		}
	}
	if folder != nil {
		return m.resolve(folder.Target, request[len(folder.Key):], matchFolder, conditions)
	}

	return nil, false
}

// patternBefore orders pattern keys: a longer prefix before the "*"
// wins, then the longer key.
func patternBefore(a, b string) bool {
	aBase, bBase := strings.IndexByte(a, '*'), strings.IndexByte(b, '*')
	if aBase != bBase {
		return aBase > bBase
	}
	return len(a) > len(b)
}

type matchMode int

const (
	matchExact matchMode = iota
	matchPattern
	matchFolder
)

func (m *Map) resolve(t *Target, sub string, mode matchMode, conditions Conditions) ([]string, bool) {
	switch t.Kind {
	case TargetPath:
		target, ok := m.substitute(t.Path, sub, mode)
		if !ok {
			return nil, false
		}
		return []string{target}, true

	case TargetConditions:
		for _, name := range conditions.Priority() {
			i := slices.IndexFunc(t.Conditions, func(c Condition) bool { return c.Name == name })
			if i < 0 {
				continue
			}
			if targets, ok := m.resolve(t.Conditions[i].Target, sub, mode, conditions); ok {
				return targets, true
			}
		}
		return nil, false

	case TargetArray:
		var targets []string
		matched := false
		for _, alt := range t.Alternatives {
			if found, ok := m.resolve(alt, sub, mode, conditions); ok {
				targets = append(targets, found...)
				matched = true
			}
		}
		return targets, matched

	case TargetNull:
		return nil, true
	}
	return nil, false
}

// substitute validates a string target and fills in the matched part.
func (m *Map) substitute(target, sub string, mode matchMode) (string, bool) {
	if hasInvalidSegment(sub) {
		return "", false
	}

	if !strings.HasPrefix(target, "./") {
		// Import maps may point at other packages.
		if !m.allowBare || strings.HasPrefix(target, "../") || strings.HasPrefix(target, "/") {
			return "", false
		}
	} else if hasInvalidSegment(target[2:]) {
		return "", false
	}

	switch mode {
	case matchPattern:
		return strings.ReplaceAll(target, "*", sub), true
	case matchFolder:
		if !strings.HasSuffix(target, "/") {
			return "", false
		}
		return target + sub, true
	}
	return target, true
}

// hasInvalidSegment reports "." , ".." or node_modules path segments.
func hasInvalidSegment(p string) bool {
	for seg := range strings.SplitSeq(strings.ReplaceAll(p, "\\", "/"), "/") {
		switch strings.ToLower(seg) {
		case ".", "..", "node_modules":
			return true
		}
	}
	return false
}
