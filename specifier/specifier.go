/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package specifier classifies JavaScript module specifiers.
package specifier

import (
	"regexp"
	"strings"
)

// Kind indicates the type of specifier.
type Kind int

const (
	// KindBare is an installed package name, e.g. "lodash" or "@scope/pkg/sub".
	KindBare Kind = iota
	// KindRelative starts with "./" or "../" (or is "." / "..").
	KindRelative
	// KindAbsolute starts with "/" or a platform absolute prefix.
	KindAbsolute
	// KindInternal is a package-private import starting with "#".
	KindInternal
	// KindBuiltin is a Node core module such as "fs" or "node:path".
	KindBuiltin
)

func (k Kind) String() string {
	switch k {
	case KindBare:
		return "bare"
	case KindRelative:
		return "relative"
	case KindAbsolute:
		return "absolute"
	case KindInternal:
		return "internal"
	case KindBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Specifier represents a parsed module specifier.
type Specifier struct {
	// Kind is the type of specifier.
	Kind Kind

	// Request is the specifier without its query and fragment.
	Request string

	// Package is the package name for bare and builtin specifiers
	// (e.g., "@scope/pkg" or "pkg").
	Package string

	// SubPath is everything after Package, including its leading "/".
	// Empty means the package entry point.
	SubPath string

	// Query is the "?..." suffix, including the "?".
	Query string

	// Fragment is the "#..." suffix, including the "#".
	Fragment string

	// Raw is the original specifier string.
	Raw string
}

// windowsAbsPattern matches drive-letter paths (C:\ or C:/) and UNC prefixes.
var windowsAbsPattern = regexp.MustCompile(`^([A-Za-z]:[\\/]|\\\\)`)

// Parse classifies a specifier string. It never fails; an empty request
// is classified as relative to the base directory.
func Parse(raw string) *Specifier {
	request, query, fragment := splitIdentifier(raw)
	spec := Classify(request)
	spec.Query = query
	spec.Fragment = fragment
	spec.Raw = raw
	return spec
}

// Classify classifies a request that carries no query or fragment.
// A "#" or "?" in request is kept as part of the path.
func Classify(request string) *Specifier {
	spec := &Specifier{Request: request, Raw: request}

	switch {
	case request == "":
		spec.Kind = KindRelative
	case IsAbsolute(request):
		spec.Kind = KindAbsolute
	case IsRelative(request):
		spec.Kind = KindRelative
	case strings.HasPrefix(request, "#"):
		spec.Kind = KindInternal
	case strings.HasPrefix(request, "node:"):
		spec.Kind = KindBuiltin
		spec.Package = strings.TrimPrefix(request, "node:")
	case IsBuiltin(request):
		spec.Kind = KindBuiltin
		spec.Package = request
	default:
		spec.Kind = KindBare
		spec.Package, spec.SubPath = SplitPackage(request)
	}

	return spec
}

// IsAbsolute reports whether request is an absolute path on any supported platform.
func IsAbsolute(request string) bool {
	return strings.HasPrefix(request, "/") || windowsAbsPattern.MatchString(request)
}

// IsRelative reports whether request is explicitly relative.
func IsRelative(request string) bool {
	switch request {
	case ".", "..":
		return true
	}
	for _, prefix := range []string{"./", "../", ".\\", "..\\"} {
		if strings.HasPrefix(request, prefix) {
			return true
		}
	}
	return false
}

// SplitPackage splits a bare request into its package name and sub-path.
// Scoped names ("@scope/name") span two segments.
//
//	SplitPackage("a")        // "a", ""
//	SplitPackage("a/b")      // "a", "/b"
//	SplitPackage("@a/b")     // "@a/b", ""
//	SplitPackage("@a/b/c")   // "@a/b", "/c"
func SplitPackage(request string) (pkg, subPath string) {
	segments := 1
	if strings.HasPrefix(request, "@") {
		segments = 2
	}
	seen := 0
	for i := 0; i < len(request); i++ {
		if request[i] != '/' {
			continue
		}
		seen++
		if seen == segments {
			return request[:i], request[i:]
		}
	}
	return request, ""
}

// IsDirectory reports whether the request explicitly names a directory:
// a trailing "/" or a final "." or ".." segment.
func (s *Specifier) IsDirectory() bool {
	r := s.Request
	return r == "" || r == "." || r == ".." ||
		strings.HasSuffix(r, "/") || strings.HasSuffix(r, "/.") || strings.HasSuffix(r, "/..")
}

// AsBare returns a copy of a builtin specifier classified as an
// installed package, for resolvers that look builtins up on disk.
func (s *Specifier) AsBare() *Specifier {
	next := *s
	next.Kind = KindBare
	next.Package, next.SubPath = SplitPackage(s.Request)
	return &next
}

// IsBare returns true for installed package specifiers.
func (s *Specifier) IsBare() bool {
	return s.Kind == KindBare
}

// IsPath returns true for relative and absolute specifiers.
func (s *Specifier) IsPath() bool {
	return s.Kind == KindRelative || s.Kind == KindAbsolute
}

// WithRequest returns a copy of s classified for a new request,
// keeping the original query and fragment.
func (s *Specifier) WithRequest(request string) *Specifier {
	next := Classify(request)
	next.Query = s.Query
	next.Fragment = s.Fragment
	next.Raw = s.Raw
	return next
}

type parseState int

const (
	stateStart parseState = iota
	stateRequest
	stateQuery
	stateFragment
)

// splitIdentifier separates request, query and fragment. A leading "#"
// belongs to the request (package imports), and a "#" inside the
// fragment is kept verbatim.
func splitIdentifier(ident string) (request, query, fragment string) {
	var req, q, frag strings.Builder
	state := stateStart
	for _, c := range ident {
		switch c {
		case '#':
			switch state {
			case stateRequest, stateQuery:
				state = stateFragment
			case stateStart:
				state = stateRequest
			}
		case '?':
			if state != stateFragment {
				state = stateQuery
			}
		default:
			if state == stateStart {
				state = stateRequest
			}
		}
		switch state {
		case stateRequest:
			req.WriteRune(c)
		case stateQuery:
			q.WriteRune(c)
		case stateFragment:
			frag.WriteRune(c)
		}
	}
	return req.String(), q.String(), frag.String()
}
