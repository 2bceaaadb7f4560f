/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package imports finds module specifiers in JavaScript sources,
// resolves them and builds the resulting file dependency graph.
package imports

import (
	"errors"
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// ErrParse is returned when tree-sitter produces no tree.
var ErrParse = errors.New("failed to parse source")

// Kind is the syntactic form of an import.
type Kind int

const (
	// Static is `import ... from "x"` or `import "x"`.
	Static Kind = iota
	// Reexport is `export ... from "x"`.
	Reexport
	// Require is `require("x")`.
	Require
	// Dynamic is `import("x")`.
	Dynamic
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "import"
	case Reexport:
		return "export"
	case Require:
		return "require"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Import is one specifier found in a source file.
type Import struct {
	Specifier string `json:"specifier"`
	Kind      Kind   `json:"kind"`

	// Line is 1-based.
	Line int `json:"line"`
}

// Scan extracts the string-literal specifiers of every import form in
// src, in source order. Computed specifiers are skipped.
func Scan(src []byte) ([]Import, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_javascript.Language())); err != nil {
		return nil, fmt.Errorf("javascript grammar: %w", err)
	}

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, ErrParse
	}
	defer tree.Close()

	var found []Import
	stack := []*tree_sitter.Node{tree.RootNode()}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if imp, ok := importOf(node, src); ok {
			found = append(found, imp)
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(uint(i)); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return found, nil
}

func importOf(node *tree_sitter.Node, src []byte) (Import, bool) {
	var kind Kind
	var source *tree_sitter.Node

	switch node.Kind() {
	case "import_statement":
		kind, source = Static, node.ChildByFieldName("source")
	case "export_statement":
		kind, source = Reexport, node.ChildByFieldName("source")
	case "call_expression":
		fn := node.ChildByFieldName("function")
		args := node.ChildByFieldName("arguments")
		if fn == nil || args == nil || args.NamedChildCount() == 0 {
			return Import{}, false
		}
		switch {
		case fn.Kind() == "import":
			kind = Dynamic
		case fn.Kind() == "identifier" && fn.Utf8Text(src) == "require":
			kind = Require
		default:
			return Import{}, false
		}
		source = args.NamedChild(0)
	default:
		return Import{}, false
	}

	if source == nil {
		return Import{}, false
	}
	spec, ok := literal(source, src)
	if !ok {
		return Import{}, false
	}
	return Import{
		Specifier: spec,
		Kind:      kind,
		Line:      int(node.StartPosition().Row) + 1,
	}, true
}

// literal returns the value of a string or substitution-free template
// literal.
func literal(node *tree_sitter.Node, src []byte) (string, bool) {
	switch node.Kind() {
	case "string":
	case "template_string":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if node.NamedChild(i).Kind() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	text := node.Utf8Text(src)
	if len(text) < 2 {
		return "", false
	}
	value := text[1 : len(text)-1]
	if value == "" || strings.ContainsAny(value, "\n\\") {
		return "", false
	}
	return value, true
}
