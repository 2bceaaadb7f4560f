/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Import
	}{
		{
			name: "static",
			src:  `import a from "a"; import { b } from './b.js'; import "side-effect";`,
			want: []Import{
				{Specifier: "a", Kind: Static, Line: 1},
				{Specifier: "./b.js", Kind: Static, Line: 1},
				{Specifier: "side-effect", Kind: Static, Line: 1},
			},
		},
		{
			name: "reexport",
			src:  "export * from \"./all\";\nexport { x as y } from \"@scope/pkg/sub\";\nexport const z = 1;",
			want: []Import{
				{Specifier: "./all", Kind: Reexport, Line: 1},
				{Specifier: "@scope/pkg/sub", Kind: Reexport, Line: 2},
			},
		},
		{
			name: "require",
			src:  "const fs = require('fs');\nconst { join } = require(\"node:path\");",
			want: []Import{
				{Specifier: "fs", Kind: Require, Line: 1},
				{Specifier: "node:path", Kind: Require, Line: 2},
			},
		},
		{
			name: "dynamic",
			src:  "async function f() {\n  await import('./lazy.js');\n  await import(`./template.js`);\n}",
			want: []Import{
				{Specifier: "./lazy.js", Kind: Dynamic, Line: 2},
				{Specifier: "./template.js", Kind: Dynamic, Line: 3},
			},
		},
		{
			name: "computed specifiers skipped",
			src:  "require(name);\nimport(`./locale/${lang}.js`);\nother('x');",
			want: nil,
		},
		{
			name: "query and fragment kept",
			src:  `import styles from "./styles.css?inline#top";`,
			want: []Import{
				{Specifier: "./styles.css?inline#top", Kind: Static, Line: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "import", Static.String())
	assert.Equal(t, "export", Reexport.String())
	assert.Equal(t, "require", Require.String())
	assert.Equal(t, "dynamic", Dynamic.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
