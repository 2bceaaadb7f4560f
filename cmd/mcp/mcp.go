/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mcp provides the mcp command, a Model Context Protocol server
// over stdio exposing module resolution as tools.
package mcp

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"bennypowers.dev/noderesolve/cmd/options"
	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/imports"
	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/internal/version"
	"bennypowers.dev/noderesolve/resolver"
)

// Cmd is the mcp cobra command.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run a Model Context Protocol server on stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout with two tools:
"resolve" resolves specifiers from a directory, and "scan_imports" lists
the specifiers a JavaScript source imports.`,
	Args: cobra.NoArgs,
	RunE: run,
}

// ResolveInput is the argument of the resolve tool.
type ResolveInput struct {
	Specifiers []string `json:"specifiers" jsonschema:"module specifiers to resolve"`
	Base       string   `json:"base" jsonschema:"absolute directory to resolve from"`
}

// ResolveOutput is the result of the resolve tool, one entry per specifier.
type ResolveOutput struct {
	Results []ResolveEntry `json:"results"`
}

// ResolveEntry is one resolved specifier. It carries the same fields as
// the resolver's JSON output.
type ResolveEntry struct {
	Specifier string `json:"specifier"`
	resolver.Summary
	Error string `json:"error,omitempty"`
}

func newEntry(spec string, res resolver.Result, err error) ResolveEntry {
	entry := ResolveEntry{Specifier: spec, Summary: res.Summary()}
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}

// ScanInput is the argument of the scan_imports tool.
type ScanInput struct {
	Source string `json:"source" jsonschema:"JavaScript source text"`
}

// ScanOutput lists the imports found in a source.
type ScanOutput struct {
	Imports []ScanEntry `json:"imports"`
}

// ScanEntry is one import found in a source.
type ScanEntry struct {
	Specifier string `json:"specifier"`
	Kind      string `json:"kind" jsonschema:"import, export, require or dynamic"`
	Line      int    `json:"line"`
}

func run(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol
	logger.SetOutput(io.Discard)

	dir, err := options.AbsDir("")
	if err != nil {
		return err
	}
	filesystem := fs.NewOSFileSystem()
	cfg, err := options.Config(filesystem, dir)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	r, err := resolver.New(filesystem, cfg)
	if err != nil {
		return err
	}

	return NewServer(r).Run(cmd.Context(), &mcp.StdioTransport{})
}

// NewServer returns an MCP server whose tools use r.
func NewServer(r *resolver.Resolver) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: version.Name, Version: version.Get()}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Resolve JavaScript module specifiers to files using Node's module resolution rules.",
	}, resolveHandler(r))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan_imports",
		Description: "List the import, export-from, require and dynamic import specifiers of a JavaScript source.",
	}, scanImports)

	return server
}

func resolveHandler(r *resolver.Resolver) mcp.ToolHandlerFor[ResolveInput, ResolveOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
		if !filepath.IsAbs(in.Base) {
			return nil, ResolveOutput{}, fmt.Errorf("%w: %q", resolver.ErrRelativeBaseDir, in.Base)
		}
		out := ResolveOutput{Results: make([]ResolveEntry, 0, len(in.Specifiers))}
		for _, spec := range in.Specifiers {
			if err := ctx.Err(); err != nil {
				return nil, ResolveOutput{}, err
			}
			res, err := r.Resolve(in.Base, spec)
			out.Results = append(out.Results, newEntry(spec, res, err))
		}
		return nil, out, nil
	}
}

func scanImports(ctx context.Context, req *mcp.CallToolRequest, in ScanInput) (*mcp.CallToolResult, ScanOutput, error) {
	found, err := imports.Scan([]byte(in.Source))
	if err != nil {
		return nil, ScanOutput{}, err
	}
	out := ScanOutput{Imports: make([]ScanEntry, 0, len(found))}
	for _, imp := range found {
		out.Imports = append(out.Imports, ScanEntry{Specifier: imp.Specifier, Kind: imp.Kind.String(), Line: imp.Line})
	}
	return nil, out, nil
}
