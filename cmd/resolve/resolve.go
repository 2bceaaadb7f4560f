/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolve provides the resolve command for noderesolve.
package resolve

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/noderesolve/cmd/options"
	"bennypowers.dev/noderesolve/cmd/render"
	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/resolver"
)

// ErrUnresolved is returned when at least one specifier did not resolve.
var ErrUnresolved = errors.New("unresolved specifiers")

// Cmd is the resolve cobra command.
var Cmd = &cobra.Command{
	Use:   "resolve <specifier...>",
	Short: "Resolve module specifiers to files",
	Long: `Resolve each specifier from a base directory and print the file it names.

Exits with an error when any specifier cannot be resolved. Ignored
(aliased to false) and builtin modules count as resolved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("base", "b", "", "Directory to resolve from (default: working directory)")
	Cmd.Flags().StringP("format", "f", "text", "Output format: text, json, table")
	Cmd.Flags().StringSlice(options.KeyExtensions, nil, "Extensions to try, in order")
	Cmd.Flags().StringSlice(options.KeyConditions, nil, "Export conditions, in priority order")
	Cmd.Flags().StringSlice(options.KeyMainFields, nil, "Descriptor fields naming the entry point")
	Cmd.Flags().Bool(options.KeyNoSymlinks, false, "Report paths without resolving symlinks")

	for _, key := range []string{options.KeyExtensions, options.KeyConditions, options.KeyMainFields, options.KeyNoSymlinks} {
		_ = viper.BindPFlag(key, Cmd.Flags().Lookup(key))
	}
}

func run(cmd *cobra.Command, args []string) error {
	base, _ := cmd.Flags().GetString("base")
	format, _ := cmd.Flags().GetString("format")

	dir, err := options.AbsDir(base)
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

	rows := Resolve(r, dir, args)

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = render.JSON(out, rows)
	case "table":
		err = render.Table(out, rows)
	case "text":
		err = render.Text(out, rows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	missing := 0
	for _, row := range rows {
		if row.Status == render.StatusMissing || row.Status == render.StatusErrored {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d of %d", ErrUnresolved, missing, len(rows))
	}
	return nil
}

// Resolve resolves every specifier from dir.
func Resolve(r *resolver.Resolver, dir string, specifiers []string) []render.Row {
	rows := make([]render.Row, 0, len(specifiers))
	for _, spec := range specifiers {
		res, err := r.Resolve(dir, spec)
		rows = append(rows, render.NewRow(dir, spec, res, err))
	}
	return rows
}
