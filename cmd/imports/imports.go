/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package imports provides the imports command for noderesolve.
package imports

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/noderesolve/cmd/options"
	"bennypowers.dev/noderesolve/cmd/render"
	"bennypowers.dev/noderesolve/fs"
	jsimports "bennypowers.dev/noderesolve/imports"
	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/resolver"
)

// ErrCycle is returned by --cycles when the files import each other.
var ErrCycle = errors.New("import cycle found")

// Cmd is the imports cobra command.
var Cmd = &cobra.Command{
	Use:   "imports [glob...]",
	Short: "List and resolve the imports of JavaScript files",
	Long: `Scan JavaScript files matching the globs (default **/*.{js,mjs,cjs,jsx})
for import, export-from, require and dynamic import specifiers, and
resolve each one from its file's directory.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("root", "r", "", "Directory globs are relative to (default: working directory)")
	Cmd.Flags().StringP("format", "f", "text", "Output format: text, json")
	Cmd.Flags().Bool("cycles", false, "Fail when the files import each other in a cycle")
	Cmd.Flags().IntP("jobs", "j", 0, "Files to scan at once (default: GOMAXPROCS)")
}

func run(cmd *cobra.Command, args []string) error {
	rootFlag, _ := cmd.Flags().GetString("root")
	format, _ := cmd.Flags().GetString("format")
	cycles, _ := cmd.Flags().GetBool("cycles")
	jobs, _ := cmd.Flags().GetInt("jobs")

	root, err := options.AbsDir(rootFlag)
	if err != nil {
		return err
	}

	filesystem := fs.NewOSFileSystem()
	cfg, err := options.Config(filesystem, root)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	r, err := resolver.New(filesystem, cfg)
	if err != nil {
		return err
	}

	files, err := jsimports.Collect(cmd.Context(), r, jsimports.Options{
		Root:        root,
		Patterns:    args,
		Concurrency: jobs,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = render.JSON(out, files)
	case "text":
		err = render.Imports(out, root, files)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	if cycles {
		if cycle := jsimports.BuildGraph(files).FindCycle(); cycle != nil {
			if err := render.Cycle(cmd.ErrOrStderr(), root, cycle); err != nil {
				return err
			}
			return ErrCycle
		}
		logger.Info("no import cycles in %d files", len(files))
	}
	return nil
}
