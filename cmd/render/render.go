/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package render provides shared rendering functions for CLI output.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bennypowers.dev/noderesolve/imports"
	"bennypowers.dev/noderesolve/resolver"
)

// Status labels a resolution outcome.
type Status string

const (
	StatusFound   Status = "found"
	StatusMissing Status = "not found"
	StatusIgnored Status = "ignored"
	StatusBuiltin Status = "builtin"
	StatusErrored Status = "error"
)

// Row holds computed display values for a single resolution.
type Row struct {
	Specifier string `json:"specifier"`
	Base      string `json:"base"`
	Status    Status `json:"-"`
	Target    string `json:"-"` // path, builtin name or error text
	Package   string `json:"-"`

	Result resolver.Result `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// NewRow computes the display values for one Resolve call.
func NewRow(base, specifier string, res resolver.Result, err error) Row {
	row := Row{Specifier: specifier, Base: base, Result: res}
	switch {
	case err != nil:
		row.Status = StatusErrored
		row.Target = err.Error()
		row.Error = err.Error()
	case res.Found:
		row.Status = StatusFound
		row.Target = res.Path
	case res.Ignored:
		row.Status = StatusIgnored
	case res.Builtin != "":
		row.Status = StatusBuiltin
		row.Target = res.Builtin
	default:
		row.Status = StatusMissing
	}
	if res.Package != nil {
		row.Package = res.Package.Name
	}
	return row
}

// styles colors statuses for the terminal behind w. Writers that are
// not terminals get plain text.
type styles struct {
	found, missing, muted, heading lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		found:   r.NewStyle().Foreground(lipgloss.Color("#5FD75F")),
		missing: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#888888")),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
	}
}

func (s styles) status(st Status) lipgloss.Style {
	switch st {
	case StatusFound:
		return s.found
	case StatusMissing, StatusErrored:
		return s.missing
	default:
		return s.muted
	}
}

// Text renders one line per row: "specifier -> target".
func Text(w io.Writer, rows []Row) error {
	s := newStyles(w)
	for _, r := range rows {
		target := r.Target
		if target == "" {
			target = "(" + string(r.Status) + ")"
		}
		if _, err := fmt.Fprintf(w, "%s -> %s\n", r.Specifier, s.status(r.Status).Render(target)); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidths calculates the max width needed for each column.
func ColumnWidths(rows []Row) (spec, status, pkg int) {
	spec, status, pkg = 9, 6, 7 // minimums for headers
	for _, r := range rows {
		spec = max(spec, len(r.Specifier))
		status = max(status, len(r.Status))
		pkg = max(pkg, len(r.Package))
	}
	return
}

// Table renders rows as aligned columns with a header.
func Table(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	s := newStyles(w)
	specW, statusW, pkgW := ColumnWidths(rows)

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %s",
		specW, toTitleCase("specifier"), statusW, toTitleCase("status"), pkgW, toTitleCase("package"), toTitleCase("target"))
	if _, err := fmt.Fprintln(w, s.heading.Render(header)); err != nil {
		return err
	}
	for _, r := range rows {
		pkg := r.Package
		if pkg == "" {
			pkg = "-"
		}
		status := s.status(r.Status).Render(fmt.Sprintf("%-*s", statusW, r.Status))
		if _, err := fmt.Fprintf(w, "%-*s  %s  %-*s  %s\n", specW, r.Specifier, status, pkgW, pkg, r.Target); err != nil {
			return err
		}
	}
	return nil
}

// JSON renders v as indented JSON.
func JSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// Imports renders scanned files with their imports, relative to root.
func Imports(w io.Writer, root string, files []*imports.File) error {
	s := newStyles(w)
	for i, f := range files {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, s.heading.Render(relative(root, f.Path))); err != nil {
			return err
		}
		for _, imp := range f.Imports {
			row := NewRow(filepath.Dir(f.Path), imp.Specifier, imp.Result, imp.Err)
			target := row.Target
			if row.Status == StatusFound {
				target = relative(root, target)
			}
			if target == "" {
				target = "(" + string(row.Status) + ")"
			}
			if _, err := fmt.Fprintf(w, "  %s %-7s %s -> %s\n",
				s.muted.Render(fmt.Sprintf("%4d", imp.Line)), imp.Kind, imp.Specifier, s.status(row.Status).Render(target)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cycle renders an import cycle as "a -> b -> a".
func Cycle(w io.Writer, root string, cycle []string) error {
	parts := make([]string, len(cycle))
	for i, p := range cycle {
		parts[i] = relative(root, p)
	}
	s := newStyles(w)
	_, err := fmt.Fprintf(w, "%s %s\n", s.missing.Render(toTitleCase("circular import:")), strings.Join(parts, " -> "))
	return err
}

func relative(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// toTitleCase converts a string to Title Case.
func toTitleCase(s string) string {
	caser := cases.Title(language.English)
	return caser.String(s)
}
