/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides configuration for the module resolver.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error reports configuration that cannot be used to build a resolver.
type Error struct {
	// Field is the offending option, empty for document-level errors.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid resolver config: %v", e.Err)
	}
	return fmt.Sprintf("invalid resolver config option %q: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds resolver options. Use Default for a populated value;
// absent options keep their defaults when parsed.
type Config struct {
	// Extensions are appended to a path when the exact path is not a file.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// EnforceExtension skips the exact-path probe. Nil means enabled only
	// when Extensions contains "".
	EnforceExtension *bool `yaml:"enforceExtension" json:"enforceExtension"`

	// ExtensionAlias maps an extension to the extensions tried in its place,
	// e.g. ".js" -> [".ts", ".js"].
	ExtensionAlias map[string][]string `yaml:"extensionAlias" json:"extensionAlias"`

	// MainFields are descriptor fields naming a package's entry point.
	MainFields []string `yaml:"mainFields" json:"mainFields"`

	// MainFiles are the index file names tried inside a directory.
	MainFiles []string `yaml:"mainFiles" json:"mainFiles"`

	// Conditions select export and import map targets, in priority order.
	Conditions []string `yaml:"conditions" json:"conditions"`

	ExportsFields []string `yaml:"exportsFields" json:"exportsFields"`
	ImportsFields []string `yaml:"importsFields" json:"importsFields"`

	// AliasFields are descriptor fields like "browser" that remap requests.
	AliasFields []string `yaml:"aliasFields" json:"aliasFields"`

	// Alias rewrites request prefixes before resolution.
	Alias AliasMap `yaml:"alias" json:"alias"`

	// Fallback rewrites request prefixes when resolution fails.
	Fallback AliasMap `yaml:"fallback" json:"fallback"`

	// Modules are the directory names searched for packages. Absolute
	// entries are searched directly.
	Modules []string `yaml:"modules" json:"modules"`

	// DescriptionFile is the package descriptor file name.
	DescriptionFile string `yaml:"descriptionFile" json:"descriptionFile"`

	// Symlinks resolves results to their real path.
	Symlinks bool `yaml:"symlinks" json:"symlinks"`

	// PreferRelative tries a bare request as "./request" first.
	PreferRelative bool `yaml:"preferRelative" json:"preferRelative"`

	// Builtins resolves Node core modules to a builtin marker instead of
	// searching for them on disk. Off by default, so an installed "events"
	// or "buffer" package is found like any other.
	Builtins bool `yaml:"builtins" json:"builtins"`

	// TSConfig is an absolute path to a tsconfig.json whose baseUrl and
	// paths map non-relative requests before module lookup.
	TSConfig string `yaml:"tsconfig" json:"tsconfig"`

	// ResultCacheSize bounds the whole-result cache. Zero disables it.
	ResultCacheSize int `yaml:"resultCacheSize" json:"resultCacheSize"`
}

// AliasTarget is the value of an alias entry: one or more replacement
// requests tried in order, or Ignore for `false`.
type AliasTarget struct {
	Targets []string
	Ignore  bool
}

// UnmarshalJSON accepts a string, an array of strings, false or null.
// null ignores the module like false.
func (a *AliasTarget) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = AliasTarget{Ignore: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AliasTarget{Targets: []string{s}}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = AliasTarget{Targets: list}
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil && !b {
		*a = AliasTarget{Ignore: true}
		return nil
	}
	return fmt.Errorf("alias target must be a string, an array of strings or false, got %s", data)
}

// MarshalJSON writes the shortest form that round-trips.
func (a AliasTarget) MarshalJSON() ([]byte, error) {
	switch {
	case a.Ignore:
		return []byte("false"), nil
	case len(a.Targets) == 1:
		return json.Marshal(a.Targets[0])
	default:
		return json.Marshal(a.Targets)
	}
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON. Null targets
// are handled by AliasMap.
func (a *AliasTarget) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!bool" {
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			if b {
				return fmt.Errorf("line %d: alias target cannot be true", node.Line)
			}
			*a = AliasTarget{Ignore: true}
			return nil
		}
		*a = AliasTarget{Targets: []string{node.Value}}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = AliasTarget{Targets: list}
		return nil
	}
	return fmt.Errorf("line %d: alias target must be a string, a list or false", node.Line)
}

// AliasMap maps request prefixes to their alias targets.
type AliasMap map[string]AliasTarget

// UnmarshalYAML decodes each target, reading a null target as false.
// yaml.v3 does not hand null values to AliasTarget.UnmarshalYAML.
func (m *AliasMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: aliases must be a mapping", node.Line)
	}
	out := make(AliasMap, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var target AliasTarget
		if value.ShortTag() == "!!null" {
			target.Ignore = true
		} else if err := value.Decode(&target); err != nil {
			return err
		}
		out[key.Value] = target
	}
	*m = out
	return nil
}

// AliasEntry is one alias rule in match order.
type AliasEntry struct {
	Prefix string
	AliasTarget
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Extensions:      []string{".js", ".json", ".node"},
		MainFields:      []string{"main"},
		MainFiles:       []string{"index"},
		Conditions:      []string{"node", "require"},
		ExportsFields:   []string{"exports"},
		ImportsFields:   []string{"imports"},
		AliasFields:     []string{},
		Modules:         []string{"node_modules"},
		DescriptionFile: "package.json",
		Symlinks:        true,
	}
}

// Parse builds a config from a JSON object. Absent options keep their
// defaults and unknown keys are ignored.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Err: err}
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML builds a config from a YAML document.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Err: err}
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills options left nil with their defaults, adds missing
// leading dots to extensions and validates the result.
func (c *Config) Normalize() error {
	def := Default()
	if c.Extensions == nil {
		c.Extensions = def.Extensions
	}
	if c.MainFields == nil {
		c.MainFields = def.MainFields
	}
	if c.MainFiles == nil {
		c.MainFiles = def.MainFiles
	}
	if c.Conditions == nil {
		c.Conditions = def.Conditions
	}
	if c.ExportsFields == nil {
		c.ExportsFields = def.ExportsFields
	}
	if c.ImportsFields == nil {
		c.ImportsFields = def.ImportsFields
	}
	if c.Modules == nil {
		c.Modules = def.Modules
	}
	if c.DescriptionFile == "" {
		c.DescriptionFile = def.DescriptionFile
	}

	for i, ext := range c.Extensions {
		c.Extensions[i] = dotted(ext)
	}
	if len(c.ExtensionAlias) > 0 {
		normalized := make(map[string][]string, len(c.ExtensionAlias))
		for ext, aliases := range c.ExtensionAlias {
			if ext == "" {
				return &Error{Field: "extensionAlias", Err: fmt.Errorf("empty extension")}
			}
			list := make([]string, len(aliases))
			for i, a := range aliases {
				list[i] = dotted(a)
			}
			normalized[dotted(ext)] = list
		}
		c.ExtensionAlias = normalized
	}

	if strings.ContainsAny(c.DescriptionFile, `/\`) {
		return &Error{Field: "descriptionFile", Err: fmt.Errorf("must be a file name, got %q", c.DescriptionFile)}
	}
	for field, list := range map[string][]string{
		"mainFields":    c.MainFields,
		"mainFiles":     c.MainFiles,
		"conditions":    c.Conditions,
		"exportsFields": c.ExportsFields,
		"importsFields": c.ImportsFields,
		"aliasFields":   c.AliasFields,
		"modules":       c.Modules,
	} {
		if slices.Contains(list, "") {
			return &Error{Field: field, Err: fmt.Errorf("entries must not be empty")}
		}
	}
	for field, aliases := range map[string]map[string]AliasTarget{"alias": c.Alias, "fallback": c.Fallback} {
		for prefix, target := range aliases {
			if prefix == "" {
				return &Error{Field: field, Err: fmt.Errorf("empty alias key")}
			}
			if !target.Ignore && len(target.Targets) == 0 {
				return &Error{Field: field, Err: fmt.Errorf("alias %q has no targets", prefix)}
			}
			if slices.Contains(target.Targets, "") {
				return &Error{Field: field, Err: fmt.Errorf("alias %q has an empty target", prefix)}
			}
		}
	}
	if c.TSConfig != "" && !filepath.IsAbs(c.TSConfig) {
		return &Error{Field: "tsconfig", Err: fmt.Errorf("must be an absolute path, got %q", c.TSConfig)}
	}
	if c.ResultCacheSize < 0 {
		return &Error{Field: "resultCacheSize", Err: fmt.Errorf("must not be negative, got %d", c.ResultCacheSize)}
	}
	return nil
}

// EnforcesExtension reports whether the exact-path probe is skipped.
func (c *Config) EnforcesExtension() bool {
	if c.EnforceExtension != nil {
		return *c.EnforceExtension
	}
	return slices.Contains(c.Extensions, "")
}

// AliasEntries returns the alias rules, longest prefix first.
func (c *Config) AliasEntries() []AliasEntry {
	return sortedAliases(c.Alias)
}

// FallbackEntries returns the fallback rules, longest prefix first.
func (c *Config) FallbackEntries() []AliasEntry {
	return sortedAliases(c.Fallback)
}

func sortedAliases(m map[string]AliasTarget) []AliasEntry {
	entries := make([]AliasEntry, 0, len(m))
	for prefix, target := range m {
		entries = append(entries, AliasEntry{Prefix: prefix, AliasTarget: target})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].Prefix) != len(entries[j].Prefix) {
			return len(entries[i].Prefix) > len(entries[j].Prefix)
		}
		return entries[i].Prefix < entries[j].Prefix
	})
	return entries
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Extensions = slices.Clone(c.Extensions)
	clone.MainFields = slices.Clone(c.MainFields)
	clone.MainFiles = slices.Clone(c.MainFiles)
	clone.Conditions = slices.Clone(c.Conditions)
	clone.ExportsFields = slices.Clone(c.ExportsFields)
	clone.ImportsFields = slices.Clone(c.ImportsFields)
	clone.AliasFields = slices.Clone(c.AliasFields)
	clone.Modules = slices.Clone(c.Modules)
	if c.EnforceExtension != nil {
		v := *c.EnforceExtension
		clone.EnforceExtension = &v
	}
	if c.ExtensionAlias != nil {
		clone.ExtensionAlias = make(map[string][]string, len(c.ExtensionAlias))
		for k, v := range c.ExtensionAlias {
			clone.ExtensionAlias[k] = slices.Clone(v)
		}
	}
	clone.Alias = maps.Clone(c.Alias)
	clone.Fallback = maps.Clone(c.Fallback)
	return &clone
}

func dotted(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
