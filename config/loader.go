/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"fmt"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"bennypowers.dev/noderesolve/fs"
	"bennypowers.dev/noderesolve/internal/logger"
)

// ConfigFileName is the base name of the config file without extension.
const ConfigFileName = "noderesolve"

// ConfigDir is the directory where config files are stored.
const ConfigDir = ".config"

// configExtensions are the supported config file extensions in priority order.
var configExtensions = []string{".yaml", ".yml", ".json", ".jsonc"}

// Load searches for .config/noderesolve.{yaml,yml,json,jsonc} from rootDir.
// Returns nil if no config found (not an error).
func Load(filesystem fs.FileSystem, rootDir string) (*Config, error) {
	for _, ext := range configExtensions {
		configPath := filepath.Join(rootDir, ConfigDir, ConfigFileName+ext)
		if !filesystem.Exists(configPath) {
			continue
		}
		return LoadFile(filesystem, configPath)
	}

	return nil, nil
}

// LoadFile reads one config file, choosing the decoder by extension.
// JSON files may contain comments and trailing commas.
func LoadFile(filesystem fs.FileSystem, configPath string) (*Config, error) {
	data, err := filesystem.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch filepath.Ext(configPath) {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	case ".json", ".jsonc":
		cfg, err = Parse(jsonc.ToJSON(data))
	default:
		return nil, &Error{Err: fmt.Errorf("unsupported config file %s", configPath)}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	logger.Debug("loaded config from %s", configPath)
	return cfg, nil
}

// LoadOrDefault returns config or defaults if not found.
func LoadOrDefault(filesystem fs.FileSystem, rootDir string) *Config {
	cfg, err := Load(filesystem, rootDir)
	if err != nil {
		logger.Warn("ignoring config: %v", err)
	}
	if err != nil || cfg == nil {
		return Default()
	}
	return cfg
}
