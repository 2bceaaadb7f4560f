/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package options builds resolver configuration from config files,
// flags and NODERESOLVE_* environment variables.
package options

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"bennypowers.dev/noderesolve/config"
	"bennypowers.dev/noderesolve/fs"
)

// Viper keys shared by the commands.
const (
	KeyConfig     = "config"
	KeyVerbose    = "verbose"
	KeyExtensions = "extensions"
	KeyConditions = "conditions"
	KeyMainFields = "main-fields"
	KeyNoSymlinks = "no-symlinks"
	KeyTSConfig   = "tsconfig"
)

// Config loads the configuration for a command running in dir: the file
// named by --config, else the first .config/noderesolve.* found in dir,
// else the defaults. Flag and environment overrides are applied last.
func Config(filesystem fs.FileSystem, dir string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path := viper.GetString(KeyConfig); path != "" {
		cfg, err = config.LoadFile(filesystem, path)
	} else {
		cfg, err = config.Load(filesystem, dir)
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}

	if exts := viper.GetStringSlice(KeyExtensions); len(exts) > 0 {
		cfg.Extensions = exts
	}
	if conds := viper.GetStringSlice(KeyConditions); len(conds) > 0 {
		cfg.Conditions = conds
	}
	if fields := viper.GetStringSlice(KeyMainFields); len(fields) > 0 {
		cfg.MainFields = fields
	}
	if viper.GetBool(KeyNoSymlinks) {
		cfg.Symlinks = false
	}
	if path := viper.GetString(KeyTSConfig); path != "" {
		cfg.TSConfig = path
	}
	if cfg.TSConfig != "" && !filepath.IsAbs(cfg.TSConfig) {
		cfg.TSConfig = filepath.Join(dir, cfg.TSConfig)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AbsDir returns dir as an absolute path, defaulting to the working
// directory.
func AbsDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting working directory: %w", err)
		}
		return wd, nil
	}
	return filepath.Abs(dir)
}
