/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for noderesolve.
package cmd

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/noderesolve/cmd/imports"
	"bennypowers.dev/noderesolve/cmd/mcp"
	"bennypowers.dev/noderesolve/cmd/options"
	"bennypowers.dev/noderesolve/cmd/resolve"
	versioncmd "bennypowers.dev/noderesolve/cmd/version"
	"bennypowers.dev/noderesolve/internal/logger"
	"bennypowers.dev/noderesolve/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "noderesolve",
	Short: "Resolve JavaScript module specifiers to files",
	Long:  `noderesolve resolves JavaScript module specifiers to files on disk following Node's module resolution rules, including package exports, imports, aliases and the browser field.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(viper.GetBool(options.KeyVerbose))
	},
	SilenceUsage: true,
	Version:      version.Full(),
}

// Execute runs the root command.
func Execute() error {
	// a missing .env is fine
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	viper.SetEnvPrefix("NODERESOLVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().StringP(options.KeyConfig, "c", "", "Config file (default .config/noderesolve.{yaml,yml,json,jsonc})")
	rootCmd.PersistentFlags().BoolP(options.KeyVerbose, "v", false, "Log resolution steps to stderr")
	rootCmd.PersistentFlags().String(options.KeyTSConfig, "", "tsconfig.json whose baseUrl and paths map bare specifiers")
	_ = viper.BindPFlag(options.KeyConfig, rootCmd.PersistentFlags().Lookup(options.KeyConfig))
	_ = viper.BindPFlag(options.KeyVerbose, rootCmd.PersistentFlags().Lookup(options.KeyVerbose))
	_ = viper.BindPFlag(options.KeyTSConfig, rootCmd.PersistentFlags().Lookup(options.KeyTSConfig))

	rootCmd.AddCommand(resolve.Cmd)
	rootCmd.AddCommand(imports.Cmd)
	rootCmd.AddCommand(mcp.Cmd)
	rootCmd.AddCommand(versioncmd.Cmd)
}
