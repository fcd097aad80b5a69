// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Command forgectl runs offline maintenance against the forum database:
// the legacy Firestore import, ranking recomputes, admin promotion and demo
// seeding. It reads the same configuration as the server. DuckDB and
// Badger are single-process stores, so stop the server first.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/logging"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded once by the root command before any subcommand runs.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "forgectl",
		Short:         "Maintenance tool for the IndieForge forum",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := os.Setenv(config.ConfigPathEnvVar, configPath); err != nil {
					return err
				}
			}
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded

			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logging.Init(logging.Config{Level: level, Format: "console", Output: os.Stderr})
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search the usual locations)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(importCmd, rankingsCmd, usersCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error().Err(err).Msg("forgectl failed")
		os.Exit(1)
	}
}
