// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/indieforge/internal/forum"
)

var (
	rankingsCmd = &cobra.Command{
		Use:   "rankings",
		Short: "Manage engine rankings",
	}

	rankingsRecomputeCmd = &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every post score and ranking table now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.forum.Recompute(cmd.Context(), forum.TriggerManual)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
)

func init() {
	rankingsCmd.AddCommand(rankingsRecomputeCmd)
}
