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
	seedPassword string

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with a demo community",
		Long: `Creates demo users, posts, comments, whispers and an inquiry, then
recomputes the rankings. Nothing is written when users already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			hash, err := a.auth.HashPassword(seedPassword)
			if err != nil {
				return err
			}
			res, err := a.db.SeedDemoData(cmd.Context(), hash)
			if err != nil {
				return err
			}
			if !res.Skipped {
				if _, err := a.forum.Recompute(cmd.Context(), forum.TriggerManual); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
)

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "forge-demo-2026", "password of every demo account")
}
