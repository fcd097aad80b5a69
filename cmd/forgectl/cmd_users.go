// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package main

import (
	"github.com/spf13/cobra"

	"github.com/tomtom215/indieforge/internal/audit"
	"github.com/tomtom215/indieforge/internal/logging"
)

var (
	usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Manage forum accounts",
	}

	usersPromoteCmd = &cobra.Command{
		Use:   "promote <email>",
		Short: "Give an existing account the admin role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.auth.PromoteByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.audit.LogAdminAction(cmd.Context(), audit.SystemActor(), "promote_user",
				&audit.Target{ID: u.ID, Type: "user"}, "promoted to admin by forgectl", nil)
			logging.Info().Str("user_id", u.ID).Str("nickname", u.Nickname).Msg("User promoted to admin")
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
)

func init() {
	usersCmd.AddCommand(usersPromoteCmd)
}
