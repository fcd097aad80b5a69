// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/indieforge/internal/importer"
	"github.com/tomtom215/indieforge/internal/logging"
)

var (
	importDryRun      bool
	importFresh       bool
	importBatchSize   int
	importCollections []string

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Import data from the legacy Firestore project",
	}

	importFirestoreCmd = &cobra.Command{
		Use:   "firestore",
		Short: "Copy users, posts, comments, whispers and inquiries from Firestore",
		Long: `Reads every legacy collection in batches and writes it to the forum
database. Progress is saved after each batch, so an interrupted import
resumes where it stopped. Rankings are recomputed when the import
completes.`,
		Args: cobra.NoArgs,
		RunE: runImportFirestore,
	}

	importStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the result of the last import",
		Args:  cobra.NoArgs,
		RunE:  runImportStatus,
	}
)

func init() {
	f := importFirestoreCmd.Flags()
	f.BoolVar(&importDryRun, "dry-run", false, "map documents without writing anything")
	f.BoolVar(&importFresh, "fresh", false, "discard saved progress and start over")
	f.IntVar(&importBatchSize, "batch", 0, "documents per batch (default FIRESTORE_BATCH_SIZE)")
	f.StringSliceVar(&importCollections, "collections", nil, "only import these collections, e.g. users,posts")

	importCmd.AddCommand(importFirestoreCmd, importStatusCmd)
}

func runImportFirestore(cmd *cobra.Command, _ []string) error {
	if cfg.Firestore.ProjectID == "" {
		return errors.New("FIRESTORE_PROJECT_ID is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	source, err := importer.NewFirestoreSource(ctx, &cfg.Firestore)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing Firestore client")
		}
	}()

	batch := importBatchSize
	if batch <= 0 {
		batch = cfg.Firestore.BatchSize
	}
	opts := importer.Options{
		BatchSize:   batch,
		DryRun:      importDryRun || cfg.Firestore.DryRun,
		Fresh:       importFresh,
		Collections: importCollections,
	}

	logging.Info().
		Str("project", cfg.Firestore.ProjectID).
		Int("batch_size", opts.BatchSize).
		Bool("dry_run", opts.DryRun).
		Bool("fresh", opts.Fresh).
		Strs("collections", opts.Collections).
		Msg("Starting Firestore import")

	imp := importer.NewImporter(source, a.db, importer.NewBadgerProgress(a.kv), a.forum)
	stats, err := imp.Import(ctx, opts)
	if stats != nil {
		if printErr := printJSON(cmd.OutOrStdout(), stats.ToSummary(false)); printErr != nil {
			return printErr
		}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("import interrupted, rerun to resume: %w", err)
	}
	return err
}

func runImportStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := importer.LastStatus(cmd.Context(), importer.NewBadgerProgress(a.kv))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), summary)
}
