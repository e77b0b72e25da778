// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ddw-trends/internal/score"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the combined dataset into the SQLite corpus store",
	Long: `Index replaces the contents of <data.index>/abstracts.db with the
combined processed dataset (or --input) and writes export.yaml next to it.
With --score and a configured scoring service, each abstract is also scored
and the scores are stored alongside it.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	ds, err := loadInput(cmd, cfg)
	if err != nil {
		return err
	}

	var scores []score.Scores
	if withScores, _ := cmd.Flags().GetBool("score"); withScores {
		if !cfg.Scorer.Enabled() {
			return fmt.Errorf("--score requires scorer.url")
		}
		scores, err = scoreDataset(cmd.Context(), cfg, ds, logger)
		if err != nil {
			return err
		}
	}

	summary, err := indexDataset(cmd.Context(), cfg, ds, scores, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "indexed: %d, duplicates: %d\n", summary.Inserted, summary.Duplicates)
	return nil
}

func init() {
	indexCmd.Flags().String("input", "", "processed CSV to index (default: combined dataset)")
	indexCmd.Flags().Bool("score", false, "score abstracts with the scoring service before indexing")
	rootCmd.AddCommand(indexCmd)
}
