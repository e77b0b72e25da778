// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ddw-trends/internal/corpus"
	"github.com/pdiddy/ddw-trends/internal/label"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and label one year of abstracts",
	Long: `Fetch downloads the abstract listing for one year, writes the raw CSV,
labels every record, and writes the processed CSV. Existing files for the
year are replaced; the combined dataset is not rebuilt.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	if year <= 0 {
		return fmt.Errorf("--year is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	raw, err := newFetcher(cfg, logger).Fetch(cmd.Context(), year)
	if err != nil {
		return err
	}
	ds := label.Process(raw)
	path := corpus.ProcessedPath(cfg.Data.Processed, year)
	if err := corpus.WriteProcessed(path, ds); err != nil {
		return err
	}
	logger.Info("wrote processed year", "year", year, "records", len(ds), "path", path)
	return nil
}

func init() {
	fetchCmd.Flags().Int("year", 0, "conference year to fetch")
	rootCmd.AddCommand(fetchCmd)
}
