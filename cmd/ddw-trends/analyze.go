// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ddw-trends/internal/corpus"
	"github.com/pdiddy/ddw-trends/internal/report"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the combined dataset and write the results file",
	Long: `Analyze reads the combined processed dataset (or --input), computes
temporal, event-impact, and geographic statistics, prints a summary, and
writes analysis_results_<date>.json to the processed directory.`,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	ds, err := loadInput(cmd, cfg)
	if err != nil {
		return err
	}
	res, _, err := analyzeDataset(cfg, ds, logger)
	if err != nil {
		return err
	}

	withYAML, _ := cmd.Flags().GetBool("yaml")
	paths, err := report.WriteResults(cfg.Data.Processed, res, withYAML)
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.Info("wrote results", "path", p)
	}
	printSummary(os.Stdout, res)
	return nil
}

// loadInput reads --input when given, otherwise the combined dataset.
func loadInput(cmd *cobra.Command, cfg types.PipelineConfig) (types.Dataset, error) {
	if input, _ := cmd.Flags().GetString("input"); input != "" {
		return corpus.ReadProcessed(input)
	}
	return corpus.LoadCombined(cfg.Data.Processed)
}

func init() {
	analyzeCmd.Flags().String("input", "", "processed CSV to analyze (default: combined dataset)")
	analyzeCmd.Flags().Bool("yaml", false, "also write the results as YAML")
	rootCmd.AddCommand(analyzeCmd)
}
