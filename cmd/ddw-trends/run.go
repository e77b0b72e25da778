// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ddw-trends/internal/corpus"
	"github.com/pdiddy/ddw-trends/internal/score"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, label, score, index, analyze, report",
	Long: `Run fetches and labels every configured year (reusing processed files
already on disk), combines them, optionally scores abstracts against the
configured scoring service, indexes the corpus, analyzes it, and writes the
results file and figures.

A year that cannot be fetched is logged and skipped; it is retried on the
next run.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := slog.Default()

	agg := corpus.NewAggregator(cfg.Data, newFetcher(cfg, logger), logger)
	result, err := agg.ProcessAllYears(ctx, cfg.Years.Years())
	if err != nil {
		return err
	}
	var scores []score.Scores
	if cfg.Scorer.Enabled() {
		scores, err = scoreDataset(ctx, cfg, result.Dataset, logger)
		if err != nil {
			return err
		}
	}

	if skip, _ := cmd.Flags().GetBool("skip-index"); !skip {
		if _, err := indexDataset(ctx, cfg, result.Dataset, scores, logger); err != nil {
			return err
		}
	}

	res, rolling, err := analyzeDataset(cfg, result.Dataset, logger)
	if err != nil {
		return err
	}
	if len(scores) > 0 {
		res.TrendScores = score.Summarize(scores)
	}

	withYAML, _ := cmd.Flags().GetBool("yaml")
	if err := renderReport(cfg, res, rolling, withYAML, logger); err != nil {
		return err
	}
	printSummary(os.Stdout, res)
	return nil
}

func init() {
	runCmd.Flags().Int("from", 0, "first year to process (overrides years.from)")
	runCmd.Flags().Int("to", 0, "last year to process (overrides years.to)")
	runCmd.Flags().Bool("yaml", false, "also write the results as YAML")
	runCmd.Flags().Bool("skip-index", false, "do not rebuild the SQLite corpus store")
	viper.BindPFlag("years.from", runCmd.Flags().Lookup("from"))
	viper.BindPFlag("years.to", runCmd.Flags().Lookup("to"))

	rootCmd.AddCommand(runCmd)
}
