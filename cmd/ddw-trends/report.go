// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render charts and dashboards from the combined dataset",
	Long: `Report analyzes the combined processed dataset (or --input) and writes
the static charts in the configured format plus the geographic map and the
interactive dashboard to the figures directory.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	ds, err := loadInput(cmd, cfg)
	if err != nil {
		return err
	}
	res, rolling, err := analyzeDataset(cfg, ds, logger)
	if err != nil {
		return err
	}
	return renderFigures(cfg, res, rolling, logger)
}

func init() {
	reportCmd.Flags().String("input", "", "processed CSV to plot (default: combined dataset)")
	reportCmd.Flags().String("format", "", "static chart format: png, jpg, svg, pdf, tiff (overrides figures.format)")
	reportCmd.Flags().Int("dpi", 0, "raster chart resolution (overrides figures.dpi)")
	viper.BindPFlag("figures.format", reportCmd.Flags().Lookup("format"))
	viper.BindPFlag("figures.dpi", reportCmd.Flags().Lookup("dpi"))
	rootCmd.AddCommand(reportCmd)
}
