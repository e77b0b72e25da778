// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ddw-trends CLI.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ddw-trends/internal/logging"
	"github.com/pdiddy/ddw-trends/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logCloser closes the optional log file after the command finishes.
var logCloser io.Closer

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// rootCmd is the base command for the ddw-trends CLI.
var rootCmd = &cobra.Command{
	Use:   "ddw-trends",
	Short: "Scrape and analyze research trends in DDW abstracts",
	Long: `ddw-trends collects Digestive Disease Week conference abstracts by year,
labels each abstract with a research category, COVID relevance, and author
geography, and analyzes how research output shifted over time and around
the COVID-19 outbreak.

The run subcommand executes the whole pipeline. fetch, analyze, report,
index, and query run individual stages against the files on disk.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelName, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		logFile, _ := cmd.Flags().GetString("log-file")
		logger, closer, err := logging.New(os.Stderr, level, logFile)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		logCloser = closer

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info("using config file", "path", f)
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ddw-trends.yaml or ~/.config/ddw-trends/ddw-trends.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "also append JSON log lines to this file")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	configure(viper.GetViper(), cfgFile)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("ddw-trends failed", "error", err)
		stop()
		os.Exit(1)
	}
}
