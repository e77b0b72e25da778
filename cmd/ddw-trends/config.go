// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/ddw-trends/internal/secrets"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

const envPrefix = "DDW_TRENDS"

// configure points v at the config file and environment. Defaults come
// from types.DefaultPipelineConfig so every key is visible to AutomaticEnv.
func configure(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("ddw-trends")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ddw-trends"))
		}
	}

	setDefaults(v, types.DefaultPipelineConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults and environment apply.
	_ = v.ReadInConfig()
}

func setDefaults(v *viper.Viper, d types.PipelineConfig) {
	v.SetDefault("data.raw", d.Data.Raw)
	v.SetDefault("data.processed", d.Data.Processed)
	v.SetDefault("data.index", d.Data.Index)
	v.SetDefault("years.from", d.Years.From)
	v.SetDefault("years.to", d.Years.To)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	v.SetDefault("analysis.significance_level", d.Analysis.SignificanceLevel)
	v.SetDefault("analysis.event_cutoff", d.Analysis.EventCutoff)
	v.SetDefault("analysis.rolling_window", d.Analysis.RollingWindow)
	v.SetDefault("figures.dir", d.Figures.Dir)
	v.SetDefault("figures.dpi", d.Figures.DPI)
	v.SetDefault("figures.format", string(d.Figures.Format))
	v.SetDefault("figures.palette", d.Figures.Palette)
	v.SetDefault("scorer.url", d.Scorer.URL)
	v.SetDefault("scorer.api_key", d.Scorer.APIKey)
	v.SetDefault("scorer.batch_size", d.Scorer.BatchSize)
	v.SetDefault("scorer.timeout", d.Scorer.Timeout)
	v.SetDefault("store.max_results", d.Store.MaxResults)
}

// decodeConfig unmarshals and validates the pipeline configuration. The
// scorer API key falls back to the scorer-api-key secret.
func decodeConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Scorer.APIKey = secretDefault(secrets.ScorerAPIKey, cfg.Scorer.APIKey)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadConfig() (types.PipelineConfig, error) {
	return decodeConfig(viper.GetViper())
}
