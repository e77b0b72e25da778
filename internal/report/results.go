// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ddw-trends/internal/fsutil"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// ResultsPath returns dir/analysis_results_<YYYYMMDD>.json for the run date.
func ResultsPath(dir string, res types.AnalysisResult) string {
	return filepath.Join(dir, fmt.Sprintf("analysis_results_%s.json", res.GeneratedAt.Format("20060102")))
}

// WriteResults writes res as indented JSON to ResultsPath, and as YAML next
// to it when withYAML is set. It returns the written paths.
func WriteResults(dir string, res types.AnalysisResult, withYAML bool) ([]string, error) {
	jsonPath := ResultsPath(dir, res)
	err := fsutil.WriteAtomic(jsonPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}
	paths := []string{jsonPath}
	if !withYAML {
		return paths, nil
	}

	yamlPath := jsonPath[:len(jsonPath)-len(".json")] + ".yaml"
	err = fsutil.WriteAtomic(yamlPath, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return paths, fmt.Errorf("writing %s: %w", yamlPath, err)
	}
	return append(paths, yamlPath), nil
}

// ReadResults loads a results JSON file.
func ReadResults(path string) (types.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.AnalysisResult{}, err
	}
	var res types.AnalysisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return res, nil
}
