// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ddw-trends/internal/fsutil"
)

const exportLimit = 1000000

// ExportYAML writes the records matching opts to <dir>/export.yaml and
// returns the path.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	return s.export(ctx, opts, "export.yaml", func(w io.Writer, v any) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	})
}

// ExportJSON writes the records matching opts to <dir>/export.json and
// returns the path.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	return s.export(ctx, opts, "export.json", func(w io.Writer, v any) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	})
}

func (s *Store) export(ctx context.Context, opts QueryOptions, name string, encode func(io.Writer, any) error) (string, error) {
	opts.MaxResults = exportLimit
	results, err := s.Query(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}
	if results == nil {
		results = []QueryResult{}
	}

	path := filepath.Join(s.dir, name)
	if err := fsutil.WriteAtomic(path, func(w io.Writer) error {
		return encode(w, results)
	}); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	s.logger.Info("exported corpus", "path", path, "records", len(results))
	return path, nil
}
