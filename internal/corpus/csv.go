// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/ddw-trends/internal/fsutil"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// File names within the raw and processed data directories.
const (
	rawFilePattern       = "ddw_abstracts_%d.csv"
	processedFilePattern = "processed_abstracts_%d.csv"
	combinedFileName     = "all_abstracts_processed.csv"
)

// RawPath returns the raw CSV path for year.
func RawPath(rawDir string, year int) string {
	return filepath.Join(rawDir, fmt.Sprintf(rawFilePattern, year))
}

// ProcessedPath returns the processed CSV path for year.
func ProcessedPath(processedDir string, year int) string {
	return filepath.Join(processedDir, fmt.Sprintf(processedFilePattern, year))
}

// CombinedPath returns the path of the combined processed dataset.
func CombinedPath(processedDir string) string {
	return filepath.Join(processedDir, combinedFileName)
}

// WriteRaw writes the raw columns of ds to path.
func WriteRaw(path string, ds types.Dataset) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return encode(w, types.RawColumns, ds, rawRow)
	})
}

// WriteProcessed writes every column of ds to path.
func WriteProcessed(path string, ds types.Dataset) error {
	return fsutil.WriteAtomic(path, func(w io.Writer) error {
		return encode(w, types.ProcessedColumns, ds, processedRow)
	})
}

// ReadRaw reads a raw CSV file. Derived fields of the result are zero.
func ReadRaw(path string) (types.Dataset, error) {
	return readFile(path, types.RawColumns)
}

// ReadProcessed reads a processed CSV file verbatim, without relabeling.
func ReadProcessed(path string) (types.Dataset, error) {
	return readFile(path, types.ProcessedColumns)
}

func rawRow(r types.AbstractRecord) []string {
	return []string{r.Title, r.Abstract, r.Author, r.AuthorAffiliation, r.PresentationDate}
}

func processedRow(r types.AbstractRecord) []string {
	return append(rawRow(r),
		r.CleanAbstract,
		strconv.Itoa(r.WordCount),
		strconv.Itoa(r.COVIDFlag()),
		string(r.ResearchCategory),
		r.Geography,
	)
}

func encode(w io.Writer, header []string, ds types.Dataset, row func(types.AbstractRecord) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range ds {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func readFile(path string, required []string) (types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Decode(f, required)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// Decode reads CSV records from r. Columns are located by header name, so
// extra columns and reordering are tolerated; every name in required must
// be present. An empty input decodes to an empty dataset.
func Decode(r io.Reader, required []string) (types.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	ds := types.Dataset{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := types.AbstractRecord{
			Title:             get(row, "title"),
			Abstract:          get(row, "abstract"),
			Author:            get(row, "author"),
			AuthorAffiliation: get(row, "author_affiliation"),
			PresentationDate:  get(row, "presentation_date"),
			CleanAbstract:     get(row, "clean_abstract"),
			ResearchCategory:  types.Category(get(row, "research_category")),
			Geography:         get(row, "geography"),
		}
		if _, ok := col["word_count"]; ok {
			if rec.WordCount, err = parseCount(get(row, "word_count")); err != nil {
				return nil, fmt.Errorf("line %d: word_count: %w", line, err)
			}
		}
		if _, ok := col["contains_covid"]; ok {
			if rec.ContainsCOVID, err = parseFlag(get(row, "contains_covid")); err != nil {
				return nil, fmt.Errorf("line %d: contains_covid: %w", line, err)
			}
		}
		ds = append(ds, rec)
	}
	return ds, nil
}

func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	// Float formatting ("12.0") appears when other tools rewrite the file.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative count %q", s)
	}
	return int(f), nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true":
		return true, nil
	case "0", "0.0", "false", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid flag %q", s)
}
