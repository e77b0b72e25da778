// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ddw-trends/internal/store"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the corpus store",
	Long: `Query searches the SQLite corpus store by substring over titles and
cleaned abstracts, with optional filters on category, geography, year, and
COVID relevance. Results are ordered by presentation date.

Use --export yaml|json to write the matching records to the index directory
instead of printing them.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Data.Index, cfg.Store, slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	switch format, _ := cmd.Flags().GetString("export"); format {
	case "":
	case "yaml":
		path, err := st.ExportYAML(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", path)
		return nil
	case "json":
		path, err := st.ExportJSON(cmd.Context(), opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unsupported export format %q: use yaml or json", format)
	}

	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --category, --geography, --year, or --covid")
	}
	results, err := st.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(out, results, jsonOutput)
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (store.QueryOptions, error) {
	category, _ := cmd.Flags().GetString("category")
	geography, _ := cmd.Flags().GetString("geography")
	year, _ := cmd.Flags().GetInt("year")
	covid, _ := cmd.Flags().GetBool("covid")
	limit, _ := cmd.Flags().GetInt("limit")

	cat := types.Category(category)
	if cat != "" && !cat.Valid() {
		return store.QueryOptions{}, fmt.Errorf("unknown category %q", category)
	}
	return store.QueryOptions{
		Text:       strings.Join(args, " "),
		Category:   cat,
		Geography:  geography,
		Year:       year,
		COVIDOnly:  covid,
		MaxResults: limit,
	}, nil
}

func formatQueryOutput(w io.Writer, results []store.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		if results == nil {
			results = []store.QueryResult{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Date", "Title", "Category", "Geography", "COVID"})
	for i, r := range results {
		covid := ""
		if r.ContainsCOVID {
			covid = "yes"
		}
		t.AppendRow(table.Row{i + 1, r.PresentationDate, text.Trim(r.Title, 60), r.ResearchCategory, r.Geography, covid})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d results", len(results))})
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

func init() {
	queryCmd.Flags().String("category", "", "filter by research category")
	queryCmd.Flags().String("geography", "", "filter by geography")
	queryCmd.Flags().Int("year", 0, "filter by presentation year")
	queryCmd.Flags().Bool("covid", false, "only COVID related abstracts")
	queryCmd.Flags().Int("limit", 0, "maximum results (0 = use store.max_results)")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	queryCmd.Flags().String("export", "", "write matches to export.yaml or export.json instead: yaml or json")
	rootCmd.AddCommand(queryCmd)
}
