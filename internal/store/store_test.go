package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ddw-trends/internal/score"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index"), types.StoreConfig{MaxResults: 20}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDataset() types.Dataset {
	return types.Dataset{
		{
			Title: "Vedolizumab in Crohn disease", Author: "Smith, J.",
			AuthorAffiliation: "Mayo Clinic, Rochester, USA", PresentationDate: "2021-05-22",
			Abstract: "A randomized trial of vedolizumab.", CleanAbstract: "a randomized trial of vedolizumab",
			WordCount: 5, ResearchCategory: types.CategoryClinicalTrial, Geography: "USA",
		},
		{
			Title: "COVID-19 and the liver", Author: "Doe, A.",
			AuthorAffiliation: "Charite, Berlin, Germany", PresentationDate: "2020-05-02",
			Abstract: "Cohort of COVID-19 patients.", CleanAbstract: "cohort of covid19 patients",
			WordCount: 4, ContainsCOVID: true, ResearchCategory: types.CategoryObservational, Geography: "Germany",
		},
		{
			Title: "Organoid models of colitis", Author: "Tanaka, K.",
			AuthorAffiliation: "University of Tokyo, Japan", PresentationDate: "2019-05-18",
			Abstract: "Mouse organoid study.", CleanAbstract: "mouse organoid study",
			WordCount: 3, ResearchCategory: types.CategoryBasicScience, Geography: "Japan",
		},
		{
			Title: "SARS-CoV-2 shedding in stool", Author: "Rossi, M.",
			AuthorAffiliation: "Humanitas, Milan, Italy", PresentationDate: "2021-05-21",
			Abstract: "Patients with SARS-CoV-2 were followed.", CleanAbstract: "patients with sarscov2 were followed",
			WordCount: 5, ContainsCOVID: true, ResearchCategory: types.CategoryObservational, Geography: "Italy",
		},
	}
}

func ingest(t *testing.T, s *Store, ds types.Dataset) IngestSummary {
	t.Helper()
	summary, err := s.Ingest(context.Background(), ds)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return summary
}

func titles(results []QueryResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- schema tests ---

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)
	for _, table := range []string{"abstracts", "scores"} {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestOpenCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "index")
	s, err := Open(dir, types.StoreConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created at %s", s.Path())
	}
	if s.maxResults != 20 {
		t.Errorf("maxResults = %d, want default 20", s.maxResults)
	}
}

func TestRecordID(t *testing.T) {
	rec := sampleDataset()[0]
	id := RecordID(rec)
	if len(id) != 16 {
		t.Fatalf("len(id) = %d, want 16", len(id))
	}
	if RecordID(rec) != id {
		t.Error("RecordID is not stable")
	}
	rec.Abstract = "different body"
	if RecordID(rec) != id {
		t.Error("RecordID depends on the abstract body")
	}
	rec.PresentationDate = "2021-05-23"
	if RecordID(rec) == id {
		t.Error("RecordID ignores the presentation date")
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	s := testStore(t)
	summary := ingest(t, s, sampleDataset())
	if summary.Inserted != 4 || summary.Duplicates != 0 {
		t.Errorf("summary = %+v, want 4 inserted", summary)
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
}

func TestIngestDuplicates(t *testing.T) {
	s := testStore(t)
	ds := sampleDataset()
	ds = append(ds, ds[0])
	summary := ingest(t, s, ds)
	if summary.Inserted != 4 || summary.Duplicates != 1 {
		t.Errorf("summary = %+v, want 4 inserted, 1 duplicate", summary)
	}
	if summary.Total() != 5 {
		t.Errorf("Total = %d, want 5", summary.Total())
	}
}

func TestIngestReplacesContents(t *testing.T) {
	s := testStore(t)
	ingest(t, s, sampleDataset())
	ingest(t, s, sampleDataset()[:1])

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count = %d after re-ingest, want 1", n)
	}
}

func TestIngestStoresAllFields(t *testing.T) {
	s := testStore(t)
	want := sampleDataset()[1]
	ingest(t, s, types.Dataset{want})

	results, err := s.Query(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.ID != RecordID(want) {
		t.Errorf("ID = %q, want %q", got.ID, RecordID(want))
	}
	if got.AbstractRecord != want {
		t.Errorf("record = %+v\nwant %+v", got.AbstractRecord, want)
	}
}

// --- query tests ---

func TestQuery(t *testing.T) {
	s := testStore(t)
	ingest(t, s, sampleDataset())

	tests := []struct {
		name string
		opts QueryOptions
		want []string
	}{
		{"all ordered by date", QueryOptions{}, []string{
			"Organoid models of colitis", "COVID-19 and the liver",
			"SARS-CoV-2 shedding in stool", "Vedolizumab in Crohn disease",
		}},
		{"text in abstract", QueryOptions{Text: "Organoid"}, []string{"Organoid models of colitis"}},
		{"text in title", QueryOptions{Text: "sars-cov-2"}, []string{"SARS-CoV-2 shedding in stool"}},
		{"category", QueryOptions{Category: types.CategoryObservational}, []string{
			"COVID-19 and the liver", "SARS-CoV-2 shedding in stool",
		}},
		{"geography", QueryOptions{Geography: "Japan"}, []string{"Organoid models of colitis"}},
		{"year", QueryOptions{Year: 2021}, []string{"SARS-CoV-2 shedding in stool", "Vedolizumab in Crohn disease"}},
		{"covid only", QueryOptions{COVIDOnly: true}, []string{"COVID-19 and the liver", "SARS-CoV-2 shedding in stool"}},
		{"combined", QueryOptions{COVIDOnly: true, Year: 2021}, []string{"SARS-CoV-2 shedding in stool"}},
		{"limit", QueryOptions{MaxResults: 1}, []string{"Organoid models of colitis"}},
		{"like wildcard is literal", QueryOptions{Text: "%"}, []string{}},
		{"no match", QueryOptions{Text: "pancreas"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Query(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got := titles(results); !equalStrings(got, tt.want) {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{MaxResults: 5}).IsEmpty() {
		t.Error("MaxResults alone should be empty")
	}
	if (QueryOptions{COVIDOnly: true}).IsEmpty() {
		t.Error("COVIDOnly should not be empty")
	}
}

// --- score tests ---

func TestSaveScores(t *testing.T) {
	s := testStore(t)
	ds := sampleDataset()
	ingest(t, s, ds)

	id := RecordID(ds[2])
	sc := score.Scores{score.LabelCOVIDRelated: 0.1, score.LabelInnovativeMethods: 0.8}
	if err := s.SaveScores(context.Background(), []string{id}, []score.Scores{sc}); err != nil {
		t.Fatal(err)
	}
	sc[score.LabelCOVIDRelated] = 0.2
	if err := s.SaveScores(context.Background(), []string{id}, []score.Scores{sc}); err != nil {
		t.Fatal(err)
	}

	results, err := s.Query(context.Background(), QueryOptions{Geography: "Japan"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0].Scores
	if len(got) != 2 || got[score.LabelCOVIDRelated] != 0.2 || got[score.LabelInnovativeMethods] != 0.8 {
		t.Errorf("scores = %v", got)
	}

	others, err := s.Query(context.Background(), QueryOptions{Geography: "USA"})
	if err != nil {
		t.Fatal(err)
	}
	if others[0].Scores != nil {
		t.Errorf("unscored record has scores %v", others[0].Scores)
	}
}

func TestSaveScoresLengthMismatch(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScores(context.Background(), []string{"a", "b"}, []score.Scores{{}}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestSaveScoresUnknownID(t *testing.T) {
	s := testStore(t)
	ingest(t, s, sampleDataset())
	err := s.SaveScores(context.Background(), []string{"0000000000000000"}, []score.Scores{{score.LabelCOVIDRelated: 1}})
	if err == nil {
		t.Error("expected foreign key error for unknown abstract")
	}
}

// --- export tests ---

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	ingest(t, s, sampleDataset())

	path, err := s.ExportJSON(context.Background(), QueryOptions{COVIDOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "export.json" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("exported %d records, want 2", len(got))
	}
	if got[0]["title"] != "COVID-19 and the liver" || got[0]["id"] == "" {
		t.Errorf("first entry = %v", got[0])
	}
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ingest(t, s, sampleDataset())

	path, err := s.ExportYAML(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("exported %d records, want 4", len(got))
	}
	if got[0]["geography"] != "Japan" {
		t.Errorf("first entry geography = %v, want Japan", got[0]["geography"])
	}
}

func TestExportEmpty(t *testing.T) {
	s := testStore(t)
	path, err := s.ExportJSON(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("empty export = %q, want []", data)
	}
}
