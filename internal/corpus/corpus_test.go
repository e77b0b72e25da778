// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ddw-trends/pkg/types"
)

// --- test helpers ---

type fakeFetcher struct {
	data  map[int]types.Dataset
	fail  map[int]error
	calls []int
}

func (f *fakeFetcher) Fetch(_ context.Context, year int) (types.Dataset, error) {
	f.calls = append(f.calls, year)
	if err := f.fail[year]; err != nil {
		return types.Dataset{}, err
	}
	return f.data[year], nil
}

func rawRecord(title, abstract, affiliation, date string) types.AbstractRecord {
	return types.AbstractRecord{
		Title:             title,
		Abstract:          abstract,
		Author:            "Author " + title,
		AuthorAffiliation: affiliation,
		PresentationDate:  date,
	}
}

func testDirs(t *testing.T) types.DataDirs {
	t.Helper()
	tmp := t.TempDir()
	return types.DataDirs{
		Raw:       filepath.Join(tmp, "raw"),
		Processed: filepath.Join(tmp, "processed"),
	}
}

// --- CSV ---

func TestWriteProcessed_HeaderOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	require.NoError(t, WriteProcessed(path, types.Dataset{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"title,abstract,author,author_affiliation,presentation_date,clean_abstract,word_count,contains_covid,research_category,geography\n",
		string(data))
}

func TestProcessedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.csv")
	in := types.Dataset{{
		Title:             `Quoted "title", with comma`,
		Abstract:          "Line one\nline two",
		Author:            "A. Author",
		AuthorAffiliation: "Dept, Univ, USA",
		PresentationDate:  "2021-05-01",
		CleanAbstract:     "line one line two",
		WordCount:         4,
		ContainsCOVID:     true,
		ResearchCategory:  types.CategoryOther,
		Geography:         "USA",
	}}
	require.NoError(t, WriteProcessed(path, in))

	out, err := ReadProcessed(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_ReorderedAndExtraColumns(t *testing.T) {
	input := "geography,extra,word_count,contains_covid,research_category,clean_abstract,presentation_date,author_affiliation,author,abstract,title\n" +
		"UK,x,3.0,1,observational,a b c,2020-06-01,\"Oxford, UK\",Jane,A b c,T\n"
	ds, err := Decode(strings.NewReader(input), types.ProcessedColumns)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "UK", ds[0].Geography)
	assert.Equal(t, 3, ds[0].WordCount)
	assert.True(t, ds[0].ContainsCOVID)
	assert.Equal(t, types.CategoryObservational, ds[0].ResearchCategory)
	assert.Equal(t, "Oxford, UK", ds[0].AuthorAffiliation)
}

func TestDecode_MissingColumn(t *testing.T) {
	_, err := Decode(strings.NewReader("title,abstract\nx,y\n"), types.ProcessedColumns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "author"`)
}

func TestDecode_Empty(t *testing.T) {
	ds, err := Decode(strings.NewReader(""), types.ProcessedColumns)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestDecode_InvalidFlag(t *testing.T) {
	input := strings.Join(types.ProcessedColumns, ",") + "\n" +
		"t,a,au,aff,2020-01-01,a,1,maybe,other,aff\n"
	_, err := Decode(strings.NewReader(input), types.ProcessedColumns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains_covid")
}

// --- Aggregator ---

func TestProcessAllYears_EmptyRange(t *testing.T) {
	agg := NewAggregator(testDirs(t), &fakeFetcher{}, nil)
	_, err := agg.ProcessAllYears(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = agg.ProcessAllYears(context.Background(), types.YearRange{From: 2021, To: 2019}.Years())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestProcessAllYears_FetchLabelPersist(t *testing.T) {
	dirs := testDirs(t)
	f := &fakeFetcher{data: map[int]types.Dataset{
		2019: {rawRecord("b", "A retrospective cohort", "Tokyo University, Japan", "2019-05-15")},
		2020: {
			rawRecord("c", "COVID-19 randomized trial", "Harvard University, USA", "2020-06-01"),
			rawRecord("d", "In vitro work", "Oxford University, UK", "2020-07-01"),
		},
	}}
	agg := NewAggregator(dirs, f, nil)

	res, err := agg.ProcessAllYears(context.Background(), []int{2019, 2020})
	require.NoError(t, err)

	require.Len(t, res.Dataset, 3)
	assert.Equal(t, []string{"b", "c", "d"}, titles(res.Dataset))
	assert.Equal(t, types.CategoryObservational, res.Dataset[0].ResearchCategory)
	assert.Equal(t, types.CategoryClinicalTrial, res.Dataset[1].ResearchCategory)
	assert.True(t, res.Dataset[1].ContainsCOVID)
	assert.Equal(t, "UK", res.Dataset[2].Geography)
	assert.Equal(t, 2, res.Count(OutcomeFetched))

	for _, y := range []int{2019, 2020} {
		assert.FileExists(t, ProcessedPath(dirs.Processed, y))
	}
	combined, err := LoadCombined(dirs.Processed)
	require.NoError(t, err)
	assert.Equal(t, res.Dataset, combined)
}

func TestProcessAllYears_CacheHitSkipsFetch(t *testing.T) {
	dirs := testDirs(t)

	// A cached file with a label the current rules would not produce.
	cached := types.Dataset{{
		Title:            "cached",
		Abstract:         "randomized trial",
		PresentationDate: "2018-04-01",
		CleanAbstract:    "randomized trial",
		WordCount:        2,
		ResearchCategory: types.CategoryCaseStudy,
		Geography:        "Nowhere",
	}}
	require.NoError(t, WriteProcessed(ProcessedPath(dirs.Processed, 2018), cached))

	f := &fakeFetcher{data: map[int]types.Dataset{
		2019: {rawRecord("fresh", "text", "X, Y", "2019-01-01")},
	}}
	res, err := NewAggregator(dirs, f, nil).ProcessAllYears(context.Background(), []int{2018, 2019})
	require.NoError(t, err)

	assert.Equal(t, []int{2019}, f.calls, "cached year must not be fetched")
	require.Len(t, res.Dataset, 2)
	assert.Equal(t, types.CategoryCaseStudy, res.Dataset[0].ResearchCategory, "cached rows are not relabeled")
	assert.Equal(t, []string{"cached", "fresh"}, titles(res.Dataset))
	assert.Equal(t, 1, res.Count(OutcomeCached))
}

func TestProcessAllYears_FailedYearIsolated(t *testing.T) {
	dirs := testDirs(t)
	f := &fakeFetcher{
		data: map[int]types.Dataset{
			2021: {rawRecord("ok", "text", "Lab, France", "2021-03-01")},
		},
		fail: map[int]error{2020: errors.New("connection refused")},
	}
	res, err := NewAggregator(dirs, f, nil).ProcessAllYears(context.Background(), []int{2020, 2021})
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, titles(res.Dataset))
	assert.Equal(t, 1, res.Count(OutcomeFailed))
	assert.NoFileExists(t, ProcessedPath(dirs.Processed, 2020), "failed year must be retried next run")
	assert.FileExists(t, ProcessedPath(dirs.Processed, 2021))
}

func TestProcessAllYears_AllFailedStillCombines(t *testing.T) {
	dirs := testDirs(t)
	f := &fakeFetcher{fail: map[int]error{2022: errors.New("HTTP 500")}}
	res, err := NewAggregator(dirs, f, nil).ProcessAllYears(context.Background(), []int{2022})
	require.NoError(t, err)
	assert.Empty(t, res.Dataset)
	assert.FileExists(t, CombinedPath(dirs.Processed))
}

func TestProcessAllYears_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAggregator(testDirs(t), &fakeFetcher{}, nil).ProcessAllYears(ctx, []int{2020})
	assert.ErrorIs(t, err, context.Canceled)
}

func titles(ds types.Dataset) []string {
	out := make([]string, len(ds))
	for i, r := range ds {
		out[i] = r.Title
	}
	return out
}
