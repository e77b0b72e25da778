// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ddw-trends/internal/corpus"
	"github.com/pdiddy/ddw-trends/internal/httputil"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const samplePage = `<html><body>
<div class="abstract">
    <h2>Sample Title</h2>
    <div class="content">Abstract content</div>
    <div class="author">Author Name</div>
    <div class="affiliation">University, Country</div>
    <div class="date">2023-01-01</div>
</div>
<div class="abstract">
    <h2>Missing Date</h2>
    <div class="content">No date here</div>
    <div class="author">Someone</div>
    <div class="affiliation">Institute, Place</div>
</div>
<div class="abstract">
    <h2>
        Second Title
    </h2>
    <div class="content"> Randomized <b>trial</b> of COVID-19 care </div>
    <div class="author">B. Author</div>
    <div class="affiliation">Dept of Medicine, Stanford University, USA</div>
    <div class="date">2023-05-07</div>
</div>
</body></html>`

func testConfig() types.HTTPConfig {
	return types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "ddw-trends-test", MaxRetries: 1}
}

func TestParseAbstracts(t *testing.T) {
	ds, skipped, err := ParseAbstracts(strings.NewReader(samplePage))
	require.NoError(t, err)

	require.Len(t, ds, 2)
	assert.Equal(t, "Sample Title", ds[0].Title)
	assert.Equal(t, "Abstract content", ds[0].Abstract)
	assert.Equal(t, "Author Name", ds[0].Author)
	assert.Equal(t, "University, Country", ds[0].AuthorAffiliation)
	assert.Equal(t, "2023-01-01", ds[0].PresentationDate)

	assert.Equal(t, "Second Title", ds[1].Title)
	assert.Equal(t, "Randomized trial of COVID-19 care", ds[1].Abstract)

	require.Len(t, skipped, 1)
	assert.Equal(t, 1, skipped[0].Index)
	assert.Equal(t, "date", skipped[0].Field)
}

func TestParseAbstracts_NoContainers(t *testing.T) {
	ds, skipped, err := ParseAbstracts(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, ds)
	assert.Empty(t, skipped)
}

func TestFetch_Success(t *testing.T) {
	var gotPath, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, samplePage)
	}))
	defer ts.Close()

	rawDir := t.TempDir()
	c := NewClient(ts.Client(), ts.URL+"/abstracts/", testConfig(), rawDir, nil)

	ds, err := c.Fetch(context.Background(), 2023)
	require.NoError(t, err)
	require.Len(t, ds, 2)

	assert.Equal(t, "/abstracts/2023", gotPath)
	assert.Equal(t, "ddw-trends-test", gotUA)

	raw, err := corpus.ReadRaw(filepath.Join(rawDir, "ddw_abstracts_2023.csv"))
	require.NoError(t, err)
	assert.Equal(t, ds, raw)
}

func TestFetch_HTTPErrorDegradesToEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	rawDir := t.TempDir()
	c := NewClient(ts.Client(), ts.URL, testConfig(), rawDir, nil)

	ds, err := c.Fetch(context.Background(), 2019)
	require.Error(t, err)
	assert.NotNil(t, ds)
	assert.Empty(t, ds)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2019, fe.Year)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.NoFileExists(t, filepath.Join(rawDir, "ddw_abstracts_2019.csv"))
}

func TestFetch_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := NewClient(&http.Client{Timeout: time.Second}, url, testConfig(), t.TempDir(), nil)
	ds, err := c.Fetch(context.Background(), 2020)
	require.Error(t, err)
	assert.Empty(t, ds)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
	assert.NotNil(t, fe.Unwrap())
}

func TestFetch_RetriesThrottled(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, samplePage)
	}))
	defer ts.Close()

	c := NewClient(ts.Client(), ts.URL, testConfig(), t.TempDir(), nil)
	ds, err := c.Fetch(context.Background(), 2021)
	require.NoError(t, err)
	assert.Len(t, ds, 2)
	assert.Equal(t, 2, calls)
}

func TestYearURL(t *testing.T) {
	c := NewClient(nil, "https://ddw.org/abstracts/", testConfig(), "", nil)
	assert.Equal(t, "https://ddw.org/abstracts/2018", c.YearURL(2018))
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Index: 3, Field: "author"}
	assert.Equal(t, "abstract 3: missing author", err.Error())
}
