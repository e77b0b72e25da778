// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves conference abstracts for one year from the
// remote abstract listing and parses them into raw records.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/ddw-trends/internal/corpus"
	"github.com/pdiddy/ddw-trends/internal/httputil"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// Selectors locating an abstract container and its sub-fields.
const (
	containerSelector   = "div.abstract"
	titleSelector       = "h2"
	contentSelector     = "div.content"
	authorSelector      = "div.author"
	affiliationSelector = "div.affiliation"
	dateSelector        = "div.date"
)

// FetchError reports a network or HTTP failure for one year.
type FetchError struct {
	Year       int
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %d from %s: HTTP %d", e.Year, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %d from %s: %v", e.Year, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports an abstract container missing a required sub-field.
type ParseError struct {
	// Index is the zero-based position of the container in the page.
	Index int
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("abstract %d: missing %s", e.Index, e.Field)
}

// Client fetches yearly abstract listings.
type Client struct {
	http       *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	rawDir     string
	logger     *slog.Logger
}

// NewClient returns a Client requesting <baseURL>/<year> and writing raw
// datasets under rawDir.
func NewClient(httpClient *http.Client, baseURL string, cfg types.HTTPConfig, rawDir string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		rawDir:     rawDir,
		logger:     logger.With("component", "fetcher"),
	}
}

// YearURL returns the listing URL for year.
func (c *Client) YearURL(year int) string {
	return c.baseURL + "/" + strconv.Itoa(year)
}

// Fetch issues one GET for year and parses the returned page. On a network
// failure or non-2xx status it returns an empty dataset and a *FetchError.
// Containers missing a sub-field are skipped and logged. The parsed
// dataset is written to the raw directory before it is returned.
func (c *Client) Fetch(ctx context.Context, year int) (types.Dataset, error) {
	url := c.YearURL(year)
	c.logger.Info("fetching abstracts", "year", year, "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Dataset{}, &FetchError{Year: year, URL: url, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.logger)
	if err != nil {
		return types.Dataset{}, &FetchError{Year: year, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.Dataset{}, &FetchError{Year: year, URL: url, StatusCode: resp.StatusCode}
	}

	ds, skipped, err := ParseAbstracts(resp.Body)
	if err != nil {
		return types.Dataset{}, &FetchError{Year: year, URL: url, Err: err}
	}
	for _, perr := range skipped {
		c.logger.Warn("skipping abstract", "year", year, "err", perr)
	}

	path := corpus.RawPath(c.rawDir, year)
	if err := corpus.WriteRaw(path, ds); err != nil {
		return types.Dataset{}, fmt.Errorf("writing raw dataset for %d: %w", year, err)
	}
	c.logger.Info("fetched abstracts", "year", year, "records", len(ds), "skipped", len(skipped), "path", path)
	return ds, nil
}

// ParseAbstracts extracts raw records from an abstract listing page. A
// container lacking any sub-field is reported in skipped and omitted from
// the dataset; the rest of the page is still parsed.
func ParseAbstracts(r io.Reader) (ds types.Dataset, skipped []*ParseError, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}

	ds = types.Dataset{}
	doc.Find(containerSelector).Each(func(i int, s *goquery.Selection) {
		var rec types.AbstractRecord
		fields := []struct {
			name     string
			selector string
			dst      *string
		}{
			{"title", titleSelector, &rec.Title},
			{"content", contentSelector, &rec.Abstract},
			{"author", authorSelector, &rec.Author},
			{"affiliation", affiliationSelector, &rec.AuthorAffiliation},
			{"date", dateSelector, &rec.PresentationDate},
		}
		for _, f := range fields {
			sel := s.Find(f.selector).First()
			if sel.Length() == 0 {
				skipped = append(skipped, &ParseError{Index: i, Field: f.name})
				return
			}
			*f.dst = strings.TrimSpace(sel.Text())
		}
		ds = append(ds, rec)
	})
	return ds, skipped, nil
}
