// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pdiddy/ddw-trends/internal/score"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

// QueryOptions holds parameters for corpus queries.
type QueryOptions struct {
	// Text is a case-insensitive substring matched against the title and
	// the cleaned abstract.
	Text string

	Category  types.Category
	Geography string

	// Year filters by presentation year. Zero means any year.
	Year int

	// COVIDOnly keeps only records flagged COVID related.
	COVIDOnly bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search text or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Category == "" && q.Geography == "" && q.Year == 0 && !q.COVIDOnly
}

// QueryResult is a stored record with its ID and any service scores.
type QueryResult struct {
	ID string `json:"id" yaml:"id"`

	types.AbstractRecord `yaml:",inline"`

	Scores score.Scores `json:"scores,omitempty" yaml:"scores,omitempty"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Query returns stored records matching opts, ordered by presentation
// date then ID.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, title, abstract, author, author_affiliation, presentation_date,
			clean_abstract, word_count, contains_covid, research_category, geography
		FROM abstracts
		WHERE 1=1`)

	if text := strings.TrimSpace(opts.Text); text != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
		qb.WriteString(` AND (lower(title) LIKE ? ESCAPE '\' OR clean_abstract LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if opts.Category != "" {
		qb.WriteString(` AND research_category = ?`)
		args = append(args, string(opts.Category))
	}
	if opts.Geography != "" {
		qb.WriteString(` AND geography = ?`)
		args = append(args, opts.Geography)
	}
	if opts.Year != 0 {
		qb.WriteString(` AND year = ?`)
		args = append(args, opts.Year)
	}
	if opts.COVIDOnly {
		qb.WriteString(` AND contains_covid = 1`)
	}
	qb.WriteString(` ORDER BY sort_date, id LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr       QueryResult
			abstract sql.NullString
			author   sql.NullString
			affil    sql.NullString
			date     sql.NullString
			clean    sql.NullString
			category sql.NullString
			geo      sql.NullString
			covid    int
		)
		if err := rows.Scan(
			&qr.ID, &qr.Title, &abstract, &author, &affil, &date,
			&clean, &qr.WordCount, &covid, &category, &geo,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Abstract = abstract.String
		qr.Author = author.String
		qr.AuthorAffiliation = affil.String
		qr.PresentationDate = date.String
		qr.CleanAbstract = clean.String
		qr.ContainsCOVID = covid == 1
		qr.ResearchCategory = types.Category(category.String)
		qr.Geography = geo.String
		results = append(results, qr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		sc, err := s.scoresFor(ctx, results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Scores = sc
	}
	return results, nil
}

func (s *Store) scoresFor(ctx context.Context, id string) (score.Scores, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label, score FROM scores WHERE abstract_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying scores for %s: %w", id, err)
	}
	defer rows.Close()

	var out score.Scores
	for rows.Next() {
		var (
			label string
			v     float64
		)
		if err := rows.Scan(&label, &v); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		if out == nil {
			out = make(score.Scores)
		}
		out[label] = v
	}
	return out, rows.Err()
}
