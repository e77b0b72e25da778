// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the labeled abstract corpus and service scores in
// SQLite for ad-hoc querying and export.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ddw-trends/internal/analysis"
	"github.com/pdiddy/ddw-trends/internal/score"
	"github.com/pdiddy/ddw-trends/pkg/types"
)

const dbFile = "abstracts.db"

// Store manages the corpus SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
	logger     *slog.Logger
}

// Open opens or creates the database at dir/abstracts.db and creates the
// schema if it does not exist.
func Open(dir string, cfg types.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS abstracts (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			abstract TEXT,
			author TEXT,
			author_affiliation TEXT,
			presentation_date TEXT,
			sort_date TEXT,
			year INTEGER,
			clean_abstract TEXT,
			word_count INTEGER,
			contains_covid INTEGER NOT NULL DEFAULT 0,
			research_category TEXT,
			geography TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_abstracts_category ON abstracts(research_category)`,
		`CREATE INDEX IF NOT EXISTS idx_abstracts_geography ON abstracts(geography)`,
		`CREATE INDEX IF NOT EXISTS idx_abstracts_year ON abstracts(year)`,
		`CREATE TABLE IF NOT EXISTS scores (
			abstract_id TEXT NOT NULL REFERENCES abstracts(id) ON DELETE CASCADE,
			label TEXT NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (abstract_id, label)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordID returns the stable identifier of a record: the first 16 hex
// digits of the SHA-256 of its title, author, and presentation date.
func RecordID(rec types.AbstractRecord) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{rec.Title, rec.Author, rec.PresentationDate}, "\x1f")))
	return hex.EncodeToString(sum[:])[:16]
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Inserted   int
	Duplicates int
}

// Total returns the number of records processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Duplicates
}

// Ingest replaces the stored corpus with ds in one transaction. Records
// sharing an ID with an earlier record are counted as duplicates and not
// stored. Existing scores are discarded.
func (s *Store) Ingest(ctx context.Context, ds types.Dataset) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM scores`, `DELETE FROM abstracts`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return IngestSummary{}, fmt.Errorf("clearing corpus: %w", err)
		}
	}

	ins, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO abstracts (id, title, abstract, author, author_affiliation,
			presentation_date, sort_date, year, clean_abstract, word_count, contains_covid,
			research_category, geography)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	var summary IngestSummary
	for _, rec := range ds {
		if err := ctx.Err(); err != nil {
			return IngestSummary{}, err
		}
		sortDate, year := rec.PresentationDate, sql.NullInt64{}
		if t, err := analysis.ParseDate(rec.PresentationDate); err == nil {
			sortDate = t.Format(types.DateLayout)
			year = sql.NullInt64{Int64: int64(t.Year()), Valid: true}
		}
		id := RecordID(rec)
		res, err := ins.ExecContext(ctx,
			id, rec.Title, rec.Abstract, rec.Author, rec.AuthorAffiliation,
			rec.PresentationDate, sortDate, year, rec.CleanAbstract, rec.WordCount,
			rec.COVIDFlag(), string(rec.ResearchCategory), rec.Geography,
		)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("inserting %q: %w", rec.Title, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			s.logger.Debug("duplicate abstract", "id", id, "title", rec.Title)
			summary.Duplicates++
			continue
		}
		summary.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing ingest: %w", err)
	}
	s.logger.Info("indexed corpus", "inserted", summary.Inserted, "duplicates", summary.Duplicates, "path", s.Path())
	return summary, nil
}

// SaveScores stores one score set per ID, replacing earlier scores for
// the same ID and label.
func (s *Store) SaveScores(ctx context.Context, ids []string, scores []score.Scores) error {
	if len(ids) != len(scores) {
		return fmt.Errorf("got %d ids and %d score sets", len(ids), len(scores))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scores (abstract_id, label, score) VALUES (?, ?, ?)
		 ON CONFLICT(abstract_id, label) DO UPDATE SET score=excluded.score`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		for label, v := range scores[i] {
			if _, err := stmt.ExecContext(ctx, id, label, v); err != nil {
				return fmt.Errorf("saving score %s for %s: %w", label, id, err)
			}
		}
	}
	return tx.Commit()
}

// Count returns the number of stored abstracts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM abstracts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting abstracts: %w", err)
	}
	return n, nil
}
