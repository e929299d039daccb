package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one recorded apply of the override engine to a page.
type Run struct {
	RunID           int64
	PageURL         string
	CreatedAt       time.Time
	StylesheetCount int
	RulesCollected  int
	RulesEmitted    int
	InlineFixed     int
	Status          string
	ErrorMessage    string
}

// CSSFetch is one fallback stylesheet fetch performed during a run.
type CSSFetch struct {
	FetchID      int64
	RunID        int64
	CSSURL       string
	Status       string
	SizeBytes    int64
	ContentHash  string
	ErrorMessage string
	FetchedAt    time.Time
}

// InsertRun records a completed (or failed) run and returns its id.
func (db *DB) InsertRun(r Run) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO runs (page_url, stylesheet_count, rules_collected, rules_emitted, inline_fixed, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.PageURL, r.StylesheetCount, r.RulesCollected, r.RulesEmitted, r.InlineFixed, r.Status, r.ErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	return runID, nil
}

// InsertCSSFetch records one fallback fetch under a run.
func (db *DB) InsertCSSFetch(f CSSFetch) error {
	_, err := db.Exec(`
		INSERT INTO css_fetches (run_id, css_url, status, size_bytes, content_hash, error_message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.RunID, f.CSSURL, f.Status, f.SizeBytes, f.ContentHash, f.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert CSS fetch: %w", err)
	}
	return nil
}

// GetRunByID returns one run.
func (db *DB) GetRunByID(runID int64) (*Run, error) {
	var r Run
	var errMsg sql.NullString
	err := db.QueryRow(`
		SELECT run_id, page_url, created_at, stylesheet_count, rules_collected, rules_emitted, inline_fixed, status, error_message
		FROM runs WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.PageURL, &r.CreatedAt, &r.StylesheetCount, &r.RulesCollected, &r.RulesEmitted, &r.InlineFixed, &r.Status, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	r.ErrorMessage = errMsg.String
	return &r, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT run_id, page_url, created_at, stylesheet_count, rules_collected, rules_emitted, inline_fixed, status, error_message
		FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var errMsg sql.NullString
		if err := rows.Scan(&r.RunID, &r.PageURL, &r.CreatedAt, &r.StylesheetCount, &r.RulesCollected, &r.RulesEmitted, &r.InlineFixed, &r.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.ErrorMessage = errMsg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListCSSFetches returns the fallback fetches recorded for a run.
func (db *DB) ListCSSFetches(runID int64) ([]CSSFetch, error) {
	rows, err := db.Query(`
		SELECT fetch_id, run_id, css_url, status, size_bytes, content_hash, error_message, fetched_at
		FROM css_fetches WHERE run_id = ? ORDER BY fetch_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list CSS fetches: %w", err)
	}
	defer rows.Close()

	var fetches []CSSFetch
	for rows.Next() {
		var f CSSFetch
		var hash, errMsg sql.NullString
		if err := rows.Scan(&f.FetchID, &f.RunID, &f.CSSURL, &f.Status, &f.SizeBytes, &hash, &errMsg, &f.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan CSS fetch: %w", err)
		}
		f.ContentHash = hash.String
		f.ErrorMessage = errMsg.String
		fetches = append(fetches, f)
	}
	return fetches, rows.Err()
}

// LatestRunID returns the id of the most recent run.
func (db *DB) LatestRunID() (int64, error) {
	var id int64
	err := db.QueryRow("SELECT run_id FROM runs ORDER BY run_id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.New("no runs recorded yet")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return id, nil
}
