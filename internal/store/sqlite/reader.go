package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"analysis-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to stored analysis snapshots.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadOutcomes reads stored results for a symbol, newest first.
func (r *Reader) ReadOutcomes(symbol string, limit int) ([]model.AnalysisResult, error) {
	rows, err := r.db.Query(`
		SELECT payload FROM analysis_snapshots
		WHERE symbol = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query snapshots: %w", err)
	}
	defer rows.Close()

	var results []model.AnalysisResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("sqlite scan snapshot: %w", err)
		}
		var res model.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			continue
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// Symbols lists all symbols with at least one stored snapshot.
func (r *Reader) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM analysis_snapshots ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// LastSnapshotTime returns the newest snapshot time for a symbol, or the
// zero time when none exist.
func (r *Reader) LastSnapshotTime(symbol string) (time.Time, error) {
	var ts sql.NullInt64
	err := r.db.QueryRow(
		`SELECT MAX(created_at) FROM analysis_snapshots WHERE symbol = ?`, symbol,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
