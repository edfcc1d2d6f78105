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

// keepPerSymbol bounds the snapshot history retained per symbol.
const keepPerSymbol = 10

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/analysis.db"
}

// Writer is a single-goroutine SQLite writer with transaction batching.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			rows_count INTEGER NOT NULL,
			computed   TEXT    NOT NULL,
			skipped    TEXT    NOT NULL,
			payload    TEXT    NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_symbol
			ON analysis_snapshots (symbol, created_at DESC);
	`)
	return err
}

// SaveSnapshot stores one result with its full sanitized payload and prunes
// old rows for the same symbol.
func (w *Writer) SaveSnapshot(res *model.AnalysisResult, payload []byte) error {
	computed, _ := json.Marshal(res.Computed)
	skipped, _ := json.Marshal(res.Skipped)

	_, err := w.db.Exec(`
		INSERT INTO analysis_snapshots (symbol, rows_count, computed, skipped, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, res.Symbol, res.Rows, string(computed), string(skipped), string(payload), res.TS.Unix())
	if err != nil {
		return fmt.Errorf("sqlite insert snapshot: %w", err)
	}

	_, err = w.db.Exec(`
		DELETE FROM analysis_snapshots WHERE symbol = ? AND id NOT IN (
			SELECT id FROM analysis_snapshots WHERE symbol = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`, res.Symbol, res.Symbol, keepPerSymbol)
	if err != nil {
		log.Printf("[sqlite] prune snapshots warning: %v", err)
	}

	return nil
}

// ReadLatestSnapshot returns the most recent payload for a symbol.
// Returns sql.ErrNoRows when the symbol has no snapshots.
func (w *Writer) ReadLatestSnapshot(symbol string) ([]byte, time.Time, error) {
	var payload string
	var createdAt int64
	err := w.db.QueryRow(`
		SELECT payload, created_at FROM analysis_snapshots
		WHERE symbol = ? ORDER BY created_at DESC, id DESC LIMIT 1
	`, symbol).Scan(&payload, &createdAt)
	if err != nil {
		return nil, time.Time{}, err
	}
	return []byte(payload), time.Unix(createdAt, 0), nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
