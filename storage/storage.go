package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"hn-sentiment/thread"
)

// AnalysisInfo is the listing view of a stored analysis.
type AnalysisInfo struct {
	PostID     int
	Title      string
	Model      string
	Question   string
	RunID      string
	AnalyzedAt string // RFC 3339
}

// Store provides SQLite-backed persistence for analyses, watches, and settings.
type Store struct {
	db *sql.DB
}

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS analyses (
	post_id INTEGER PRIMARY KEY,
	title TEXT,
	model TEXT,
	question TEXT,
	run_id TEXT,
	analyzed_at TEXT,
	document TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS watches (
	post_id INTEGER PRIMARY KEY,
	added_at INTEGER,
	last_run_at INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT
);
`

// New opens the SQLite database at dbPath, creates tables if they don't exist, and returns a Store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTablesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveAnalysis inserts or replaces the analysis for doc.PostID.
func (s *Store) SaveAnalysis(doc *thread.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("storage: encode analysis %d: %w", doc.PostID, err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO analyses (post_id, title, model, question, run_id, analyzed_at, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.PostID, doc.Title, doc.Model, doc.SentimentQuestion, doc.RunID, doc.AnalyzedAt, string(data),
	)
	if err != nil {
		return fmt.Errorf("storage: save analysis %d: %w", doc.PostID, err)
	}
	return nil
}

// LoadAnalysis returns the stored analysis of a post.
// Returns nil if the post has not been analysed.
func (s *Store) LoadAnalysis(postID int) (*thread.Document, error) {
	var data string
	err := s.db.QueryRow(`SELECT document FROM analyses WHERE post_id = ?`, postID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load analysis %d: %w", postID, err)
	}

	var doc thread.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("storage: decode analysis %d: %w", postID, err)
	}
	return &doc, nil
}

// DeleteAnalysis removes a stored analysis and reports whether one existed.
func (s *Store) DeleteAnalysis(postID int) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM analyses WHERE post_id = ?`, postID)
	if err != nil {
		return false, fmt.Errorf("storage: delete analysis %d: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: delete analysis %d: %w", postID, err)
	}
	return n > 0, nil
}

// ListAnalyses returns every stored analysis, newest first.
func (s *Store) ListAnalyses() ([]AnalysisInfo, error) {
	rows, err := s.db.Query(
		`SELECT post_id, title, model, question, run_id, analyzed_at
		 FROM analyses ORDER BY analyzed_at DESC, post_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list analyses: %w", err)
	}
	defer rows.Close()

	var list []AnalysisInfo
	for rows.Next() {
		var a AnalysisInfo
		if err := rows.Scan(&a.PostID, &a.Title, &a.Model, &a.Question, &a.RunID, &a.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("storage: scan analysis: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate analyses: %w", err)
	}
	return list, nil
}

// GetSetting returns the value for the given settings key.
// Returns an empty string if the key is not found.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting key-value pair.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storage: set setting %q: %w", key, err)
	}
	return nil
}
