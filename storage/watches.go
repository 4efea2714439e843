package storage

import (
	"fmt"
	"time"
)

// Watch is a post that is re-analysed on the refresh schedule.
type Watch struct {
	PostID    int
	AddedAt   int64 // Unix timestamp
	LastRunAt int64 // Unix timestamp, 0 if never refreshed
}

// AddWatch starts watching a post. Adding an existing watch is a no-op.
func (s *Store) AddWatch(postID int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO watches (post_id, added_at, last_run_at) VALUES (?, ?, 0)`,
		postID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: add watch %d: %w", postID, err)
	}
	return nil
}

// RemoveWatch stops watching a post and reports whether it was watched.
func (s *Store) RemoveWatch(postID int) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM watches WHERE post_id = ?`, postID)
	if err != nil {
		return false, fmt.Errorf("storage: remove watch %d: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: remove watch %d: %w", postID, err)
	}
	return n > 0, nil
}

// ListWatches returns all watches in the order they were added.
func (s *Store) ListWatches() ([]Watch, error) {
	rows, err := s.db.Query(`SELECT post_id, added_at, last_run_at FROM watches ORDER BY added_at, post_id`)
	if err != nil {
		return nil, fmt.Errorf("storage: list watches: %w", err)
	}
	defer rows.Close()

	var watches []Watch
	for rows.Next() {
		var w Watch
		if err := rows.Scan(&w.PostID, &w.AddedAt, &w.LastRunAt); err != nil {
			return nil, fmt.Errorf("storage: scan watch: %w", err)
		}
		watches = append(watches, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate watches: %w", err)
	}
	return watches, nil
}

// MarkWatchRun records the time of the latest refresh of a watched post.
func (s *Store) MarkWatchRun(postID int, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE watches SET last_run_at = ? WHERE post_id = ?`,
		at.Unix(), postID,
	)
	if err != nil {
		return fmt.Errorf("storage: mark watch run %d: %w", postID, err)
	}
	return nil
}
