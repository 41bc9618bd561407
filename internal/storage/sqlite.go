// Package storage records finished rounds in SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
// Only outcomes are stored; a round in progress is never persisted.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for round history.
type Store struct {
	db *sql.DB
}

// Round is one recorded round.
type Round struct {
	ID           int64
	Won          bool
	DragonHealth int // Health left when the round ended
	PoolSize     int // Fireball pool size when the round ended
	Ticks        int
	StartedAt    time.Time
	Duration     time.Duration
	CreatedAt    time.Time
}

// Totals aggregates all recorded rounds.
type Totals struct {
	Rounds     int
	Wins       int
	Losses     int
	FastestWin time.Duration // Zero if there are no wins
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	path, err := ExpandPath(dbPath)
	if err != nil {
		return nil, err
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Rounds are written from a background goroutine while the history
	// command may read; one connection keeps SQLite from reporting busy.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			won INTEGER NOT NULL,
			dragon_health INTEGER NOT NULL,
			pool_size INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			started_at_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_won ON rounds(won);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRound records a finished round.
// Returns the ID of the inserted record.
func (s *Store) SaveRound(r Round) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO rounds (won, dragon_health, pool_size, ticks, started_at_ms, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Won, r.DragonHealth, r.PoolSize, r.Ticks, r.StartedAt.UnixMilli(), r.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save round: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRounds retrieves the most recent rounds, newest first.
func (s *Store) RecentRounds(limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, won, dragon_health, pool_size, ticks, started_at_ms, duration_ms, created_at
		 FROM rounds
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var r Round
		var startedMs, durationMs int64
		var createdAt any
		if err := rows.Scan(&r.ID, &r.Won, &r.DragonHealth, &r.PoolSize, &r.Ticks,
			&startedMs, &durationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMs)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.CreatedAt = parseTimestamp(createdAt)
		rounds = append(rounds, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return rounds, nil
}

// Totals returns win/loss counts across all rounds.
func (s *Store) Totals() (Totals, error) {
	var t Totals
	var fastestMs sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(won), 0),
		        MIN(CASE WHEN won = 1 THEN duration_ms END)
		 FROM rounds`,
	).Scan(&t.Rounds, &t.Wins, &fastestMs)
	if err != nil {
		return Totals{}, fmt.Errorf("storage: cannot query totals: %w", err)
	}
	t.Losses = t.Rounds - t.Wins
	if fastestMs.Valid {
		t.FastestWin = time.Duration(fastestMs.Int64) * time.Millisecond
	}

	var lastPlayed any
	err = s.db.QueryRow(`SELECT created_at FROM rounds ORDER BY id DESC LIMIT 1`).Scan(&lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Totals{}, fmt.Errorf("storage: cannot get last played: %w", err)
	}
	if err == nil {
		t.LastPlayed = parseTimestamp(lastPlayed)
	}

	return t, nil
}

// ClearRounds deletes all recorded rounds.
func (s *Store) ClearRounds() error {
	if _, err := s.db.Exec("DELETE FROM rounds"); err != nil {
		return fmt.Errorf("storage: cannot clear rounds: %w", err)
	}
	return nil
}

// parseTimestamp handles both time.Time and string DATETIME values.
func parseTimestamp(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
