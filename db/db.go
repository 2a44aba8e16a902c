// Package db is the results index for batch runs: one SQLite row per
// finished game, keyed by game id. The per-tick detail lives in parquet;
// this index answers "which games exist and who won" without scanning
// archive files.
package db

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with thread-safe operations.
type DB struct {
	conn *sql.DB
	mu   sync.Mutex
}

// Result is one finished game.
type Result struct {
	ID         string
	Winner     int
	Ticks      int
	Seed       uint16
	RngKind    string
	PairsRate  int
	FinishedAt time.Time
}

// New opens (or creates) the index at dbPath and ensures the schema.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,            -- e.g. "hl_1756100000000_3"
		winner INTEGER,                 -- player id, -1 if the run was cut off
		ticks INTEGER,                  -- ticks until the terminal phase
		seed INTEGER,                   -- starting LFSR seed, 0 for system rng
		rng_kind TEXT,
		pairs_rate INTEGER,             -- pairs per tick the game ran with
		finished_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_games_winner ON games(winner);
	`

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GameExists reports whether a game id is already indexed.
func (db *DB) GameExists(gameID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var exists int
	err := db.conn.QueryRow("SELECT 1 FROM games WHERE id = ?", gameID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertResult records a finished game. Re-inserting an existing id is a
// no-op so crashed batches can be replayed safely.
func (db *DB) InsertResult(r Result) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		"INSERT OR IGNORE INTO games (id, winner, ticks, seed, rng_kind, pairs_rate) VALUES (?, ?, ?, ?, ?, ?)",
		r.ID, r.Winner, r.Ticks, r.Seed, r.RngKind, r.PairsRate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// Results returns the most recent games, newest first.
func (db *DB) Results(limit int) ([]Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		"SELECT id, winner, ticks, seed, rng_kind, pairs_rate, finished_at FROM games ORDER BY finished_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Winner, &r.Ticks, &r.Seed, &r.RngKind, &r.PairsRate, &r.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// WinCounts returns games won per player id.
func (db *DB) WinCounts() (map[int]int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query("SELECT winner, COUNT(*) FROM games GROUP BY winner")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var winner int
		var n int64
		if err := rows.Scan(&winner, &n); err != nil {
			return nil, err
		}
		counts[winner] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
