package main

import (
	"context"
	"database/sql"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DBCache maintains a cached in-memory DuckDB whose ticks view spans every
// parquet shard under the data roots, refreshing periodically so new batch
// files show up without a restart.
type DBCache struct {
	roots       []string
	refreshRate time.Duration

	mu          sync.RWMutex
	db          *sql.DB
	lastRefresh time.Time

	gamesIndex []GameSummary
}

func NewDBCache(roots []string, refreshRate time.Duration) *DBCache {
	return &DBCache{
		roots:       roots,
		refreshRate: refreshRate,
	}
}

// Get returns the cached DB connection, refreshing if it has gone stale.
func (c *DBCache) Get() (*sql.DB, error) {
	c.mu.RLock()
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		db := c.db
		c.mu.RUnlock()
		return db, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		return c.db, nil
	}
	return c.refreshLocked()
}

// Refresh forces the view to be rebuilt, picking up new shards immediately.
func (c *DBCache) Refresh() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.refreshLocked()
	return err
}

func (c *DBCache) refreshLocked() (*sql.DB, error) {
	start := time.Now()

	newDB, err := openDuckDBWithGlobs(c.roots)
	if err != nil {
		return nil, err
	}
	if c.db != nil {
		_ = c.db.Close()
	}
	c.db = newDB
	c.lastRefresh = time.Now()
	c.gamesIndex = nil

	log.Printf("DBCache refreshed in %v", time.Since(start))
	return c.db, nil
}

// GetGamesIndex returns the cached game summaries, rebuilding after a
// refresh.
func (c *DBCache) GetGamesIndex(ctx context.Context) ([]GameSummary, error) {
	c.mu.RLock()
	if c.gamesIndex != nil && c.db != nil {
		idx := c.gamesIndex
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gamesIndex != nil && c.db != nil {
		return c.gamesIndex, nil
	}
	if c.db == nil {
		if _, err := c.refreshLocked(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	games, err := queryAllGames(ctx, c.db, c.roots)
	if err != nil {
		return nil, err
	}
	c.gamesIndex = games
	log.Printf("Games index rebuilt: %d games in %v", len(games), time.Since(start))
	return c.gamesIndex, nil
}

func (c *DBCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

// openDuckDBWithGlobs builds the ticks view from glob patterns so DuckDB
// does the file enumeration itself. Half-written shards live under tmp/ and
// are filtered out by filename.
func openDuckDBWithGlobs(roots []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}

	if len(globs) == 0 {
		_, err := db.Exec(`CREATE OR REPLACE VIEW ticks AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS game_id,
					NULL::INTEGER AS tick,
					NULL::VARCHAR AS phase,
					NULL::INTEGER AS attempts,
					NULL::INTEGER AS battles,
					NULL::INTEGER AS same_player,
					NULL::INTEGER AS wall_empty,
					NULL::VARCHAR AS rng_kind,
					NULL::INTEGER AS rng_state,
					NULL::STRUCT(
						id INTEGER,
						piece VARCHAR,
						cells INTEGER,
						losses INTEGER
					)[] AS players,
					NULL::VARCHAR AS filename
			) WHERE 1=0`)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	sqlText := `CREATE OR REPLACE VIEW ticks AS
		SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
		WHERE NOT contains(filename, '/tmp/')`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// startedNsFromGameID parses hl_<unix_nano>_<worker> ids.
func startedNsFromGameID(gameID string) *int64 {
	parts := strings.Split(gameID, "_")
	if len(parts) != 3 || parts[0] != "hl" {
		return nil
	}
	ns, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	return &ns
}

func winnerFromPhase(phase string) int {
	switch phase {
	case "Won", "GameWon":
		return 0
	case "Lost":
		return 1
	}
	return -1
}

func queryAllGames(ctx context.Context, db *sql.DB, roots []string) ([]GameSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			game_id,
			MIN(tick),
			MAX(tick),
			COUNT(*)::INTEGER,
			arg_max(phase, tick),
			any_value(filename)
		FROM ticks
		GROUP BY game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		var g GameSummary
		if err := rows.Scan(&g.GameID, &g.MinTick, &g.MaxTick, &g.TickCount, &g.FinalPhase, &g.SourceFile); err != nil {
			return nil, err
		}
		g.StartedNs = startedNsFromGameID(g.GameID)
		g.Winner = winnerFromPhase(g.FinalPhase)
		g.SourceFile = makeRelativeToRoots(g.SourceFile, roots)
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest first; ids without a timestamp sort last.
	sort.Slice(games, func(i, j int) bool {
		a, b := games[i].StartedNs, games[j].StartedNs
		switch {
		case a == nil && b == nil:
			return games[i].GameID < games[j].GameID
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a > *b
	})
	return games, nil
}

func paginateGames(games []GameSummary, limit, offset int) ([]GameSummary, int64) {
	total := int64(len(games))
	if offset >= len(games) {
		return []GameSummary{}, total
	}
	end := offset + limit
	if end > len(games) {
		end = len(games)
	}
	return games[offset:end], total
}

func makeRelativeToRoots(filename string, roots []string) string {
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		if rel, err := filepath.Rel(root, filename); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filename
}

func queryTicks(ctx context.Context, db *sql.DB, gameID string) ([]TickView, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT game_id, tick, phase, attempts, battles, same_player, wall_empty,
		       rng_kind, rng_state, players
		FROM ticks
		WHERE game_id = ?
		ORDER BY tick`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []TickView
	for rows.Next() {
		var t TickView
		var players any
		if err := rows.Scan(&t.GameID, &t.Tick, &t.Phase, &t.Attempts, &t.Battles,
			&t.SamePlayer, &t.WallEmpty, &t.RngKind, &t.RngState, &players); err != nil {
			return nil, err
		}
		t.Players = asPlayers(players)
		ticks = append(ticks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, sql.ErrNoRows
	}
	return ticks, nil
}

func queryStats(ctx context.Context, db *sql.DB, fromNs, toNs, bucketNs int64) ([]StatsPoint, error) {
	rows, err := db.QueryContext(ctx, `
		WITH games AS (
			SELECT
				TRY_CAST(split_part(game_id, '_', 2) AS BIGINT) AS started_ns,
				MAX(tick)::BIGINT AS ticks,
				SUM(battles)::BIGINT AS battles,
				SUM(attempts)::BIGINT AS attempts,
				arg_max(phase, tick) AS final_phase
			FROM ticks
			GROUP BY game_id
		)
		SELECT
			(started_ns // ?) * ? AS t_ns,
			COUNT(*)::BIGINT,
			SUM(CASE WHEN final_phase = 'Won' OR final_phase = 'GameWon' THEN 1 ELSE 0 END)::BIGINT,
			SUM(CASE WHEN final_phase = 'Lost' THEN 1 ELSE 0 END)::BIGINT,
			SUM(CASE WHEN final_phase = 'Playing' THEN 1 ELSE 0 END)::BIGINT,
			SUM(ticks)::BIGINT,
			SUM(battles)::BIGINT,
			SUM(attempts)::BIGINT
		FROM games
		WHERE started_ns IS NOT NULL AND started_ns >= ? AND started_ns < ?
		GROUP BY t_ns
		ORDER BY t_ns`,
		bucketNs, bucketNs, fromNs, toNs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []StatsPoint
	for rows.Next() {
		var p StatsPoint
		if err := rows.Scan(&p.TNs, &p.Games, &p.HumanWins, &p.AlbertWins, &p.Cutoffs,
			&p.TotalTicks, &p.Battles, &p.Attempts); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
