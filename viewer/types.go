package main

// GameSummary is one archived game in the index.
type GameSummary struct {
	GameID string `json:"game_id"`
	// StartedNs is parsed from game ids of the form hl_<unix_nano>_<worker>.
	// Nil for ids that do not match.
	StartedNs  *int64 `json:"started_ns"`
	MinTick    int32  `json:"min_tick"`
	MaxTick    int32  `json:"max_tick"`
	TickCount  int32  `json:"tick_count"`
	FinalPhase string `json:"final_phase"`
	// Winner is the player id, or -1 for games that never reached a
	// terminal phase.
	Winner     int    `json:"winner"`
	SourceFile string `json:"file"`
}

type GamesResponse struct {
	Total int64         `json:"total"`
	Games []GameSummary `json:"games"`
}

// PlayerView is the per-player slice of one archived tick.
type PlayerView struct {
	ID     int32  `json:"id"`
	Piece  string `json:"piece"`
	Cells  int32  `json:"cells"`
	Losses int32  `json:"losses"`
}

// TickView is one archived tick as served to the UI.
type TickView struct {
	GameID     string       `json:"game_id"`
	Tick       int32        `json:"tick"`
	Phase      string       `json:"phase"`
	Attempts   int32        `json:"attempts"`
	Battles    int32        `json:"battles"`
	SamePlayer int32        `json:"same_player"`
	WallEmpty  int32        `json:"wall_empty"`
	RngKind    string       `json:"rng_kind"`
	RngState   int32        `json:"rng_state"`
	Players    []PlayerView `json:"players"`
}

// StatsPoint aggregates the games started within one time bucket.
type StatsPoint struct {
	TNs int64 `json:"t_ns"`

	Games      int64 `json:"games"`
	HumanWins  int64 `json:"human_seat_wins"`
	AlbertWins int64 `json:"albert_wins"`
	Cutoffs    int64 `json:"cutoffs"`

	TotalTicks int64 `json:"total_ticks"`
	Battles    int64 `json:"battles"`
	Attempts   int64 `json:"attempts"`
}

type StatsResponse struct {
	FromNs   int64        `json:"from_ns"`
	ToNs     int64        `json:"to_ns"`
	BucketNs int64        `json:"bucket_ns"`
	Points   []StatsPoint `json:"points"`
}

// ResultRow mirrors the SQLite results index for /api/results.
type ResultRow struct {
	ID         string `json:"id"`
	Winner     int    `json:"winner"`
	Ticks      int    `json:"ticks"`
	Seed       uint16 `json:"seed"`
	RngKind    string `json:"rng_kind"`
	PairsRate  int    `json:"pairs_rate"`
	FinishedAt string `json:"finished_at"`
}

type ResultsResponse struct {
	WinCounts map[int]int64 `json:"win_counts"`
	Results   []ResultRow   `json:"results"`
}
