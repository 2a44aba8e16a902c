package game

import (
	"github.com/brensch/handlords/rng"
)

// MaxPlayers bounds the owner index space. Only two players are active
// today; the grid and counters are sized for four so extra AI opponents are
// a data change, not a redesign.
const MaxPlayers = 4

// Phase is the game flow state machine.
type Phase uint8

const (
	Ready Phase = iota
	Playing
	Lost
	Won
	// GameWon is reserved for multi-level progression and is not reachable
	// with a single level.
	GameWon
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "Ready"
	case Playing:
		return "Playing"
	case Lost:
		return "Lost"
	case Won:
		return "Won"
	case GameWon:
		return "GameWon"
	}
	return "?"
}

// RotationSchedule is the AI rotation timer. Scheduled=false means no
// interval has been drawn yet; the controller lazily draws one on its next
// update. This replaces a zero-valued period sentinel so a legitimate
// short period can never be confused with "uninitialized".
type RotationSchedule struct {
	Scheduled bool
	Period    int
}

// PlayerState is one participant. Player 0 is the human seat; higher ids are
// AI controlled.
type PlayerState struct {
	ID      uint8
	Current Piece

	// LastRotTick is the tick of the most recent rotation (human or AI).
	LastRotTick uint16

	// TickLosses counts cells lost to duels during the current tick only;
	// the engine resets it at the start of every tick.
	TickLosses int

	// Schedule is AI-only rotation state.
	Schedule RotationSchedule
}

// Tunable ranges, matching the limits of the live tuning surface. Values
// pushed outside a range are clamped, never rejected: tuning is user-driven
// and must not fail mid-game.
const (
	DefaultPairsPerTick = 240
	MinPairsPerTick     = 50
	MaxPairsPerTick     = 500

	DefaultTicksPerSecond = 15
	MinTicksPerSecond     = 5
	MaxTicksPerSecond     = 30

	DefaultRotationAverage = 58
	MinRotationAverage     = 10
	MaxRotationAverage     = 200

	DefaultRotationHalfInterval = 43
	MinRotationHalfInterval     = 5
	MaxRotationHalfInterval     = 100
)

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// GameConfig holds the live-tunable run parameters. Changes take effect on
// the next tick.
type GameConfig struct {
	PairsPerTick   int
	TicksPerSecond int
}

func DefaultGameConfig() GameConfig {
	return GameConfig{PairsPerTick: DefaultPairsPerTick, TicksPerSecond: DefaultTicksPerSecond}
}

func (c *GameConfig) SetPairsPerTick(n int) {
	c.PairsPerTick = clamp(n, MinPairsPerTick, MaxPairsPerTick)
}

func (c *GameConfig) SetTicksPerSecond(n int) {
	c.TicksPerSecond = clamp(n, MinTicksPerSecond, MaxTicksPerSecond)
}

// AlbertConfig tunes the AI rotation-interval distribution. A change only
// affects the next interval draw, never one already in flight.
type AlbertConfig struct {
	RotationAverage      int
	RotationHalfInterval int
}

func DefaultAlbertConfig() AlbertConfig {
	return AlbertConfig{
		RotationAverage:      DefaultRotationAverage,
		RotationHalfInterval: DefaultRotationHalfInterval,
	}
}

func (c *AlbertConfig) SetRotationAverage(n int) {
	c.RotationAverage = clamp(n, MinRotationAverage, MaxRotationAverage)
}

func (c *AlbertConfig) SetRotationHalfInterval(n int) {
	c.RotationHalfInterval = clamp(n, MinRotationHalfInterval, MaxRotationHalfInterval)
}

// TickStats is the most recent tick's duel accounting, retained for
// observability only; it never feeds back into simulation behavior.
// Out-of-bounds neighbor picks are discarded without landing in any bucket,
// so Battles+SamePlayer+WallEmpty can be less than Attempts.
type TickStats struct {
	Attempts   int
	Battles    int
	SamePlayer int
	WallEmpty  int
}

// GameState is the complete simulation state. It is the single unit of
// ownership threaded through every core operation; there is no package-level
// game state anywhere.
type GameState struct {
	Grid    Grid
	Cfg     GameConfig
	Albert  AlbertConfig
	Tick    uint16
	Rng     rng.Source
	Players []PlayerState
	Level   int
	Phase   Phase
	Stats   TickStats
}

// NewGameState builds a fresh two-player state drawing randomness from src.
// Player 0 opens with Rock, player 1 (the AI) with Scissors. The grid is
// empty until a level is loaded.
func NewGameState(src rng.Source) *GameState {
	return &GameState{
		Cfg:    DefaultGameConfig(),
		Albert: DefaultAlbertConfig(),
		Rng:    src,
		Players: []PlayerState{
			{ID: 0, Current: Rock},
			{ID: 1, Current: Scissors},
		},
		Level: 1,
		Phase: Ready,
	}
}

// ResetPlayers restores starting pieces and clears per-player counters and
// AI schedules. Used on restart.
func (s *GameState) ResetPlayers() {
	defaults := []Piece{Rock, Scissors, Paper, Rock}
	for i := range s.Players {
		p := &s.Players[i]
		p.Current = defaults[i%len(defaults)]
		p.LastRotTick = 0
		p.TickLosses = 0
		p.Schedule = RotationSchedule{}
	}
}

// RepaintOwned paints every symbol cell owned by id with that player's
// current piece. Called after any rotation, human or AI.
func (s *GameState) RepaintOwned(id uint8) {
	piece := s.Players[id].Current
	for i := range s.Grid.Cells {
		c := &s.Grid.Cells[i]
		if c.Kind == Symbol && c.Owner == id {
			c.Piece = piece
		}
	}
}

// TerritoryCounts returns the number of symbol cells each owner holds.
func (s *GameState) TerritoryCounts() [MaxPlayers]int {
	var counts [MaxPlayers]int
	for i := range s.Grid.Cells {
		c := &s.Grid.Cells[i]
		if c.Kind == Symbol && int(c.Owner) < MaxPlayers {
			counts[c.Owner]++
		}
	}
	return counts
}
