// Package sim owns the game loop: the tick pipeline, the phase machine,
// the fixed-timestep clock, and the command surface the frontends call.
package sim

import (
	"strings"
	"time"

	"github.com/brensch/handlords/ai"
	"github.com/brensch/handlords/game"
	"github.com/brensch/handlords/rng"
	"github.com/brensch/handlords/rules"
)

// Engine wraps one GameState and advances it. It is not safe for concurrent
// use; each frontend drives its engine from a single goroutine.
type Engine struct {
	State *game.GameState

	acc time.Duration
}

// New builds an engine around a fresh two-player game with level 1 loaded,
// waiting in the Ready phase.
func New(src rng.Source) *Engine {
	s := game.NewGameState(src)
	game.LoadLevel(s, s.Level)
	return &Engine{State: s}
}

// Step runs exactly one simulation tick. Outside the Playing phase it does
// nothing. Tick order is fixed: advance the counter, clear per-tick loss
// counters and stats, resolve the configured number of duel pairs, check
// for a win or loss, then let the AI players act.
func (e *Engine) Step() {
	s := e.State
	if s.Phase != game.Playing {
		return
	}

	s.Tick++
	s.Stats = game.TickStats{}
	for i := range s.Players {
		s.Players[i].TickLosses = 0
	}

	rules.ResolvePairs(s, s.Cfg.PairsPerTick)
	rules.CheckWinLoss(s)

	for i := range s.Players {
		if s.Players[i].ID >= 1 {
			ai.Update(s, &s.Players[i])
		}
	}
}

// Advance feeds wall-clock time into the fixed-timestep accumulator and
// runs however many whole ticks fit, returning the count. The tick duration
// is recomputed from the live config before every tick, so a rate change
// applies mid-burst.
func (e *Engine) Advance(elapsed time.Duration) int {
	e.acc += elapsed
	steps := 0
	for {
		dt := e.TickInterval()
		if e.acc < dt {
			return steps
		}
		e.acc -= dt
		e.Step()
		steps++
	}
}

// TickInterval is the current fixed-timestep duration, derived from the
// live tick-rate setting.
func (e *Engine) TickInterval() time.Duration {
	return time.Second / time.Duration(e.State.Cfg.TicksPerSecond)
}

// Start begins play from the Ready phase.
func (e *Engine) Start() {
	if e.State.Phase == game.Ready {
		e.State.Phase = game.Playing
	}
}

// Restart rebuilds the opening position and returns to Ready. Config stays
// as tuned; the RNG stream is left wherever it is.
func (e *Engine) Restart() {
	s := e.State
	s.Tick = 0
	s.Stats = game.TickStats{}
	s.ResetPlayers()
	game.LoadLevel(s, s.Level)
	s.Phase = game.Ready
	e.acc = 0
}

// RotateHuman advances player 0's piece and repaints their territory.
// Ignored outside the Playing phase.
func (e *Engine) RotateHuman() {
	s := e.State
	if s.Phase != game.Playing {
		return
	}
	p := &s.Players[0]
	p.Current = p.Current.Next()
	p.LastRotTick = s.Tick
	s.RepaintOwned(p.ID)
}

// Live tuning commands. All clamp rather than reject.

func (e *Engine) SetPairsPerTick(n int)         { e.State.Cfg.SetPairsPerTick(n) }
func (e *Engine) SetTicksPerSecond(n int)       { e.State.Cfg.SetTicksPerSecond(n) }
func (e *Engine) SetRotationAverage(n int)      { e.State.Albert.SetRotationAverage(n) }
func (e *Engine) SetRotationHalfInterval(n int) { e.State.Albert.SetRotationHalfInterval(n) }

// ResetGameConfig restores pair rate and tick rate to their defaults.
func (e *Engine) ResetGameConfig() {
	e.State.Cfg = game.DefaultGameConfig()
}

// ResetAlbertConfig restores the AI rotation distribution to its defaults.
// Intervals already in flight are unaffected.
func (e *Engine) ResetAlbertConfig() {
	e.State.Albert = game.DefaultAlbertConfig()
}

// ForceAlbertRotation rotates every AI player immediately.
func (e *Engine) ForceAlbertRotation() {
	s := e.State
	for i := range s.Players {
		if s.Players[i].ID >= 1 {
			ai.ForceRotation(s, &s.Players[i])
		}
	}
}

// ResetAlbertTimer restarts every AI player's rotation countdown.
func (e *Engine) ResetAlbertTimer() {
	s := e.State
	for i := range s.Players {
		if s.Players[i].ID >= 1 {
			ai.ResetTimer(s, &s.Players[i])
		}
	}
}

// PlayerSnapshot is one player's externally visible state. The rotation
// fields expose the AI timer; for the human seat RotScheduled is always
// false.
type PlayerSnapshot struct {
	ID           uint8  `json:"id"`
	Piece        string `json:"piece"`
	Cells        int    `json:"cells"`
	TickLosses   int    `json:"tick_losses"`
	LastRotTick  uint16 `json:"last_rot_tick"`
	RotScheduled bool   `json:"rot_scheduled"`
	RotPeriod    int    `json:"rot_period,omitempty"`
}

// Snapshot is a self-contained view of the game for transport and display.
// The grid is rendered as one string per row: '#' wall, '.' empty, and
// R/P/S symbols, uppercase for player 0 and lowercase for player 1.
type Snapshot struct {
	Phase      string           `json:"phase"`
	Tick       uint16           `json:"tick"`
	Level      int              `json:"level"`
	RngKind    string           `json:"rng_kind"`
	RngState   uint16           `json:"rng_state"`
	Attempts   int              `json:"attempts"`
	Battles    int              `json:"battles"`
	SamePlayer int              `json:"same_player"`
	WallEmpty  int              `json:"wall_empty"`
	Players    []PlayerSnapshot `json:"players"`
	Grid       []string         `json:"grid"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	s := e.State
	counts := s.TerritoryCounts()

	snap := Snapshot{
		Phase:      s.Phase.String(),
		Tick:       s.Tick,
		Level:      s.Level,
		RngKind:    string(s.Rng.Kind()),
		Attempts:   s.Stats.Attempts,
		Battles:    s.Stats.Battles,
		SamePlayer: s.Stats.SamePlayer,
		WallEmpty:  s.Stats.WallEmpty,
	}
	if l, ok := s.Rng.(*rng.LFSR); ok {
		snap.RngState = l.State()
	}
	for i := range s.Players {
		p := &s.Players[i]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:           p.ID,
			Piece:        p.Current.String(),
			Cells:        counts[p.ID],
			TickLosses:   p.TickLosses,
			LastRotTick:  p.LastRotTick,
			RotScheduled: p.Schedule.Scheduled,
			RotPeriod:    p.Schedule.Period,
		})
	}

	for y := 0; y < game.Height; y++ {
		var row strings.Builder
		for x := 0; x < game.Width; x++ {
			c := s.Grid.At(x, y)
			switch c.Kind {
			case game.Wall:
				row.WriteByte('#')
			case game.Empty:
				row.WriteByte('.')
			case game.Symbol:
				ch := "RPS"[c.Piece]
				if c.Owner == 1 {
					ch += 'a' - 'A'
				}
				row.WriteByte(ch)
			}
		}
		snap.Grid = append(snap.Grid, row.String())
	}
	return snap
}
