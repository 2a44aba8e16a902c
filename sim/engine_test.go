package sim

import (
	"testing"
	"time"

	"github.com/brensch/handlords/game"
	"github.com/brensch/handlords/rng"
)

func TestStep_NoopOutsidePlaying(t *testing.T) {
	e := New(rng.NewLFSR(0))
	before := *e.State

	e.Step()

	if e.State.Tick != 0 || e.State.Grid != before.Grid {
		t.Fatalf("step advanced a Ready game")
	}
}

func TestStartAndStep(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()
	if e.State.Phase != game.Playing {
		t.Fatalf("phase = %s, want Playing", e.State.Phase)
	}

	e.Step()

	if e.State.Tick != 1 {
		t.Fatalf("tick = %d, want 1", e.State.Tick)
	}
	if e.State.Stats.Attempts != game.DefaultPairsPerTick {
		t.Fatalf("attempts = %d, want %d", e.State.Stats.Attempts, game.DefaultPairsPerTick)
	}
}

func TestStep_ZeroPairsOnlyAdvancesClock(t *testing.T) {
	// The tuning surface clamps to the supported range, so force the raw
	// value: a tick with no duel attempts must still advance the counter and
	// clear per-tick losses.
	e := New(rng.NewLFSR(0))
	e.Start()
	e.State.Cfg.PairsPerTick = 0
	e.State.Players[1].TickLosses = 4
	e.State.Players[1].Schedule = game.RotationSchedule{Scheduled: true, Period: 10000}
	before := e.State.Grid

	e.Step()

	if e.State.Tick != 1 {
		t.Fatalf("tick = %d, want 1", e.State.Tick)
	}
	if e.State.Players[1].TickLosses != 0 {
		t.Fatalf("losses not reset")
	}
	if e.State.Grid != before {
		t.Fatalf("grid changed without any duel attempts")
	}
	if e.State.Stats != (game.TickStats{}) {
		t.Fatalf("stats = %+v, want zeroes", e.State.Stats)
	}
}

func TestStep_WinWhenOpponentWiped(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()

	// Hand the whole board to player 0 except one doomed cell. Park the AI
	// timer far out so no rotation changes the matchup mid-test.
	e.State.Players[1].Schedule = game.RotationSchedule{Scheduled: true, Period: 10000}
	for i := range e.State.Grid.Cells {
		c := &e.State.Grid.Cells[i]
		if c.Kind == game.Symbol {
			*c = game.Cell{Kind: game.Symbol, Owner: 0, Piece: game.Rock}
		}
	}
	*e.State.Grid.At(20, 12) = game.Cell{Kind: game.Symbol, Owner: 1, Piece: game.Scissors}

	for i := 0; i < 200 && e.State.Phase == game.Playing; i++ {
		e.Step()
	}

	if e.State.Phase != game.Won {
		t.Fatalf("phase = %s, want Won", e.State.Phase)
	}
}

func TestStep_LossWhenPlayerWiped(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()

	e.State.Players[1].Schedule = game.RotationSchedule{Scheduled: true, Period: 10000}
	for i := range e.State.Grid.Cells {
		c := &e.State.Grid.Cells[i]
		if c.Kind == game.Symbol {
			*c = game.Cell{Kind: game.Symbol, Owner: 1, Piece: game.Rock}
		}
	}
	*e.State.Grid.At(20, 12) = game.Cell{Kind: game.Symbol, Owner: 0, Piece: game.Scissors}

	for i := 0; i < 200 && e.State.Phase == game.Playing; i++ {
		e.Step()
	}

	if e.State.Phase != game.Lost {
		t.Fatalf("phase = %s, want Lost", e.State.Phase)
	}
}

func TestStep_EmptyBoardStaysPlaying(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()
	e.State.Grid.Clear()

	e.Step()

	if e.State.Phase != game.Playing {
		t.Fatalf("phase = %s on a symbol-free board, want Playing", e.State.Phase)
	}
}

func TestRestart(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()
	e.SetPairsPerTick(300)
	for i := 0; i < 10; i++ {
		e.Step()
	}
	e.RotateHuman()

	e.Restart()

	s := e.State
	if s.Phase != game.Ready || s.Tick != 0 {
		t.Fatalf("phase=%s tick=%d after restart", s.Phase, s.Tick)
	}
	if s.Players[0].Current != game.Rock || s.Players[1].Current != game.Scissors {
		t.Fatalf("starting pieces not restored")
	}
	counts := s.TerritoryCounts()
	half := (game.Width/2 - 1) * (game.Height - 2)
	if counts[0] != half || counts[1] != half {
		t.Fatalf("territory = %d/%d after restart, want %d each", counts[0], counts[1], half)
	}
	if s.Cfg.PairsPerTick != 300 {
		t.Fatalf("restart must not reset tuning, pairs = %d", s.Cfg.PairsPerTick)
	}
}

func TestRotateHuman(t *testing.T) {
	e := New(rng.NewLFSR(0))

	e.RotateHuman()
	if e.State.Players[0].Current != game.Rock {
		t.Fatalf("rotation applied outside Playing")
	}

	e.Start()
	e.State.Tick = 5
	e.RotateHuman()

	p := e.State.Players[0]
	if p.Current != game.Paper || p.LastRotTick != 5 {
		t.Fatalf("player = %+v, want Paper stamped at tick 5", p)
	}
	for i := range e.State.Grid.Cells {
		c := e.State.Grid.Cells[i]
		if c.Kind == game.Symbol && c.Owner == 0 && c.Piece != game.Paper {
			t.Fatalf("territory not repainted at cell %d", i)
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() Snapshot {
		e := New(rng.NewLFSR(0x1234))
		e.Start()
		for i := 0; i < 50; i++ {
			if i == 10 {
				e.RotateHuman()
			}
			if i == 25 {
				e.SetPairsPerTick(310)
			}
			e.Step()
		}
		return e.Snapshot()
	}

	a, b := run(), run()
	if a.Tick != b.Tick || a.RngState != b.RngState {
		t.Fatalf("replays diverge: tick %d/%d rng %#04x/%#04x",
			a.Tick, b.Tick, a.RngState, b.RngState)
	}
	for i := range a.Grid {
		if a.Grid[i] != b.Grid[i] {
			t.Fatalf("replays diverge at row %d:\n%s\n%s", i, a.Grid[i], b.Grid[i])
		}
	}
}

func TestAdvance_Accumulator(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()
	dt := time.Second / time.Duration(e.State.Cfg.TicksPerSecond)
	if e.TickInterval() != dt {
		t.Fatalf("tick interval = %v, want %v", e.TickInterval(), dt)
	}

	if got := e.Advance(dt * 7 / 2); got != 3 {
		t.Fatalf("3.5 tick durations ran %d ticks, want 3", got)
	}
	if got := e.Advance(dt / 2); got != 1 {
		t.Fatalf("remainder not carried, ran %d ticks, want 1", got)
	}
	if got := e.Advance(dt / 4); got != 0 {
		t.Fatalf("partial interval ran %d ticks, want 0", got)
	}
}

func TestConfigResets(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.SetPairsPerTick(400)
	e.SetTicksPerSecond(30)
	e.SetRotationAverage(100)
	e.SetRotationHalfInterval(10)

	e.ResetGameConfig()
	e.ResetAlbertConfig()

	if e.State.Cfg != game.DefaultGameConfig() {
		t.Fatalf("game config = %+v", e.State.Cfg)
	}
	if e.State.Albert != game.DefaultAlbertConfig() {
		t.Fatalf("albert config = %+v", e.State.Albert)
	}
}

func TestForceAlbertRotation(t *testing.T) {
	e := New(rng.NewLFSR(0))
	e.Start()
	e.State.Tick = 9

	e.ForceAlbertRotation()

	p := e.State.Players[1]
	if p.Current != game.Rock || p.LastRotTick != 9 || p.Schedule.Scheduled {
		t.Fatalf("player 1 = %+v after forced rotation", p)
	}
	if e.State.Players[0].Current != game.Rock {
		t.Fatalf("human piece disturbed")
	}
}

func TestSnapshot(t *testing.T) {
	e := New(rng.NewLFSR(0))
	snap := e.Snapshot()

	if snap.Phase != "Ready" || snap.RngKind != "lfsr" || snap.RngState != rng.DefaultSeed {
		t.Fatalf("snapshot header = %+v", snap)
	}
	if len(snap.Players) != 2 || snap.Players[0].Piece != "Rock" || snap.Players[1].Piece != "Scissors" {
		t.Fatalf("players = %+v", snap.Players)
	}
	if len(snap.Grid) != game.Height || len(snap.Grid[0]) != game.Width {
		t.Fatalf("grid render is %dx%d", len(snap.Grid), len(snap.Grid[0]))
	}
	if snap.Grid[0] != "########################################" {
		t.Fatalf("top row = %q", snap.Grid[0])
	}
	if snap.Grid[1][1] != 'R' || snap.Grid[1][game.Width-2] != 's' {
		t.Fatalf("row 1 = %q", snap.Grid[1])
	}
}
