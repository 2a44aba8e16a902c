package ai

import (
	"testing"

	"github.com/brensch/handlords/game"
	"github.com/brensch/handlords/rng"
)

// script replays fixed draws so interval arithmetic can be checked exactly.
type script struct {
	vals []uint16
	i    int
}

func (s *script) Next() uint16 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *script) Kind() rng.Kind { return "script" }

func newState(src rng.Source) (*game.GameState, *game.PlayerState) {
	s := game.NewGameState(src)
	game.LoadLevel(s, 1)
	s.Phase = game.Playing
	return s, &s.Players[1]
}

func TestUpdate_DrawsIntervalLazily(t *testing.T) {
	// Defaults: average 58, half interval 43, so periods live in [15, 101].
	// Draw 0 gives the minimum.
	s, p := newState(&script{vals: []uint16{0}})

	Update(s, p)

	if !p.Schedule.Scheduled || p.Schedule.Period != 15 {
		t.Fatalf("schedule = %+v, want period 15", p.Schedule)
	}
	if p.Current != game.Scissors {
		t.Fatalf("rotated on the scheduling tick")
	}
}

func TestUpdate_IntervalBounds(t *testing.T) {
	src := rng.NewLFSR(0)
	s, p := newState(src)

	for i := 0; i < 500; i++ {
		p.Schedule = game.RotationSchedule{}
		Update(s, p)
		if p.Schedule.Period < 15 || p.Schedule.Period > 101 {
			t.Fatalf("draw %d: period %d outside [15, 101]", i, p.Schedule.Period)
		}
	}
}

func TestUpdate_IntervalFloorIsOneTick(t *testing.T) {
	s, p := newState(&script{vals: []uint16{0}})
	s.Albert.SetRotationAverage(10)
	s.Albert.SetRotationHalfInterval(100)

	Update(s, p)

	if p.Schedule.Period != 1 {
		t.Fatalf("period = %d, want floor of 1", p.Schedule.Period)
	}
}

func TestUpdate_RotatesExactlyOnSchedule(t *testing.T) {
	// Period 20, then a throwaway follow-up draw.
	s, p := newState(&script{vals: []uint16{5}})
	Update(s, p)
	if p.Schedule.Period != 20 {
		t.Fatalf("period = %d, want 20", p.Schedule.Period)
	}

	for s.Tick = 1; s.Tick < 20; s.Tick++ {
		Update(s, p)
		if p.Current != game.Scissors {
			t.Fatalf("rotated early at tick %d", s.Tick)
		}
	}

	s.Tick = 20
	Update(s, p)
	if p.Current != game.Rock {
		t.Fatalf("piece = %s, want Rock after rotation", p.Current)
	}
	if p.LastRotTick != 20 {
		t.Fatalf("last rotation tick = %d, want 20", p.LastRotTick)
	}
	if !p.Schedule.Scheduled {
		t.Fatalf("next interval not drawn after rotation")
	}
}

func TestUpdate_RotationRepaintsTerritory(t *testing.T) {
	s, p := newState(&script{vals: []uint16{0}})
	Update(s, p)

	s.Tick = uint16(p.Schedule.Period)
	Update(s, p)

	for i := range s.Grid.Cells {
		c := s.Grid.Cells[i]
		if c.Kind == game.Symbol && c.Owner == 1 && c.Piece != p.Current {
			t.Fatalf("cell %d still shows %s after rotation to %s", i, c.Piece, p.Current)
		}
	}
}

func TestUpdate_ConfigChangeOnlyAffectsNextDraw(t *testing.T) {
	s, p := newState(&script{vals: []uint16{5}})
	Update(s, p)
	inFlight := p.Schedule.Period

	s.Albert.SetRotationAverage(200)
	s.Albert.SetRotationHalfInterval(5)
	Update(s, p)

	if p.Schedule.Period != inFlight {
		t.Fatalf("in-flight interval changed from %d to %d", inFlight, p.Schedule.Period)
	}

	s.Tick = uint16(inFlight)
	Update(s, p)
	if p.Schedule.Period < 195 || p.Schedule.Period > 205 {
		t.Fatalf("next interval %d ignores the new config", p.Schedule.Period)
	}
}

func TestForceRotation(t *testing.T) {
	s, p := newState(&script{vals: []uint16{5}})
	Update(s, p)
	s.Tick = 7

	ForceRotation(s, p)

	if p.Current != game.Rock {
		t.Fatalf("piece = %s, want Rock", p.Current)
	}
	if p.LastRotTick != 7 {
		t.Fatalf("last rotation tick = %d, want 7", p.LastRotTick)
	}
	if p.Schedule.Scheduled {
		t.Fatalf("forced rotation must discard the pending interval")
	}
}

func TestResetTimer(t *testing.T) {
	s, p := newState(&script{vals: []uint16{5}})
	Update(s, p)
	s.Tick = 12

	ResetTimer(s, p)

	if p.Current != game.Scissors {
		t.Fatalf("reset must not rotate")
	}
	if p.LastRotTick != 12 || p.Schedule.Scheduled {
		t.Fatalf("timer not restarted: lastRot=%d schedule=%+v", p.LastRotTick, p.Schedule)
	}
}
