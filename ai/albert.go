// Package ai drives the computer-controlled players.
//
// The only strategy today is Albert, a timer bot: it holds its piece for a
// randomly drawn number of ticks, then rotates to the next piece and draws
// a new interval. The draw distribution is tunable at runtime, which makes
// Albert's aggression a live dial rather than a constant.
package ai

import (
	"github.com/brensch/handlords/game"
)

// drawInterval samples a rotation period uniformly from
// [max(1, average-half), average+half] using one RNG draw.
func drawInterval(s *game.GameState) int {
	min := s.Albert.RotationAverage - s.Albert.RotationHalfInterval
	if min < 1 {
		min = 1
	}
	max := s.Albert.RotationAverage + s.Albert.RotationHalfInterval
	return min + int(s.Rng.Next())%(max-min+1)
}

func rotate(s *game.GameState, p *game.PlayerState) {
	p.Current = p.Current.Next()
	p.LastRotTick = s.Tick
	s.RepaintOwned(p.ID)
}

// Update advances Albert's timer for player p by one tick. The first call
// after a reset draws the initial interval; the rotation itself fires when
// the elapsed ticks reach the scheduled period, then immediately schedules
// the next one. Config changes therefore only affect future draws, never an
// interval already in flight.
func Update(s *game.GameState, p *game.PlayerState) {
	if !p.Schedule.Scheduled {
		p.Schedule = game.RotationSchedule{Scheduled: true, Period: drawInterval(s)}
	}
	if int(s.Tick-p.LastRotTick) >= p.Schedule.Period {
		rotate(s, p)
		p.Schedule = game.RotationSchedule{Scheduled: true, Period: drawInterval(s)}
	}
}

// ForceRotation rotates p immediately, outside the timer. The pending
// schedule is discarded so the next Update draws a fresh interval.
func ForceRotation(s *game.GameState, p *game.PlayerState) {
	rotate(s, p)
	p.Schedule = game.RotationSchedule{}
}

// ResetTimer restarts p's countdown from the current tick without rotating.
// The pending interval is discarded and redrawn on the next Update.
func ResetTimer(s *game.GameState, p *game.PlayerState) {
	p.LastRotTick = s.Tick
	p.Schedule = game.RotationSchedule{}
}
