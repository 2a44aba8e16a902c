// Package rules implements the duel mechanics that move territory around
// the grid: random pair sampling, symbol-versus-symbol resolution, and the
// end-of-tick win and loss checks.
package rules

import (
	"github.com/brensch/handlords/game"
)

// Cardinal neighbor offsets indexed by the low two bits of a direction
// draw: 0 north, 1 east, 2 south, 3 west.
var dirs = [4][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// ResolvePairs runs attempts rounds of pair sampling against s, mutating
// the grid and s.Stats. Each round draws three values from s.Rng: cell x,
// cell y, and a neighbor direction, with a fourth draw only when a duel
// needs a coin flip. Draw order is load-bearing for replayability.
//
// A neighbor landing outside the grid discards the round without
// classifying it, so the class counters can sum to less than Attempts.
func ResolvePairs(s *game.GameState, attempts int) {
	for i := 0; i < attempts; i++ {
		x := int(s.Rng.Next()) % game.Width
		y := int(s.Rng.Next()) % game.Height
		d := dirs[s.Rng.Next()&3]

		s.Stats.Attempts++

		nx, ny := x+d[0], y+d[1]
		if !game.InBounds(nx, ny) {
			continue
		}
		resolvePair(s, s.Grid.At(x, y), s.Grid.At(nx, ny))
	}
}

// resolvePair classifies (a, b) from its pre-mutation contents, then applies
// the duel rules. At most one of the two cells is written, always as a whole
// value copied from the other, so ownership, kind and piece travel together.
func resolvePair(s *game.GameState, a, b *game.Cell) {
	switch {
	case a.Kind == game.Wall || b.Kind == game.Wall:
		s.Stats.WallEmpty++

	case a.Kind == game.Empty && b.Kind == game.Empty:
		s.Stats.WallEmpty++

	case a.Kind == game.Empty:
		s.Stats.WallEmpty++
		*a = *b

	case b.Kind == game.Empty:
		s.Stats.WallEmpty++
		*b = *a

	case a.Owner == b.Owner:
		s.Stats.SamePlayer++

	default:
		s.Stats.Battles++
		duel(s, a, b)
	}
}

// duel resolves two opposing symbols. Differing pieces use dominance; equal
// pieces fall to a coin flip on one extra draw, low bit set meaning a wins.
// The loser's slot becomes a copy of the winner's cell and the losing
// player's per-tick loss counter increments.
func duel(s *game.GameState, a, b *game.Cell) {
	var winner, loser *game.Cell
	switch {
	case a.Piece == b.Piece:
		if s.Rng.Next()&1 != 0 {
			winner, loser = a, b
		} else {
			winner, loser = b, a
		}
	case a.Piece.Beats(b.Piece):
		winner, loser = a, b
	default:
		winner, loser = b, a
	}

	if int(loser.Owner) < len(s.Players) {
		s.Players[loser.Owner].TickLosses++
	}
	*loser = *winner
}

// CheckWinLoss inspects territory after a tick's duels and moves the phase
// to Lost or Won. Lost is checked before Won, and a tick that leaves both
// players at zero changes nothing.
func CheckWinLoss(s *game.GameState) {
	counts := s.TerritoryCounts()
	switch {
	case counts[0] == 0 && counts[1] > 0:
		s.Phase = game.Lost
	case counts[1] == 0 && counts[0] > 0:
		s.Phase = game.Won
	}
}
