package game

// LoadLevel clears the grid and repopulates it for the given level id:
// a wall ring around the border, then the interior split down the middle,
// left half to player 0 and right half to player 1, each painted with that
// player's current piece.
//
// There is a single layout today; the level id is recorded on the state so
// future levels slot in without touching callers.
func LoadLevel(s *GameState, level int) {
	s.Grid.Clear()
	s.Level = level

	for x := 0; x < Width; x++ {
		s.Grid.At(x, 0).Kind = Wall
		s.Grid.At(x, Height-1).Kind = Wall
	}
	for y := 0; y < Height; y++ {
		s.Grid.At(0, y).Kind = Wall
		s.Grid.At(Width-1, y).Kind = Wall
	}

	for y := 1; y < Height-1; y++ {
		for x := 1; x < Width-1; x++ {
			owner := uint8(0)
			if x >= Width/2 {
				owner = 1
			}
			*s.Grid.At(x, y) = Cell{
				Kind:  Symbol,
				Owner: owner,
				Piece: s.Players[owner].Current,
			}
		}
	}
}
