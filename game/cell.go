// Package game defines the core state types for Handlords.
//
// These types are the minimal value model the rules engine operates on:
// a fixed-size grid of cells, the players projecting symbols onto it, and
// the tunable configuration. Everything is plain data; transitions live in
// the rules and ai packages.
package game

// CellKind discriminates what occupies a grid slot.
type CellKind uint8

const (
	Empty CellKind = iota
	Wall
	Symbol
)

// Piece is a Rock/Paper/Scissors symbol.
type Piece uint8

const (
	Rock Piece = iota
	Paper
	Scissors
)

// Next returns the cyclic successor (Rock→Paper→Scissors→Rock).
func (p Piece) Next() Piece {
	return (p + 1) % 3
}

func (p Piece) String() string {
	switch p {
	case Rock:
		return "Rock"
	case Paper:
		return "Paper"
	case Scissors:
		return "Scissors"
	}
	return "?"
}

// Beats reports whether p wins against q under standard RPS rules.
// Equal pieces never beat each other.
func (p Piece) Beats(q Piece) bool {
	switch {
	case p == Rock && q == Scissors:
		return true
	case p == Scissors && q == Paper:
		return true
	case p == Paper && q == Rock:
		return true
	}
	return false
}

// Cell is one grid slot. Owner and Piece are only meaningful when Kind is
// Symbol. Cells are value types owned by the grid's backing array; a duel
// outcome is applied by copying the whole winner cell over the loser's slot,
// never by aliasing.
type Cell struct {
	Kind  CellKind
	Owner uint8
	Piece Piece
}
