// Package store archives simulation runs as Parquet files.
//
// One row per tick. Batch runners stream many games into a single shard via
// BatchWriter and publish it atomically so downstream readers (the viewer's
// DuckDB queries) never see a partial file.
package store

import (
	"github.com/brensch/handlords/sim"
)

const schemaName = "tick_row_v1"

// TickRow is a single (game, tick) snapshot optimized for compression:
// identifiers and enums are dictionary-encoded and the per-player data is
// nested rather than flattened into fixed columns.
type TickRow struct {
	GameID string `parquet:"game_id,dict"`
	Tick   int32  `parquet:"tick"`
	Phase  string `parquet:"phase,dict"`

	Attempts   int32 `parquet:"attempts"`
	Battles    int32 `parquet:"battles"`
	SamePlayer int32 `parquet:"same_player"`
	WallEmpty  int32 `parquet:"wall_empty"`

	RngKind  string `parquet:"rng_kind,dict"`
	RngState int32  `parquet:"rng_state"`

	Players []PlayerRow `parquet:"players"`
}

type PlayerRow struct {
	ID     int32  `parquet:"id"`
	Piece  string `parquet:"piece,dict"`
	Cells  int32  `parquet:"cells"`
	Losses int32  `parquet:"losses"`
}

// RowFromSnapshot flattens an engine snapshot into an archive row.
func RowFromSnapshot(gameID string, snap sim.Snapshot) TickRow {
	row := TickRow{
		GameID:     gameID,
		Tick:       int32(snap.Tick),
		Phase:      snap.Phase,
		Attempts:   int32(snap.Attempts),
		Battles:    int32(snap.Battles),
		SamePlayer: int32(snap.SamePlayer),
		WallEmpty:  int32(snap.WallEmpty),
		RngKind:    snap.RngKind,
		RngState:   int32(snap.RngState),
	}
	for _, p := range snap.Players {
		row.Players = append(row.Players, PlayerRow{
			ID:     int32(p.ID),
			Piece:  p.Piece,
			Cells:  int32(p.Cells),
			Losses: int32(p.TickLosses),
		})
	}
	return row
}
