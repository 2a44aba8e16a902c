package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// BatchWriter streams finished games into one parquet shard, so a long run
// never holds more than the encoder's row-group buffer in memory. The shard
// lives under dir/tmp until Finalize renames it into dir; readers globbing
// the directory never observe a partial file.
type BatchWriter struct {
	dir  string
	name string

	f  *os.File
	pw *parquet.GenericWriter[TickRow]

	games int
	rows  int
}

// NewBatchWriter opens a fresh shard under dir/tmp.
func NewBatchWriter(dir string) (*BatchWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("shard dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("make shard tmp dir: %w", err)
	}

	w := &BatchWriter{
		dir:  abs,
		name: fmt.Sprintf("ticks_%d.parquet", time.Now().UnixNano()),
	}
	w.f, err = os.Create(w.TmpPath())
	if err != nil {
		return nil, fmt.Errorf("create shard: %w", err)
	}
	w.pw = parquet.NewGenericWriter[TickRow](w.f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}))
	w.pw.SetKeyValueMetadata("schema", schemaName)
	return w, nil
}

// Append writes one finished game's tick rows into the open shard.
func (w *BatchWriter) Append(gameRows []TickRow) error {
	if w.pw == nil {
		return fmt.Errorf("shard already finalized")
	}
	if len(gameRows) == 0 {
		return nil
	}
	if _, err := w.pw.Write(gameRows); err != nil {
		return fmt.Errorf("append game: %w", err)
	}
	w.games++
	w.rows += len(gameRows)
	return nil
}

// Games and Rows report what has been appended so far.
func (w *BatchWriter) Games() int { return w.games }
func (w *BatchWriter) Rows() int  { return w.rows }

// TmpPath is where the shard lives until Finalize publishes it.
func (w *BatchWriter) TmpPath() string { return filepath.Join(w.dir, "tmp", w.name) }

// Finalize closes the shard and publishes it into dir, returning the final
// path. A shard that never received a row is deleted instead and the path
// comes back empty. Finalize on an already-finalized writer is a no-op.
func (w *BatchWriter) Finalize() (string, error) {
	if w.pw == nil {
		return "", nil
	}

	closeErr := w.pw.Close()
	w.pw = nil
	_ = w.f.Sync()
	if err := w.f.Close(); err != nil && closeErr == nil {
		closeErr = err
	}
	w.f = nil

	if closeErr != nil {
		_ = os.Remove(w.TmpPath())
		return "", fmt.Errorf("close shard: %w", closeErr)
	}
	if w.rows == 0 {
		_ = os.Remove(w.TmpPath())
		return "", nil
	}

	out := filepath.Join(w.dir, w.name)
	if err := os.Rename(w.TmpPath(), out); err != nil {
		return "", fmt.Errorf("publish shard: %w", err)
	}
	return out, nil
}
