package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestInsertAndQueryResults(t *testing.T) {
	d := openTestDB(t)

	results := []Result{
		{ID: "hl_1_0", Winner: 0, Ticks: 412, Seed: 0xACE1, RngKind: "lfsr", PairsRate: 240},
		{ID: "hl_2_0", Winner: 1, Ticks: 98, Seed: 0xACE1, RngKind: "lfsr", PairsRate: 240},
		{ID: "hl_3_0", Winner: 0, Ticks: 733, Seed: 0, RngKind: "system", PairsRate: 500},
	}
	for _, r := range results {
		if err := d.InsertResult(r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}

	got, err := d.Results(10)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].ID != "hl_3_0" || got[0].PairsRate != 500 || got[0].FinishedAt.IsZero() {
		t.Fatalf("newest result = %+v", got[0])
	}

	counts, err := d.WinCounts()
	if err != nil {
		t.Fatalf("win counts: %v", err)
	}
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestGameExistsAndIdempotentInsert(t *testing.T) {
	d := openTestDB(t)

	ok, err := d.GameExists("hl_x")
	if err != nil || ok {
		t.Fatalf("exists before insert: %v %v", ok, err)
	}

	r := Result{ID: "hl_x", Winner: 1, Ticks: 50}
	if err := d.InsertResult(r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	r.Winner = 0
	if err := d.InsertResult(r); err != nil {
		t.Fatalf("re-insert: %v", err)
	}

	ok, err = d.GameExists("hl_x")
	if err != nil || !ok {
		t.Fatalf("exists after insert: %v %v", ok, err)
	}
	got, err := d.Results(1)
	if err != nil || len(got) != 1 {
		t.Fatalf("results: %v %v", got, err)
	}
	if got[0].Winner != 1 {
		t.Fatalf("re-insert overwrote the original row: %+v", got[0])
	}
}
