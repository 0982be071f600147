package qlearn

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zarux/ticqtactoe/pkg/tictactoe"
)

func newTestTable(seed uint64) *Table {
	return New(DefaultConfig(), NewRand(seed))
}

func TestValueDefaultsToZero(t *testing.T) {
	tbl := newTestTable(1)
	if v := tbl.Value(tictactoe.New().Key(), 3); v != 0 {
		t.Fatalf("expected 0 for unseen pair, got %v", v)
	}
	if tbl.Len() != 0 {
		t.Fatalf("lookup must not create entries")
	}
}

func TestUpdateTerminalFromUnseen(t *testing.T) {
	tbl := newTestTable(1)
	s := tictactoe.Key("XX.OO....")

	got := tbl.Update(s, 2, 1, "", nil)
	if got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if tbl.Value(s, 2) != 0.5 {
		t.Fatalf("stored value mismatch: %v", tbl.Value(s, 2))
	}
}

func TestUpdateBootstrapsFromNextState(t *testing.T) {
	tbl := newTestTable(1)
	next := tictactoe.Key("X...O....")
	tbl.Update(next, 8, 1, "", nil) // 0.5
	tbl.Update(next, 2, -1, "", nil) // -0.5

	s := tictactoe.Key("X........")
	got := tbl.Update(s, 4, 0, next, []int{1, 2, 8})
	want := 0.5 * (0 + 0.9*0.5)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// unseen candidates count as 0
	got = tbl.Update(s, 1, 0, next, []int{2, 3})
	if got != 0 {
		t.Fatalf("expected 0 with unseen candidate at max, got %v", got)
	}
}

func TestSelectActionGreedy(t *testing.T) {
	tbl := newTestTable(7)
	s := tictactoe.New().Key()
	tbl.values[StateAction{State: s, Action: 4}] = 1.0

	for range 200 {
		a, err := tbl.SelectAction(s, []int{0, 2, 4, 6}, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a != 4 {
			t.Fatalf("expected 4, got %d", a)
		}
	}
}

func TestSelectActionBreaksTiesUniformly(t *testing.T) {
	tbl := newTestTable(11)
	s := tictactoe.New().Key()
	candidates := []int{0, 2, 6, 8}

	seen := map[int]int{}
	for range 4000 {
		a, err := tbl.SelectAction(s, candidates, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[a]++
	}

	for _, c := range candidates {
		if seen[c] < 800 {
			t.Fatalf("tie-break skewed: %v", seen)
		}
	}
}

func TestSelectActionExplores(t *testing.T) {
	tbl := newTestTable(3)
	s := tictactoe.New().Key()
	tbl.values[StateAction{State: s, Action: 4}] = 1.0

	other := 0
	for range 2000 {
		a, _ := tbl.SelectAction(s, []int{0, 4, 8}, 1)
		if a != 4 {
			other++
		}
	}
	if other == 0 {
		t.Fatalf("explore rate 1 never left the greedy action")
	}
}

func TestSelectActionEmptyCandidates(t *testing.T) {
	tbl := newTestTable(1)
	_, err := tbl.SelectAction("XOXOXOOXO", nil, 0)
	if !errors.Is(err, ErrEmptyCandidates) {
		t.Fatalf("expected ErrEmptyCandidates, got %v", err)
	}
}

func TestSelectActionIsSeedReproducible(t *testing.T) {
	a := newTestTable(42)
	b := newTestTable(42)
	s := tictactoe.New().Key()
	moves := tictactoe.New().LegalMoves()

	for i := range 50 {
		x, _ := a.SelectAction(s, moves, 0.5)
		y, _ := b.SelectAction(s, moves, 0.5)
		if x != y {
			t.Fatalf("draw %d differs with equal seeds: %d vs %d", i, x, y)
		}
	}
}

func seededTable() *Table {
	tbl := newTestTable(5)
	tbl.Update("X........", 4, 0.3, "", nil)
	tbl.Update("X...O....", 8, 1, "", nil)
	tbl.Update("X...O....", 2, -1, "", nil)
	tbl.Update("X...O...X", 2, 0.1, "X...O....", []int{2, 8})
	tbl.values[StateAction{State: "XO.......", Action: 5}] = math.Nextafter(1.0/3.0, 1)
	return tbl
}

func TestExportImportRoundTrip(t *testing.T) {
	src := seededTable()

	var buf bytes.Buffer
	if err := src.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newTestTable(6)
	if err := dst.Import(&buf); err != nil {
		t.Fatalf("import: %v", err)
	}

	if dst.Len() != src.Len() {
		t.Fatalf("expected %d entries, got %d", src.Len(), dst.Len())
	}
	for sa, v := range src.values {
		got := dst.Value(sa.State, sa.Action)
		if math.Float64bits(got) != math.Float64bits(v) {
			t.Fatalf("%v: expected %v, got %v", sa, v, got)
		}
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	tbl := seededTable()
	before := tbl.Len()

	if err := tbl.Import(bytes.NewBufferString("not a gob")); err == nil {
		t.Fatalf("expected decode error")
	}
	if tbl.Len() != before {
		t.Fatalf("failed import must not modify the table")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brains", "tictactoe_brain.gob")
	src := seededTable()
	if err := src.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := newTestTable(1)
	ok, err := dst.Load(path)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if dst.Len() != src.Len() {
		t.Fatalf("expected %d entries, got %d", src.Len(), dst.Len())
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	tbl := newTestTable(1)
	ok, err := tbl.Load(filepath.Join(t.TempDir(), "missing.gob"))
	if err != nil || ok {
		t.Fatalf("expected silent miss, got ok=%v err=%v", ok, err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected empty table")
	}
}

func TestLoadCorruptFileFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brain.gob")
	if err := os.WriteFile(path, []byte{0xde, 0xad, 0xbe, 0xef}, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl := seededTable()
	ok, err := tbl.Load(path)
	var loadErr *LoadError
	if ok || !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got ok=%v err=%v", ok, err)
	}
	if loadErr.Path != path {
		t.Fatalf("unexpected path %q", loadErr.Path)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected empty table after corrupt load, got %d entries", tbl.Len())
	}
}

func TestAgentsShareTable(t *testing.T) {
	tbl := newTestTable(9)
	x := Agent{Side: tictactoe.P1, Table: tbl}
	o := Agent{Side: tictactoe.P2, Table: tbl}

	b := tictactoe.New()
	tbl.Update(b.Key(), 6, 1, "", nil)

	if mv, _ := x.Choose(b); mv != 6 {
		t.Fatalf("X view should see shared update, got %d", mv)
	}

	b.ApplyMove(6, tictactoe.P1)
	tbl.Update(b.Key(), 2, 1, "", nil)
	if mv, _ := o.Choose(b); mv != 2 {
		t.Fatalf("O view should see shared update, got %d", mv)
	}
}

func TestBotStats(t *testing.T) {
	tbl := newTestTable(2)
	b := tictactoe.New()
	b.ApplyMove(4, tictactoe.P1)
	tbl.Update(b.Key(), 0, 1, "", nil)

	bot := NewBot(tbl)
	if bot.Stats() != nil {
		t.Fatalf("expected no stats before first move")
	}

	mv, err := bot.GetNextMove(context.Background(), b, tictactoe.P2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mv != 0 {
		t.Fatalf("expected 0, got %d", mv)
	}

	stats := bot.Stats()
	if stats.BestMove != 0 || stats.Value != 0.5 || stats.Candidates != 8 || stats.Tied != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestBotOnFinishedBoard(t *testing.T) {
	b, _ := tictactoe.FromMarks([]string{"X", "O", "X", "X", "O", "O", "O", "X", "X"})
	_, err := NewBot(newTestTable(1)).GetNextMove(context.Background(), b, tictactoe.P1)
	if !errors.Is(err, ErrEmptyCandidates) {
		t.Fatalf("expected ErrEmptyCandidates, got %v", err)
	}
}

func TestDeriveSeed(t *testing.T) {
	if got := DeriveSeed(0, 2); got != 0 {
		t.Fatalf("zero seed must stay clock-seeded, got %d", got)
	}

	seen := map[uint64]bool{}
	for stream := range uint64(3) {
		s := DeriveSeed(42, stream)
		if s == 0 || seen[s] {
			t.Fatalf("stream %d: seed %d is zero or repeated", stream, s)
		}
		seen[s] = true
		if DeriveSeed(42, stream) != s {
			t.Fatalf("stream %d: derivation is not deterministic", stream)
		}
	}

	a := NewRand(DeriveSeed(42, 0))
	b := NewRand(DeriveSeed(42, 1))
	same := 0
	for range 16 {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	if same == 16 {
		t.Fatalf("derived streams produce identical output")
	}
}
