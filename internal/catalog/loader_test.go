// internal/catalog/loader_test.go
package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/dkarlsson/memchess/internal/board"
	"github.com/dkarlsson/memchess/internal/store"
)

const mixedCSV = `fen,evaluation,piece_count
rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR,0.2,32
8/8/8/3k4/8/3K4/8/8,,2
not-a-placement,0.0,5
8/8/8/4k3/8/4P3/4K3/8,junk,3
8/5pk1/8/8/8/8/3R1PK1/8,1.0,50
shortrow
8/5pk1/8/8/8/8/3R1PK1/8,-0.5,5
`

func TestLoadParsesAndValidates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	res, err := Load(ctx, mem, strings.NewReader(mixedCSV))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Loaded != 4 {
		t.Errorf("Loaded = %d, want 4", res.Loaded)
	}
	if res.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3 (bad placement, bad count, short row)", res.Skipped)
	}
	for _, c := range []struct{ count, want int }{{32, 1}, {2, 1}, {3, 1}, {5, 1}, {10, 0}} {
		if got := res.ByCount[c.count]; got != c.want {
			t.Errorf("ByCount[%d] = %d, want %d", c.count, got, c.want)
		}
	}

	positions, err := mem.ListPositions(ctx)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(positions) != 4 {
		t.Fatalf("stored %d positions, want 4", len(positions))
	}
	// Missing and unparsable evaluations both degrade to 0.
	for _, p := range positions {
		if p.PieceCount == 2 || p.PieceCount == 3 {
			if p.Evaluation != 0 {
				t.Errorf("position %q evaluation = %v, want 0", p.FEN, p.Evaluation)
			}
		}
	}
}

func TestLoadReplacesExistingCatalog(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	old := store.Position{FEN: "3q4/8/3k4/8/8/3KQ3/8/8", PieceCount: 4}
	if err := mem.InsertPosition(ctx, &old); err != nil {
		t.Fatalf("InsertPosition: %v", err)
	}

	csv := "fen,evaluation,piece_count\n8/8/8/3k4/8/3K4/8/8,0.0,2\n"
	if _, err := Load(ctx, mem, strings.NewReader(csv)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	positions, err := mem.ListPositions(ctx)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(positions) != 1 || positions[0].PieceCount != 2 {
		t.Errorf("catalog after load = %+v, want only the new position", positions)
	}
}

func TestLoadHeaderOnlyClearsCatalog(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	p := store.Position{FEN: "8/8/8/3k4/8/3K4/8/8", PieceCount: 2}
	if err := mem.InsertPosition(ctx, &p); err != nil {
		t.Fatalf("InsertPosition: %v", err)
	}

	res, err := Load(ctx, mem, strings.NewReader("fen,evaluation,piece_count\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Loaded != 0 || res.Skipped != 0 {
		t.Errorf("Result = %+v, want empty", res)
	}
	positions, err := mem.ListPositions(ctx)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("catalog = %+v, want cleared", positions)
	}
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	n, err := SeedIfEmpty(ctx, mem)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if n == 0 {
		t.Fatal("SeedIfEmpty seeded nothing into an empty store")
	}

	positions, err := mem.ListPositions(ctx)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(positions) != n {
		t.Errorf("catalog size = %d, want %d", len(positions), n)
	}

	// Every starter position must decode and carry an honest piece count,
	// including the bounds of the playable range.
	counts := map[int]bool{}
	for _, p := range positions {
		b, err := board.Decode(p.FEN)
		if err != nil {
			t.Errorf("starter position %q does not decode: %v", p.FEN, err)
			continue
		}
		if got := board.CountPieces(b); got != p.PieceCount {
			t.Errorf("starter position %q declares %d pieces, has %d", p.FEN, p.PieceCount, got)
		}
		counts[p.PieceCount] = true
	}
	if !counts[2] || !counts[32] {
		t.Errorf("starter catalog misses a boundary count: %v", counts)
	}

	// Seeding again must be a no-op.
	n2, err := SeedIfEmpty(ctx, mem)
	if err != nil {
		t.Fatalf("SeedIfEmpty (second): %v", err)
	}
	if n2 != 0 {
		t.Errorf("second seed loaded %d positions, want 0", n2)
	}
	after, err := mem.ListPositions(ctx)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(after) != len(positions) || after[0].ID != positions[0].ID {
		t.Errorf("catalog changed by second seed")
	}
}

func TestSeedLeavesExistingCatalogAlone(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	p := store.Position{FEN: "8/8/8/3k4/8/3K4/8/8", PieceCount: 2}
	if err := mem.InsertPosition(ctx, &p); err != nil {
		t.Fatalf("InsertPosition: %v", err)
	}

	n, err := SeedIfEmpty(ctx, mem)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if n != 0 {
		t.Errorf("seeded %d positions over a non-empty catalog", n)
	}
	positions, err := mem.ListPositions(ctx)
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(positions) != 1 || positions[0].ID != p.ID {
		t.Errorf("catalog = %+v, want untouched", positions)
	}
}
