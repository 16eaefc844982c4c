package engine

import (
	"math/rand/v2"
	"testing"
)

// TestResolveTurnDeterministic verifies the same inputs always produce the
// same movement and score delta.
func TestResolveTurnDeterministic(t *testing.T) {
	for tile := 1; tile <= BoardSize; tile++ {
		for roll := 1; roll <= 6; roll++ {
			a := ResolveTurn(tile, roll)
			b := ResolveTurn(tile, roll)
			if a != b {
				t.Fatalf("ResolveTurn(%d, %d) not deterministic: %+v vs %+v", tile, roll, a, b)
			}
		}
	}
}

// TestResolveTurnSimpleMove verifies a move with no wrap and no tile effect.
func TestResolveTurnSimpleMove(t *testing.T) {
	// Tile 1 (start) + 5 → tile 6, a chance tile with no inline effect.
	res := ResolveTurn(1, 5)
	if res.NewTile != 6 {
		t.Errorf("expected tile 6, got %d", res.NewTile)
	}
	if res.ScoreDelta != 0 {
		t.Errorf("chance tile must not apply an inline delta, got %d", res.ScoreDelta)
	}
	if !res.Chance {
		t.Error("expected Chance=true for tile 6")
	}
	if res.Wrapped {
		t.Error("no wrap expected")
	}
}

// TestResolveTurnWrapFromLastTile verifies tile 20 + 1 lands on tile 1,
// never tile 21.
func TestResolveTurnWrapFromLastTile(t *testing.T) {
	res := ResolveTurn(BoardSize, 1)
	if res.NewTile != 1 {
		t.Fatalf("expected wrap to tile 1, got %d", res.NewTile)
	}
	if !res.Wrapped {
		t.Error("expected Wrapped=true")
	}
	// Start tile has no effect of its own; only the lap bonus applies.
	if res.ScoreDelta != LapBonus {
		t.Errorf("expected delta %d (lap bonus only), got %d", LapBonus, res.ScoreDelta)
	}
}

// TestResolveTurnWrapScenarios verifies the two canonical wrap cases from
// tile 18.
func TestResolveTurnWrapScenarios(t *testing.T) {
	// 18 + 6 = 24 → wraps to tile 4 (Flower Garden, +1) plus lap bonus.
	res := ResolveTurn(18, 6)
	if res.NewTile != 4 {
		t.Fatalf("expected tile 4, got %d", res.NewTile)
	}
	if res.ScoreDelta != LapBonus+1 {
		t.Errorf("expected delta %d, got %d", LapBonus+1, res.ScoreDelta)
	}

	// 18 + 5 = 23 → wraps to tile 3 (Polluting Factory, -2) plus lap bonus.
	res = ResolveTurn(18, 5)
	if res.NewTile != 3 {
		t.Fatalf("expected tile 3, got %d", res.NewTile)
	}
	if res.ScoreDelta != LapBonus-2 {
		t.Errorf("expected delta %d, got %d", LapBonus-2, res.ScoreDelta)
	}
}

// TestResolveTurnBackwardClamp verifies a negative effective roll clamps at
// tile 1 instead of wrapping backward.
func TestResolveTurnBackwardClamp(t *testing.T) {
	res := ResolveTurn(2, -5)
	if res.NewTile != 1 {
		t.Errorf("expected clamp to tile 1, got %d", res.NewTile)
	}
	if res.Wrapped {
		t.Error("backward movement must not count as a lap")
	}
}

// TestTileDeltaOverrides pins the per-tile override table.
func TestTileDeltaOverrides(t *testing.T) {
	cases := []struct {
		tile  int
		delta int
	}{
		{1, 0},   // Launch Pad
		{2, +1},  // Nature Guardian
		{3, -2},  // Polluting Factory
		{4, +1},  // Flower Garden
		{5, -3},  // Tree Cutting
		{7, +3},  // Recycled Water
		{8, -1},  // Wasted Water (penalty override)
		{9, -5},  // River Robber (disaster override)
		{10, +1}, // Lilly Pond
		{12, -4}, // Shrinking Lake (disaster override)
		{13, +2}, // Crystal Glacier (bonus override)
		{14, -2}, // Dry City
		{15, +2}, // Rain Harvest (bonus override)
		{17, -2}, // Wasted Well
		{18, +4}, // Evergreen Forest (dock override)
		{19, +1}, // Plant Grower
		{20, -2}, // Dirty Water Lane
	}
	for _, c := range cases {
		got := tileDelta(TileAt(c.tile))
		if got != c.delta {
			t.Errorf("tile %d: expected delta %d, got %d", c.tile, c.delta, got)
		}
	}
}

// TestChanceTilesHaveNoInlineDelta verifies all chance tiles resolve to zero.
func TestChanceTilesHaveNoInlineDelta(t *testing.T) {
	for _, idx := range []int{6, 11, 16} {
		tile := TileAt(idx)
		if tile.Type != TileChance {
			t.Fatalf("tile %d expected chance, got %s", idx, tile.Type)
		}
		if d := tileDelta(tile); d != 0 {
			t.Errorf("tile %d: chance delta must be 0, got %d", idx, d)
		}
	}
}

// TestCardLookup verifies deck bounds and a few known cards.
func TestCardLookup(t *testing.T) {
	if _, ok := Card(0); ok {
		t.Error("card 0 must not exist")
	}
	if _, ok := Card(DeckSize + 1); ok {
		t.Error("card beyond deck must not exist")
	}

	card, ok := Card(17)
	if !ok {
		t.Fatal("card 17 missing")
	}
	if card.Effect != -3 {
		t.Errorf("card 17 (Pipe burst): expected -3, got %d", card.Effect)
	}

	card, ok = Card(11)
	if !ok {
		t.Fatal("card 11 missing")
	}
	if card.Effect != 0 {
		t.Errorf("card 11 (Skip penalty) is a special card with 0 effect, got %d", card.Effect)
	}
}

// TestDrawCardSeeded verifies DrawCard honors the supplied source.
func TestDrawCardSeeded(t *testing.T) {
	a := rand.New(rand.NewPCG(7, 7))
	b := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		ca := DrawCard(a)
		cb := DrawCard(b)
		if ca != cb {
			t.Fatalf("seeded draws diverged at %d: %+v vs %+v", i, ca, cb)
		}
	}
}
