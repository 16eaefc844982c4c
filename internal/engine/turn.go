package engine

// TurnResult is the outcome of applying one roll to a position.
// ScoreDelta includes the landing tile's effect and any lap bonus, but never
// a chance-card effect: card selection happens out-of-band and the chosen
// card's effect is reported back separately.
type TurnResult struct {
	NewTile    int
	ScoreDelta int
	Tile       Tile
	Wrapped    bool
	Chance     bool
}

// ResolveTurn computes the result of moving from currentTile by roll tiles.
// The board is circular: movement past the last tile wraps to the start and
// earns the lap bonus. A negative effective roll clamps at tile 1 and never
// wraps backward.
//
// Deterministic: the same (currentTile, roll) always yields the same result.
func ResolveTurn(currentTile, roll int) TurnResult {
	raw := currentTile + roll

	wrapped := false
	newTile := raw
	switch {
	case raw < 1:
		newTile = 1
	case raw > BoardSize:
		wrapped = true
		newTile = raw - BoardSize
	}

	tile := TileAt(newTile)

	delta := tileDelta(tile)
	if wrapped {
		delta += LapBonus
	}

	return TurnResult{
		NewTile:    newTile,
		ScoreDelta: delta,
		Tile:       tile,
		Wrapped:    wrapped,
		Chance:     tile.Type == TileChance,
	}
}
