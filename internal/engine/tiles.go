package engine

// TileType classifies a board tile by its gameplay effect.
type TileType uint8

const (
	TileStart TileType = iota
	TileSafe
	TileChance
	TileBonus
	TilePenalty
	TileDisaster
	TileWaterDock
	TileSuperDock
)

// String returns the wire name of the tile type.
func (t TileType) String() string {
	switch t {
	case TileStart:
		return "start"
	case TileSafe:
		return "safe"
	case TileChance:
		return "chance"
	case TileBonus:
		return "bonus"
	case TilePenalty:
		return "penalty"
	case TileDisaster:
		return "disaster"
	case TileWaterDock:
		return "water_dock"
	case TileSuperDock:
		return "super_dock"
	}
	return "unknown"
}

// Tile is one board position. Index is 1-based.
type Tile struct {
	Index int
	Name  string
	Type  TileType
}

// BoardSize is the number of tiles on the circular board.
const BoardSize = 20

// LapBonus is awarded whenever a move passes the last tile and wraps to the
// start of the board.
const LapBonus = 5

// Tiles is the 20-tile board layout. Position 1 is index 0 in the slice.
var Tiles = [BoardSize]Tile{
	{1, "Launch Pad", TileStart},
	{2, "Nature Guardian", TileBonus},
	{3, "Polluting Factory", TilePenalty},
	{4, "Flower Garden", TileBonus},
	{5, "Tree Cutting", TileDisaster},
	{6, "Marsh Swamp", TileChance},
	{7, "Recycled Water", TileWaterDock},
	{8, "Wasted Water", TilePenalty},
	{9, "River Robber", TileDisaster},
	{10, "Lilly Pond", TileBonus},
	{11, "Sanctuary Cove", TileChance},
	{12, "Shrinking Lake", TileDisaster},
	{13, "Crystal Glacier", TileBonus},
	{14, "Dry City", TilePenalty},
	{15, "Rain Harvest", TileBonus},
	{16, "Mangrove Trail", TileChance},
	{17, "Wasted Well", TilePenalty},
	{18, "Evergreen Forest", TileWaterDock},
	{19, "Plant Grower", TileBonus},
	{20, "Dirty Water Lane", TilePenalty},
}

// TileAt returns the tile at the given 1-based position.
// Positions outside [1, BoardSize] return the start tile.
func TileAt(position int) Tile {
	if position < 1 || position > BoardSize {
		return Tiles[0]
	}
	return Tiles[position-1]
}

// tileDelta returns the score change for landing on a tile. Several tiles
// override their category's default, so the lookup is per-index first.
func tileDelta(t Tile) int {
	switch t.Type {
	case TileStart, TileSafe, TileChance:
		// Chance resolves through a card drawn out-of-band, not here.
		return 0
	case TileBonus:
		switch t.Index {
		case 13, 15:
			return +2
		default:
			return +1
		}
	case TilePenalty:
		switch t.Index {
		case 8:
			return -1
		default:
			return -2
		}
	case TileDisaster:
		switch t.Index {
		case 9:
			return -5
		case 12:
			return -4
		default:
			return -3
		}
	case TileWaterDock:
		switch t.Index {
		case 18:
			return +4
		default:
			return +3
		}
	case TileSuperDock:
		return +4
	}
	return 0
}
