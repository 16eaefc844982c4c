package protocol

// Event is an asynchronous message from the board. Each inbound frame decodes
// to exactly one event; malformed frames decode to an error instead of a
// zero-valued event.
type Event interface {
	eventName() string
}

// Ready announces the board's firmware has booted and the link is usable.
type Ready struct {
	Message string
}

// PairSuccess acknowledges a Pair command; the board accepts commands from
// this controller from now on.
type PairSuccess struct{}

// Movement describes a from→to tile transition.
type Movement struct {
	From int
	To   int
}

// TileInfo is the board's description of a landed-on tile.
type TileInfo struct {
	Name string
	Type string
}

// ChanceCardInfo is a chance card as reported by the board.
type ChanceCardInfo struct {
	Number      int
	Description string
	Effect      int
}

// RollProcessed reports that the board applied a Roll command: the movement
// it animated, the tile landed on, and the score it now holds for the player.
type RollProcessed struct {
	PlayerID    int
	Movement    Movement
	Tile        TileInfo
	NewScore    int
	ScoreChange int
	ChanceCard  *ChanceCardInfo
}

// CoinPlaced reports a physical coin detected at a tile. Verified is false
// when the board saw a coin but could not confirm it matches the expected
// player/tile.
type CoinPlaced struct {
	PlayerID int
	Tile     int
	Verified bool
}

// CoinTimeout reports that no coin was detected at the expected tile within
// the board's placement window. The game proceeds anyway.
type CoinTimeout struct {
	Tile int
}

// UndoComplete confirms an Undo command: the board reverted the movement and
// is waiting for the coin to be placed back at the old tile.
type UndoComplete struct {
	PlayerID      int
	Movement      Movement
	RestoredScore int
}

// MisplacementIssue is one coin-placement error the board detected.
type MisplacementIssue struct {
	Tile  int
	Issue string
}

// Misplacement reports one or more coins on wrong tiles. The board
// re-announces placement once corrected; the controller stays waiting.
type Misplacement struct {
	Errors []MisplacementIssue
}

// ConfigComplete acknowledges a Config command.
type ConfigComplete struct{}

// ResetComplete acknowledges a Reset command; LEDs are back at the start tile.
type ResetComplete struct{}

// SettingsUpdated acknowledges an UpdateSettings command.
type SettingsUpdated struct {
	Nickname        *string
	PasswordChanged bool
	RestartRequired bool
}

// PlayerEliminated reports that the board's score tracking eliminated a player.
type PlayerEliminated struct {
	PlayerID int
}

// WinnerDeclared reports that the board determined the game's winner.
type WinnerDeclared struct {
	WinnerID int
}

func (Ready) eventName() string            { return "ready" }
func (PairSuccess) eventName() string      { return "pair_success" }
func (RollProcessed) eventName() string    { return "roll_processed" }
func (CoinPlaced) eventName() string       { return "coin_placed" }
func (CoinTimeout) eventName() string      { return "coin_timeout" }
func (UndoComplete) eventName() string     { return "undo_complete" }
func (Misplacement) eventName() string     { return "misplacement" }
func (ConfigComplete) eventName() string   { return "config_complete" }
func (ResetComplete) eventName() string    { return "reset_complete" }
func (SettingsUpdated) eventName() string  { return "settings_updated" }
func (PlayerEliminated) eventName() string { return "player_eliminated" }
func (WinnerDeclared) eventName() string   { return "winner_declared" }
