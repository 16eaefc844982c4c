// Package protocol implements the JSON command/event wire format spoken by
// the physical board. Commands flow controller → board, events flow board →
// controller. Messages are UTF-8 JSON text with a string discriminator field
// ("command" or "event") plus variant fields.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Command is a request sent from the controller to the board.
// Commands are immutable once constructed and serialized exactly once;
// retries are a connection-level concern, never a command-level one.
type Command interface {
	commandName() string
}

// Pair authenticates against the board with its pairing PIN.
type Pair struct {
	Password string
}

// Config tells the board how many players are active and their LED colors
// (6-hex-digit RGB strings).
type Config struct {
	PlayerCount int
	Colors      []string
}

// Roll reports a dice roll and the movement the controller expects the board
// to animate and verify.
type Roll struct {
	PlayerID     int
	PlayerName   string
	DiceValue    int
	CurrentTile  int
	ExpectedTile int
	Color        string
}

// Undo reverses the most recent move for a player.
type Undo struct {
	PlayerID int
	FromTile int
	ToTile   int
}

// Reset returns the board to its start-of-game state (LEDs at tile 1).
type Reset struct{}

// UpdateSettings changes the board's stored nickname and/or pairing PIN.
// Nil fields are omitted from the wire message and left unchanged.
type UpdateSettings struct {
	Nickname *string
	Password *string
}

func (Pair) commandName() string           { return "pair" }
func (Config) commandName() string         { return "config" }
func (Roll) commandName() string           { return "roll" }
func (Undo) commandName() string           { return "undo" }
func (Reset) commandName() string          { return "reset" }
func (UpdateSettings) commandName() string { return "update_settings" }

// EncodeCommand serializes a command to its wire form.
func EncodeCommand(c Command) ([]byte, error) {
	switch cmd := c.(type) {
	case Pair:
		return json.Marshal(struct {
			Command  string `json:"command"`
			Password string `json:"password"`
		}{cmd.commandName(), cmd.Password})
	case Config:
		return json.Marshal(struct {
			Command     string   `json:"command"`
			PlayerCount int      `json:"playerCount"`
			Colors      []string `json:"colors"`
		}{cmd.commandName(), cmd.PlayerCount, cmd.Colors})
	case Roll:
		return json.Marshal(struct {
			Command      string `json:"command"`
			PlayerID     int    `json:"playerId"`
			PlayerName   string `json:"playerName"`
			DiceValue    int    `json:"diceValue"`
			CurrentTile  int    `json:"currentTile"`
			ExpectedTile int    `json:"expectedTile"`
			Color        string `json:"color"`
		}{cmd.commandName(), cmd.PlayerID, cmd.PlayerName, cmd.DiceValue, cmd.CurrentTile, cmd.ExpectedTile, cmd.Color})
	case Undo:
		return json.Marshal(struct {
			Command  string `json:"command"`
			PlayerID int    `json:"playerId"`
			FromTile int    `json:"fromTile"`
			ToTile   int    `json:"toTile"`
		}{cmd.commandName(), cmd.PlayerID, cmd.FromTile, cmd.ToTile})
	case Reset:
		return json.Marshal(struct {
			Command string `json:"command"`
		}{cmd.commandName()})
	case UpdateSettings:
		return json.Marshal(struct {
			Command  string  `json:"command"`
			Nickname *string `json:"nickname,omitempty"`
			Password *string `json:"password,omitempty"`
		}{cmd.commandName(), cmd.Nickname, cmd.Password})
	default:
		return nil, fmt.Errorf("protocol: unknown command type %T", c)
	}
}
