package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks an inbound message that is missing its discriminator or
// a required variant field. Malformed messages are logged and dropped by the
// caller; they never surface as an Event.
var ErrMalformed = errors.New("protocol: malformed event")

// fields is a partially-decoded inbound message.
type fields map[string]json.RawMessage

func (f fields) str(key string) (string, error) {
	raw, ok := f[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", ErrMalformed, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
	}
	return s, nil
}

// integer requires the field to be present. Score and position fields must
// never be silently coerced to zero when absent.
func (f fields) integer(key string) (int, error) {
	raw, ok := f[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrMalformed, key)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
	}
	return n, nil
}

func (f fields) object(key string) (fields, error) {
	raw, ok := f[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformed, key)
	}
	var sub fields
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrMalformed, key, err)
	}
	return sub, nil
}

func (f fields) optStr(key string) *string {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func (f fields) optBool(key string, def bool) bool {
	raw, ok := f[key]
	if !ok {
		return def
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return def
	}
	return b
}

// DecodeEvent parses one inbound frame into a typed event. A message missing
// its "event" discriminator, declaring an unknown variant, or lacking a
// required field returns an error wrapping ErrMalformed.
func DecodeEvent(data []byte) (Event, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	name, err := f.str("event")
	if err != nil {
		return nil, err
	}

	switch name {
	case "ready":
		msg := ""
		if s := f.optStr("message"); s != nil {
			msg = *s
		}
		return Ready{Message: msg}, nil

	case "pair_success":
		return PairSuccess{}, nil

	case "roll_processed":
		return decodeRollProcessed(f)

	case "coin_placed":
		playerID, err := f.integer("playerId")
		if err != nil {
			return nil, err
		}
		tile, err := f.integer("tile")
		if err != nil {
			return nil, err
		}
		return CoinPlaced{
			PlayerID: playerID,
			Tile:     tile,
			Verified: f.optBool("verified", true),
		}, nil

	case "coin_timeout":
		tile, err := f.integer("tile")
		if err != nil {
			return nil, err
		}
		return CoinTimeout{Tile: tile}, nil

	case "undo_complete":
		return decodeUndoComplete(f)

	case "misplacement":
		return decodeMisplacement(f)

	case "config_complete":
		return ConfigComplete{}, nil

	case "reset_complete":
		return ResetComplete{}, nil

	case "settings_updated":
		return SettingsUpdated{
			Nickname:        f.optStr("nickname"),
			PasswordChanged: f.optStr("password") != nil,
			RestartRequired: f.optBool("restartRequired", false),
		}, nil

	case "player_eliminated":
		playerID, err := f.integer("playerId")
		if err != nil {
			return nil, err
		}
		return PlayerEliminated{PlayerID: playerID}, nil

	case "winner_declared":
		winnerID, err := f.integer("winnerId")
		if err != nil {
			return nil, err
		}
		return WinnerDeclared{WinnerID: winnerID}, nil

	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformed, name)
	}
}

func decodeMovement(f fields) (Movement, error) {
	sub, err := f.object("movement")
	if err != nil {
		return Movement{}, err
	}
	from, err := sub.integer("from")
	if err != nil {
		return Movement{}, err
	}
	to, err := sub.integer("to")
	if err != nil {
		return Movement{}, err
	}
	return Movement{From: from, To: to}, nil
}

func decodeRollProcessed(f fields) (Event, error) {
	playerID, err := f.integer("playerId")
	if err != nil {
		return nil, err
	}

	movement, err := decodeMovement(f)
	if err != nil {
		return nil, err
	}

	tileObj, err := f.object("tile")
	if err != nil {
		return nil, err
	}
	tileName, err := tileObj.str("name")
	if err != nil {
		return nil, err
	}
	tileType, err := tileObj.str("type")
	if err != nil {
		return nil, err
	}

	scoreObj, err := f.object("score")
	if err != nil {
		return nil, err
	}
	newScore, err := scoreObj.integer("new")
	if err != nil {
		return nil, err
	}
	scoreChange, err := scoreObj.integer("change")
	if err != nil {
		return nil, err
	}

	ev := RollProcessed{
		PlayerID:    playerID,
		Movement:    movement,
		Tile:        TileInfo{Name: tileName, Type: tileType},
		NewScore:    newScore,
		ScoreChange: scoreChange,
	}

	if raw, ok := f["chanceCard"]; ok {
		var cardObj fields
		if err := json.Unmarshal(raw, &cardObj); err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrMalformed, "chanceCard", err)
		}
		number, err := cardObj.integer("number")
		if err != nil {
			return nil, err
		}
		desc, err := cardObj.str("description")
		if err != nil {
			return nil, err
		}
		effect, err := cardObj.integer("effect")
		if err != nil {
			return nil, err
		}
		ev.ChanceCard = &ChanceCardInfo{Number: number, Description: desc, Effect: effect}
	}

	return ev, nil
}

func decodeUndoComplete(f fields) (Event, error) {
	playerID, err := f.integer("playerId")
	if err != nil {
		return nil, err
	}
	movement, err := decodeMovement(f)
	if err != nil {
		return nil, err
	}
	scoreObj, err := f.object("score")
	if err != nil {
		return nil, err
	}
	restored, err := scoreObj.integer("restored")
	if err != nil {
		return nil, err
	}
	return UndoComplete{PlayerID: playerID, Movement: movement, RestoredScore: restored}, nil
}

func decodeMisplacement(f fields) (Event, error) {
	raw, ok := f["errors"]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformed, "errors")
	}
	var list []fields
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrMalformed, "errors", err)
	}

	issues := make([]MisplacementIssue, 0, len(list))
	for _, item := range list {
		tile, err := item.integer("tile")
		if err != nil {
			return nil, err
		}
		issue, err := item.str("issue")
		if err != nil {
			return nil, err
		}
		issues = append(issues, MisplacementIssue{Tile: tile, Issue: issue})
	}
	return Misplacement{Errors: issues}, nil
}
