package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRollCommand(t *testing.T) {
	data, err := EncodeCommand(Roll{
		PlayerID:     2,
		PlayerName:   "Maya",
		DiceValue:    5,
		CurrentTile:  18,
		ExpectedTile: 3,
		Color:        "0000FF",
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "roll", m["command"])
	assert.Equal(t, float64(2), m["playerId"])
	assert.Equal(t, "Maya", m["playerName"])
	assert.Equal(t, float64(5), m["diceValue"])
	assert.Equal(t, float64(18), m["currentTile"])
	assert.Equal(t, float64(3), m["expectedTile"])
	assert.Equal(t, "0000FF", m["color"])
}

func TestEncodeUpdateSettingsOmitsNilFields(t *testing.T) {
	nick := "Kitchen Board"
	data, err := EncodeCommand(UpdateSettings{Nickname: &nick})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "update_settings", m["command"])
	assert.Equal(t, "Kitchen Board", m["nickname"])
	_, hasPassword := m["password"]
	assert.False(t, hasPassword, "nil password must be omitted from the wire")
}

func TestEncodeResetCommand(t *testing.T) {
	data, err := EncodeCommand(Reset{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"command":"reset"}`, string(data))
}

func TestDecodeRollProcessed(t *testing.T) {
	raw := `{
		"event": "roll_processed",
		"playerId": 1,
		"movement": {"from": 18, "to": 3},
		"tile": {"name": "Polluting Factory", "type": "penalty"},
		"score": {"new": 11, "change": 3}
	}`
	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	rp, ok := ev.(RollProcessed)
	require.True(t, ok, "expected RollProcessed, got %T", ev)
	assert.Equal(t, 1, rp.PlayerID)
	assert.Equal(t, Movement{From: 18, To: 3}, rp.Movement)
	assert.Equal(t, "Polluting Factory", rp.Tile.Name)
	assert.Equal(t, 11, rp.NewScore)
	assert.Equal(t, 3, rp.ScoreChange)
	assert.Nil(t, rp.ChanceCard)
}

func TestDecodeRollProcessedWithChanceCard(t *testing.T) {
	raw := `{
		"event": "roll_processed",
		"playerId": 0,
		"movement": {"from": 1, "to": 6},
		"tile": {"name": "Marsh Swamp", "type": "chance"},
		"score": {"new": 8, "change": -2},
		"chanceCard": {"number": 18, "description": "Climate dries water", "effect": -2}
	}`
	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	rp := ev.(RollProcessed)
	require.NotNil(t, rp.ChanceCard)
	assert.Equal(t, 18, rp.ChanceCard.Number)
	assert.Equal(t, -2, rp.ChanceCard.Effect)
}

func TestDecodeMissingDiscriminator(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"playerId": 1}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"event": "warp_drive"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecodeMissingRequiredScoreIsNotCoerced(t *testing.T) {
	// A roll_processed without its score block must be rejected, not defaulted
	// to zero.
	raw := `{
		"event": "roll_processed",
		"playerId": 1,
		"movement": {"from": 2, "to": 5},
		"tile": {"name": "Tree Cutting", "type": "disaster"}
	}`
	_, err := DecodeEvent([]byte(raw))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecodeCoinPlacedDefaultsVerified(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"event":"coin_placed","playerId":2,"tile":7}`))
	require.NoError(t, err)
	cp := ev.(CoinPlaced)
	assert.Equal(t, 2, cp.PlayerID)
	assert.Equal(t, 7, cp.Tile)
	assert.True(t, cp.Verified, "verified defaults to true when omitted")
}

func TestDecodeCoinPlacedMissingTile(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"event":"coin_placed","playerId":2}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestDecodeUndoComplete(t *testing.T) {
	raw := `{
		"event": "undo_complete",
		"playerId": 3,
		"movement": {"from": 9, "to": 4},
		"score": {"restored": 12}
	}`
	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	uc := ev.(UndoComplete)
	assert.Equal(t, 3, uc.PlayerID)
	assert.Equal(t, Movement{From: 9, To: 4}, uc.Movement)
	assert.Equal(t, 12, uc.RestoredScore)
}

func TestDecodeMisplacement(t *testing.T) {
	raw := `{
		"event": "misplacement",
		"errors": [
			{"tile": 7, "issue": "unexpected coin"},
			{"tile": 9, "issue": "missing coin"}
		]
	}`
	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	mp := ev.(Misplacement)
	require.Len(t, mp.Errors, 2)
	assert.Equal(t, MisplacementIssue{Tile: 7, Issue: "unexpected coin"}, mp.Errors[0])
	assert.Equal(t, MisplacementIssue{Tile: 9, Issue: "missing coin"}, mp.Errors[1])
}

func TestDecodeSettingsUpdated(t *testing.T) {
	raw := `{"event":"settings_updated","nickname":"Den Board","password":"hunter2","restartRequired":true}`
	ev, err := DecodeEvent([]byte(raw))
	require.NoError(t, err)

	su := ev.(SettingsUpdated)
	require.NotNil(t, su.Nickname)
	assert.Equal(t, "Den Board", *su.Nickname)
	assert.True(t, su.PasswordChanged)
	assert.True(t, su.RestartRequired)
}

func TestDecodeSimpleAcks(t *testing.T) {
	cases := []struct {
		raw  string
		want Event
	}{
		{`{"event":"pair_success"}`, PairSuccess{}},
		{`{"event":"config_complete"}`, ConfigComplete{}},
		{`{"event":"reset_complete"}`, ResetComplete{}},
		{`{"event":"coin_timeout","tile":7}`, CoinTimeout{Tile: 7}},
		{`{"event":"player_eliminated","playerId":1}`, PlayerEliminated{PlayerID: 1}},
		{`{"event":"winner_declared","winnerId":0}`, WinnerDeclared{WinnerID: 0}},
	}
	for _, c := range cases {
		ev, err := DecodeEvent([]byte(c.raw))
		require.NoError(t, err, c.raw)
		assert.Equal(t, c.want, ev, c.raw)
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := DecodeEvent([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
