package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshnarr/lastdrop-game-sub000/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	s, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLookupBoard(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveBoard("board-01.local:8080", "Kitchen Board", "1234")
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	got, err := s.BoardByAddress("board-01.local:8080")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen Board", got.Nickname)
	assert.NoError(t, got.VerifyPIN("1234"))
	assert.ErrorIs(t, got.VerifyPIN("9999"), ErrBadPIN)
}

func TestSaveBoardUpdatesExisting(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveBoard("board-01.local:8080", "Old Name", "1234")
	require.NoError(t, err)
	_, err = s.SaveBoard("board-01.local:8080", "New Name", "5678")
	require.NoError(t, err)

	boards, err := s.Boards()
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "New Name", boards[0].Nickname)
	assert.NoError(t, boards[0].VerifyPIN("5678"))
}

func TestLastConnectedBoard(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LastConnectedBoard()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SaveBoard("board-01.local:8080", "First", "1111")
	require.NoError(t, err)
	_, err = s.SaveBoard("board-02.local:8080", "Second", "2222")
	require.NoError(t, err)

	// Touching the first board makes it the reconnect candidate again.
	_, err = s.db.Exec(`UPDATE saved_boards SET last_connected = ? WHERE address = ?`,
		time.Now().Add(time.Hour).Unix(), "board-01.local:8080")
	require.NoError(t, err)

	last, err := s.LastConnectedBoard()
	require.NoError(t, err)
	assert.Equal(t, "First", last.Nickname)
}

func TestForgetBoard(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveBoard("board-01.local:8080", "Board", "1234")
	require.NoError(t, err)

	require.NoError(t, s.ForgetBoard("board-01.local:8080"))
	assert.ErrorIs(t, s.ForgetBoard("board-01.local:8080"), ErrNotFound)

	_, err = s.BoardByAddress("board-01.local:8080")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRollJournalRoundTrip(t *testing.T) {
	s := openTestStore(t)

	sessionID := uuid.New()
	recs := []game.RollRecord{
		{SessionID: sessionID, PlayerID: 1, PlayerName: "Asha", DiceValue: 3, FromTile: 1, ToTile: 4, ScoreDelta: 1, NewScore: 11, At: time.Now()},
		{SessionID: sessionID, PlayerID: 2, PlayerName: "Binh", DiceValue: 5, FromTile: 1, ToTile: 6, ScoreDelta: 0, NewScore: 10, At: time.Now()},
	}
	for _, rec := range recs {
		require.NoError(t, s.AppendRoll(rec))
	}
	// Another session's rolls stay out of this one's history.
	require.NoError(t, s.AppendRoll(game.RollRecord{SessionID: uuid.New(), PlayerID: 9, PlayerName: "X", DiceValue: 1, FromTile: 1, ToTile: 2, ScoreDelta: 1, NewScore: 11, At: time.Now()}))

	got, err := s.SessionRolls(sessionID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Asha", got[0].PlayerName)
	assert.Equal(t, 4, got[0].ToTile)
	assert.Equal(t, "Binh", got[1].PlayerName)
	assert.Equal(t, 0, got[1].ScoreDelta)
}
