// Package store persists saved boards and the roll journal in a local SQLite
// database. The controller is offline-first, so everything lives in one file
// next to the binary.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/lakshnarr/lastdrop-game-sub000/internal/game"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrBadPIN   = errors.New("store: pin mismatch")
)

// SavedBoard is a board the user has paired with before. The PIN is stored
// hashed; the cleartext never touches disk.
type SavedBoard struct {
	ID            int64
	Address       string
	Nickname      string
	pinHash       []byte
	LastConnected time.Time
}

// Store wraps the SQLite handle. Safe for concurrent use; database/sql
// serializes access to the single connection.
type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

const schema = `
CREATE TABLE IF NOT EXISTS saved_boards (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	address        TEXT NOT NULL UNIQUE,
	nickname       TEXT NOT NULL DEFAULT '',
	pin_hash       BLOB NOT NULL,
	last_connected INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS roll_journal (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	player_id   INTEGER NOT NULL,
	player_name TEXT NOT NULL,
	dice_value  INTEGER NOT NULL,
	from_tile   INTEGER NOT NULL,
	to_tile     INTEGER NOT NULL,
	score_delta INTEGER NOT NULL,
	new_score   INTEGER NOT NULL,
	rolled_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_session ON roll_journal(session_id);
`

// Open opens (and if needed creates) the database at path. Use ":memory:"
// for tests.
func Open(path string, log *logrus.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// A single writer keeps SQLite happy under WAL.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{db: db, log: log.WithField("component", "store")}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBoard remembers a board after a successful pairing. An existing entry
// for the same address is updated in place.
func (s *Store) SaveBoard(address, nickname, pin string) (*SavedBoard, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("store: hash pin: %w", err)
	}
	now := time.Now().Unix()
	res, err := s.db.Exec(`
		INSERT INTO saved_boards (address, nickname, pin_hash, last_connected)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			nickname = excluded.nickname,
			pin_hash = excluded.pin_hash,
			last_connected = excluded.last_connected`,
		address, nickname, hash, now)
	if err != nil {
		return nil, fmt.Errorf("store: save board: %w", err)
	}
	id, _ := res.LastInsertId()
	s.log.Infof("saved board %q (%s)", nickname, address)
	return &SavedBoard{ID: id, Address: address, Nickname: nickname, pinHash: hash, LastConnected: time.Unix(now, 0)}, nil
}

// BoardByAddress looks up a previously saved board.
func (s *Store) BoardByAddress(address string) (*SavedBoard, error) {
	row := s.db.QueryRow(
		`SELECT id, address, nickname, pin_hash, last_connected FROM saved_boards WHERE address = ?`, address)
	return scanBoard(row)
}

// LastConnectedBoard returns the most recently used board, for the
// auto-reconnect offer on startup.
func (s *Store) LastConnectedBoard() (*SavedBoard, error) {
	row := s.db.QueryRow(
		`SELECT id, address, nickname, pin_hash, last_connected FROM saved_boards
		 ORDER BY last_connected DESC LIMIT 1`)
	return scanBoard(row)
}

// Boards lists all saved boards, most recently used first.
func (s *Store) Boards() ([]SavedBoard, error) {
	rows, err := s.db.Query(
		`SELECT id, address, nickname, pin_hash, last_connected FROM saved_boards
		 ORDER BY last_connected DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list boards: %w", err)
	}
	defer rows.Close()

	var boards []SavedBoard
	for rows.Next() {
		var b SavedBoard
		var last int64
		if err := rows.Scan(&b.ID, &b.Address, &b.Nickname, &b.pinHash, &last); err != nil {
			return nil, fmt.Errorf("store: scan board: %w", err)
		}
		b.LastConnected = time.Unix(last, 0)
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// VerifyPIN checks a candidate PIN against the stored hash.
func (b *SavedBoard) VerifyPIN(pin string) error {
	if err := bcrypt.CompareHashAndPassword(b.pinHash, []byte(pin)); err != nil {
		return ErrBadPIN
	}
	return nil
}

// TouchBoard bumps the last-connected timestamp after a reconnect.
func (s *Store) TouchBoard(address string) error {
	_, err := s.db.Exec(
		`UPDATE saved_boards SET last_connected = ? WHERE address = ?`,
		time.Now().Unix(), address)
	if err != nil {
		return fmt.Errorf("store: touch board: %w", err)
	}
	return nil
}

// ForgetBoard removes a saved board.
func (s *Store) ForgetBoard(address string) error {
	res, err := s.db.Exec(`DELETE FROM saved_boards WHERE address = ?`, address)
	if err != nil {
		return fmt.Errorf("store: forget board: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBoard(row scanner) (*SavedBoard, error) {
	var b SavedBoard
	var last int64
	err := row.Scan(&b.ID, &b.Address, &b.Nickname, &b.pinHash, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan board: %w", err)
	}
	b.LastConnected = time.Unix(last, 0)
	return &b, nil
}

// AppendRoll writes one resolved turn to the journal. Satisfies
// game.RollJournal.
func (s *Store) AppendRoll(rec game.RollRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO roll_journal
			(session_id, player_id, player_name, dice_value, from_tile, to_tile, score_delta, new_score, rolled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID.String(), rec.PlayerID, rec.PlayerName, rec.DiceValue,
		rec.FromTile, rec.ToTile, rec.ScoreDelta, rec.NewScore, rec.At.Unix())
	if err != nil {
		return fmt.Errorf("store: append roll: %w", err)
	}
	return nil
}

// SessionRolls returns a session's journal in roll order.
func (s *Store) SessionRolls(sessionID uuid.UUID) ([]game.RollRecord, error) {
	rows, err := s.db.Query(`
		SELECT player_id, player_name, dice_value, from_tile, to_tile, score_delta, new_score, rolled_at
		FROM roll_journal WHERE session_id = ? ORDER BY id ASC`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("store: session rolls: %w", err)
	}
	defer rows.Close()

	var recs []game.RollRecord
	for rows.Next() {
		rec := game.RollRecord{SessionID: sessionID}
		var at int64
		if err := rows.Scan(&rec.PlayerID, &rec.PlayerName, &rec.DiceValue,
			&rec.FromTile, &rec.ToTile, &rec.ScoreDelta, &rec.NewScore, &at); err != nil {
			return nil, fmt.Errorf("store: scan roll: %w", err)
		}
		rec.At = time.Unix(at, 0)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
