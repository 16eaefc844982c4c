// Package game contains the board orchestrator: the state machine that ties a
// dice roll, the command sent to the board, the board's asynchronous
// confirmations, and the advancement of the turn together.
package game

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lakshnarr/lastdrop-game-sub000/internal/engine"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/protocol"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/reconcile"
)

// Phase is the per-roll position of the orchestrator state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingRollAck
	PhaseAwaitingPlacement
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingRollAck:
		return "awaiting_roll_ack"
	case PhaseAwaitingPlacement:
		return "awaiting_coin_placement"
	default:
		return "idle"
	}
}

const (
	// StartingScore is each player's score at game start.
	StartingScore = 10
	// StartTile is where every coin begins.
	StartTile = 1
	// DefaultUndoWindow is how long after a completed roll the undo action
	// stays available.
	DefaultUndoWindow = 5 * time.Second
	// resetAfterConfigDelay lets the board finish applying config before the
	// reset command moves its LEDs to the start tile.
	resetAfterConfigDelay = 200 * time.Millisecond
)

var (
	ErrNotStarted  = errors.New("game: no active game")
	ErrGameOver    = errors.New("game: game is over")
	ErrNotYourTurn = errors.New("game: not this player's turn")
	ErrBusy        = errors.New("game: a roll is already in flight")
	ErrNoUndo      = errors.New("game: nothing to undo")
	ErrUndoExpired = errors.New("game: undo window has expired")
	ErrUnknownPlayer = errors.New("game: unknown player")
)

// Player is one participant. Position and Score are the controller's local
// belief, updated only from confirmed board events.
type Player struct {
	ID         int
	Name       string
	Color      string
	Position   int
	Score      int
	Eliminated bool
}

// UndoWindow is the short-lived permission to reverse the most recent turn.
// Exactly one level is retained: a new roll silently overwrites it.
type UndoWindow struct {
	PlayerIndex  int
	PlayerID     int
	PrevPosition int
	PrevScore    int
	ExpiresAt    time.Time
}

// TurnOutcome is what external collaborators receive when a roll resolves.
type TurnOutcome struct {
	PlayerID   int
	FromTile   int
	ToTile     int
	ScoreDelta int
	NewScore   int
	Tile       engine.Tile
	Wrapped    bool
	ChanceCard *protocol.ChanceCardInfo
}

// CommandSender transmits commands to the board. Satisfied by the link
// supervisor.
type CommandSender interface {
	SendCommand(protocol.Command) error
}

// RollRecord is one journal entry for a resolved turn.
type RollRecord struct {
	SessionID  uuid.UUID
	PlayerID   int
	PlayerName string
	DiceValue  int
	FromTile   int
	ToTile     int
	ScoreDelta int
	NewScore   int
	At         time.Time
}

// RollJournal persists resolved turns for the history/leaderboard layers.
type RollJournal interface {
	AppendRoll(rec RollRecord) error
}

// Callbacks are the orchestrator's outbound signals to UI, live-sync and
// commentary collaborators. Nil callbacks are skipped.
type Callbacks struct {
	OnTurnResolved     func(TurnOutcome)
	OnCoinConfirmation func(tile int, verified bool)
	OnCoinTimeout      func(tile int)
	OnMisplacement     func(errors []protocol.MisplacementIssue)
	OnUndoApplied      func(playerID, toTile, restoredScore int)
	OnPlayerEliminated func(playerID int)
	OnWinnerDeclared   func(winnerID int)
	OnSettingsUpdated  func(nickname *string, restartRequired bool)
	OnBoardGameReady   func()
	OnTurnAdvanced     func(playerID int)
}

// Session orchestrates one game against one board. All state mutation happens
// under Mu from the single event-consumer goroutine or inbound API calls;
// the session is the sole writer of the local state mirror.
type Session struct {
	ID uuid.UUID

	log     *logrus.Entry
	sender  CommandSender
	mirror  *reconcile.Mirror
	observer interface{ ObserveBoard(playerID, position, score int) }
	journal RollJournal
	cb      Callbacks

	undoTTL time.Duration
	pin     string

	mu          sync.Mutex
	players     []*Player
	current     int
	phase       Phase
	started     bool
	gameOver    bool
	pendingTile int
	pendingRoll *pendingRoll
	undo        *UndoWindow
	pendingUndo bool
	resetTimer  *time.Timer
}

// pendingRoll is the snapshot taken at SubmitRoll, promoted to an UndoWindow
// once the board acknowledges the roll.
type pendingRoll struct {
	playerIndex  int
	playerID     int
	dice         int
	prevPosition int
	prevScore    int
	outcome      engine.TurnResult
}

// Config assembles a Session.
type Config struct {
	Log      *logrus.Logger
	Sender   CommandSender
	Mirror   *reconcile.Mirror
	Observer interface{ ObserveBoard(playerID, position, score int) }
	Journal  RollJournal
	Callbacks Callbacks
	UndoWindow time.Duration
	PairPIN    string
}

// NewSession builds an idle session. Start begins a game.
func NewSession(cfg Config) *Session {
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = DefaultUndoWindow
	}
	id, _ := uuid.NewRandom()
	return &Session{
		ID:       id,
		log:      cfg.Log.WithField("component", "session").WithField("session", id.String()[:8]),
		sender:   cfg.Sender,
		mirror:   cfg.Mirror,
		observer: cfg.Observer,
		journal:  cfg.Journal,
		cb:       cfg.Callbacks,
		undoTTL:  cfg.UndoWindow,
		pin:      cfg.PairPIN,
	}
}

// Start begins a game with the given players. Every player starts at the
// start tile with the starting score.
func (s *Session) Start(players []Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrBusy
	}
	if len(players) == 0 {
		return errors.New("game: at least one player required")
	}

	s.players = make([]*Player, len(players))
	for i := range players {
		p := players[i]
		p.Position = StartTile
		p.Score = StartingScore
		s.players[i] = &p
		s.mirror.Set(p.ID, p.Position, p.Score)
	}
	s.current = 0
	s.phase = PhaseIdle
	s.started = true
	s.gameOver = false
	s.undo = nil
	s.pendingUndo = false

	s.log.Infof("game started with %d players", len(players))
	return nil
}

// Stop ends the session and cancels pending delayed work.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.undo = nil
	s.pendingUndo = false
	s.phase = PhaseIdle
	if s.resetTimer != nil {
		s.resetTimer.Stop()
		s.resetTimer = nil
	}
}

// Phase returns the current state machine phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentPlayer returns the player whose turn it is.
func (s *Session) CurrentPlayer() (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || len(s.players) == 0 {
		return Player{}, false
	}
	return *s.players[s.current], true
}

// PlayerByID returns a copy of the tracked player.
func (s *Session) PlayerByID(playerID int) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerByIDLocked(playerID)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

func (s *Session) playerByIDLocked(playerID int) *Player {
	for _, p := range s.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// SubmitRoll sends a roll to the board and waits for its acknowledgment.
// Idle-only: one roll is in flight at a time.
func (s *Session) SubmitRoll(playerID, diceValue int) error {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if s.gameOver {
		s.mu.Unlock()
		return ErrGameOver
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	player := s.players[s.current]
	if player.ID != playerID {
		s.mu.Unlock()
		return ErrNotYourTurn
	}

	outcome := engine.ResolveTurn(player.Position, diceValue)
	s.pendingRoll = &pendingRoll{
		playerIndex:  s.current,
		playerID:     player.ID,
		dice:         diceValue,
		prevPosition: player.Position,
		prevScore:    player.Score,
		outcome:      outcome,
	}

	cmd := protocol.Roll{
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		DiceValue:    diceValue,
		CurrentTile:  player.Position,
		ExpectedTile: outcome.NewTile,
		Color:        player.Color,
	}
	s.phase = PhaseAwaitingRollAck
	s.mu.Unlock()

	if err := s.sender.SendCommand(cmd); err != nil {
		s.mu.Lock()
		s.phase = PhaseIdle
		s.pendingRoll = nil
		s.mu.Unlock()
		return err
	}

	s.log.Infof("roll sent: player %d rolled %d, tile %d -> %d", playerID, diceValue, player.Position, outcome.NewTile)
	return nil
}

// RequestUndo reverses the most recent completed roll while its window is
// open. Rejected after expiry without mutating any state.
func (s *Session) RequestUndo() error {
	s.mu.Lock()

	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if s.undo == nil {
		s.mu.Unlock()
		return ErrNoUndo
	}
	if time.Now().After(s.undo.ExpiresAt) {
		s.undo = nil
		s.mu.Unlock()
		return ErrUndoExpired
	}

	window := *s.undo
	player := s.playerByIDLocked(window.PlayerID)
	if player == nil {
		s.undo = nil
		s.mu.Unlock()
		return ErrUnknownPlayer
	}

	cmd := protocol.Undo{
		PlayerID: window.PlayerID,
		FromTile: player.Position,
		ToTile:   window.PrevPosition,
	}
	s.pendingUndo = true
	s.mu.Unlock()

	if err := s.sender.SendCommand(cmd); err != nil {
		s.mu.Lock()
		s.pendingUndo = false
		s.mu.Unlock()
		return err
	}

	s.log.Infof("undo requested: player %d back to tile %d", window.PlayerID, window.PrevPosition)
	return nil
}

// RequestReset returns the board to its start-of-game state.
func (s *Session) RequestReset() error {
	return s.sender.SendCommand(protocol.Reset{})
}

// UpdateBoardSettings changes the board's nickname and/or pairing PIN. Nil
// fields are left unchanged.
func (s *Session) UpdateBoardSettings(nickname, password *string) error {
	return s.sender.SendCommand(protocol.UpdateSettings{Nickname: nickname, Password: password})
}

// AwaitedTile returns the tile the board is waiting to see a coin on.
func (s *Session) AwaitedTile() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseAwaitingPlacement {
		return 0, false
	}
	return s.pendingTile, true
}

// UndoAvailable reports whether an unexpired undo window exists.
func (s *Session) UndoAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo != nil && time.Now().Before(s.undo.ExpiresAt)
}

// advanceTurnLocked moves to the next non-eliminated player.
func (s *Session) advanceTurnLocked() {
	if len(s.players) == 0 {
		return
	}
	for i := 0; i < len(s.players); i++ {
		s.current = (s.current + 1) % len(s.players)
		if !s.players[s.current].Eliminated {
			break
		}
	}
	s.phase = PhaseIdle
	if s.cb.OnTurnAdvanced != nil {
		next := s.players[s.current].ID
		go s.cb.OnTurnAdvanced(next)
	}
}
