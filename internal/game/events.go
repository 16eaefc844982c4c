package game

import (
	"time"

	"github.com/lakshnarr/lastdrop-game-sub000/internal/protocol"
)

// HandleEvent consumes one decoded board event. Called from the link
// supervisor's pump goroutine, which serializes delivery.
func (s *Session) HandleEvent(ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.Ready:
		s.handleReady(e)
	case protocol.PairSuccess:
		s.handlePairSuccess()
	case protocol.ConfigComplete:
		s.handleConfigComplete()
	case protocol.ResetComplete:
		s.handleResetComplete()
	case protocol.RollProcessed:
		s.handleRollProcessed(e)
	case protocol.CoinPlaced:
		s.handleCoinPlaced(e)
	case protocol.CoinTimeout:
		s.handleCoinTimeout(e)
	case protocol.Misplacement:
		s.handleMisplacement(e)
	case protocol.UndoComplete:
		s.handleUndoComplete(e)
	case protocol.SettingsUpdated:
		s.handleSettingsUpdated(e)
	case protocol.PlayerEliminated:
		s.handlePlayerEliminated(e)
	case protocol.WinnerDeclared:
		s.handleWinnerDeclared(e)
	default:
		s.log.Debugf("ignoring event %T", ev)
	}
}

// handleReady starts the pairing handshake. The board announces itself once
// its link layer is up; pairing must complete before any game command.
func (s *Session) handleReady(ev protocol.Ready) {
	s.log.Infof("board ready: %s", ev.Message)
	if err := s.sender.SendCommand(protocol.Pair{Password: s.pin}); err != nil {
		s.log.WithError(err).Warn("pair command failed")
	}
}

func (s *Session) handlePairSuccess() {
	s.log.Info("paired with board")

	s.mu.Lock()
	count := len(s.players)
	colors := make([]string, count)
	for i, p := range s.players {
		colors[i] = ColorHex(p.Color)
	}
	s.mu.Unlock()

	if count == 0 {
		return
	}
	if err := s.sender.SendCommand(protocol.Config{PlayerCount: count, Colors: colors}); err != nil {
		s.log.WithError(err).Warn("config command failed")
	}
}

func (s *Session) handleConfigComplete() {
	s.log.Info("board configured")

	// The board needs a moment to apply LED config before reset.
	s.mu.Lock()
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.resetTimer = time.AfterFunc(resetAfterConfigDelay, func() {
		if err := s.sender.SendCommand(protocol.Reset{}); err != nil {
			s.log.WithError(err).Warn("reset command failed")
		}
	})
	s.mu.Unlock()
}

func (s *Session) handleResetComplete() {
	s.log.Info("board reset, game surface ready")
	if s.cb.OnBoardGameReady != nil {
		go s.cb.OnBoardGameReady()
	}
}

// handleRollProcessed applies the board's acknowledgment of a roll: the local
// mirror takes the controller's computed outcome, the board's reported values
// feed the reconciler, and the undo window opens.
func (s *Session) handleRollProcessed(ev protocol.RollProcessed) {
	s.mu.Lock()

	if s.phase != PhaseAwaitingRollAck || s.pendingRoll == nil {
		s.mu.Unlock()
		s.log.Warnf("unexpected roll_processed in phase %s", s.phase)
		return
	}
	pr := s.pendingRoll
	s.pendingRoll = nil

	player := s.playerByIDLocked(pr.playerID)
	if player == nil {
		s.mu.Unlock()
		s.log.Warnf("roll_processed for unknown player %d", ev.PlayerID)
		return
	}

	player.Position = pr.outcome.NewTile
	player.Score = pr.prevScore + pr.outcome.ScoreDelta
	s.mirror.Set(player.ID, player.Position, player.Score)

	// One level only: a new roll replaces any previous window.
	s.undo = &UndoWindow{
		PlayerIndex:  pr.playerIndex,
		PlayerID:     pr.playerID,
		PrevPosition: pr.prevPosition,
		PrevScore:    pr.prevScore,
		ExpiresAt:    time.Now().Add(s.undoTTL),
	}

	s.phase = PhaseAwaitingPlacement
	s.pendingTile = player.Position

	outcome := TurnOutcome{
		PlayerID:   player.ID,
		FromTile:   pr.prevPosition,
		ToTile:     player.Position,
		ScoreDelta: pr.outcome.ScoreDelta,
		NewScore:   player.Score,
		Tile:       pr.outcome.Tile,
		Wrapped:    pr.outcome.Wrapped,
		ChanceCard: ev.ChanceCard,
	}
	rec := RollRecord{
		SessionID:  s.ID,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		DiceValue:  pr.dice,
		FromTile:   pr.prevPosition,
		ToTile:     player.Position,
		ScoreDelta: pr.outcome.ScoreDelta,
		NewScore:   player.Score,
		At:         time.Now(),
	}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveBoard(ev.PlayerID, ev.Movement.To, ev.NewScore)
	}
	if s.journal != nil {
		go func() {
			if err := s.journal.AppendRoll(rec); err != nil {
				s.log.WithError(err).Warn("journal append failed")
			}
		}()
	}
	if s.cb.OnTurnResolved != nil {
		go s.cb.OnTurnResolved(outcome)
	}
	s.log.Infof("roll resolved: player %d on tile %d, score %d", outcome.PlayerID, outcome.ToTile, outcome.NewScore)
}

// handleCoinPlaced closes out the turn once the board senses the coin on the
// expected tile. An unverified placement still proceeds; the reconciler
// catches any real divergence.
func (s *Session) handleCoinPlaced(ev protocol.CoinPlaced) {
	s.mu.Lock()
	if s.phase != PhaseAwaitingPlacement {
		s.mu.Unlock()
		s.log.Debugf("coin_placed outside placement phase, tile %d", ev.Tile)
		return
	}
	if !ev.Verified {
		s.log.Warnf("coin on tile %d not verified by board sensor", ev.Tile)
	}
	s.advanceTurnLocked()
	s.mu.Unlock()

	if s.cb.OnCoinConfirmation != nil {
		go s.cb.OnCoinConfirmation(ev.Tile, ev.Verified)
	}
}

// handleCoinTimeout proceeds without confirmation after the board gives up
// waiting for the coin sensor.
func (s *Session) handleCoinTimeout(ev protocol.CoinTimeout) {
	s.mu.Lock()
	if s.phase != PhaseAwaitingPlacement {
		s.mu.Unlock()
		return
	}
	s.log.Warnf("coin placement timed out on tile %d, proceeding", ev.Tile)
	s.advanceTurnLocked()
	s.mu.Unlock()

	if s.cb.OnCoinTimeout != nil {
		go s.cb.OnCoinTimeout(ev.Tile)
	}
}

// handleMisplacement surfaces board-detected coin errors. No state changes:
// the board stays in its placement wait and so does the session.
func (s *Session) handleMisplacement(ev protocol.Misplacement) {
	for _, issue := range ev.Errors {
		s.log.Warnf("misplacement on tile %d: %s", issue.Tile, issue.Issue)
	}
	if s.cb.OnMisplacement != nil {
		go s.cb.OnMisplacement(ev.Errors)
	}
}

// handleUndoComplete restores the pre-roll snapshot once the board confirms
// it has moved its own state back.
func (s *Session) handleUndoComplete(ev protocol.UndoComplete) {
	s.mu.Lock()

	if !s.pendingUndo || s.undo == nil {
		s.mu.Unlock()
		s.log.Warn("unexpected undo_complete")
		return
	}
	window := *s.undo
	s.undo = nil
	s.pendingUndo = false

	player := s.playerByIDLocked(window.PlayerID)
	if player == nil {
		s.mu.Unlock()
		return
	}
	player.Position = window.PrevPosition
	player.Score = window.PrevScore
	s.mirror.Set(player.ID, player.Position, player.Score)

	// The undone player replays their coin placement on the restored tile.
	s.current = window.PlayerIndex
	s.phase = PhaseAwaitingPlacement
	s.pendingTile = window.PrevPosition
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveBoard(ev.PlayerID, ev.Movement.To, ev.RestoredScore)
	}
	if s.cb.OnUndoApplied != nil {
		go s.cb.OnUndoApplied(window.PlayerID, window.PrevPosition, window.PrevScore)
	}
	s.log.Infof("undo applied: player %d restored to tile %d, score %d", window.PlayerID, window.PrevPosition, window.PrevScore)
}

func (s *Session) handleSettingsUpdated(ev protocol.SettingsUpdated) {
	if ev.RestartRequired {
		s.log.Warn("board settings updated, board restart required")
	} else {
		s.log.Info("board settings updated")
	}
	if s.cb.OnSettingsUpdated != nil {
		go s.cb.OnSettingsUpdated(ev.Nickname, ev.RestartRequired)
	}
}

func (s *Session) handlePlayerEliminated(ev protocol.PlayerEliminated) {
	s.mu.Lock()
	player := s.playerByIDLocked(ev.PlayerID)
	if player != nil {
		player.Eliminated = true
	}
	wasCurrent := s.started && len(s.players) > 0 && s.players[s.current].ID == ev.PlayerID
	if wasCurrent && s.phase == PhaseIdle {
		s.advanceTurnLocked()
	}
	s.mu.Unlock()

	s.log.Warnf("player %d eliminated", ev.PlayerID)
	if s.cb.OnPlayerEliminated != nil {
		go s.cb.OnPlayerEliminated(ev.PlayerID)
	}
}

func (s *Session) handleWinnerDeclared(ev protocol.WinnerDeclared) {
	s.mu.Lock()
	s.gameOver = true
	s.started = false
	s.undo = nil
	s.pendingUndo = false
	s.phase = PhaseIdle
	s.mu.Unlock()

	s.log.Infof("winner declared: player %d", ev.WinnerID)
	if s.cb.OnWinnerDeclared != nil {
		go s.cb.OnWinnerDeclared(ev.WinnerID)
	}
}
