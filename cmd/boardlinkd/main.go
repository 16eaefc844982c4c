// boardlinkd pairs with a LastDrop game board over its wireless link, keeps
// the local game state reconciled with the board, and drives turns from a
// small console.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/lakshnarr/lastdrop-game-sub000/internal/config"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/game"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/link"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/protocol"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/reconcile"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/store"
	"github.com/lakshnarr/lastdrop-game-sub000/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := cfg.NewLogger()

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("boardlinkd exited")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	db, err := store.Open(cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer db.Close()

	mirror := reconcile.NewMirror()
	reconciler := reconcile.New(log, mirror, func(message string) {
		log.Errorf("reconciliation failure: %s", message)
		log.Error("resolve with 'trust local' or 'trust board'")
	}, reconcile.Options{CheckInterval: cfg.ReconcileInterval})

	var session *game.Session

	tr := transport.NewWS(log)
	sup := link.NewSupervisor(log, tr, link.Callbacks{
		OnStateChanged: func(st link.State) {
			log.Debugf("link state: %s", st)
		},
		OnReady: func() {
			log.Info("link ready")
			if err := db.TouchBoard(cfg.BoardAddr); err != nil {
				log.WithError(err).Warn("touch saved board")
			}
		},
		OnEvent: func(ev protocol.Event) {
			session.HandleEvent(ev)
		},
		OnConnectionLost: func(cause link.LostCause) {
			log.Warnf("connection lost (%s)", cause)
		},
		OnConnectFailed: func(err error) {
			log.WithError(err).Warn("connect attempt failed")
		},
		OnConnectionExhausted: func() {
			log.Error("reconnect budget exhausted; use 'retry' to try again")
		},
	}, link.Options{
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectDelay:       cfg.ReconnectDelay,
		HeartbeatInterval:    cfg.HeartbeatInterval,
		HeartbeatTimeout:     cfg.HeartbeatTimeout,
	})

	session = game.NewSession(game.Config{
		Log:      log,
		Sender:   sup,
		Mirror:   mirror,
		Observer: reconciler,
		Journal:  db,
		Callbacks: game.Callbacks{
			OnTurnResolved: func(o game.TurnOutcome) {
				log.Infof("player %d: tile %d -> %d (%s), score %+d -> %d",
					o.PlayerID, o.FromTile, o.ToTile, o.Tile.Name, o.ScoreDelta, o.NewScore)
				if o.ChanceCard != nil {
					log.Infof("chance card #%d: %s (%+d)", o.ChanceCard.Number, o.ChanceCard.Description, o.ChanceCard.Effect)
				}
				log.Info("place the coin on the lit tile")
			},
			OnCoinConfirmation: func(tile int, verified bool) {
				if verified {
					log.Infof("coin confirmed on tile %d", tile)
				} else {
					log.Warnf("coin on tile %d unverified, continuing", tile)
				}
			},
			OnCoinTimeout: func(tile int) {
				log.Warnf("no coin detected on tile %d, continuing", tile)
			},
			OnMisplacement: func(errs []protocol.MisplacementIssue) {
				for _, e := range errs {
					log.Warnf("misplaced coin on tile %d: %s", e.Tile, e.Issue)
				}
			},
			OnUndoApplied: func(playerID, toTile, restoredScore int) {
				log.Infof("undo: player %d back to tile %d, score %d", playerID, toTile, restoredScore)
			},
			OnPlayerEliminated: func(playerID int) {
				log.Warnf("player %d eliminated", playerID)
			},
			OnWinnerDeclared: func(winnerID int) {
				log.Infof("winner: player %d", winnerID)
			},
			OnSettingsUpdated: func(nickname *string, restart bool) {
				if nickname != nil {
					log.Infof("board renamed to %q", *nickname)
				}
				if restart {
					log.Warn("board restart required for new settings")
				}
			},
			OnBoardGameReady: func() {
				log.Info("board paired and reset; start rolling")
			},
			OnTurnAdvanced: func(playerID int) {
				log.Infof("player %d's turn", playerID)
			},
		},
		UndoWindow: cfg.UndoWindow,
		PairPIN:    cfg.BoardPIN,
	})

	log.Infof("connecting to board at %s", cfg.BoardAddr)
	sup.StartConnect(cfg.BoardAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case sig := <-sigCh:
			log.Infof("received %s, shutting down", sig)
			shutdown(session, reconciler, sup)
			return nil
		case line, ok := <-lines:
			if !ok {
				shutdown(session, reconciler, sup)
				return nil
			}
			if quit := handleLine(line, cfg, log, db, session, sup, reconciler, mirror); quit {
				shutdown(session, reconciler, sup)
				return nil
			}
		}
	}
}

// shutdown order: stop delayed game work first, then the sync loop, then the
// link (which cancels its own timers and watchdog before transport teardown).
func shutdown(session *game.Session, reconciler *reconcile.Reconciler, sup *link.Supervisor) {
	session.Stop()
	reconciler.Stop()
	sup.SetGameActive(false)
	sup.Cancel()
}

func handleLine(line string, cfg config.Config, log *logrus.Logger, db *store.Store,
	session *game.Session, sup *link.Supervisor, reconciler *reconcile.Reconciler,
	mirror *reconcile.Mirror) bool {

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "start":
		// start Asha:red Binh:blue
		if len(fields) < 2 {
			log.Error("usage: start <name:color> [<name:color> ...]")
			return false
		}
		players := make([]game.Player, 0, len(fields)-1)
		for i, arg := range fields[1:] {
			name, color, _ := strings.Cut(arg, ":")
			if color == "" {
				color = "white"
			}
			players = append(players, game.Player{ID: i + 1, Name: name, Color: color})
		}
		if err := session.Start(players); err != nil {
			log.WithError(err).Error("start failed")
			return false
		}
		sup.SetGameActive(true)
		reconciler.Start()
		if _, err := db.SaveBoard(cfg.BoardAddr, "", cfg.BoardPIN); err != nil {
			log.WithError(err).Warn("save board")
		}

	case "roll":
		if len(fields) != 3 {
			log.Error("usage: roll <playerID> <dice>")
			return false
		}
		playerID, err1 := strconv.Atoi(fields[1])
		dice, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || dice < 1 || dice > 6 {
			log.Error("usage: roll <playerID> <1-6>")
			return false
		}
		if err := session.SubmitRoll(playerID, dice); err != nil {
			log.WithError(err).Error("roll rejected")
		}

	case "undo":
		if err := session.RequestUndo(); err != nil {
			log.WithError(err).Error("undo rejected")
		}

	case "reset":
		if err := session.RequestReset(); err != nil {
			log.WithError(err).Error("reset failed")
		}

	case "retry":
		sup.RetryNow()

	case "trust":
		if len(fields) != 2 {
			log.Error("usage: trust local|board")
			return false
		}
		switch fields[1] {
		case "local":
			log.Info(reconciler.Resolve(reconcile.TrustLocal))
		case "board":
			log.Info(reconciler.Resolve(reconcile.TrustRemote))
		default:
			log.Error("usage: trust local|board")
		}

	case "rename":
		if len(fields) < 2 {
			log.Error("usage: rename <nickname>")
			return false
		}
		nickname := strings.Join(fields[1:], " ")
		if err := session.UpdateBoardSettings(&nickname, nil); err != nil {
			log.WithError(err).Error("rename failed")
		}

	case "status":
		log.Infof("link: %s", sup.State())
		if tile, waiting := session.AwaitedTile(); waiting {
			log.Infof("waiting for coin on tile %d", tile)
		}
		for id, st := range mirror.Snapshot() {
			log.Infof("player %d: tile %d, score %d", id, st.Position, st.Score)
		}

	case "quit", "exit":
		return true

	default:
		log.Errorf("unknown command %q (start, roll, undo, reset, retry, trust, rename, status, quit)", fields[0])
	}
	return false
}
