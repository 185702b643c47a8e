package server

import (
	"context"
	"errors"

	"github.com/lox/cardsforbots/internal/game"
	"github.com/lox/cardsforbots/internal/randutil"
	"github.com/lox/cardsforbots/internal/store"
)

// runGame is the tick loop for one game. Each tick reads the latest
// snapshot, gives the timeout supervisor and the bot orchestrator a chance
// to act, and persists whatever changed. Every mutation goes through
// store.Update, which re-validates preconditions against a freshly loaded
// snapshot, so racing with player handlers or another server is safe. The
// loop exits when the game completes or disappears from the store.
func (s *Server) runGame(ctx context.Context, code string) {
	logger := s.logger.WithPrefix("runner").With("game", code)
	logger.Info("game runner started")

	supervisor := game.NewTimeoutSupervisor(s.logger, randutil.NewFromTime())
	bots := game.NewBotOrchestrator(s.logger, s.picker)

	ticker := s.clock.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("game runner stopped")
			return
		case <-ticker.C:
			done, err := s.tick(ctx, code, supervisor, bots)
			if errors.Is(err, store.ErrNotFound) {
				logger.Info("game gone from store, abandoning")
				s.stopRunner(code)
				return
			}
			if err != nil {
				logger.Error("tick failed", "error", err)
				continue
			}
			if done {
				logger.Info("game complete, runner exiting")
				s.stopRunner(code)
				return
			}
		}
	}
}

// tick runs one pass of the clock-and-bot machinery for a game. Returns
// done=true when the game has completed.
func (s *Server) tick(ctx context.Context, code string, supervisor *game.TimeoutSupervisor, bots *game.BotOrchestrator) (bool, error) {
	snapshot, _, err := s.store.Load(ctx, code)
	if err != nil {
		return false, err
	}
	switch snapshot.Status {
	case game.StatusCompleted:
		return true, nil
	case game.StatusLobby:
		return false, nil
	}

	anyChange := false

	// Deadline sweep first so stalled humans don't hold up bot judging.
	snapshot, err = s.applyTickStep(ctx, code, &anyChange, func(g *game.Game) bool {
		return supervisor.Sweep(g, s.clock.Now())
	})
	if err != nil {
		return false, err
	}

	// Bot submissions: decisions are computed against the snapshot (oracle
	// calls happen here, outside any update), then applied against fresh
	// state where the preconditions re-run. The apply pass also records the
	// bots-submitted guard when every bot is in.
	picks := bots.DecideSubmissions(ctx, snapshot)
	snapshot, err = s.applyTickStep(ctx, code, &anyChange, func(g *game.Game) bool {
		return bots.ApplySubmissions(g, picks, s.clock.Now())
	})
	if err != nil {
		return false, err
	}

	// Bot judging.
	if winnerID, ok := bots.DecideWinner(ctx, snapshot); ok {
		snapshot, err = s.applyTickStep(ctx, code, &anyChange, func(g *game.Game) bool {
			err := game.SelectWinner(g, winnerID, s.clock.Now())
			if err != nil {
				// Lost the race to a human judge or another server.
				return false
			}
			return true
		})
		if err != nil {
			return false, err
		}
	}

	// A judging round with no submissions can never be judged; skip it so
	// the game keeps moving.
	if r := snapshot.ActiveRound(); r != nil && r.Phase == game.PhaseJudging && len(r.Submissions) == 0 {
		s.logger.Warn("no valid submissions, skipping round", "game", code, "round", r.Number)
		snapshot, err = s.applyTickStep(ctx, code, &anyChange, func(g *game.Game) bool {
			return game.SkipRound(g, s.clock.Now()) == nil
		})
		if err != nil {
			return false, err
		}
	}

	if anyChange {
		s.broadcast(code, snapshot)
	}
	return snapshot.Status == game.StatusCompleted, nil
}

// applyTickStep runs one mutation attempt through the store's optimistic
// retry loop. step reports whether it changed the snapshot it was handed;
// unchanged attempts skip the write.
func (s *Server) applyTickStep(ctx context.Context, code string, anyChange *bool, step func(*game.Game) bool) (*game.Game, error) {
	changed := false
	g, err := s.store.Update(ctx, code, func(g *game.Game) error {
		changed = step(g)
		if !changed {
			return store.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		*anyChange = true
	}
	return g, nil
}
