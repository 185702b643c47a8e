package game

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
)

// TimeoutSupervisor forces a stalled submission phase forward once the
// round deadline passes. It only ever moves a round toward judging and
// never tightens a deadline, so a round cannot stall indefinitely on an
// idle human.
type TimeoutSupervisor struct {
	logger *log.Logger
	rng    *rand.Rand
}

// NewTimeoutSupervisor creates a supervisor. The rng picks the auto-played
// card for each stalled player.
func NewTimeoutSupervisor(logger *log.Logger, rng *rand.Rand) *TimeoutSupervisor {
	return &TimeoutSupervisor{
		logger: logger.WithPrefix("timeout"),
		rng:    rng,
	}
}

// Sweep auto-submits a random hand card for every non-judge player who has
// not submitted by the deadline, going through SubmitCard so replenishment
// and the judging transition behave exactly as they do for live players.
// Players with empty hands are skipped with a warning; if any were skipped
// the round is forced into judging anyway, possibly with zero submissions.
// Returns true when the sweep changed the game.
func (s *TimeoutSupervisor) Sweep(g *Game, now time.Time) bool {
	r := g.ActiveRound()
	if r == nil || r.Phase != PhaseSubmission {
		return false
	}
	if now.Before(r.SubmissionDeadline) {
		return false
	}

	changed := false
	for _, p := range g.Players {
		if p.ID == r.JudgeID || r.HasSubmitted(p.ID) {
			continue
		}
		if len(p.Hand) == 0 {
			s.logger.Warn("player has no cards to auto-submit",
				"game", g.Code, "player", p.Name, "round", r.Number)
			continue
		}
		card := p.Hand[s.rng.Intn(len(p.Hand))]
		if err := SubmitCard(g, p.ID, card, now); err != nil {
			s.logger.Error("auto-submit failed",
				"game", g.Code, "player", p.Name, "error", err)
			continue
		}
		s.logger.Info("auto-submitted card for stalled player",
			"game", g.Code, "player", p.Name, "round", r.Number)
		changed = true
	}

	// Empty-hand players can leave the round short of submissions forever;
	// push it into judging so the game keeps moving.
	if r.Phase == PhaseSubmission {
		if ForceJudging(g, r) {
			changed = true
		}
	}
	return changed
}
