package game

import "time"

// SubmitCard records a player's answer for the active round. Human input,
// bot picks and the timeout sweep all go through here so the same rules
// apply: the submitted card leaves the player's hand, one replacement card
// is drawn from the shared white pool (skipped when the pool is empty), and
// the round moves to judging once every non-judge player has submitted.
func SubmitCard(g *Game, playerID, card string, now time.Time) error {
	if card == "" {
		return ErrEmptyCard
	}

	r := g.ActiveRound()
	if r == nil {
		return ErrNoActiveRound
	}
	if r.Phase != PhaseSubmission {
		return ErrSubmissionsClosed
	}

	p := g.Player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if playerID == r.JudgeID {
		return ErrNotYourTurnToSubmit
	}
	if r.HasSubmitted(playerID) {
		return ErrAlreadySubmitted
	}
	if !p.HasCard(card) {
		return ErrCardNotInHand
	}

	// Remove the card, keeping the rest of the hand in order, and append
	// the replacement at the end.
	hand := make([]string, 0, len(p.Hand))
	removed := false
	for _, c := range p.Hand {
		if !removed && c == card {
			removed = true
			continue
		}
		hand = append(hand, c)
	}
	if replacement, ok := DrawOne(&g.WhiteCards); ok {
		hand = append(hand, replacement)
	}
	p.Hand = hand

	r.Submissions = append(r.Submissions, Submission{PlayerID: playerID, Card: card})
	maybeStartJudging(g, r)
	return nil
}

// maybeStartJudging fires the submission -> judging transition once all
// non-judge players have submitted. The guard makes re-entrant calls no-ops.
func maybeStartJudging(g *Game, r *Round) {
	if r.GuardSet(GuardJudgingStarted) {
		return
	}
	required := 0
	for _, p := range g.Players {
		if p.ID != r.JudgeID {
			required++
		}
	}
	if len(r.Submissions) >= required {
		r.SetGuard(GuardJudgingStarted)
		r.Phase = PhaseJudging
	}
}

// ForceJudging moves an expired submission round to judging regardless of
// how many submissions arrived. Used by the timeout sweep after players
// with empty hands were skipped; the round may reach judging with zero
// submissions, which SelectWinner reports as ErrNoValidSubmissions.
func ForceJudging(g *Game, r *Round) bool {
	if r.Phase != PhaseSubmission || r.GuardSet(GuardJudgingStarted) {
		return false
	}
	r.SetGuard(GuardJudgingStarted)
	r.Phase = PhaseJudging
	return true
}

// SelectWinner closes the active round: the winner's score goes up by one,
// the round completes, and the game either ends or a new round begins.
func SelectWinner(g *Game, winnerID string, now time.Time) error {
	r := g.ActiveRound()
	if r == nil {
		return ErrNoActiveRound
	}
	if r.Phase != PhaseJudging {
		return ErrNotJudgingPhase
	}
	if len(r.Submissions) == 0 {
		return ErrNoValidSubmissions
	}

	sub, ok := r.SubmissionFor(winnerID)
	if !ok {
		return ErrUnknownSubmitter
	}

	winner := g.Player(winnerID)
	if winner == nil {
		return ErrUnknownPlayer
	}

	winner.Score++
	r.Phase = PhaseComplete
	r.WinnerID = winnerID
	r.WinningCard = sub.Card

	advanceAfterRound(g, winnerID, now)
	return nil
}
