package game

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// PickRequest asks an oracle to choose one option on behalf of a named
// actor. Judging flips the social framing of the prompt, not the mechanics.
type PickRequest struct {
	Actor     string
	BlackCard string
	Options   []string
	Judging   bool
	Provider  string
	Model     string
}

// Picker produces one chosen option for a request. Implementations own
// their retry policy; a returned error means the actor makes no decision
// this tick and the caller degrades gracefully.
type Picker interface {
	Pick(ctx context.Context, req PickRequest) (string, error)
}

// BotPick is a decided-but-not-yet-applied bot submission.
type BotPick struct {
	PlayerID string
	Card     string
}

// BotOrchestrator drives oracle-backed submissions and judging for bot
// players. Decisions are computed against a loaded snapshot; applying them
// re-runs the state machine preconditions, so a decision that lost a race
// (the round advanced, the bot already submitted) is dropped harmlessly.
type BotOrchestrator struct {
	logger *log.Logger
	picker Picker
}

// NewBotOrchestrator creates an orchestrator backed by the given picker.
func NewBotOrchestrator(logger *log.Logger, picker Picker) *BotOrchestrator {
	return &BotOrchestrator{
		logger: logger.WithPrefix("bots"),
		picker: picker,
	}
}

// DecideSubmissions asks the oracle for a card pick for every bot that is
// not the judge and has not submitted in the active round. Bots whose
// oracle calls fail are skipped this tick; the next tick retries them and
// the timeout sweep ultimately covers them. Reading an already-advanced
// snapshot yields no picks, which keeps the sweep idempotent.
func (o *BotOrchestrator) DecideSubmissions(ctx context.Context, g *Game) []BotPick {
	r := g.ActiveRound()
	if r == nil || r.Phase != PhaseSubmission {
		return nil
	}

	var picks []BotPick
	for _, bot := range g.Bots() {
		if bot.ID == r.JudgeID || r.HasSubmitted(bot.ID) {
			continue
		}
		if len(bot.Hand) == 0 {
			continue
		}
		card, err := o.picker.Pick(ctx, PickRequest{
			Actor:     bot.Name,
			BlackCard: r.BlackCard,
			Options:   bot.Hand,
			Provider:  g.Provider,
			Model:     g.Model,
		})
		if err != nil {
			o.logger.Warn("bot made no submission this tick",
				"game", g.Code, "bot", bot.Name, "error", err)
			continue
		}
		// The oracle echoes option text back; make sure it still names a
		// card the bot actually holds before trusting it.
		if !bot.HasCard(card) {
			o.logger.Warn("oracle picked a card outside the bot's hand",
				"game", g.Code, "bot", bot.Name, "card", card)
			continue
		}
		picks = append(picks, BotPick{PlayerID: bot.ID, Card: card})
	}
	return picks
}

// ApplySubmissions plays decided picks through SubmitCard against the given
// snapshot. Precondition failures are races against other writers and are
// dropped. Returns true when the game changed.
func (o *BotOrchestrator) ApplySubmissions(g *Game, picks []BotPick, now time.Time) bool {
	changed := false
	for _, pick := range picks {
		if err := SubmitCard(g, pick.PlayerID, pick.Card, now); err != nil {
			if IsPrecondition(err) {
				continue
			}
			o.logger.Error("bot submission rejected",
				"game", g.Code, "player", pick.PlayerID, "error", err)
			continue
		}
		changed = true
	}
	if o.markBotsSubmitted(g) {
		changed = true
	}
	return changed
}

// markBotsSubmitted sets the bots_submitted guard once every bot in the
// active round has a submission recorded (or judges).
func (o *BotOrchestrator) markBotsSubmitted(g *Game) bool {
	r := g.ActiveRound()
	if r == nil || r.GuardSet(GuardBotsSubmitted) {
		return false
	}
	for _, bot := range g.Bots() {
		if bot.ID != r.JudgeID && !r.HasSubmitted(bot.ID) {
			return false
		}
	}
	r.SetGuard(GuardBotsSubmitted)
	return true
}

// DecideWinner asks a bot judge to pick the winning submission. It returns
// ok=false when there is nothing to do this tick: the judge is human, the
// round is not in judging, there are no submissions, or the oracle gave no
// usable answer. The returned text must match exactly one submission;
// anything ambiguous fails closed and is retried next tick.
func (o *BotOrchestrator) DecideWinner(ctx context.Context, g *Game) (string, bool) {
	r := g.ActiveRound()
	if r == nil || r.Phase != PhaseJudging {
		return "", false
	}
	judge := g.Player(r.JudgeID)
	if judge == nil || !judge.IsBot {
		return "", false
	}
	if len(r.Submissions) == 0 {
		return "", false
	}

	options := make([]string, len(r.Submissions))
	for i, s := range r.Submissions {
		options[i] = s.Card
	}
	card, err := o.picker.Pick(ctx, PickRequest{
		Actor:     judge.Name,
		BlackCard: r.BlackCard,
		Options:   options,
		Judging:   true,
		Provider:  g.Provider,
		Model:     g.Model,
	})
	if err != nil {
		o.logger.Warn("bot judge made no decision this tick",
			"game", g.Code, "judge", judge.Name, "error", err)
		return "", false
	}

	winnerID := ""
	matches := 0
	for _, s := range r.Submissions {
		if s.Card == card {
			winnerID = s.PlayerID
			matches++
		}
	}
	if matches != 1 {
		o.logger.Warn("bot judge pick did not match exactly one submission",
			"game", g.Code, "judge", judge.Name, "card", card, "matches", matches)
		return "", false
	}
	return winnerID, true
}
