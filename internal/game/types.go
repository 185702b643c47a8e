package game

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the overall state of a game
type Status string

const (
	StatusLobby      Status = "lobby"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Phase represents the state of a single round
type Phase string

const (
	PhaseSubmission Phase = "submission"
	PhaseJudging    Phase = "judging"
	PhaseComplete   Phase = "complete"
)

// Guard is an idempotency flag recorded on a round. Once set, a guard is
// never cleared for the lifetime of the round.
type Guard string

const (
	// GuardJudgingStarted marks that the submission -> judging transition
	// has fired, so re-entrant calls must not fire its side effects again.
	GuardJudgingStarted Guard = "judging_started"
	// GuardBotsSubmitted marks that every bot in the round has a recorded
	// submission.
	GuardBotsSubmitted Guard = "bots_submitted"
)

const (
	// HandSize is the target number of white cards in a player's hand.
	HandSize = 10

	// MinPlayers is the minimum number of players required to start.
	MinPlayers = 3

	// MaxPlayers is the table limit, bots included.
	MaxPlayers = 8
)

// Player is a participant in a game, human or bot.
type Player struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	IsHost bool     `json:"isHost"`
	Score  int      `json:"score"`
	Hand   []string `json:"hand"`
	IsBot  bool     `json:"isBot,omitempty"`
}

// NewPlayer creates a human player with a fresh id.
func NewPlayer(name string, isHost bool) *Player {
	return &Player{
		ID:     uuid.NewString(),
		Name:   name,
		IsHost: isHost,
		Hand:   []string{},
	}
}

// NewBot creates a bot player with a fresh id.
func NewBot(name string) *Player {
	return &Player{
		ID:    uuid.NewString(),
		Name:  name,
		Hand:  []string{},
		IsBot: true,
	}
}

// HasCard reports whether the player currently holds the given card text.
func (p *Player) HasCard(card string) bool {
	for _, c := range p.Hand {
		if c == card {
			return true
		}
	}
	return false
}

// Submission records one player's answer card for a round.
type Submission struct {
	PlayerID string `json:"playerId"`
	Card     string `json:"card"`
}

// Round is one cycle of the game: a black card, submissions from every
// non-judge player, and a winner picked by the judge.
type Round struct {
	Number             int          `json:"number"`
	StartTime          time.Time    `json:"startTime"`
	SubmissionDeadline time.Time    `json:"submissionDeadline"`
	BlackCard          string       `json:"blackCard"`
	JudgeID            string       `json:"judgeId"`
	Submissions        []Submission `json:"submissions"`
	Phase              Phase        `json:"phase"`
	WinnerID           string       `json:"winnerId,omitempty"`
	WinningCard        string       `json:"winningCard,omitempty"`
	Guards             []Guard      `json:"guards,omitempty"`
}

// GuardSet reports whether the guard has been recorded on this round.
func (r *Round) GuardSet(g Guard) bool {
	for _, have := range r.Guards {
		if have == g {
			return true
		}
	}
	return false
}

// SetGuard records an idempotency guard. Setting an already-set guard is a
// no-op.
func (r *Round) SetGuard(g Guard) {
	if !r.GuardSet(g) {
		r.Guards = append(r.Guards, g)
	}
}

// HasSubmitted reports whether the player has a submission this round.
func (r *Round) HasSubmitted(playerID string) bool {
	_, ok := r.SubmissionFor(playerID)
	return ok
}

// SubmissionFor returns the player's submission for this round, if any.
func (r *Round) SubmissionFor(playerID string) (Submission, bool) {
	for _, s := range r.Submissions {
		if s.PlayerID == playerID {
			return s, true
		}
	}
	return Submission{}, false
}

// Game is the root document for one game, persisted whole after every
// mutation.
type Game struct {
	Code                string    `json:"code"`
	Players             []*Player `json:"players"`
	CurrentRound        int       `json:"currentRound"`
	Rounds              []*Round  `json:"rounds"`
	BlackCards          []string  `json:"blackCards"`
	WhiteCards          []string  `json:"whiteCards"`
	Status              Status    `json:"status"`
	MaxRounds           int       `json:"maxRounds"`
	WinnerScoreThresh   int       `json:"winnerScoreThreshold"`
	SubmissionTimeLimit int       `json:"submissionTimeLimitSeconds"`
	Theme               string    `json:"theme"`
	Provider            string    `json:"provider"`
	Model               string    `json:"model"`
}

// ActiveRound returns the round pointed at by CurrentRound, or nil before
// the game has started.
func (g *Game) ActiveRound() *Round {
	if g.CurrentRound < 0 || g.CurrentRound >= len(g.Rounds) {
		return nil
	}
	return g.Rounds[g.CurrentRound]
}

// Player returns the player with the given id, or nil.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host returns the current host, or nil for an empty game.
func (g *Game) Host() *Player {
	for _, p := range g.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// Bots returns the bot players in join order.
func (g *Game) Bots() []*Player {
	var bots []*Player
	for _, p := range g.Players {
		if p.IsBot {
			bots = append(bots, p)
		}
	}
	return bots
}
