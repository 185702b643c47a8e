package game

import (
	"math/rand"
	"time"
)

// FallbackBlackCard is played when the black card pool runs out. Running
// out of prompts never ends a game.
const FallbackBlackCard = "Default black card"

// Settings are the host-editable knobs of a game. Edits are only legal
// while the game sits in the lobby.
type Settings struct {
	MaxRounds           int    `json:"maxRounds"`
	WinnerScoreThresh   int    `json:"winnerScoreThreshold"`
	SubmissionTimeLimit int    `json:"submissionTimeLimitSeconds"`
	Theme               string `json:"theme"`
	Provider            string `json:"provider"`
	Model               string `json:"model"`
}

// DefaultSettings mirror the lobby defaults players see before the host
// touches anything.
func DefaultSettings() Settings {
	return Settings{
		MaxRounds:           10,
		WinnerScoreThresh:   3,
		SubmissionTimeLimit: 60,
		Theme:               "Random",
		Provider:            "groq",
		Model:               "llama-3.1-8b-instant",
	}
}

// NewGame creates a lobby-status game with the given host as its only
// player.
func NewGame(code string, host *Player, s Settings) *Game {
	host.IsHost = true
	return &Game{
		Code:                code,
		Players:             []*Player{host},
		Rounds:              []*Round{},
		BlackCards:          []string{},
		WhiteCards:          []string{},
		Status:              StatusLobby,
		MaxRounds:           s.MaxRounds,
		WinnerScoreThresh:   s.WinnerScoreThresh,
		SubmissionTimeLimit: s.SubmissionTimeLimit,
		Theme:               s.Theme,
		Provider:            s.Provider,
		Model:               s.Model,
	}
}

// AddPlayer joins a player to a lobby. Join order is preserved; the first
// slice position is the oldest member.
func AddPlayer(g *Game, p *Player) error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if g.Status != StatusLobby {
		return ErrGameNotInLobby
	}
	if len(g.Players) >= MaxPlayers {
		return ErrGameFull
	}
	if g.Player(p.ID) != nil {
		return ErrPlayerAlreadyJoined
	}
	g.Players = append(g.Players, p)
	return nil
}

// RemovePlayer drops a player from the lobby. Removal is only legal before
// the game starts; once cards are dealt the roster is fixed. If the host
// leaves, the oldest remaining player inherits the host role so the game
// always has exactly one host.
func RemovePlayer(g *Game, playerID string) error {
	if g.Status != StatusLobby {
		return ErrGameNotInLobby
	}
	p := g.Player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	wasHost := p.IsHost
	players := make([]*Player, 0, len(g.Players)-1)
	for _, existing := range g.Players {
		if existing.ID != playerID {
			players = append(players, existing)
		}
	}
	g.Players = players
	if wasHost && len(g.Players) > 0 {
		g.Players[0].IsHost = true
	}
	return nil
}

// ApplySettings updates the host-editable configuration. Zero values leave
// the current setting untouched.
func ApplySettings(g *Game, s Settings) error {
	if g.Status != StatusLobby {
		return ErrGameNotInLobby
	}
	if s.MaxRounds > 0 {
		g.MaxRounds = s.MaxRounds
	}
	if s.WinnerScoreThresh > 0 {
		g.WinnerScoreThresh = s.WinnerScoreThresh
	}
	if s.SubmissionTimeLimit > 0 {
		g.SubmissionTimeLimit = s.SubmissionTimeLimit
	}
	if s.Theme != "" {
		g.Theme = s.Theme
	}
	if s.Provider != "" {
		g.Provider = s.Provider
	}
	if s.Model != "" {
		g.Model = s.Model
	}
	return nil
}

// Start moves a lobby into play: the generated decks are installed, every
// player is dealt a full hand, a random player judges round one, and the
// submission clock starts.
func Start(g *Game, blackCards, whiteCards []string, rng *rand.Rand, now time.Time) error {
	if g.Status == StatusInProgress {
		return ErrGameNotInLobby
	}
	if g.Status == StatusCompleted {
		return ErrGameCompleted
	}
	if len(g.Players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.BlackCards = blackCards
	g.WhiteCards = whiteCards
	for _, p := range g.Players {
		p.Hand = []string{}
	}
	DealToFullHands(g.Players, &g.WhiteCards, HandSize)

	judge := g.Players[rng.Intn(len(g.Players))]
	g.Status = StatusInProgress
	g.CurrentRound = 0
	g.Rounds = []*Round{newRound(g, 1, judge.ID, now)}
	return nil
}

// advanceAfterRound runs after SelectWinner completes a round. Three-way
// decision: score victory, round-limit exhaustion, or a fresh round judged
// by the previous winner.
func advanceAfterRound(g *Game, winnerID string, now time.Time) {
	if winner := g.Player(winnerID); winner != nil && winner.Score >= g.WinnerScoreThresh {
		g.Status = StatusCompleted
		return
	}
	if g.CurrentRound+1 >= g.MaxRounds {
		g.Status = StatusCompleted
		return
	}
	startNextRound(g, winnerID, now)
}

// SkipRound abandons a judging round that ended up with zero submissions
// (every eligible player had an empty hand by the deadline). Nobody scores;
// the same judge gets a fresh round so the game keeps moving.
func SkipRound(g *Game, now time.Time) error {
	r := g.ActiveRound()
	if r == nil {
		return ErrNoActiveRound
	}
	if r.Phase != PhaseJudging {
		return ErrNotJudgingPhase
	}
	if len(r.Submissions) > 0 {
		return ErrNotJudgingPhase
	}
	r.Phase = PhaseComplete
	if g.CurrentRound+1 >= g.MaxRounds {
		g.Status = StatusCompleted
		return nil
	}
	startNextRound(g, r.JudgeID, now)
	return nil
}

func startNextRound(g *Game, judgeID string, now time.Time) {
	DealToFullHands(g.Players, &g.WhiteCards, HandSize)
	next := newRound(g, len(g.Rounds)+1, judgeID, now)
	g.Rounds = append(g.Rounds, next)
	g.CurrentRound = len(g.Rounds) - 1
}

func newRound(g *Game, number int, judgeID string, now time.Time) *Round {
	blackCard, ok := DrawOne(&g.BlackCards)
	if !ok {
		blackCard = FallbackBlackCard
	}
	return &Round{
		Number:             number,
		StartTime:          now,
		SubmissionDeadline: now.Add(time.Duration(g.SubmissionTimeLimit) * time.Second),
		BlackCard:          blackCard,
		JudgeID:            judgeID,
		Submissions:        []Submission{},
		Phase:              PhaseSubmission,
	}
}

// Leader returns the highest-scoring player, preferring earlier joiners on
// ties. Nil for an empty game.
func Leader(g *Game) *Player {
	var best *Player
	for _, p := range g.Players {
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	return best
}
