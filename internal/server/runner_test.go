package server

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardsforbots/internal/game"
)

// seedGame stores an in-progress game with one human host and two bots,
// judged by the player at judgeIdx, then lets mutate adjust it before the
// document is created.
func seedGame(t *testing.T, s *Server, judgeIdx int, mutate func(*game.Game)) *game.Game {
	t.Helper()

	host := game.NewPlayer("Alice", true)
	g := game.NewGame("RUN042", host, s.defaults)
	require.NoError(t, game.AddPlayer(g, game.NewBot("Ada")))
	require.NoError(t, game.AddPlayer(g, game.NewBot("Brutus")))

	blacks := make([]string, 15)
	for i := range blacks {
		blacks[i] = fmt.Sprintf("black-%d ____", i)
	}
	whites := make([]string, 3*game.HandSize+40)
	for i := range whites {
		whites[i] = fmt.Sprintf("white-%d", i)
	}
	now := s.clock.Now()
	require.NoError(t, game.Start(g, blacks, whites, rand.New(rand.NewSource(1)), now))
	g.ActiveRound().JudgeID = g.Players[judgeIdx].ID

	if mutate != nil {
		mutate(g)
	}
	require.NoError(t, s.store.Create(context.Background(), g))
	return g
}

func tickOnce(t *testing.T, s *Server, code string) bool {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	supervisor := game.NewTimeoutSupervisor(logger, rand.New(rand.NewSource(1)))
	bots := game.NewBotOrchestrator(logger, s.picker)

	done, err := s.tick(context.Background(), code, supervisor, bots)
	require.NoError(t, err)
	return done
}

func TestTickBotSubmissions(t *testing.T) {
	s, _ := newTestServer(t, nil)
	g := seedGame(t, s, 0, nil) // human judge, two bot submitters

	done := tickOnce(t, s, g.Code)
	assert.False(t, done)

	stored, _, err := s.store.Load(context.Background(), g.Code)
	require.NoError(t, err)
	r := stored.ActiveRound()
	assert.Len(t, r.Submissions, 2)
	assert.Equal(t, game.PhaseJudging, r.Phase, "all non-judges in, so judging starts")
	assert.True(t, r.GuardSet(game.GuardBotsSubmitted))

	// A second tick is a no-op; the provider answering "1" is an index into
	// the bot's hand, so an accidental resubmission would be visible.
	tickOnce(t, s, g.Code)
	stored, _, err = s.store.Load(context.Background(), g.Code)
	require.NoError(t, err)
	assert.Len(t, stored.ActiveRound().Submissions, 2)
}

func TestTickBotJudge(t *testing.T) {
	s, _ := newTestServer(t, nil)
	var first string
	g := seedGame(t, s, 1, func(g *game.Game) {
		// Round already judged-ready: both non-judges have submitted
		r := g.ActiveRound()
		for _, p := range g.Players {
			if p.ID == r.JudgeID {
				continue
			}
			require.NoError(t, game.SubmitCard(g, p.ID, p.Hand[0], s.clock.Now()))
		}
		require.Equal(t, game.PhaseJudging, r.Phase)
		first = r.Submissions[0].PlayerID
	})

	done := tickOnce(t, s, g.Code)
	assert.False(t, done)

	stored, _, err := s.store.Load(context.Background(), g.Code)
	require.NoError(t, err)

	// The provider answers "1", so the first submission wins
	assert.Equal(t, 1, stored.Player(first).Score)
	assert.Equal(t, first, stored.Rounds[0].WinnerID)
	require.Len(t, stored.Rounds, 2)
	assert.Equal(t, first, stored.ActiveRound().JudgeID)
}

func TestTickTimeoutSweep(t *testing.T) {
	s, _ := newTestServer(t, nil)
	g := seedGame(t, s, 0, func(g *game.Game) {
		g.ActiveRound().SubmissionDeadline = s.clock.Now().Add(-time.Second)
	})

	done := tickOnce(t, s, g.Code)
	assert.False(t, done)

	stored, _, err := s.store.Load(context.Background(), g.Code)
	require.NoError(t, err)
	r := stored.ActiveRound()
	assert.Len(t, r.Submissions, 2, "stalled players get a random card auto-submitted")
	assert.Equal(t, game.PhaseJudging, r.Phase)
}

func TestTickSkipsUnjudgeableRound(t *testing.T) {
	s, _ := newTestServer(t, nil)
	g := seedGame(t, s, 0, func(g *game.Game) {
		// Deadline passed and nobody can play
		r := g.ActiveRound()
		r.SubmissionDeadline = s.clock.Now().Add(-time.Second)
		for _, p := range g.Players {
			p.Hand = []string{}
		}
	})
	judgeID := g.ActiveRound().JudgeID

	done := tickOnce(t, s, g.Code)
	assert.False(t, done)

	stored, _, err := s.store.Load(context.Background(), g.Code)
	require.NoError(t, err)
	require.Len(t, stored.Rounds, 2, "the empty round is skipped, not judged")
	assert.Equal(t, game.PhaseComplete, stored.Rounds[0].Phase)
	assert.Empty(t, stored.Rounds[0].WinnerID)
	assert.Equal(t, judgeID, stored.ActiveRound().JudgeID, "the same judge tries again")
	for _, p := range stored.Players {
		assert.Zero(t, p.Score)
	}
}

func TestTickCompletedGame(t *testing.T) {
	s, _ := newTestServer(t, nil)
	g := seedGame(t, s, 0, func(g *game.Game) {
		g.Status = game.StatusCompleted
	})

	done := tickOnce(t, s, g.Code)
	assert.True(t, done)
}

func TestTickLobbyGame(t *testing.T) {
	s, _ := newTestServer(t, nil)
	host := game.NewPlayer("Alice", true)
	g := game.NewGame("LOBBY1", host, s.defaults)
	require.NoError(t, s.store.Create(context.Background(), g))

	done := tickOnce(t, s, g.Code)
	assert.False(t, done)

	stored, v, err := s.store.Load(context.Background(), g.Code)
	require.NoError(t, err)
	assert.Equal(t, game.StatusLobby, stored.Status)
	assert.EqualValues(t, 1, v, "a lobby tick must not write")
}
