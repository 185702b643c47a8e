package game

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func TestNewGame(t *testing.T) {
	host := NewPlayer("Alice", false)
	g := NewGame("ABC123", host, DefaultSettings())

	if g.Status != StatusLobby {
		t.Errorf("Expected lobby status, got %s", g.Status)
	}
	if !host.IsHost {
		t.Error("Expected creator to be host")
	}
	if g.Host() != host {
		t.Error("Expected Host() to return the creator")
	}
	if g.MaxRounds != 10 || g.WinnerScoreThresh != 3 || g.SubmissionTimeLimit != 60 {
		t.Errorf("Unexpected defaults: %+v", g)
	}
	if g.ActiveRound() != nil {
		t.Error("Expected no active round before start")
	}
}

func TestAddPlayer(t *testing.T) {
	g := NewGame("ABC123", NewPlayer("Alice", true), DefaultSettings())

	if err := AddPlayer(g, NewPlayer("Bob", false)); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if len(g.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(g.Players))
	}

	if err := AddPlayer(g, NewPlayer("", false)); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}

	bob := g.Players[1]
	if err := AddPlayer(g, bob); !errors.Is(err, ErrPlayerAlreadyJoined) {
		t.Errorf("Expected ErrPlayerAlreadyJoined, got %v", err)
	}
}

func TestAddPlayerFullGame(t *testing.T) {
	g := NewGame("ABC123", NewPlayer("P1", true), DefaultSettings())
	for i := 2; i <= MaxPlayers; i++ {
		if err := AddPlayer(g, NewPlayer(fmt.Sprintf("P%d", i), false)); err != nil {
			t.Fatalf("AddPlayer: %v", err)
		}
	}

	if err := AddPlayer(g, NewPlayer("Overflow", false)); !errors.Is(err, ErrGameFull) {
		t.Errorf("Expected ErrGameFull, got %v", err)
	}
}

func TestAddPlayerAfterStart(t *testing.T) {
	g := startedGame(t, 3)

	if err := AddPlayer(g, NewPlayer("Late", false)); !errors.Is(err, ErrGameNotInLobby) {
		t.Errorf("Expected ErrGameNotInLobby, got %v", err)
	}
}

func TestRemovePlayerPromotesHost(t *testing.T) {
	host := NewPlayer("Alice", true)
	g := NewGame("ABC123", host, DefaultSettings())
	bob := NewPlayer("Bob", false)
	carol := NewPlayer("Carol", false)
	if err := AddPlayer(g, bob); err != nil {
		t.Fatal(err)
	}
	if err := AddPlayer(g, carol); err != nil {
		t.Fatal(err)
	}

	if err := RemovePlayer(g, host.ID); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}

	// Oldest remaining player inherits the host role
	if g.Host() != bob {
		t.Error("Expected Bob to become host")
	}
	if len(g.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(g.Players))
	}

	if err := RemovePlayer(g, "nobody"); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("Expected ErrUnknownPlayer, got %v", err)
	}
}

func TestRemovePlayerAfterStart(t *testing.T) {
	g := startedGame(t, 3)
	judgeID := g.ActiveRound().JudgeID

	if err := RemovePlayer(g, judgeID); !errors.Is(err, ErrGameNotInLobby) {
		t.Fatalf("Expected ErrGameNotInLobby, got %v", err)
	}
	if len(g.Players) != 3 {
		t.Errorf("Expected roster untouched, got %d players", len(g.Players))
	}
	if g.Player(judgeID) == nil {
		t.Error("Judge should still be in the game")
	}
}

func TestApplySettings(t *testing.T) {
	g := NewGame("ABC123", NewPlayer("Alice", true), DefaultSettings())

	err := ApplySettings(g, Settings{MaxRounds: 5, Theme: "Space"})
	if err != nil {
		t.Fatalf("ApplySettings: %v", err)
	}

	if g.MaxRounds != 5 {
		t.Errorf("Expected 5 rounds, got %d", g.MaxRounds)
	}
	if g.Theme != "Space" {
		t.Errorf("Expected Space theme, got %s", g.Theme)
	}
	// Zero values leave settings untouched
	if g.WinnerScoreThresh != 3 || g.SubmissionTimeLimit != 60 {
		t.Errorf("Untouched settings changed: %+v", g)
	}
	if g.Provider != "groq" || g.Model != "llama-3.1-8b-instant" {
		t.Errorf("Untouched provider settings changed: %s/%s", g.Provider, g.Model)
	}
}

func TestApplySettingsAfterStart(t *testing.T) {
	g := startedGame(t, 3)

	if err := ApplySettings(g, Settings{MaxRounds: 5}); !errors.Is(err, ErrGameNotInLobby) {
		t.Errorf("Expected ErrGameNotInLobby, got %v", err)
	}
}

func TestStartRequiresEnoughPlayers(t *testing.T) {
	g := NewGame("ABC123", NewPlayer("Alice", true), DefaultSettings())
	if err := AddPlayer(g, NewPlayer("Bob", false)); err != nil {
		t.Fatal(err)
	}

	err := Start(g, []string{"b"}, []string{"w"}, rand.New(rand.NewSource(1)), testNow)
	if !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("Expected ErrNotEnoughPlayers, got %v", err)
	}
	if g.Status != StatusLobby {
		t.Errorf("Failed start must not change status, got %s", g.Status)
	}
}

func TestStartDealsFullHands(t *testing.T) {
	g := startedGame(t, 4)

	for _, p := range g.Players {
		if len(p.Hand) != HandSize {
			t.Errorf("Expected %s to hold %d cards, got %d", p.Name, HandSize, len(p.Hand))
		}
	}

	r := g.ActiveRound()
	if r == nil || r.Number != 1 {
		t.Fatalf("Expected round 1 active, got %+v", r)
	}
	if r.Phase != PhaseSubmission {
		t.Errorf("Expected submission phase, got %s", r.Phase)
	}
	if g.Player(r.JudgeID) == nil {
		t.Error("Expected the judge to be a seated player")
	}
	if r.BlackCard == "" {
		t.Error("Expected a black card to be drawn")
	}
}

func TestStartTwiceRejected(t *testing.T) {
	g := startedGame(t, 3)

	err := Start(g, []string{"b"}, []string{"w"}, rand.New(rand.NewSource(1)), testNow)
	if !errors.Is(err, ErrGameNotInLobby) {
		t.Errorf("Expected ErrGameNotInLobby, got %v", err)
	}

	g.Status = StatusCompleted
	err = Start(g, []string{"b"}, []string{"w"}, rand.New(rand.NewSource(1)), testNow)
	if !errors.Is(err, ErrGameCompleted) {
		t.Errorf("Expected ErrGameCompleted, got %v", err)
	}
}

func TestBots(t *testing.T) {
	g := NewGame("ABC123", NewPlayer("Alice", true), DefaultSettings())
	bot := NewBot("Rando")
	if err := AddPlayer(g, bot); err != nil {
		t.Fatal(err)
	}

	bots := g.Bots()
	if len(bots) != 1 || bots[0] != bot {
		t.Errorf("Expected [Rando], got %v", bots)
	}
	if !bot.IsBot || bot.IsHost {
		t.Errorf("Unexpected bot flags: %+v", bot)
	}
}
