package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/cardsforbots/internal/game"
	"github.com/lox/cardsforbots/internal/tui"
)

type cli struct {
	Server string `kong:"default='http://localhost:8080',help='Game server URL'"`
	Name   string `kong:"default='',help='Display name (defaults to $USER or \"Player\")'"`
	Join   string `kong:"default='',help='Game code to join (creates a new game if empty)'"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("cardsforbots-client"),
		kong.Description("Interactive CLI client for Cards for Bots"),
		kong.UsageOnError(),
	)

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = "Player"
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})
	client := tui.NewAPIClient(strings.TrimRight(c.Server, "/"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		g        *game.Game
		playerID string
		err      error
	)
	if code := strings.ToUpper(strings.TrimSpace(c.Join)); code != "" {
		g, playerID, err = client.JoinGame(ctx, code, name)
	} else {
		g, playerID, err = client.CreateGame(ctx, name)
	}
	kctx.FatalIfErrorf(err)

	fmt.Printf("Joined game %s as %s\n", g.Code, name)

	model := tui.NewModel(logger, client, g.Code, playerID, g)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		kctx.FatalIfErrorf(err)
	}
}
