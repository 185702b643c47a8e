package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/cardsforbots/internal/game"
)

const pollInterval = time.Second

// Model is the Bubble Tea model for the card game client. All state comes
// from the server; the model only tracks the local cursor and last error.
type Model struct {
	client   *APIClient
	logger   *log.Logger
	code     string
	playerID string

	game    *game.Game
	cursor  int
	lastErr string
	spin    spinner.Model

	width  int
	height int
}

// NewModel creates a model for a player already joined to the given game.
func NewModel(logger *log.Logger, client *APIClient, code, playerID string, initial *game.Game) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = InfoStyle
	return &Model{
		client:   client,
		logger:   logger.WithPrefix("tui"),
		code:     code,
		playerID: playerID,
		game:     initial,
		spin:     sp,
	}
}

type tickMsg time.Time

type stateMsg struct {
	game *game.Game
}

type errMsg struct {
	err error
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) poll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		g, err := m.client.GetGame(ctx, m.code)
		if err != nil {
			return errMsg{err: err}
		}
		return stateMsg{game: g}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.poll(), tick(), m.spin.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.poll(), tick())

	case stateMsg:
		m.game = msg.game
		m.lastErr = ""
		m.clampCursor()

	case errMsg:
		m.logger.Debug("request failed", "error", msg.err)
		m.lastErr = msg.err.Error()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		m.cursor++
		m.clampCursor()

	case "s":
		if m.game != nil && m.game.Status == game.StatusLobby && m.isHost() {
			return m, m.action(func(ctx context.Context) (*game.Game, error) {
				return m.client.StartGame(ctx, m.code)
			})
		}

	case "b":
		if m.game != nil && m.game.Status == game.StatusLobby && m.isHost() {
			name := fmt.Sprintf("Bot %d", len(m.game.Bots())+1)
			return m, m.action(func(ctx context.Context) (*game.Game, error) {
				return m.client.AddBot(ctx, m.code, name)
			})
		}

	case "enter", " ":
		return m.confirm()
	}
	return m, nil
}

// confirm acts on the current cursor position: submits the selected card
// during submission, or picks the selected submission while judging.
func (m *Model) confirm() (tea.Model, tea.Cmd) {
	g := m.game
	if g == nil || g.Status != game.StatusInProgress {
		return m, nil
	}
	round := g.ActiveRound()
	if round == nil {
		return m, nil
	}

	switch round.Phase {
	case game.PhaseSubmission:
		me := g.Player(m.playerID)
		if me == nil || round.JudgeID == m.playerID || round.HasSubmitted(m.playerID) {
			return m, nil
		}
		if m.cursor >= len(me.Hand) {
			return m, nil
		}
		card := me.Hand[m.cursor]
		return m, m.action(func(ctx context.Context) (*game.Game, error) {
			return m.client.SubmitCard(ctx, m.code, m.playerID, card)
		})

	case game.PhaseJudging:
		if round.JudgeID != m.playerID || m.cursor >= len(round.Submissions) {
			return m, nil
		}
		winnerID := round.Submissions[m.cursor].PlayerID
		return m, m.action(func(ctx context.Context) (*game.Game, error) {
			return m.client.SelectWinner(ctx, m.code, winnerID)
		})
	}
	return m, nil
}

// action runs an API call and feeds the resulting state back into the model.
func (m *Model) action(fn func(ctx context.Context) (*game.Game, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g, err := fn(ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return stateMsg{game: g}
	}
}

func (m *Model) isHost() bool {
	p := m.game.Player(m.playerID)
	return p != nil && p.IsHost
}

func (m *Model) clampCursor() {
	max := m.cursorLimit()
	if m.cursor >= max {
		m.cursor = max - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cursorLimit is the number of selectable items in the current phase.
func (m *Model) cursorLimit() int {
	g := m.game
	if g == nil {
		return 1
	}
	round := g.ActiveRound()
	if g.Status != game.StatusInProgress || round == nil {
		return 1
	}
	switch round.Phase {
	case game.PhaseSubmission:
		if me := g.Player(m.playerID); me != nil {
			return len(me.Hand)
		}
	case game.PhaseJudging:
		return len(round.Submissions)
	}
	return 1
}

func (m *Model) View() string {
	if m.game == nil {
		return m.spin.View() + InfoStyle.Render(" connecting...")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf(" Cards for Bots - game %s ", m.game.Code)))
	b.WriteString("\n\n")

	switch m.game.Status {
	case game.StatusLobby:
		m.viewLobby(&b)
	case game.StatusInProgress:
		m.viewRound(&b)
	case game.StatusCompleted:
		m.viewComplete(&b)
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("error: " + m.lastErr))
	}
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("↑/↓ select · enter confirm · q quit"))
	return b.String()
}

func (m *Model) viewLobby(b *strings.Builder) {
	b.WriteString("Waiting in lobby\n\n")
	for _, p := range m.game.Players {
		line := "  " + p.Name
		if p.IsHost {
			line += " (host)"
		}
		if p.IsBot {
			line += " 🤖"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	if m.isHost() {
		b.WriteString(InfoStyle.Render("press b to add a bot, s to start"))
	} else {
		b.WriteString(InfoStyle.Render("waiting for the host to start"))
	}
	b.WriteString("\n")
}

func (m *Model) viewRound(b *strings.Builder) {
	round := m.game.ActiveRound()
	if round == nil {
		b.WriteString(InfoStyle.Render("waiting for next round"))
		return
	}

	judge := m.game.Player(round.JudgeID)
	judgeName := round.JudgeID
	if judge != nil {
		judgeName = judge.Name
	}

	fmt.Fprintf(b, "Round %d · judge: %s\n\n", round.Number, JudgeStyle.Render(judgeName))
	b.WriteString(BlackCardStyle.Render(round.BlackCard))
	b.WriteString("\n\n")

	m.viewScores(b)

	switch round.Phase {
	case game.PhaseSubmission:
		m.viewSubmission(b, round)
	case game.PhaseJudging:
		m.viewJudging(b, round)
	case game.PhaseComplete:
		winner := m.game.Player(round.WinnerID)
		name := round.WinnerID
		if winner != nil {
			name = winner.Name
		}
		fmt.Fprintf(b, "%s wins the round with %q\n",
			SuccessStyle.Render(name), round.WinningCard)
	}
}

func (m *Model) viewSubmission(b *strings.Builder, round *game.Round) {
	me := m.game.Player(m.playerID)
	remaining := time.Until(round.SubmissionDeadline).Round(time.Second)
	if remaining > 0 {
		fmt.Fprintf(b, "%s\n\n", InfoStyle.Render(fmt.Sprintf("%s left to submit", remaining)))
	}

	if round.JudgeID == m.playerID {
		fmt.Fprintf(b, "You are judging this round. %d of %d cards in.\n",
			len(round.Submissions), len(m.game.Players)-1)
		return
	}
	if me == nil {
		return
	}
	if round.HasSubmitted(m.playerID) {
		sub, _ := round.SubmissionFor(m.playerID)
		fmt.Fprintf(b, "Submitted %q. Waiting for the others.\n", sub.Card)
		return
	}

	b.WriteString("Pick a card:\n")
	for i, card := range me.Hand {
		m.writeChoice(b, i, card)
	}
}

func (m *Model) viewJudging(b *strings.Builder, round *game.Round) {
	if round.JudgeID != m.playerID {
		b.WriteString(m.spin.View() + " The judge is deciding...\n")
		for _, s := range round.Submissions {
			b.WriteString("  " + WhiteCardStyle.Render(s.Card) + "\n")
		}
		return
	}

	b.WriteString("Pick the winning card:\n")
	for i, s := range round.Submissions {
		m.writeChoice(b, i, s.Card)
	}
}

func (m *Model) writeChoice(b *strings.Builder, i int, card string) {
	if i == m.cursor {
		fmt.Fprintf(b, "%s %s\n", SelectedStyle.Render(">"), SelectedStyle.Render(card))
	} else {
		fmt.Fprintf(b, "  %s\n", card)
	}
}

func (m *Model) viewScores(b *strings.Builder) {
	players := make([]*game.Player, len(m.game.Players))
	copy(players, m.game.Players)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})

	var parts []string
	for _, p := range players {
		parts = append(parts, fmt.Sprintf("%s %s", p.Name, ScoreStyle.Render(fmt.Sprintf("%d", p.Score))))
	}
	b.WriteString(strings.Join(parts, " · "))
	b.WriteString("\n\n")
}

func (m *Model) viewComplete(b *strings.Builder) {
	winner := game.Leader(m.game)
	if winner != nil {
		fmt.Fprintf(b, "%s\n\n", SuccessStyle.Render(fmt.Sprintf("🏆 %s wins with %d points!", winner.Name, winner.Score)))
	}
	b.WriteString("Final scores:\n")
	m.viewScores(b)
}
