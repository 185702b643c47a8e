// Package cards generates the black and white card decks for a game by
// prompting the oracle with the host's theme, then repairs any shortfall
// from built-in fallback decks so a game can always start.
package cards

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// BlackCardCount is the number of prompt cards generated per game.
	BlackCardCount = 15
	// WhiteCardCount is the number of answer cards generated per game.
	WhiteCardCount = 200

	// extraWhiteCards keeps the replenishment pool from draining in long
	// games.
	extraWhiteCards = 50

	maxAttempts = 3
)

// Completer is the slice of the oracle this package needs: free-text
// completion against a chosen provider and model.
type Completer interface {
	Complete(ctx context.Context, provider, model, prompt string, maxTokens int) (string, error)
}

// Config selects the theme and oracle settings for one generation run.
type Config struct {
	Theme       string
	PlayerCount int
	HandSize    int
	Provider    string
	Model       string
	MaxTokens   int
}

// Generator produces game decks.
type Generator struct {
	completer Completer
	logger    *log.Logger
	rng       *rand.Rand
}

// NewGenerator creates a deck generator. The rng shuffles the final decks.
func NewGenerator(completer Completer, logger *log.Logger, rng *rand.Rand) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger.WithPrefix("cards"),
		rng:       rng,
	}
}

// Generate asks the oracle for themed decks, retrying short deliveries up
// to the attempt ceiling and topping up the shortfall with each retry's
// prompt. Whatever is still missing afterwards is padded from the fallback
// decks; card reuse on underflow is accepted so generation never fails a
// game start.
func (g *Generator) Generate(ctx context.Context, cfg Config) (blackCards, whiteCards []string) {
	minWhite := cfg.PlayerCount*cfg.HandSize + extraWhiteCards

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		needWhite := max(WhiteCardCount-len(whiteCards), 0)
		needBlack := max(BlackCardCount-len(blackCards), 0)
		if needWhite == 0 && needBlack == 0 {
			break
		}

		raw, err := g.completer.Complete(ctx, cfg.Provider, cfg.Model,
			buildGeneratePrompt(cfg.Theme, needWhite, needBlack), cfg.MaxTokens)
		if err != nil {
			g.logger.Warn("deck generation attempt failed",
				"theme", cfg.Theme, "attempt", attempt, "error", err)
			continue
		}

		newWhite, newBlack := parseDecks(raw)
		whiteCards = dedupe(whiteCards, newWhite)
		blackCards = dedupe(blackCards, newBlack)
		g.logger.Debug("deck generation progress",
			"attempt", attempt, "white", len(whiteCards), "black", len(blackCards))
	}

	if len(whiteCards) < minWhite {
		g.logger.Warn("not enough white cards generated, padding from fallback deck",
			"have", len(whiteCards), "want", minWhite)
		whiteCards = pad(whiteCards, fallbackWhiteCards, minWhite)
	}
	if len(blackCards) < BlackCardCount {
		g.logger.Warn("not enough black cards generated, padding from fallback deck",
			"have", len(blackCards), "want", BlackCardCount)
		blackCards = pad(blackCards, fallbackBlackCards, BlackCardCount)
	}

	g.rng.Shuffle(len(whiteCards), func(i, j int) {
		whiteCards[i], whiteCards[j] = whiteCards[j], whiteCards[i]
	})
	g.rng.Shuffle(len(blackCards), func(i, j int) {
		blackCards[i], blackCards[j] = blackCards[j], blackCards[i]
	})

	if len(blackCards) > BlackCardCount {
		blackCards = blackCards[:BlackCardCount]
	}
	if limit := max(WhiteCardCount, minWhite); len(whiteCards) > limit {
		whiteCards = whiteCards[:limit]
	}
	return blackCards, whiteCards
}

func buildGeneratePrompt(theme string, whiteCount, blackCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d unique white cards and %d unique black cards for a Cards Against Humanity-style party game based on the theme: %s.\n\n", whiteCount, blackCount, theme)
	b.WriteString("White cards are short answers or phrases. Black cards are questions or fill-in-the-blank statements. The content should be humorous, clever and surprising.\n\n")
	b.WriteString("Here are some examples of white cards:\n")
	for i, card := range fallbackWhiteCards[:10] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, card)
	}
	b.WriteString("\nHere are some examples of black cards:\n")
	for i, card := range fallbackBlackCards[:8] {
		fmt.Fprintf(&b, "%d. %s\n", i+1, card)
	}
	b.WriteString("\nImportant: For black cards, use only one blank (_______) per card. Do not create cards with multiple blanks.\n\n")
	b.WriteString("Now, generate new cards in the following format:\n\n")
	b.WriteString("White Cards:\n1. [Answer or phrase]\n2. [Answer or phrase]\n...\n\n")
	b.WriteString("Black Cards:\n1. [Question or fill-in-the-blank statement with one blank]\n2. [Question or fill-in-the-blank statement with one blank]\n...")
	return b.String()
}

var (
	sectionSplit = regexp.MustCompile(`White Cards:|Black Cards:`)
	numberedLine = regexp.MustCompile(`^\d+\.`)
	blankRun     = regexp.MustCompile(`_+`)
)

// parseDecks pulls numbered card lines out of the oracle's "White Cards:"
// and "Black Cards:" sections. Black cards must contain exactly one blank.
func parseDecks(raw string) (white, black []string) {
	sections := sectionSplit.Split(raw, -1)
	if len(sections) < 3 {
		return nil, nil
	}
	white = parseNumbered(sections[1])
	for _, card := range parseNumbered(sections[2]) {
		if len(blankRun.FindAllString(card, -1)) == 1 {
			black = append(black, card)
		}
	}
	return white, black
}

func parseNumbered(section string) []string {
	var cards []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if !numberedLine.MatchString(line) {
			continue
		}
		card := strings.TrimSpace(numberedLine.ReplaceAllString(line, ""))
		if card != "" {
			cards = append(cards, card)
		}
	}
	return cards
}

// dedupe appends the cards in extra that existing does not already contain,
// preserving order.
func dedupe(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, card := range existing {
		seen[card] = struct{}{}
	}
	for _, card := range extra {
		if _, dup := seen[card]; dup {
			continue
		}
		seen[card] = struct{}{}
		existing = append(existing, card)
	}
	return existing
}

// pad cycles through the fallback deck until cards reaches want entries.
// Duplicates are unavoidable here; a short deck is worse than a repeated
// card.
func pad(cards, fallback []string, want int) []string {
	for i := 0; len(cards) < want; i++ {
		cards = append(cards, fallback[i%len(fallback)])
	}
	return cards
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
