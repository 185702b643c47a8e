package oracle

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/cardsforbots/internal/game"
)

// Role selects the social framing of a pick prompt.
type Role string

const (
	RoleSubmission Role = "submission"
	RoleJudging    Role = "judging"
)

var (
	// ErrNoResponse means the provider returned nothing or was unreachable.
	ErrNoResponse = errors.New("oracle: no response from provider")
	// ErrUnparsable means the response had no leading integer token.
	ErrUnparsable = errors.New("oracle: could not parse response")
	// ErrIndexOutOfRange means the integer did not address a valid option.
	ErrIndexOutOfRange = errors.New("oracle: selected index out of range")
	// ErrNoDecision is the terminal signal after the retry ceiling; callers
	// skip the actor for this tick and try again next tick.
	ErrNoDecision = errors.New("oracle: no decision after retries")
	// ErrUnknownProvider means the game is configured with a provider id
	// this client has no adapter for. Not retryable.
	ErrUnknownProvider = errors.New("oracle: unknown provider")
)

const (
	// MaxRetries bounds how many fresh oracle calls one decision may cost.
	MaxRetries = 3

	// pickMaxTokens caps responses to pick prompts; the answer is a number.
	pickMaxTokens = 150

	// GenerateMaxTokens caps deck generation responses.
	GenerateMaxTokens = 4000
)

// Request is a single choose-one-of-N decision.
type Request struct {
	ActorName string
	BlackCard string
	Options   []string
	Role      Role
	Provider  string
	Model     string
}

// Provider is one text-generation backend: prompt and model in, free text
// out. Network timeouts live in the provider's HTTP client.
type Provider interface {
	Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error)
}

// Client routes decision requests to the provider named in each request.
type Client struct {
	logger    *log.Logger
	providers map[string]Provider
}

// NewClient creates a client over an explicit provider registry. Tests
// register scripted providers here.
func NewClient(logger *log.Logger, providers map[string]Provider) *Client {
	return &Client{
		logger:    logger.WithPrefix("oracle"),
		providers: providers,
	}
}

// Providers returns the registered provider ids.
func (c *Client) Providers() []string {
	ids := make([]string, 0, len(c.providers))
	for id := range c.providers {
		ids = append(ids, id)
	}
	return ids
}

// Knows reports whether the client has an adapter for the provider id.
func (c *Client) Knows(provider string) bool {
	_, ok := c.providers[provider]
	return ok
}

// Choose makes one oracle call for the request and maps the response back
// to an option. One call, no retries; see Adapter for the retry policy.
func (c *Client) Choose(ctx context.Context, req Request) (string, error) {
	raw, err := c.Complete(ctx, req.Provider, req.Model, buildPrompt(req), pickMaxTokens)
	if err != nil {
		return "", err
	}
	idx, err := parseChoice(raw, len(req.Options))
	if err != nil {
		return "", err
	}
	return req.Options[idx], nil
}

// Complete sends a raw prompt to the named provider. The deck generator
// uses this directly for free-text generation.
func (c *Client) Complete(ctx context.Context, provider, model, prompt string, maxTokens int) (string, error) {
	p, ok := c.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	text, err := p.Complete(ctx, prompt, model, maxTokens)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoResponse
	}
	return text, nil
}

var leadingInt = regexp.MustCompile(`^\s*(\d+)`)

// parseChoice extracts the 1-based leading integer from an oracle response
// and converts it to a 0-based option index.
func parseChoice(raw string, optionCount int) (int, error) {
	m := leadingInt.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsable, firstLine(raw))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsable, firstLine(raw))
	}
	idx := n - 1
	if idx < 0 || idx >= optionCount {
		return 0, fmt.Errorf("%w: got %d of %d options", ErrIndexOutOfRange, n, optionCount)
	}
	return idx, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}

func buildPrompt(req Request) string {
	var b strings.Builder
	numbered := make([]string, len(req.Options))
	for i, opt := range req.Options {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, opt)
	}

	if req.Role == RoleJudging {
		fmt.Fprintf(&b, "You are the judge in a game similar to Cards Against Humanity. As a bot named %q, you need to select the best funny, or edgy white card submission based on the black card.\n\n", req.ActorName)
		fmt.Fprintf(&b, "Black Card:\n%q\n\n", req.BlackCard)
		fmt.Fprintf(&b, "White Card Submissions:\n%s\n\n", strings.Join(numbered, "\n"))
		fmt.Fprintf(&b, "As a funny, edgy %q, choose the number of the submission that you think is the funniest or most appropriate, considering your personality and preferences implied by your name.\n\n", req.ActorName)
		b.WriteString("Just provide the number of the selected submission.")
		return b.String()
	}

	fmt.Fprintf(&b, "You are playing a game similar to Cards Against Humanity. As a bot named %q, you need to select the most funny, or edgy white card from your hand based on the black card provided.\n\n", req.ActorName)
	fmt.Fprintf(&b, "Black Card:\n%q\n\n", req.BlackCard)
	fmt.Fprintf(&b, "Your Hand:\n%s\n\n", strings.Join(numbered, "\n"))
	fmt.Fprintf(&b, "As a funny, edgy %q, choose the number of the white card that best fits the black card, considering your personality and preferences implied by your name.\n\n", req.ActorName)
	b.WriteString("Just provide the number of the selected card.")
	return b.String()
}

// Adapter satisfies game.Picker with the bounded retry policy: up to
// MaxRetries fresh calls, then ErrNoDecision.
type Adapter struct {
	client *Client
	logger *log.Logger
}

// NewAdapter wraps a client for use by the bot orchestrator.
func NewAdapter(client *Client, logger *log.Logger) *Adapter {
	return &Adapter{
		client: client,
		logger: logger.WithPrefix("oracle"),
	}
}

// Pick resolves one game decision, retrying transient oracle failures.
func (a *Adapter) Pick(ctx context.Context, req game.PickRequest) (string, error) {
	oreq := Request{
		ActorName: req.Actor,
		BlackCard: req.BlackCard,
		Options:   req.Options,
		Role:      RoleSubmission,
		Provider:  req.Provider,
		Model:     req.Model,
	}
	if req.Judging {
		oreq.Role = RoleJudging
	}

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		choice, err := a.client.Choose(ctx, oreq)
		if err == nil {
			return choice, nil
		}
		if errors.Is(err, ErrUnknownProvider) {
			return "", err
		}
		a.logger.Warn("oracle attempt failed",
			"actor", req.Actor, "role", oreq.Role, "attempt", attempt, "error", err)
	}
	return "", ErrNoDecision
}
