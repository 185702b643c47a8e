package oracle

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/cardsforbots/internal/game"
)

// scriptedProvider replays a fixed sequence of responses, one per call.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (p *scriptedProvider) Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	i := p.calls
	p.calls++
	p.prompts = append(p.prompts, prompt)
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestClient(p Provider) *Client {
	return NewClient(testLogger(), map[string]Provider{"test": p})
}

func TestParseChoice(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		options int
		want    int
		wantErr error
	}{
		{"bare number", "2", 3, 1, nil},
		{"leading whitespace", "  3", 3, 2, nil},
		{"trailing prose", "1. This one is the funniest", 3, 0, nil},
		{"multiline", "2\nbecause it subverts the prompt", 3, 1, nil},
		{"no number", "the second one", 3, 0, ErrUnparsable},
		{"zero", "0", 3, 0, ErrIndexOutOfRange},
		{"too big", "4", 3, 0, ErrIndexOutOfRange},
		{"number not leading", "I pick 2", 3, 0, ErrUnparsable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			idx, err := parseChoice(tc.raw, tc.options)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, idx)
		})
	}
}

func TestParseChoiceValidNumberBadIndex(t *testing.T) {
	// "3. some text" parses as 3, which only two options cannot satisfy
	_, err := parseChoice("3. some text", 2)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestChoose(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"2"}}
	client := newTestClient(provider)

	choice, err := client.Choose(context.Background(), Request{
		ActorName: "Ada",
		BlackCard: "Why can't I sleep at night? ____",
		Options:   []string{"alpha", "beta", "gamma"},
		Role:      RoleSubmission,
		Provider:  "test",
		Model:     "test-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "beta", choice)

	require.Len(t, provider.prompts, 1)
	prompt := provider.prompts[0]
	assert.Contains(t, prompt, `"Ada"`)
	assert.Contains(t, prompt, "Why can't I sleep at night?")
	assert.Contains(t, prompt, "1. alpha")
	assert.Contains(t, prompt, "3. gamma")
	assert.Contains(t, prompt, "Your Hand:")
	assert.NotContains(t, prompt, "judge")
}

func TestChooseJudgingPrompt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"1"}}
	client := newTestClient(provider)

	_, err := client.Choose(context.Background(), Request{
		ActorName: "Brutus",
		BlackCard: "prompt ____",
		Options:   []string{"alpha", "beta"},
		Role:      RoleJudging,
		Provider:  "test",
		Model:     "test-model",
	})
	require.NoError(t, err)

	prompt := provider.prompts[0]
	assert.Contains(t, prompt, "You are the judge")
	assert.Contains(t, prompt, "White Card Submissions:")
}

func TestChooseUnknownProvider(t *testing.T) {
	client := newTestClient(&scriptedProvider{})

	_, err := client.Choose(context.Background(), Request{
		Options:  []string{"a"},
		Provider: "missing",
	})
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCompleteEmptyResponse(t *testing.T) {
	client := newTestClient(&scriptedProvider{responses: []string{"   \n"}})

	_, err := client.Complete(context.Background(), "test", "m", "prompt", 100)
	require.ErrorIs(t, err, ErrNoResponse)
}

func TestKnows(t *testing.T) {
	client := newTestClient(&scriptedProvider{})
	assert.True(t, client.Knows("test"))
	assert.False(t, client.Knows("groq"))
	assert.Equal(t, []string{"test"}, client.Providers())
}

func TestAdapterRetriesThenSucceeds(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"not a number", "99", "2"},
	}
	adapter := NewAdapter(newTestClient(provider), testLogger())

	choice, err := adapter.Pick(context.Background(), game.PickRequest{
		Actor:     "Ada",
		BlackCard: "prompt ____",
		Options:   []string{"alpha", "beta", "gamma"},
		Provider:  "test",
		Model:     "m",
	})
	require.NoError(t, err)
	assert.Equal(t, "beta", choice)
	assert.Equal(t, 3, provider.calls, "each retry is a fresh call")
}

func TestAdapterRetryExhaustion(t *testing.T) {
	provider := &scriptedProvider{
		responses: []string{"nope", "still nope", "3. some text"},
	}
	adapter := NewAdapter(newTestClient(provider), testLogger())

	// Two options, so the final "3" is out of range; three strikes and out
	_, err := adapter.Pick(context.Background(), game.PickRequest{
		Actor:    "Ada",
		Options:  []string{"alpha", "beta"},
		Provider: "test",
		Model:    "m",
	})
	require.ErrorIs(t, err, ErrNoDecision)
	assert.Equal(t, MaxRetries, provider.calls)
}

func TestAdapterUnknownProviderNotRetried(t *testing.T) {
	provider := &scriptedProvider{}
	adapter := NewAdapter(newTestClient(provider), testLogger())

	_, err := adapter.Pick(context.Background(), game.PickRequest{
		Actor:    "Ada",
		Options:  []string{"alpha"},
		Provider: "missing",
	})
	require.ErrorIs(t, err, ErrUnknownProvider)
	assert.Equal(t, 0, provider.calls)
}

func TestAdapterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{responses: []string{"1"}}
	adapter := NewAdapter(newTestClient(provider), testLogger())

	_, err := adapter.Pick(ctx, game.PickRequest{
		Actor:    "Ada",
		Options:  []string{"alpha"},
		Provider: "test",
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.calls)
}

func TestBuildPromptNumbersFromOne(t *testing.T) {
	prompt := buildPrompt(Request{
		ActorName: "Ada",
		BlackCard: "prompt ____",
		Options:   []string{"first", "second"},
		Role:      RoleSubmission,
	})
	first := strings.Index(prompt, "1. first")
	second := strings.Index(prompt, "2. second")
	require.True(t, first >= 0 && second > first, "options must be numbered in order")
}
