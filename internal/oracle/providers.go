package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	openAIBaseURL    = "https://api.openai.com/v1"
	anthropicBaseURL = "https://api.anthropic.com"

	anthropicVersion = "2023-06-01"

	providerTimeout = 30 * time.Second
)

// ProvidersFromEnv builds the provider registry from API keys in the
// environment. Providers without a key are left out, so a game configured
// for them fails start-game validation instead of failing mid-round.
func ProvidersFromEnv(logger *log.Logger) map[string]Provider {
	providers := make(map[string]Provider)
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		providers["groq"] = NewOpenAICompatible(groqBaseURL, key, nil)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		providers["openai"] = NewOpenAICompatible(openAIBaseURL, key, nil)
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		providers["anthropic"] = NewAnthropic(anthropicBaseURL, key, nil)
	}
	if len(providers) == 0 {
		logger.Warn("no oracle provider API keys configured; bots will not act")
	}
	return providers
}

// OpenAICompatible speaks the OpenAI chat-completions wire format. Groq
// serves the same format at its own base URL, so both providers share this
// type.
type OpenAICompatible struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewOpenAICompatible creates a chat-completions provider. A nil httpClient
// gets a default with a request timeout.
func NewOpenAICompatible(baseURL, apiKey string, httpClient *http.Client) *OpenAICompatible {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: providerTimeout}
	}
	return &OpenAICompatible{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (p *OpenAICompatible) Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.9,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	var parsed chatCompletionResponse
	if err := doJSON(p.httpClient, req, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Anthropic speaks the Anthropic messages API.
type Anthropic struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAnthropic creates a messages-API provider. A nil httpClient gets a
// default with a request timeout.
func NewAnthropic(baseURL, apiKey string, httpClient *http.Client) *Anthropic {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: providerTimeout}
	}
	return &Anthropic{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends the prompt through the messages API and returns the first
// content block's text.
func (p *Anthropic) Complete(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: 0.8,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	var parsed anthropicResponse
	if err := doJSON(p.httpClient, req, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("response has no content")
	}
	return parsed.Content[0].Text, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
