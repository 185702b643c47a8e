package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lox/cardsforbots/internal/game"
)

// APIClient talks to the game server's HTTP API.
type APIClient struct {
	baseURL string
	http    *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type createGameResponse struct {
	Game     *game.Game `json:"game"`
	PlayerID string     `json:"playerId"`
}

// CreateGame creates a new game hosted by playerName and returns the game
// along with the host's player ID.
func (c *APIClient) CreateGame(ctx context.Context, playerName string) (*game.Game, string, error) {
	var resp createGameResponse
	err := c.do(ctx, http.MethodPost, "/api/games", map[string]string{"playerName": playerName}, &resp)
	if err != nil {
		return nil, "", err
	}
	return resp.Game, resp.PlayerID, nil
}

// JoinGame joins an existing game and returns it with the new player's ID.
func (c *APIClient) JoinGame(ctx context.Context, code, playerName string) (*game.Game, string, error) {
	var resp createGameResponse
	path := fmt.Sprintf("/api/games/%s/join", code)
	err := c.do(ctx, http.MethodPost, path, map[string]string{"playerName": playerName}, &resp)
	if err != nil {
		return nil, "", err
	}
	return resp.Game, resp.PlayerID, nil
}

// GetGame fetches the current state of a game.
func (c *APIClient) GetGame(ctx context.Context, code string) (*game.Game, error) {
	var g game.Game
	if err := c.do(ctx, http.MethodGet, "/api/games/"+code, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// AddBot adds a bot player to a game in the lobby.
func (c *APIClient) AddBot(ctx context.Context, code, name string) (*game.Game, error) {
	var resp createGameResponse
	path := fmt.Sprintf("/api/games/%s/bots", code)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	return resp.Game, nil
}

// StartGame moves a lobby game into play.
func (c *APIClient) StartGame(ctx context.Context, code string) (*game.Game, error) {
	var g game.Game
	path := fmt.Sprintf("/api/games/%s/start", code)
	if err := c.do(ctx, http.MethodPost, path, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// SubmitCard submits a card from the player's hand for the current round.
func (c *APIClient) SubmitCard(ctx context.Context, code, playerID, card string) (*game.Game, error) {
	var g game.Game
	path := fmt.Sprintf("/api/games/%s/submit", code)
	body := map[string]string{"playerId": playerID, "card": card}
	if err := c.do(ctx, http.MethodPost, path, body, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// SelectWinner records the judge's pick for the current round.
func (c *APIClient) SelectWinner(ctx context.Context, code, winnerID string) (*game.Game, error) {
	var g game.Game
	path := fmt.Sprintf("/api/games/%s/select-winner", code)
	body := map[string]string{"winnerId": winnerID}
	if err := c.do(ctx, http.MethodPost, path, body, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

type apiError struct {
	Error string `json:"error"`
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
