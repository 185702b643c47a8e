package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lox/cardsforbots/internal/cards"
	"github.com/lox/cardsforbots/internal/game"
	"github.com/lox/cardsforbots/internal/gamecode"
	"github.com/lox/cardsforbots/internal/randutil"
	"github.com/lox/cardsforbots/internal/store"
)

// createCodeAttempts bounds retries against game code collisions.
const createCodeAttempts = 5

// gameCode extracts the {code} path value. A malformed code can never name
// a stored game, so it 404s without a store round trip.
func gameCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := r.PathValue("code")
	if !gamecode.Valid(code) {
		writeError(w, store.ErrNotFound)
		return "", false
	}
	return code, true
}

type createGameRequest struct {
	PlayerName string `json:"playerName"`
}

type createGameResponse struct {
	Game     *game.Game `json:"game"`
	PlayerID string     `json:"playerId"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		writeError(w, game.ErrEmptyName)
		return
	}

	host := game.NewPlayer(name, true)
	var created *game.Game
	for attempt := 0; attempt < createCodeAttempts; attempt++ {
		g := game.NewGame(s.codes.Generate(), host, s.defaults)
		err := s.store.Create(r.Context(), g)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			writeError(w, err)
			return
		}
		created = g
		break
	}
	if created == nil {
		writeError(w, errors.New("could not allocate a game code"))
		return
	}

	s.logger.Info("game created", "game", created.Code, "host", name)
	writeJSON(w, http.StatusCreated, createGameResponse{Game: created, PlayerID: host.ID})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	g, _, err := s.store.Load(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	if g.Status == game.StatusInProgress {
		s.ensureRunner(g.Code)
	}
	writeJSON(w, http.StatusOK, g)
}

type joinGameRequest struct {
	PlayerName string `json:"playerName"`
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		writeError(w, game.ErrEmptyName)
		return
	}

	player := game.NewPlayer(name, false)
	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.AddPlayer(g, player)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("player joined", "game", code, "player", name)
	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, createGameResponse{Game: updated, PlayerID: player.ID})
}

type addBotRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddBot(w http.ResponseWriter, r *http.Request) {
	var req addBotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, game.ErrEmptyName)
		return
	}

	bot := game.NewBot(name)
	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.AddPlayer(g, bot)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("bot added", "game", code, "bot", name)
	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, createGameResponse{Game: updated, PlayerID: bot.ID})
}

type removePlayerRequest struct {
	PlayerID string `json:"playerId"`
}

func (s *Server) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	var req removePlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.RemovePlayer(g, req.PlayerID)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("player removed", "game", code, "player", req.PlayerID)
	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req game.Settings
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Provider != "" && !s.oracle.Knows(req.Provider) {
		writeError(w, game.ErrUnknownProvider)
		return
	}

	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.ApplySettings(g, req)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	g, _, err := s.store.Load(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	if g.Status != game.StatusLobby {
		writeError(w, game.ErrGameNotInLobby)
		return
	}
	if len(g.Players) < game.MinPlayers {
		writeError(w, game.ErrNotEnoughPlayers)
		return
	}
	if !s.oracle.Knows(g.Provider) {
		writeError(w, game.ErrUnknownProvider)
		return
	}

	// Deck generation talks to the oracle and can take a while, so it runs
	// outside the update loop; Start re-validates against the fresh
	// snapshot.
	blackCards, whiteCards := s.newDeckGenerator().Generate(r.Context(), cards.Config{
		Theme:       g.Theme,
		PlayerCount: len(g.Players),
		HandSize:    game.HandSize,
		Provider:    g.Provider,
		Model:       g.Model,
		MaxTokens:   4000,
	})

	rng := randutil.NewFromTime()
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.Start(g, blackCards, whiteCards, rng, s.clock.Now())
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("game started", "game", code, "players", len(updated.Players))
	s.ensureRunner(code)
	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, updated)
}

type submitCardRequest struct {
	PlayerID string `json:"playerId"`
	Card     string `json:"card"`
}

func (s *Server) handleSubmitCard(w http.ResponseWriter, r *http.Request) {
	var req submitCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.SubmitCard(g, req.PlayerID, req.Card, s.clock.Now())
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, updated)
}

type selectWinnerRequest struct {
	WinnerID string `json:"winnerId"`
}

func (s *Server) handleSelectWinner(w http.ResponseWriter, r *http.Request) {
	var req selectWinnerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	updated, err := s.store.Update(r.Context(), code, func(g *game.Game) error {
		return game.SelectWinner(g, req.WinnerID, s.clock.Now())
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.broadcast(code, updated)
	writeJSON(w, http.StatusOK, updated)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses: validation to 400,
// phase/role preconditions to 409, missing games to 404, the rest to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrEmptyName),
		errors.Is(err, game.ErrEmptyCard),
		errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrUnknownProvider):
		status = http.StatusBadRequest
	case game.IsPrecondition(err):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
