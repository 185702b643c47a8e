// Package server exposes the game over an HTTP JSON API, pushes state to
// websocket watchers, and runs the per-game tick loop that drives timeouts
// and bot play. Every request carries an explicit {gameCode, playerId}
// session; the server holds no per-client state.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/cardsforbots/internal/cards"
	"github.com/lox/cardsforbots/internal/game"
	"github.com/lox/cardsforbots/internal/gamecode"
	"github.com/lox/cardsforbots/internal/oracle"
	"github.com/lox/cardsforbots/internal/randutil"
	"github.com/lox/cardsforbots/internal/store"
)

// Server ties the store, the oracle and the core game logic together
// behind an HTTP API.
type Server struct {
	addr         string
	logger       *log.Logger
	store        store.Store
	oracle       *oracle.Client
	picker       game.Picker
	clock        quartz.Clock
	tickInterval time.Duration
	defaults     game.Settings
	codes        *gamecode.Generator
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	watchers map[string]map[*websocket.Conn]bool
	runners  map[string]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

// Options configure a Server beyond its required collaborators.
type Options struct {
	Clock        quartz.Clock
	TickInterval time.Duration
	Defaults     game.Settings
	Codes        *gamecode.Generator
}

// NewServer creates a server. Zero-value options get production defaults.
func NewServer(addr string, logger *log.Logger, st store.Store, oc *oracle.Client, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = 1500 * time.Millisecond
	}
	if opts.Defaults == (game.Settings{}) {
		opts.Defaults = game.DefaultSettings()
	}
	if opts.Codes == nil {
		opts.Codes = gamecode.NewGenerator(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:         addr,
		logger:       logger.WithPrefix("server"),
		store:        st,
		oracle:       oc,
		picker:       oracle.NewAdapter(oc, logger),
		clock:        opts.Clock,
		tickInterval: opts.TickInterval,
		defaults:     opts.Defaults,
		codes:        opts.Codes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		watchers: make(map[string]map[*websocket.Conn]bool),
		runners:  make(map[string]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/{code}", s.handleGetGame)
	mux.HandleFunc("POST /api/games/{code}/join", s.handleJoinGame)
	mux.HandleFunc("POST /api/games/{code}/bots", s.handleAddBot)
	mux.HandleFunc("POST /api/games/{code}/remove-player", s.handleRemovePlayer)
	mux.HandleFunc("POST /api/games/{code}/settings", s.handleSettings)
	mux.HandleFunc("POST /api/games/{code}/start", s.handleStartGame)
	mux.HandleFunc("POST /api/games/{code}/submit", s.handleSubmitCard)
	mux.HandleFunc("POST /api/games/{code}/select-winner", s.handleSelectWinner)
	mux.HandleFunc("GET /api/games/{code}/ws", s.handleWatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start serves the API until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("starting server", "addr", s.addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Stop cancels every game runner and closes watcher connections.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conns := range s.watchers {
		for conn := range conns {
			_ = conn.Close()
		}
	}
	s.watchers = make(map[string]map[*websocket.Conn]bool)
}

// ensureRunner starts the tick loop for a game unless one is already
// running. Called on start-game and lazily on any access to an in-progress
// game, so runners survive server restarts.
func (s *Server) ensureRunner(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.runners[code]; running {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.runners[code] = cancel
	go s.runGame(ctx, code)
}

func (s *Server) stopRunner(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.runners[code]; ok {
		cancel()
		delete(s.runners, code)
	}
}

// newDeckGenerator builds a per-call generator; each gets its own rng
// because rand.Rand is not safe for concurrent use.
func (s *Server) newDeckGenerator() *cards.Generator {
	return cards.NewGenerator(s.oracle, s.logger, randutil.NewFromTime())
}

// handleWatch upgrades to a websocket and pushes the full game document on
// every observed change.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	code, ok := gameCode(w, r)
	if !ok {
		return
	}
	g, _, err := s.store.Load(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	s.mu.Lock()
	if s.watchers[code] == nil {
		s.watchers[code] = make(map[*websocket.Conn]bool)
	}
	s.watchers[code][conn] = true
	s.mu.Unlock()
	s.logger.Info("watcher connected", "game", code)

	// Send the current snapshot immediately so the client doesn't wait a
	// tick for its first state.
	s.sendSnapshot(code, conn, g)

	if g.Status == game.StatusInProgress {
		s.ensureRunner(code)
	}

	// Reads are discarded; the read loop only notices disconnects.
	go func() {
		defer s.dropWatcher(code, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// sendSnapshot writes one state frame to a single watcher. Writes are
// serialized under s.mu since gorilla connections allow one writer at a
// time.
func (s *Server) sendSnapshot(code string, conn *websocket.Conn, g *game.Game) {
	data, err := json.Marshal(g)
	if err != nil {
		s.logger.Error("failed to marshal game", "game", code, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.dropWatcherLocked(code, conn)
	}
}

func (s *Server) dropWatcher(code string, conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropWatcherLocked(code, conn)
}

func (s *Server) dropWatcherLocked(code string, conn *websocket.Conn) {
	if conns, ok := s.watchers[code]; ok && conns[conn] {
		delete(conns, conn)
		_ = conn.Close()
		s.logger.Info("watcher disconnected", "game", code)
	}
}

// broadcast pushes the latest game document to every watcher of the game.
func (s *Server) broadcast(code string, g *game.Game) {
	data, err := json.Marshal(g)
	if err != nil {
		s.logger.Error("failed to marshal game", "game", code, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []*websocket.Conn
	for conn := range s.watchers[code] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			failed = append(failed, conn)
		}
	}
	for _, conn := range failed {
		s.dropWatcherLocked(code, conn)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
