package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lox/cardsforbots/internal/game"
)

// MemoryStore keeps game documents in process memory with the same
// versioning semantics as the Redis store. Used by tests and single-node
// development servers.
type MemoryStore struct {
	mu    sync.Mutex
	games map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	version Version
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]memoryEntry)}
}

// Create stores a new game document.
func (s *MemoryStore) Create(_ context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.Code]; exists {
		return ErrAlreadyExists
	}
	s.games[g.Code] = memoryEntry{data: data, version: 1}
	return nil
}

// Load returns a private copy of the stored document; documents round-trip
// through JSON so callers can never alias stored state.
func (s *MemoryStore) Load(_ context.Context, code string) (*game.Game, Version, error) {
	s.mu.Lock()
	entry, ok := s.games[code]
	s.mu.Unlock()
	if !ok {
		return nil, 0, ErrNotFound
	}

	var g game.Game
	if err := json.Unmarshal(entry.data, &g); err != nil {
		return nil, 0, fmt.Errorf("unmarshal game: %w", err)
	}
	return &g, entry.version, nil
}

// Replace swaps the document if v still matches the stored version.
func (s *MemoryStore) Replace(_ context.Context, code string, g *game.Game, v Version) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.games[code]
	if !ok {
		return ErrNotFound
	}
	if entry.version != v {
		return ErrVersionConflict
	}
	s.games[code] = memoryEntry{data: data, version: v + 1}
	return nil
}

// Update applies fn in a load-replace-retry loop.
func (s *MemoryStore) Update(ctx context.Context, code string, fn func(*game.Game) error) (*game.Game, error) {
	return update(ctx, s, code, fn)
}

// Delete removes the document.
func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[code]; !ok {
		return ErrNotFound
	}
	delete(s.games, code)
	return nil
}
