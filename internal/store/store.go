// Package store persists one document per game, addressed by game code.
// The contract is read-by-code and whole-document replace; replaces carry
// the version observed at load time, so two writers racing on the same
// snapshot turn into an explicit ErrVersionConflict instead of a silent
// lost update. Update wraps the load-mutate-replace-retry loop every
// mutating operation uses.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lox/cardsforbots/internal/game"
)

var (
	// ErrNotFound means no game exists under the code. A game that
	// disappears mid-play is treated as abandoned by every caller.
	ErrNotFound = errors.New("store: game not found")
	// ErrAlreadyExists means the code is taken.
	ErrAlreadyExists = errors.New("store: game already exists")
	// ErrVersionConflict means another writer replaced the document since
	// it was loaded. Callers reload and retry.
	ErrVersionConflict = errors.New("store: version conflict")
	// ErrUnchanged is returned by an Update func to signal that the
	// snapshot needs no write. Update treats it as success.
	ErrUnchanged = errors.New("store: no change")
)

// Version is the optimistic-concurrency token attached to each document.
type Version int64

// maxUpdateAttempts bounds the reload-retry loop under contention.
const maxUpdateAttempts = 5

// Store is the persistence contract for game documents.
type Store interface {
	// Create stores a new game under its code.
	Create(ctx context.Context, g *game.Game) error
	// Load returns the current document and its version.
	Load(ctx context.Context, code string) (*game.Game, Version, error)
	// Replace swaps the whole document if the stored version still matches.
	Replace(ctx context.Context, code string, g *game.Game, v Version) error
	// Update runs fn against a freshly loaded snapshot and replaces the
	// document, retrying on version conflicts. fn runs once per attempt,
	// so precondition checks inside it always see the latest state. fn
	// may return ErrUnchanged to skip the write.
	Update(ctx context.Context, code string, fn func(*game.Game) error) (*game.Game, error)
	// Delete removes the document. Deleting a missing game is ErrNotFound.
	Delete(ctx context.Context, code string) error
}

// update implements Store.Update on top of Load and Replace; both backends
// share it.
func update(ctx context.Context, s Store, code string, fn func(*game.Game) error) (*game.Game, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		g, v, err := s.Load(ctx, code)
		if err != nil {
			return nil, err
		}
		if err := fn(g); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return g, nil
			}
			return nil, err
		}
		err = s.Replace(ctx, code, g, v)
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("update %q: retries exhausted: %w", code, lastErr)
}
