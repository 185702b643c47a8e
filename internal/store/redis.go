package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lox/cardsforbots/internal/game"
)

// RedisStore persists each game as a JSON document with a version counter
// in a sibling key. Replace uses a WATCH transaction on the version key, so
// a concurrent writer aborts the transaction and surfaces as
// ErrVersionConflict.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func gameKey(code string) string    { return "game:" + code }
func versionKey(code string) string { return "game:" + code + ":ver" }

// Create stores a new game document with version 1.
func (s *RedisStore) Create(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	ok, err := s.client.SetNX(ctx, gameKey(g.Code), data, 0).Result()
	if err != nil {
		return fmt.Errorf("create game %q: %w", g.Code, err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	if err := s.client.Set(ctx, versionKey(g.Code), 1, 0).Err(); err != nil {
		return fmt.Errorf("init version for %q: %w", g.Code, err)
	}
	return nil
}

// Load returns the document and the version it was stored under.
func (s *RedisStore) Load(ctx context.Context, code string) (*game.Game, Version, error) {
	pipe := s.client.Pipeline()
	dataCmd := pipe.Get(ctx, gameKey(code))
	verCmd := pipe.Get(ctx, versionKey(code))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("load game %q: %w", code, err)
	}

	var g game.Game
	if err := json.Unmarshal([]byte(dataCmd.Val()), &g); err != nil {
		return nil, 0, fmt.Errorf("unmarshal game %q: %w", code, err)
	}
	ver, err := verCmd.Int64()
	if err != nil {
		return nil, 0, fmt.Errorf("parse version for %q: %w", code, err)
	}
	return &g, Version(ver), nil
}

// Replace swaps the document inside a WATCH transaction keyed on the
// version counter. A concurrent write bumps the counter, the transaction
// fails, and the caller retries on a fresh snapshot.
func (s *RedisStore) Replace(ctx context.Context, code string, g *game.Game, v Version) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(code)).Int64()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		if Version(current) != v {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameKey(code), data, 0)
			pipe.Incr(ctx, versionKey(code))
			return nil
		})
		return err
	}, versionKey(code))

	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("replace game %q: %w", code, err)
	}
	return err
}

// Update applies fn in a load-replace-retry loop.
func (s *RedisStore) Update(ctx context.Context, code string, fn func(*game.Game) error) (*game.Game, error) {
	return update(ctx, s, code, fn)
}

// Delete removes the document and its version counter.
func (s *RedisStore) Delete(ctx context.Context, code string) error {
	deleted, err := s.client.Del(ctx, gameKey(code), versionKey(code)).Result()
	if err != nil {
		return fmt.Errorf("delete game %q: %w", code, err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}
