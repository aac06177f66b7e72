package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"invoicer/internal/logger"
	"invoicer/internal/storage"

	"github.com/rs/zerolog"
)

// collection is a JSON array persisted under one store key.
type collection[T any] struct {
	store storage.Store
	key   string
	log   zerolog.Logger
}

func newCollection[T any](store storage.Store, key string) collection[T] {
	return collection[T]{
		store: store,
		key:   key,
		log:   logger.WithComponent("repository").With().Str("key", key).Logger(),
	}
}

// load never fails on content: a malformed value reads as an empty collection.
func (c collection[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}
	items := []T{}
	if !ok || raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.log.Warn().Err(err).Msg("Malformed collection, reading as empty")
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c collection[T]) save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}
