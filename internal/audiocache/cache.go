package audiocache

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache composes the in-memory LRU tier with the durable store. Lookups check
// memory first, then the store, promoting durable hits. Store failures are
// logged and treated as a miss so cache trouble never blocks playback.
type Cache struct {
	mem   *lru.Cache[string, []byte]
	store *Store
	log   *slog.Logger
}

// New builds a cache with the given memory capacity. The store may be nil,
// in which case only the memory tier is used.
func New(memoryEntries int, store *Store, log *slog.Logger) (*Cache, error) {
	mem, err := lru.New[string, []byte](memoryEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{
		mem:   mem,
		store: store,
		log:   log.With(slog.String("component", "audio-cache")),
	}, nil
}

// Get resolves a fingerprint against both tiers.
func (c *Cache) Get(ctx context.Context, fingerprint string) ([]byte, bool) {
	if payload, ok := c.mem.Get(fingerprint); ok {
		return payload, true
	}
	payload, err := c.store.Get(ctx, fingerprint)
	if err != nil {
		c.log.Warn("durable cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if payload == nil {
		return nil, false
	}
	c.mem.Add(fingerprint, payload)
	return payload, true
}

// Put writes through both tiers.
func (c *Cache) Put(ctx context.Context, fingerprint, voice string, payload []byte) {
	c.mem.Add(fingerprint, payload)
	if err := c.store.Put(ctx, fingerprint, voice, payload); err != nil {
		c.log.Warn("durable cache write failed", slog.String("error", err.Error()))
	}
}
