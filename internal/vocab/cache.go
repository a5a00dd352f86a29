package vocab

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/lexiconlabs/resolution-platform/pkg/config"
	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
	pkgredis "github.com/lexiconlabs/resolution-platform/pkg/redis"
)

const tokenKeyPrefix = "vocab:token:"

// TokenCache is the layered token-lookup cache: an in-process LRU in front
// of Redis, filling on miss from the store. Concurrent misses for the same
// word collapse into a single store query.
type TokenCache struct {
	local   *lru.Cache[string, string]
	client  *pkgredis.Client
	store   *Store
	cfg     config.VocabConfig
	group   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewTokenCache builds the cache. The Redis client may be nil, in which case
// only the LRU layer is used.
func NewTokenCache(store *Store, client *pkgredis.Client, cfg config.VocabConfig) (*TokenCache, error) {
	size := cfg.LRUSize
	if size <= 0 {
		size = 8192
	}
	local, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating token LRU: %w", err)
	}
	return &TokenCache{
		local:  local,
		client: client,
		store:  store,
		cfg:    cfg,
		logger: slog.Default().With("component", "token-cache"),
	}, nil
}

// WithMetrics attaches Prometheus collectors to the cache layers.
func (c *TokenCache) WithMetrics(m *metrics.Metrics) *TokenCache {
	c.metrics = m
	return c
}

// GetToken returns the token id for a word, consulting LRU, then Redis, then
// the store. A store miss propagates ErrWordNotFound.
func (c *TokenCache) GetToken(ctx context.Context, word string) (string, error) {
	if tokenID, ok := c.local.Get(word); ok {
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.VocabCacheHitsTotal.WithLabelValues("lru").Inc()
		}
		return tokenID, nil
	}
	if c.client != nil {
		data, err := c.client.Get(ctx, tokenKeyPrefix+word)
		if err == nil {
			c.hits.Add(1)
			if c.metrics != nil {
				c.metrics.VocabCacheHitsTotal.WithLabelValues("redis").Inc()
			}
			c.local.Add(word, data)
			return data, nil
		}
		if !pkgredis.IsNilError(err) {
			c.logger.Error("redis token get failed", "word", word, "error", err)
		}
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.VocabCacheMissTotal.Inc()
	}
	val, err, _ := c.group.Do(word, func() (interface{}, error) {
		tokenID, err := c.store.LookupToken(ctx, word)
		if err != nil {
			return "", err
		}
		c.fill(ctx, word, tokenID)
		return tokenID, nil
	})
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

// Put records a freshly minted token in every cache layer.
func (c *TokenCache) Put(ctx context.Context, word, tokenID string) {
	c.fill(ctx, word, tokenID)
}

// Stats returns cumulative hit and miss counts.
func (c *TokenCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *TokenCache) fill(ctx context.Context, word, tokenID string) {
	c.local.Add(word, tokenID)
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, tokenKeyPrefix+word, tokenID, c.cfg.CacheTTL); err != nil {
		c.logger.Error("redis token set failed", "word", word, "error", err)
	}
}
