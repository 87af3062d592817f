// Package corpuscache keeps prepared job corpora between match requests.
//
// Entries live in memory (L1) and, when a redis URL is configured, in redis
// (L2) so that they survive restarts. Keys are derived from the corpus content
// and the vocabulary fingerprint, so a changed job list or vocabulary never
// hits a stale entry.
package corpuscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/matching"
)

const (
	keyPrefix = "cvm:corpus:"

	DefaultTTL        = 15 * time.Minute
	DefaultMaxEntries = 16
)

// Config holds the cache limits. Zero values select the defaults; an empty
// RedisURL keeps the cache in memory only.
type Config struct {
	TTL        time.Duration
	MaxEntries int
	RedisURL   string
}

type entry struct {
	corpus    *matching.Corpus
	expiresAt time.Time
}

// Cache is safe for concurrent use. Cached corpora are shared and must not be modified.
type Cache struct {
	mu         sync.Mutex
	l1         map[string]*entry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	logger     *zap.Logger
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds the cache. An unreachable or invalid redis URL disables L2 with a warning.
func New(ctx context.Context, cfg Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}

	c := &Cache{
		l1:         make(map[string]*entry),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		logger:     logger,
		now:        time.Now,
	}

	if cfg.RedisURL != "" {
		c.rdb = connectRedis(ctx, cfg.RedisURL, logger)
	}

	logger.Debug("corpus cache initialized",
		zap.Duration("ttl", c.ttl),
		zap.Int("max_entries", c.maxEntries),
		zap.Bool("redis", c.rdb != nil),
	)

	return c
}

func connectRedis(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("invalid redis url, corpus cache L2 disabled", zap.Error(err))
		return nil
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, corpus cache L2 disabled", zap.String("addr", opts.Addr), zap.Error(err))
		rdb.Close()
		return nil
	}

	logger.Info("corpus cache L2 connected", zap.String("addr", opts.Addr))
	return rdb
}

// Key identifies a job snapshot prepared with a given vocabulary.
func Key(jobs []matching.JobRecord, vocabularyFingerprint string) (string, error) {
	h := sha256.New()
	h.Write([]byte(vocabularyFingerprint))
	h.Write([]byte{0})
	// JobRecord encodes keywords in sorted order, so equal snapshots hash equally.
	if err := json.NewEncoder(h).Encode(jobs); err != nil {
		return "", fmt.Errorf("hashing job snapshot: %w", err)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil)[:16]), nil
}

// Get looks in L1, then L2. An L2 hit is copied into L1.
func (c *Cache) Get(ctx context.Context, key string) (*matching.Corpus, bool) {
	c.mu.Lock()
	if e, ok := c.l1[key]; ok {
		if c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			c.hits.Add(1)
			c.logger.Debug("corpus cache L1 hit", zap.String("key", key))
			return e.corpus, true
		}
		delete(c.l1, key)
	}
	c.mu.Unlock()

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var corpus matching.Corpus
			if err := json.Unmarshal(data, &corpus); err == nil {
				c.hits.Add(1)
				c.logger.Debug("corpus cache L2 hit", zap.String("key", key))
				c.storeL1(key, &corpus)
				return &corpus, true
			}
			c.logger.Warn("corrupt corpus cache entry", zap.String("key", key), zap.Error(err))
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Debug("corpus cache L2 get failed", zap.Error(err))
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Put stores the corpus in both tiers. L2 failures are logged and ignored.
func (c *Cache) Put(ctx context.Context, key string, corpus *matching.Corpus) {
	if corpus == nil {
		return
	}

	c.storeL1(key, corpus)

	if c.rdb == nil {
		return
	}

	data, err := json.Marshal(corpus)
	if err != nil {
		c.logger.Warn("encoding corpus for cache", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("corpus cache L2 set failed", zap.Error(err))
	}
}

func (c *Cache) storeL1(key string, corpus *matching.Corpus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.l1[key]; !ok && len(c.l1) >= c.maxEntries {
		c.evictLocked(now)
	}

	c.l1[key] = &entry{corpus: corpus, expiresAt: now.Add(c.ttl)}
}

// evictLocked drops expired entries, or the one closest to expiry when none are.
func (c *Cache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, e := range c.l1 {
		if !now.Before(e.expiresAt) {
			delete(c.l1, key)
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = key, e.expiresAt
		}
	}

	if len(c.l1) >= c.maxEntries && oldestKey != "" {
		delete(c.l1, oldestKey)
	}
}

// Stats returns hit and miss counters since creation.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of L1 entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.l1)
}

func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
