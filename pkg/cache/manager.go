package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCacheMiss indicates the requested key was not found or is no longer fresh
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// DefaultStaleGrace is how long an expired entry stays readable through GetStale.
const DefaultStaleGrace = 24 * time.Hour

// Store is the subset of Manager used by CachedLister and ResultStore.
type Store interface {
	Get(ctx context.Context, key Key) (*Entry, error)
	GetStale(ctx context.Context, key Key) (*Entry, error)
	Set(ctx context.Context, key Key, entry *Entry) error
	Delete(ctx context.Context, key Key) error
}

// Manager handles caching operations with Redis backend.
type Manager struct {
	redis      *redis.Client
	staleGrace time.Duration
	logger     zerolog.Logger
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis:      redisClient,
		staleGrace: DefaultStaleGrace,
		logger:     log.With().Str("component", "cache").Logger(),
	}
}

// SetStaleGrace changes how long expired entries are kept.
func (m *Manager) SetStaleGrace(d time.Duration) {
	if d < 0 {
		d = 0
	}
	m.staleGrace = d
}

// Ping checks that Redis is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if err := m.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get retrieves a fresh entry by key.
// Returns ErrCacheMiss if the key doesn't exist or the entry is expired.
func (m *Manager) Get(ctx context.Context, key Key) (*Entry, error) {
	entry, err := m.read(ctx, key)
	if err != nil {
		return nil, err
	}

	if entry.IsExpired() {
		CacheOperations.WithLabelValues("get", resultStale).Inc()
		return nil, ErrCacheMiss
	}

	CacheOperations.WithLabelValues("get", resultHit).Inc()
	return entry, nil
}

// GetStale retrieves an entry by key whether or not it is still fresh.
// Returns ErrCacheMiss only if the key doesn't exist.
func (m *Manager) GetStale(ctx context.Context, key Key) (*Entry, error) {
	entry, err := m.read(ctx, key)
	if err != nil {
		return nil, err
	}

	result := resultHit
	if entry.IsExpired() {
		result = resultStale
	}
	CacheOperations.WithLabelValues("get", result).Inc()
	return entry, nil
}

func (m *Manager) read(ctx context.Context, key Key) (*Entry, error) {
	cacheKey := key.String()

	data, err := m.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheOperations.WithLabelValues("get", resultMiss).Inc()
			return nil, ErrCacheMiss
		}
		CacheOperations.WithLabelValues("get", resultError).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheOperations.WithLabelValues("get", resultError).Inc()
		m.logger.Warn().Err(err).Str("key", cacheKey).Msg("Discarding corrupted cache entry")
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return &entry, nil
}

// Set stores an entry. Entries with an Expires time are kept in Redis for
// their TTL plus the stale grace period; entries without one never expire.
func (m *Manager) Set(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	cacheKey := key.String()

	var ttl time.Duration
	if !entry.Expires.IsZero() {
		ttl = entry.TTL()
		if ttl <= 0 {
			// Already expired, don't cache
			return nil
		}
		ttl += m.staleGrace
	}

	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheOperations.WithLabelValues("set", resultError).Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		CacheOperations.WithLabelValues("set", resultError).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheOperations.WithLabelValues("set", resultOK).Inc()
	m.logger.Debug().Str("key", cacheKey).Dur("ttl", ttl).Int("bytes", len(data)).Msg("Cache entry stored")
	return nil
}

// Delete removes a cache entry.
func (m *Manager) Delete(ctx context.Context, key Key) error {
	cacheKey := key.String()

	if err := m.redis.Del(ctx, cacheKey).Err(); err != nil {
		CacheOperations.WithLabelValues("delete", resultError).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	CacheOperations.WithLabelValues("delete", resultOK).Inc()
	return nil
}
