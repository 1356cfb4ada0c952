// Package cache is the process-wide document cache. Entries expire lazily on read;
// nothing sweeps them in the background.
package cache

import (
	"errors"
	"time"

	"github.com/bluele/gcache"
	"go.uber.org/zap"

	"github.com/stplive/stp-live/internal/telemetry"
)

// Store maps a logical resource key to a value with an expiry.
//
// Two concurrent misses on the same key both fetch and both write; the last writer wins.
type Store struct {
	entries gcache.Cache
	logger  *zap.Logger
}

// New builds a Store. maxEntries <= 0 means unbounded; a nil clock uses wall time.
func New(maxEntries int, clock gcache.Clock, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntries < 0 {
		maxEntries = 0
	}
	builder := gcache.New(maxEntries).Simple()
	if clock != nil {
		builder = builder.Clock(clock)
	}
	return &Store{
		entries: builder.Build(),
		logger:  logger.Named("cache"),
	}
}

// Get returns the value stored under key. Expired entries are evicted and reported as missing.
func (s *Store) Get(key string) (any, bool) {
	value, err := s.entries.Get(key)
	if err != nil {
		if !errors.Is(err, gcache.KeyNotFoundError) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		telemetry.ObserveCacheLookup(key, false)
		return nil, false
	}
	telemetry.ObserveCacheLookup(key, true)
	s.logger.Debug("cache hit", zap.String("key", key))
	return value, true
}

// Set stores value under key for ttl, replacing any previous entry.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if err := s.entries.SetWithExpire(key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Lookup is Get with a typed result. A stored value of another type counts as a miss.
func Lookup[T any](s *Store, key string) (T, bool) {
	var zero T
	value, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
