// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/encore/internal/config"
	"github.com/tomtom215/encore/internal/logging"
)

// snapshotVersion guards against decoding snapshots written by an
// incompatible build.
const snapshotVersion = 1

type snapshot struct {
	Version int   `json:"v"`
	Entry   Entry `json:"entry"`
}

// ErrSnapshotVersion is returned for snapshots with an unknown version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

func encodeSnapshot(e Entry) ([]byte, error) {
	raw, err := json.Marshal(snapshot{Version: snapshotVersion, Entry: e})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return snappy.Encode(nil, raw), nil
}

func decodeSnapshot(data []byte) (Entry, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return Entry{}, fmt.Errorf("decompress snapshot: %w", err)
	}
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Entry{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return Entry{}, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	return s.Entry, nil
}

// RedisSnapshotStore keeps snappy-compressed JSON snapshots of cache entries
// in Redis so several instances share one fetch per TTL window.
type RedisSnapshotStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	clock   Clock
}

// NewRedisSnapshotStore connects to cfg.RedisURL. Keys expire after ttl.
func NewRedisSnapshotStore(cfg config.CacheConfig, ttl time.Duration) (*RedisSnapshotStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisSnapshotStoreWithClient(redis.NewClient(opts), cfg.RedisPrefix, ttl, cfg.RedisTimeout), nil
}

// NewRedisSnapshotStoreWithClient wraps an existing client.
func NewRedisSnapshotStoreWithClient(client *redis.Client, prefix string, ttl, timeout time.Duration) *RedisSnapshotStore {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisSnapshotStore{client: client, prefix: prefix, ttl: ttl, timeout: timeout, clock: SystemClock{}}
}

// WithClock sets the clock Save measures entry age against. Pass the same
// clock as the EventCache so both tiers agree on when an entry expires.
func (s *RedisSnapshotStore) WithClock(clock Clock) *RedisSnapshotStore {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// snapshotExpiry is the part of ttl an entry fetched at fetchedAt has left.
func snapshotExpiry(ttl time.Duration, fetchedAt, now time.Time) time.Duration {
	return ttl - now.Sub(fetchedAt)
}

func (s *RedisSnapshotStore) key(k string) string { return s.prefix + k }

// Ping checks the connection.
func (s *RedisSnapshotStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Load returns the snapshot for key. ok is false when none exists.
func (s *RedisSnapshotStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	e, err := decodeSnapshot(data)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Save stores entry. The Redis expiry is the time left on the entry's TTL;
// an entry with none left is not written.
func (s *RedisSnapshotStore) Save(ctx context.Context, key string, entry Entry) error {
	expiry := snapshotExpiry(s.ttl, entry.FetchedAt, s.clock.Now())
	if expiry <= 0 {
		return nil
	}
	data, err := encodeSnapshot(entry)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), data, expiry).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Clear deletes every snapshot under the store's prefix.
func (s *RedisSnapshotStore) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var cursor uint64
	deleted := 0
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			deleted += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	logging.Debug().Int("keys", deleted).Msg("Redis snapshots cleared")
	return nil
}

// Close closes the client.
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
