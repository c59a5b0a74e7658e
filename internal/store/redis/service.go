package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/navbar/internal/domain"
)

// DefaultSnapshotTTL bounds how long a navigation snapshot survives without a reload.
const DefaultSnapshotTTL = 7 * 24 * time.Hour

// ErrCorruptSnapshot means the stored snapshot exists but cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt navigation snapshot")

// Snapshot is a stored navigation config and its write time.
type Snapshot struct {
	Config    domain.NavigationConfig
	UpdatedAt time.Time
}

// Store persists navigation snapshots and render counters in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultSnapshotTTL,
	}
}

// SaveNavigation stores cfg as the current snapshot.
func (s *Store) SaveNavigation(ctx context.Context, cfg domain.NavigationConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal navigation: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, KeyNavigation, data, s.ttl)
	pipe.Set(ctx, KeyNavigationUpdated, now, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save navigation: %w", err)
	}
	return nil
}

// LoadNavigation returns the stored snapshot, or nil when none exists.
func (s *Store) LoadNavigation(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, KeyNavigation).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get navigation: %w", err)
	}

	var cfg domain.NavigationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	snap := &Snapshot{Config: cfg}
	if ts, err := s.client.Get(ctx, KeyNavigationUpdated).Result(); err == nil {
		if t, perr := time.Parse(time.RFC3339, ts); perr == nil {
			snap.UpdatedAt = t
		}
	}
	return snap, nil
}

// DeleteNavigation removes the stored snapshot.
func (s *Store) DeleteNavigation(ctx context.Context) error {
	if err := s.client.Del(ctx, KeyNavigation, KeyNavigationUpdated).Err(); err != nil {
		return fmt.Errorf("failed to delete navigation: %w", err)
	}
	return nil
}

// IncrementRenders bumps the render counter for a page path.
func (s *Store) IncrementRenders(ctx context.Context, path string) (int64, error) {
	n, err := s.client.Incr(ctx, RendersKey(path)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment renders: %w", err)
	}
	return n, nil
}

// RenderStats returns render counts keyed by page path.
func (s *Store) RenderStats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64)

	iter := s.client.Scan(ctx, 0, KeyPrefixRenders+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		path, err := ExtractPagePath(key)
		if err != nil {
			continue
		}
		raw, err := s.client.Get(ctx, key).Result()
		if err != nil {
			// Key may have been removed between SCAN and GET
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		stats[path] = n
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan render counters: %w", err)
	}
	return stats, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
