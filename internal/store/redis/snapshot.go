package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

const (
	// DefaultSnapshotTTL bounds how long a stale snapshot survives a backend outage
	DefaultSnapshotTTL = 48 * time.Hour
)

// snapshotRecord is the stored JSON document.
type snapshotRecord struct {
	SavedAt time.Time             `json:"savedAt"`
	Items   []domain.Announcement `json:"items"`
}

// Store persists the last known-good announcement list of one scope
type Store struct {
	client *redis.Client
	scope  string
	ttl    time.Duration
}

// NewStore creates a new Redis snapshot store. scope is typically the user id.
func NewStore(client *redis.Client, scope string) *Store {
	return &Store{
		client: client,
		scope:  scope,
		ttl:    DefaultSnapshotTTL,
	}
}

// Key returns the key this store writes to
func (s *Store) Key() string {
	return SnapshotKey(s.scope)
}

// SaveSnapshot replaces the stored snapshot
func (s *Store) SaveSnapshot(ctx context.Context, items []domain.Announcement) error {
	data, err := encodeSnapshot(items, time.Now())
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.Key(), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot. A missing key is not an error.
func (s *Store) LoadSnapshot(ctx context.Context) ([]domain.Announcement, error) {
	data, err := s.client.Get(ctx, s.Key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	items, _, err := decodeSnapshot(data)
	return items, err
}

func encodeSnapshot(items []domain.Announcement, savedAt time.Time) ([]byte, error) {
	if items == nil {
		items = []domain.Announcement{}
	}
	data, err := json.Marshal(snapshotRecord{SavedAt: savedAt.UTC(), Items: items})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// decodeSnapshot re-derives categories so a snapshot written by an older
// classifier table cannot smuggle stale categories back in.
func decodeSnapshot(data []byte) ([]domain.Announcement, time.Time, error) {
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	out := rec.Items[:0]
	for _, a := range rec.Items {
		if a.ID == "" {
			continue
		}
		a.Classify()
		out = append(out, a)
	}
	return out, rec.SavedAt, nil
}
