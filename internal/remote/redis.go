package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisStore implements DocumentStore on top of a Redis-compatible server.
// Each document is one key holding its JSON encoding; List scans by prefix.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a DocumentStore backed by the Redis server at url
// (e.g. redis://localhost:6379/0).
func NewRedisStore(url string) (DocumentStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse remote store URL: %w", err)
	}
	return &redisStore{client: redis.NewClient(opts)}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client *redis.Client) DocumentStore {
	return &redisStore{client: client}
}

func (s *redisStore) Put(ctx context.Context, path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", path, err)
	}
	if err := s.client.Set(ctx, path, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, path string, out any) error {
	data, err := s.client.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, path).Err(); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", path, err)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		paths = append(paths, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents under %s: %w", prefix, err)
	}
	return paths, nil
}
