package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store keeps one autosaved draft per user.
type Store interface {
	Load(ctx context.Context, userID uuid.UUID) (Draft, error)
	Save(ctx context.Context, userID uuid.UUID, d Draft) error
	Discard(ctx context.Context, userID uuid.UUID) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func draftKey(userID uuid.UUID) string {
	return "draft:" + userID.String()
}

// Load returns a fresh draft when nothing is saved for the user.
func (s *RedisStore) Load(ctx context.Context, userID uuid.UUID) (Draft, error) {
	raw, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return New(), nil
	}
	if err != nil {
		return Draft{}, fmt.Errorf("loading draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decoding draft: %w", err)
	}
	return d, nil
}

func (s *RedisStore) Save(ctx context.Context, userID uuid.UUID, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Discard(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	return nil
}
