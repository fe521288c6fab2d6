package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultStageTTL = 5 * time.Minute

// RedisConfirmStore holds short-lived stage tokens for the two-step
// all-denied confirmation: the first submit stages a token, the second
// must present it before blanket rejection is committed.
type RedisConfirmStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisConfirmStore(client *goredis.Client, ttl time.Duration) (*RedisConfirmStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultStageTTL
	}

	return &RedisConfirmStore{
		client: client,
		ttl:    ttl,
	}, nil
}

func stageKey(batchID string, reviewerID string) string {
	return fmt.Sprintf("reviewconfirm:%s:%s", batchID, reviewerID)
}

// Stage issues a new token for the reviewer's pending all-denied submit,
// replacing any previous one.
func (s *RedisConfirmStore) Stage(ctx context.Context, batchID string, reviewerID string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("confirm store is not initialized")
	}

	token := uuid.NewString()
	if err := s.client.Set(ctx, stageKey(batchID, reviewerID), token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to stage confirmation: %w", err)
	}

	return token, nil
}

// Consume validates and burns a staged token. A token is single-use;
// whether it matched or not, it is gone afterwards.
func (s *RedisConfirmStore) Consume(ctx context.Context, batchID string, reviewerID string, token string) (bool, error) {
	if s == nil || s.client == nil {
		return false, fmt.Errorf("confirm store is not initialized")
	}
	if strings.TrimSpace(token) == "" {
		return false, nil
	}

	stored, err := s.client.GetDel(ctx, stageKey(batchID, reviewerID)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to consume confirmation: %w", err)
	}

	return stored == token, nil
}
