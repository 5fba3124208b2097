package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

const redisKeyPrefix = "clinicdesk:session:"

// RedisStore persists sessions in Redis with native key expiry, allowing
// sessions to be shared across replicas.
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore creates a session store over an established Redis client.
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the session with a TTL matching its expiry.
func (s *RedisStore) Put(ctx context.Context, sess domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, redisKeyPrefix+sess.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Get returns the session for the token, or nil when unknown or expired.
func (s *RedisStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session for the token.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
