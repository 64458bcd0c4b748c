package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKeyPrefix = "session:"

// RedisStore implements Store on Redis. Each session is a JSON value whose
// key expires together with the session, so DeleteExpired has nothing to do.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a store. An empty prefix falls back to DefaultRedisKeyPrefix.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	return s.write(ctx, session, false)
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, errors.Join(ErrInvalidSession, err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}

	return &session, nil
}

func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	return s.write(ctx, session, true)
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.prefix+token).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteExpired(context.Context) error {
	return nil
}

// write stores session with a TTL matching its expiry. With mustExist the
// write only succeeds for a key that is still present.
func (s *RedisStore) write(ctx context.Context, session *Session, mustExist bool) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrInvalidSession, err)
	}

	key := s.prefix + session.Token
	if !mustExist {
		if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	}

	ok, err := s.client.SetXX(ctx, key, raw, ttl).Result()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}
