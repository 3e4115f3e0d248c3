package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"stockit/errs"

	"github.com/go-redis/redis/v8"
)

// SessionStore remembers issued refresh tokens so they can be rotated and
// revoked.
type SessionStore interface {
	Save(ctx context.Context, token string, userID uint, ttl time.Duration) error
	UserID(ctx context.Context, token string) (uint, error)
	Delete(ctx context.Context, token string) error
}

type redisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{rdb: rdb}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:refresh:%s", token)
}

func (s *redisSessionStore) Save(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, sessionKey(token), userID, ttl).Err(); err != nil {
		return storageErr("sessions.Save", err)
	}
	return nil
}

func (s *redisSessionStore) UserID(ctx context.Context, token string) (uint, error) {
	val, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, errs.NotFound("session not found")
		}
		return 0, storageErr("sessions.UserID", err)
	}

	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, storageErr("sessions.UserID", err)
	}
	return uint(id), nil
}

func (s *redisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return storageErr("sessions.Delete", err)
	}
	return nil
}
