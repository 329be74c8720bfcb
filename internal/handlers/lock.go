package handlers

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const submitLockTTL = 10 * time.Minute

type submitLocker interface {
	Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error)
	Release(ctx context.Context, sessionID uuid.UUID)
}

// RedisSubmitLock serializes submissions per session across server
// instances with SETNX.
type RedisSubmitLock struct {
	client *redis.Client
}

func NewRedisSubmitLock(client *redis.Client) *RedisSubmitLock {
	return &RedisSubmitLock{client: client}
}

func submitLockKey(sessionID uuid.UUID) string {
	return "submit_lock:" + sessionID.String()
}

func (l *RedisSubmitLock) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return l.client.SetNX(ctx, submitLockKey(sessionID), time.Now().UTC().Format(time.RFC3339Nano), submitLockTTL).Result()
}

func (l *RedisSubmitLock) Release(ctx context.Context, sessionID uuid.UUID) {
	if err := l.client.Del(ctx, submitLockKey(sessionID)).Err(); err != nil {
		log.Printf("Failed to release submit lock for session %s: %v", sessionID, err)
	}
}
