package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "parlor:snapshot:"

// RedisStore keeps one snapshot record per room in Redis, for
// deployments where games must survive a process restart or be shared
// across nodes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a Redis-backed snapshot store and verifies
// the connection.
func NewRedisStore(ctx context.Context, addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func redisKey(roomCode string) string {
	return redisKeyPrefix + roomCode
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(rec.RoomCode), data, 0).Err(); err != nil {
		return fmt.Errorf("store snapshot for %s: %w", rec.RoomCode, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, roomCode string) (Record, error) {
	data, err := s.client.Get(ctx, redisKey(roomCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load snapshot for %s: %w", roomCode, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode snapshot record for %s: %w", roomCode, err)
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, roomCode string) error {
	if err := s.client.Del(ctx, redisKey(roomCode)).Err(); err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", roomCode, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
