package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "learnspace:collection:"

// Redis stores each collection as a JSON array under a single key.
type Redis struct {
	conn *redis.Client
}

func NewRedis(conn *redis.Client) *Redis {
	return &Redis{conn: conn}
}

func (r *Redis) Read(ctx context.Context, name string) ([]json.RawMessage, error) {
	body, err := r.conn.Get(ctx, redisKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", name, err)
	}
	return decodeArray(name, body)
}

func (r *Redis) Write(ctx context.Context, name string, records []json.RawMessage) error {
	body, err := encodeArray(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := r.conn.Set(ctx, redisKeyPrefix+name, body, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", name, err)
	}
	return nil
}
