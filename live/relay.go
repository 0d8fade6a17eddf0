package live

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Channel is the Redis pub/sub channel shared by every instance.
const Channel = "learnspace-events"

// RedisRelay fans events out through Redis so dashboards connected to any
// instance see changes made on another one.
type RedisRelay struct {
	conn   *redis.Client
	local  Publisher
	logger *zap.Logger
}

func NewRedisRelay(conn *redis.Client, local Publisher, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{conn: conn, local: local, logger: logger}
}

// Publish sends ev to Redis. If Redis is unreachable the event still reaches
// this instance's subscribers.
func (r *RedisRelay) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("encode live event", zap.Error(err))
		return
	}
	if err := r.conn.Publish(ctx, Channel, data).Err(); err != nil {
		r.logger.Warn("publish to redis failed, delivering locally",
			zap.String("channel", Channel), zap.Error(err))
		r.local.Publish(ctx, ev)
	}
}

// Run forwards events from the channel to the local hub until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) {
	sub := r.conn.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()

	r.logger.Info("listening for live events", zap.String("channel", Channel))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Warn("bad live event payload", zap.Error(err))
				continue
			}
			r.local.Publish(ctx, ev)
		}
	}
}
