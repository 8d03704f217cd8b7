package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// MessageDeduper 消息去重
// 教学要点：RabbitMQ保证至少一次投递，消费者用SETNX记录处理过的消息ID实现幂等
type MessageDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMessageDeduper 创建去重器，ttl是消息ID的保留时间
func NewMessageDeduper(client *redis.Client, ttl time.Duration) *MessageDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MessageDeduper{client: client, ttl: ttl}
}

// FirstSeen 第一次见到该消息ID返回true
func (d *MessageDeduper) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, "mq:seen:"+messageID, 1, d.ttl).Result()
	if err != nil {
		return false, apperrors.ErrRedisError.WithCause(err)
	}
	return ok, nil
}

// Forget 处理失败时删除记录，让重新投递的消息可以再次处理
func (d *MessageDeduper) Forget(ctx context.Context, messageID string) error {
	return d.client.Del(ctx, "mq:seen:"+messageID).Err()
}
