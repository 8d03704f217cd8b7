package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// SessionStore 会话存储
// 设计说明：
// 1. 使用Redis存储操作员登录会话
// 2. 支持JWT黑名单（登出、强制下线）
// 3. Key设计：session:operator:{id}、blacklist:{token}
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(operatorID uint) string {
	return fmt.Sprintf("session:operator:%d", operatorID)
}

// SaveSession 保存操作员会话
// 学习要点：
// 1. 存储登录信息（登录时间、IP地址）
// 2. 设置过期时间（与Refresh Token一致）
// 3. HSet+Expire放在一个Pipeline里，减少网络往返
func (s *SessionStore) SaveSession(ctx context.Context, operatorID uint, sessionData map[string]interface{}, ttl time.Duration) error {
	key := sessionKey(operatorID)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, sessionData)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return apperrors.New(apperrors.ErrCodeRedisError, "保存会话失败").WithCause(err)
	}

	return nil
}

// GetSession 获取操作员会话
func (s *SessionStore) GetSession(ctx context.Context, operatorID uint) (map[string]string, error) {
	result, err := s.client.HGetAll(ctx, sessionKey(operatorID)).Result()
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeRedisError, "获取会话失败").WithCause(err)
	}

	if len(result) == 0 {
		return nil, apperrors.ErrUnauthorized
	}

	return result, nil
}

// DeleteSession 删除操作员会话（用于登出）
func (s *SessionStore) DeleteSession(ctx context.Context, operatorID uint) error {
	if err := s.client.Del(ctx, sessionKey(operatorID)).Err(); err != nil {
		return apperrors.New(apperrors.ErrCodeRedisError, "删除会话失败").WithCause(err)
	}
	return nil
}

// AddToBlacklist 将Token加入黑名单
// ttl取Access Token有效期，过期后自动删除
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	key := fmt.Sprintf("blacklist:%s", token)

	if err := s.client.Set(ctx, key, "revoked", ttl).Err(); err != nil {
		return apperrors.New(apperrors.ErrCodeRedisError, "添加Token到黑名单失败").WithCause(err)
	}

	return nil
}

// IsInBlacklist 检查Token是否在黑名单中
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("blacklist:%s", token)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperrors.New(apperrors.ErrCodeRedisError, "检查黑名单失败").WithCause(err)
	}

	return exists > 0, nil
}
