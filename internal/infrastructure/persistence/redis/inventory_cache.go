package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
)

// InventoryCache 库存结存缓存（Cache-Aside）
//
// 教学要点：
// 1. 只服务查询接口：先查缓存，未命中查数据库再回填
// 2. 台账变动提交后删除缓存，不在事务里更新缓存
// 3. Key设计：inventory:balance:{drug_id}:{location}
type InventoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewInventoryCache 创建库存缓存
func NewInventoryCache(client *redis.Client, cfg *config.Config) *InventoryCache {
	ttl := cfg.Redis.BalanceTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InventoryCache{client: client, ttl: ttl}
}

var _ inventory.Cache = (*InventoryCache)(nil)

// cachedRecord 缓存中的JSON结构（领域实体没有json tag）
type cachedRecord struct {
	ID            uint      `json:"id"`
	DrugID        uint      `json:"drug_id"`
	Location      string    `json:"location"`
	Quantity      int       `json:"quantity"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	CreatedAt     time.Time `json:"created_at"`
}

func balanceKey(key inventory.Key) string {
	return fmt.Sprintf("inventory:balance:%d:%s", key.DrugID, key.Location)
}

// Get 查询缓存，第二个返回值表示是否命中
func (c *InventoryCache) Get(ctx context.Context, key inventory.Key) (*inventory.Record, bool, error) {
	val, err := c.client.Get(ctx, balanceKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("获取库存缓存失败: %w", err)
	}

	var cr cachedRecord
	if err := json.Unmarshal(val, &cr); err != nil {
		return nil, false, fmt.Errorf("反序列化库存缓存失败: %w", err)
	}

	return &inventory.Record{
		ID:            cr.ID,
		DrugID:        cr.DrugID,
		Location:      cr.Location,
		Quantity:      cr.Quantity,
		LastUpdatedAt: cr.LastUpdatedAt,
		CreatedAt:     cr.CreatedAt,
	}, true, nil
}

// Set 回填缓存
func (c *InventoryCache) Set(ctx context.Context, r *inventory.Record) error {
	val, err := json.Marshal(cachedRecord{
		ID:            r.ID,
		DrugID:        r.DrugID,
		Location:      r.Location,
		Quantity:      r.Quantity,
		LastUpdatedAt: r.LastUpdatedAt,
		CreatedAt:     r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("序列化库存缓存失败: %w", err)
	}

	if err := c.client.Set(ctx, balanceKey(r.Key()), val, c.ttl).Err(); err != nil {
		return fmt.Errorf("设置库存缓存失败: %w", err)
	}
	return nil
}

// Invalidate 批量删除缓存（一次DEL多个key）
func (c *InventoryCache) Invalidate(ctx context.Context, keys ...inventory.Key) error {
	if len(keys) == 0 {
		return nil
	}

	redisKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		redisKeys = append(redisKeys, balanceKey(k))
	}

	if err := c.client.Del(ctx, redisKeys...).Err(); err != nil {
		return fmt.Errorf("删除库存缓存失败: %w", err)
	}
	return nil
}
