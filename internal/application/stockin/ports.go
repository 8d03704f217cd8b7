package stockin

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
)

const tracerName = "application/stockin"

// Transactor 事务边界(*mysql.TxManager实现了它)
// fn内使用传入的ctx,仓储方法会自动加入同一个事务
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// DrugCatalog 药品目录查询(drug.Service实现了它)
type DrugCatalog interface {
	// FindMissing 返回目录中不存在的药品ID
	FindMissing(ctx context.Context, ids []uint) ([]uint, error)
}

// afterCommit 事务提交后的收尾工作:失效缓存、发布事件
// 两者都是尽力而为,失败只记日志
type afterCommit struct {
	cache     inventory.Cache
	publisher stockin.EventPublisher
	logger    *zap.Logger
}

func (a afterCommit) run(ctx context.Context, keys []inventory.Key, event stockin.Event) {
	if a.cache != nil {
		if err := a.cache.Invalidate(ctx, keys...); err != nil {
			a.logger.Warn("失效库存缓存失败",
				zap.Uint("document_id", event.DocumentID),
				zap.Error(err),
			)
		}
	}
	if a.publisher != nil {
		// 发布失败已由发布者记录日志
		_ = a.publisher.Publish(ctx, event)
	}
}
