package operator

import (
	"context"
)

// Repository 操作员仓储接口（依赖倒置原则）
type Repository interface {
	// Create 创建操作员
	// 工号冲突时返回ErrUsernameDuplicate
	Create(ctx context.Context, op *Operator) error

	// FindByID 根据ID查找操作员
	FindByID(ctx context.Context, id uint) (*Operator, error)

	// FindByUsername 根据工号查找操作员
	FindByUsername(ctx context.Context, username string) (*Operator, error)
}
