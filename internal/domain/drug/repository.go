package drug

import (
	"context"
)

// Repository 药品目录仓储接口(依赖倒置原则)
type Repository interface {
	// Create 创建药品
	Create(ctx context.Context, drug *Drug) error

	// FindByID 根据ID查找药品
	FindByID(ctx context.Context, id uint) (*Drug, error)

	// FindByCode 根据药品编码查找
	FindByCode(ctx context.Context, code string) (*Drug, error)

	// FindExistingIDs 返回ids中在目录里存在(未删除)的ID
	// 入库前批量校验药品,一次查询代替逐个FindByID
	FindExistingIDs(ctx context.Context, ids []uint) ([]uint, error)

	// Update 更新药品信息
	Update(ctx context.Context, drug *Drug) error

	// Delete 删除药品(软删除)
	Delete(ctx context.Context, id uint) error

	// List 分页查询药品列表
	List(ctx context.Context, params ListParams) ([]*Drug, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词(编码、通用名、厂家)
	SortBy   string // 排序字段(code_asc, name_asc, created_at_desc)
}
