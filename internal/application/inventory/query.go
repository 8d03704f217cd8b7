package inventory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
)

// GetBalanceUseCase 查询某药品在某库位的结存
// 教学要点:Cache-Aside模式
//  1. 先查Redis,命中直接返回
//  2. 未命中查数据库,再回填缓存
//  3. 写操作(入库/冲销/调整)提交后删除缓存,而不是更新缓存
//
// 缓存只服务查询,台账写入从不读缓存
type GetBalanceUseCase struct {
	ledger inventory.Ledger
	cache  inventory.Cache
	logger *zap.Logger
}

// NewGetBalanceUseCase 创建结存查询用例
func NewGetBalanceUseCase(ledger inventory.Ledger, cache inventory.Cache, logger *zap.Logger) *GetBalanceUseCase {
	return &GetBalanceUseCase{ledger: ledger, cache: cache, logger: logger}
}

// Execute 执行查询
// 从未入库过的库位返回结存0,而不是404
func (uc *GetBalanceUseCase) Execute(ctx context.Context, drugID uint, location string) (*RecordResponse, error) {
	key := inventory.NewKey(drugID, location)
	if err := inventory.ValidateKey(key); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		rec, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			// Redis故障降级为直接查库
			uc.logger.Warn("读取库存缓存失败", zap.String("key", key.String()), zap.Error(err))
		} else if ok {
			return NewRecordResponse(rec), nil
		}
	}

	rec, err := uc.ledger.Get(ctx, key)
	if err != nil {
		if errors.Is(err, inventory.ErrRecordNotFound) {
			return &RecordResponse{DrugID: key.DrugID, Location: key.Location}, nil
		}
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, rec); err != nil {
			uc.logger.Warn("回填库存缓存失败", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return NewRecordResponse(rec), nil
}

// ListBalancesUseCase 结存列表
type ListBalancesUseCase struct {
	ledger inventory.Ledger
}

// NewListBalancesUseCase 创建结存列表用例
func NewListBalancesUseCase(ledger inventory.Ledger) *ListBalancesUseCase {
	return &ListBalancesUseCase{ledger: ledger}
}

// ListRequest 结存列表请求
type ListRequest struct {
	Page     int
	PageSize int
	DrugID   uint
	Location string
	HideZero bool
}

// ListResponse 结存列表响应
type ListResponse struct {
	Items    []*RecordResponse `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// Execute 执行查询
func (uc *ListBalancesUseCase) Execute(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	records, total, err := uc.ledger.List(ctx, inventory.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		DrugID:   req.DrugID,
		Location: strings.TrimSpace(req.Location),
		HideZero: req.HideZero,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*RecordResponse, len(records))
	for i, r := range records {
		items[i] = NewRecordResponse(r)
	}
	return &ListResponse{Items: items, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

// ListMovementsUseCase 库存流水查询
type ListMovementsUseCase struct {
	ledger inventory.Ledger
}

// NewListMovementsUseCase 创建流水查询用例
func NewListMovementsUseCase(ledger inventory.Ledger) *ListMovementsUseCase {
	return &ListMovementsUseCase{ledger: ledger}
}

// MovementsResponse 流水列表响应
type MovementsResponse struct {
	Items    []MovementResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// Execute 执行查询(最新在前)
func (uc *ListMovementsUseCase) Execute(ctx context.Context, drugID uint, location string, page, pageSize int) (*MovementsResponse, error) {
	key := inventory.NewKey(drugID, location)
	if err := inventory.ValidateKey(key); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	movements, total, err := uc.ledger.ListMovements(ctx, key, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]MovementResponse, len(movements))
	for i, m := range movements {
		items[i] = newMovementResponse(m)
	}
	return &MovementsResponse{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
