package drug

import (
	"context"
	"strings"

	"github.com/xiebiao/pharmacy/internal/domain/drug"
)

// ListDrugsUseCase 药品目录列表查询用例
// 支持分页、关键词搜索(编码、通用名、厂家)、排序
type ListDrugsUseCase struct {
	drugService drug.Service
}

// NewListDrugsUseCase 创建列表查询用例
func NewListDrugsUseCase(drugService drug.Service) *ListDrugsUseCase {
	return &ListDrugsUseCase{drugService: drugService}
}

// ListDrugsRequest 列表查询请求DTO
type ListDrugsRequest struct {
	Page     int    // 页码(从1开始)
	PageSize int    // 每页数量
	Keyword  string // 搜索关键词
	SortBy   string // 排序方式(code_asc, name_asc, created_at_desc)
}

// ListDrugsResponse 列表查询响应DTO
type ListDrugsResponse struct {
	List       []*DrugResponse `json:"list"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// Execute 执行列表查询用例
func (uc *ListDrugsUseCase) Execute(ctx context.Context, req ListDrugsRequest) (*ListDrugsResponse, error) {
	// 1. 参数默认值与范围限制
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 2. 调用领域服务查询
	drugs, total, err := uc.drugService.ListDrugs(ctx, drug.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  strings.TrimSpace(req.Keyword),
		SortBy:   req.SortBy,
	})
	if err != nil {
		return nil, err
	}

	// 3. 转换为DTO
	list := make([]*DrugResponse, len(drugs))
	for i, d := range drugs {
		list[i] = newDrugResponse(d)
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize != 0 {
		totalPages++
	}

	return &ListDrugsResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetDrugUseCase 药品详情
type GetDrugUseCase struct {
	drugService drug.Service
}

// NewGetDrugUseCase 创建详情查询用例
func NewGetDrugUseCase(drugService drug.Service) *GetDrugUseCase {
	return &GetDrugUseCase{drugService: drugService}
}

// Execute 执行查询
func (uc *GetDrugUseCase) Execute(ctx context.Context, id uint) (*DrugResponse, error) {
	d, err := uc.drugService.GetDrugByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return newDrugResponse(d), nil
}
