package drug

import (
	"context"

	"github.com/xiebiao/pharmacy/internal/domain/drug"
)

// RegisterDrugUseCase 药品建档用例
// 设计说明:
// 1. 应用层只负责流程编排,编码格式、重复校验由领域服务负责
// 2. 入库单只引用药品ID,建档后才能入库
type RegisterDrugUseCase struct {
	drugService drug.Service
}

// NewRegisterDrugUseCase 创建建档用例
func NewRegisterDrugUseCase(drugService drug.Service) *RegisterDrugUseCase {
	return &RegisterDrugUseCase{drugService: drugService}
}

// RegisterDrugRequest 建档请求DTO
type RegisterDrugRequest struct {
	Code          string // 药品编码
	Name          string // 通用名
	Specification string // 规格
	Unit          string // 包装单位
	Manufacturer  string // 生产厂家
	OperatorID    uint   // 建档操作员(从认证中间件获取)
}

// DrugResponse 药品响应DTO
type DrugResponse struct {
	ID            uint   `json:"id"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Specification string `json:"specification"`
	Unit          string `json:"unit"`
	Manufacturer  string `json:"manufacturer"`
	CreatedBy     uint   `json:"created_by"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func newDrugResponse(d *drug.Drug) *DrugResponse {
	return &DrugResponse{
		ID:            d.ID,
		Code:          d.Code,
		Name:          d.Name,
		Specification: d.Specification,
		Unit:          d.Unit,
		Manufacturer:  d.Manufacturer,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:     d.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

// Execute 执行建档用例
func (uc *RegisterDrugUseCase) Execute(ctx context.Context, req RegisterDrugRequest) (*DrugResponse, error) {
	d, err := uc.drugService.RegisterDrug(
		ctx,
		req.Code,
		req.Name,
		req.Specification,
		req.Unit,
		req.Manufacturer,
		req.OperatorID,
	)
	if err != nil {
		return nil, err
	}
	return newDrugResponse(d), nil
}
