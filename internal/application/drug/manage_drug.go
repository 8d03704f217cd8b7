package drug

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/drug"
)

// UpdateDrugUseCase 修改药品信息(编码不可修改)
type UpdateDrugUseCase struct {
	drugService drug.Service
}

// NewUpdateDrugUseCase 创建修改用例
func NewUpdateDrugUseCase(drugService drug.Service) *UpdateDrugUseCase {
	return &UpdateDrugUseCase{drugService: drugService}
}

// UpdateDrugRequest 修改请求DTO,空字段表示不修改
type UpdateDrugRequest struct {
	ID            uint
	Name          string
	Specification string
	Unit          string
	Manufacturer  string
}

// Execute 执行修改
func (uc *UpdateDrugUseCase) Execute(ctx context.Context, req UpdateDrugRequest) (*DrugResponse, error) {
	d, err := uc.drugService.UpdateDrugInfo(ctx, req.ID, req.Name, req.Specification, req.Unit, req.Manufacturer)
	if err != nil {
		return nil, err
	}
	return newDrugResponse(d), nil
}

// DeleteDrugUseCase 停用药品
// 停用后不能再入库,但历史入库单仍可查询和冲销
type DeleteDrugUseCase struct {
	drugService drug.Service
	logger      *zap.Logger
}

// NewDeleteDrugUseCase 创建停用用例
func NewDeleteDrugUseCase(drugService drug.Service, logger *zap.Logger) *DeleteDrugUseCase {
	return &DeleteDrugUseCase{drugService: drugService, logger: logger}
}

// Execute 执行停用
func (uc *DeleteDrugUseCase) Execute(ctx context.Context, id, operatorID uint) error {
	if err := uc.drugService.DeleteDrug(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("药品已停用", zap.Uint("drug_id", id), zap.Uint("operator_id", operatorID))
	return nil
}
