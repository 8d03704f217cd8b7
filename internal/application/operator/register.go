package operator

import (
	"context"

	"github.com/xiebiao/pharmacy/internal/domain/operator"
)

// RegisterUseCase 操作员注册用例
// 设计说明：
// 1. Application层负责用例编排，协调领域服务
// 2. 注册用例比较简单，只调用一个领域服务
type RegisterUseCase struct {
	operatorService operator.Service
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(operatorService operator.Service) *RegisterUseCase {
	return &RegisterUseCase{
		operatorService: operatorService,
	}
}

// Execute 执行注册
// 返回：RegisterResponse（应用层DTO，不是领域实体）
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	op, err := uc.operatorService.Register(ctx, req.Username, req.Password, req.Name, req.Department)
	if err != nil {
		return nil, err
	}

	// 领域实体 → 应用层DTO，不返回密码
	return &RegisterResponse{
		ID:         op.ID,
		Username:   op.Username,
		Name:       op.Name,
		Department: op.Department,
	}, nil
}

// =========================================
// 应用层DTO（数据传输对象）
// =========================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username   string
	Password   string
	Name       string
	Department string
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Department string `json:"department"`
}
