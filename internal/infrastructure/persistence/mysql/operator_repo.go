package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/pharmacy/internal/domain/operator"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// operatorRepository 操作员仓储实现
// 设计说明：
// 1. 实现domain/operator/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误（如工号重复），转换为业务错误
type operatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository 创建操作员仓储
// 注意：返回的是domain层的接口类型，不是具体类型（依赖倒置）
func NewOperatorRepository(db *gorm.DB) operator.Repository {
	return &operatorRepository{db: db}
}

// Create 创建操作员
// 学习要点：工号唯一性由数据库UNIQUE索引保证（而非应用层SELECT再INSERT）
func (r *operatorRepository) Create(ctx context.Context, op *operator.Operator) error {
	model := &OperatorModel{
		Username:   op.Username,
		Password:   op.Password,
		Name:       op.Name,
		Department: op.Department,
	}

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return apperrors.ErrUsernameDuplicate
		}
		return apperrors.WrapDB(err, "创建操作员失败")
	}

	// 回填自增ID（GORM自动填充）
	op.ID = model.ID
	op.CreatedAt = model.CreatedAt
	op.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找操作员
func (r *operatorRepository) FindByID(ctx context.Context, id uint) (*operator.Operator, error) {
	var model OperatorModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOperatorNotFound
		}
		return nil, apperrors.WrapDB(err, "查询操作员失败")
	}

	return toOperatorEntity(&model), nil
}

// FindByUsername 根据工号查找操作员
func (r *operatorRepository) FindByUsername(ctx context.Context, username string) (*operator.Operator, error) {
	var model OperatorModel
	if err := getDB(ctx, r.db).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOperatorNotFound
		}
		return nil, apperrors.WrapDB(err, "查询操作员失败")
	}

	return toOperatorEntity(&model), nil
}

// toOperatorEntity GORM模型 → 领域实体
func toOperatorEntity(model *OperatorModel) *operator.Operator {
	return &operator.Operator{
		ID:         model.ID,
		Username:   model.Username,
		Password:   model.Password,
		Name:       model.Name,
		Department: model.Department,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
