package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/pharmacy/internal/domain/drug"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// drugRepository 药品目录仓储实现
// 设计说明:
// 1. 实现domain/drug/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. 处理数据库特定的错误(如编码重复),转换为业务错误
type drugRepository struct {
	db *gorm.DB
}

// NewDrugRepository 创建药品目录仓储
func NewDrugRepository(db *gorm.DB) drug.Repository {
	return &drugRepository{db: db}
}

// Create 创建药品
func (r *drugRepository) Create(ctx context.Context, d *drug.Drug) error {
	model := toDrugModel(d)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return drug.ErrCodeDuplicate
		}
		return apperrors.WrapDB(err, "创建药品失败")
	}

	// 回填自增ID
	d.ID = model.ID
	d.CreatedAt = model.CreatedAt
	d.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID 根据ID查找药品
func (r *drugRepository) FindByID(ctx context.Context, id uint) (*drug.Drug, error) {
	var model DrugModel
	if err := getDB(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, drug.ErrDrugNotFound
		}
		return nil, apperrors.WrapDB(err, "查询药品失败")
	}

	return toDrugEntity(&model), nil
}

// FindByCode 根据药品编码查找
func (r *drugRepository) FindByCode(ctx context.Context, code string) (*drug.Drug, error) {
	var model DrugModel
	if err := getDB(ctx, r.db).Where("code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, drug.ErrDrugNotFound
		}
		return nil, apperrors.WrapDB(err, "查询药品失败")
	}

	return toDrugEntity(&model), nil
}

// FindExistingIDs 批量查询存在的药品ID
// 教学要点:一条 SELECT id ... WHERE id IN (?) 代替N次FindByID;软删除的药品自动排除
func (r *drugRepository) FindExistingIDs(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []uint
	err := getDB(ctx, r.db).Model(&DrugModel{}).Where("id IN ?", ids).Pluck("id", &found).Error
	if err != nil {
		return nil, apperrors.WrapDB(err, "批量查询药品失败")
	}
	return found, nil
}

// Update 更新药品信息
func (r *drugRepository) Update(ctx context.Context, d *drug.Drug) error {
	result := getDB(ctx, r.db).Model(&DrugModel{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
		"name":          d.Name,
		"specification": d.Specification,
		"unit":          d.Unit,
		"manufacturer":  d.Manufacturer,
		"updated_at":    d.UpdatedAt,
	})
	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "更新药品失败")
	}
	if result.RowsAffected == 0 {
		return drug.ErrDrugNotFound
	}
	return nil
}

// Delete 停用药品(软删除)
func (r *drugRepository) Delete(ctx context.Context, id uint) error {
	result := getDB(ctx, r.db).Delete(&DrugModel{}, id)

	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "删除药品失败")
	}

	if result.RowsAffected == 0 {
		return drug.ErrDrugNotFound
	}

	return nil
}

// List 分页查询药品列表
func (r *drugRepository) List(ctx context.Context, params drug.ListParams) ([]*drug.Drug, int64, error) {
	var models []DrugModel
	var total int64

	query := getDB(ctx, r.db).Model(&DrugModel{})

	// 关键词搜索(编码、通用名、厂家)
	if params.Keyword != "" {
		keyword := "%" + params.Keyword + "%"
		query = query.Where("code LIKE ? OR name LIKE ? OR manufacturer LIKE ?", keyword, keyword, keyword)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询药品总数失败")
	}

	switch params.SortBy {
	case "code_asc":
		query = query.Order("code ASC")
	case "name_asc":
		query = query.Order("name ASC")
	default:
		query = query.Order("created_at DESC").Order("id DESC")
	}

	page, pageSize := normalizePage(params.Page, params.PageSize)
	if err := query.Limit(pageSize).Offset(offsetOf(page, pageSize)).Find(&models).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询药品列表失败")
	}

	drugs := make([]*drug.Drug, len(models))
	for i := range models {
		drugs[i] = toDrugEntity(&models[i])
	}

	return drugs, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

func toDrugModel(d *drug.Drug) *DrugModel {
	return &DrugModel{
		ID:            d.ID,
		Code:          d.Code,
		Name:          d.Name,
		Specification: d.Specification,
		Unit:          d.Unit,
		Manufacturer:  d.Manufacturer,
		CreatedBy:     d.CreatedBy,
	}
}

func toDrugEntity(model *DrugModel) *drug.Drug {
	return &drug.Drug{
		ID:            model.ID,
		Code:          model.Code,
		Name:          model.Name,
		Specification: model.Specification,
		Unit:          model.Unit,
		Manufacturer:  model.Manufacturer,
		CreatedBy:     model.CreatedBy,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
