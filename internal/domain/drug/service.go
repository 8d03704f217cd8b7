package drug

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Service 药品目录领域服务接口
// 设计说明:
// 1. 领域服务封装业务规则校验
// 2. FindMissing是入库模块查询"药品是否存在"的唯一入口
type Service interface {
	// RegisterDrug 药品建档
	// 业务规则:
	// - 编码2-32位字母、数字或横线,统一转大写
	// - 通用名不能为空
	// - 编码不能重复
	RegisterDrug(ctx context.Context, code, name, specification, unit, manufacturer string, operatorID uint) (*Drug, error)

	// GetDrugByID 根据ID获取药品详情
	GetDrugByID(ctx context.Context, id uint) (*Drug, error)

	// UpdateDrugInfo 更新药品信息
	UpdateDrugInfo(ctx context.Context, id uint, name, specification, unit, manufacturer string) (*Drug, error)

	// DeleteDrug 停用药品(软删除)
	// 已入库的单据不受影响,冲销时也不再校验药品
	DeleteDrug(ctx context.Context, id uint) error

	// ListDrugs 分页查询药品列表
	ListDrugs(ctx context.Context, params ListParams) ([]*Drug, int64, error)

	// FindMissing 返回ids中在目录里不存在的ID(保持输入顺序)
	FindMissing(ctx context.Context, ids []uint) ([]uint, error)
}

// service 领域服务实现
type service struct {
	repo Repository
}

// NewService 创建药品目录领域服务
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

var codePattern = regexp.MustCompile(`^[A-Za-z0-9-]{2,32}$`)

// RegisterDrug 药品建档
func (s *service) RegisterDrug(ctx context.Context, code, name, specification, unit, manufacturer string, operatorID uint) (*Drug, error) {
	// 1. 编码格式校验
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return nil, ErrInvalidCode
	}

	// 2. 通用名校验
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	// 3. 检查编码是否已存在(Repository也会处理唯一索引冲突)
	existing, err := s.repo.FindByCode(ctx, strings.ToUpper(code))
	if err == nil && existing != nil {
		return nil, ErrCodeDuplicate
	}
	if err != nil && !errors.Is(err, ErrDrugNotFound) {
		return nil, err
	}

	// 4. 创建并持久化
	d := NewDrug(code, name, specification, unit, manufacturer, operatorID)
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDrugByID 根据ID获取药品
func (s *service) GetDrugByID(ctx context.Context, id uint) (*Drug, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateDrugInfo 更新药品信息
func (s *service) UpdateDrugInfo(ctx context.Context, id uint, name, specification, unit, manufacturer string) (*Drug, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d.UpdateInfo(strings.TrimSpace(name), specification, unit, manufacturer)

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDrug 停用药品
func (s *service) DeleteDrug(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// ListDrugs 分页查询药品列表
func (s *service) ListDrugs(ctx context.Context, params ListParams) ([]*Drug, int64, error) {
	return s.repo.List(ctx, params)
}

// FindMissing 批量校验药品是否存在
func (s *service) FindMissing(ctx context.Context, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	existing, err := s.repo.FindExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	var missing []uint
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
