package drug

import (
	"strings"
	"time"
)

// Drug 药品目录实体(聚合根)
// DDD设计说明:
// 1. 药品目录是库存模块的外部依赖,入库时只校验药品是否存在
// 2. Code是医院内部药品编码(数据库层保证唯一性)
// 3. 删除为软删除,历史入库单仍可引用已停用的药品
type Drug struct {
	ID            uint
	Code          string // 药品编码
	Name          string // 通用名
	Specification string // 规格,如 0.25g*24粒
	Unit          string // 包装单位,如 盒
	Manufacturer  string // 生产厂家
	CreatedBy     uint   // 建档操作员
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDrug 创建药品(工厂方法)
func NewDrug(code, name, specification, unit, manufacturer string, createdBy uint) *Drug {
	now := time.Now()
	return &Drug{
		Code:          strings.ToUpper(strings.TrimSpace(code)),
		Name:          strings.TrimSpace(name),
		Specification: specification,
		Unit:          unit,
		Manufacturer:  manufacturer,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateInfo 更新药品基本信息(空字段不修改)
func (d *Drug) UpdateInfo(name, specification, unit, manufacturer string) {
	if name != "" {
		d.Name = name
	}
	if specification != "" {
		d.Specification = specification
	}
	if unit != "" {
		d.Unit = unit
	}
	if manufacturer != "" {
		d.Manufacturer = manufacturer
	}
	d.UpdatedAt = time.Now()
}
