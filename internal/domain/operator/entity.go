package operator

import (
	"time"
)

// Operator 操作员实体（聚合根）
// DDD设计说明：
// 1. 操作员是药库的工作人员，入库单、冲销都记录操作员ID
// 2. 密码已加密存储（bcrypt），不暴露明文
// 3. 领域实体不依赖GORM tag
type Operator struct {
	ID         uint
	Username   string // 工号（登录名）
	Password   string // bcrypt哈希值
	Name       string // 姓名
	Department string // 所属科室
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOperator 创建新操作员（工厂方法）
// hashedPassword必须是bcrypt加密后的密码
func NewOperator(username, hashedPassword, name, department string) *Operator {
	now := time.Now()
	return &Operator{
		Username:   username,
		Password:   hashedPassword,
		Name:       name,
		Department: department,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ChangeDepartment 调整科室（领域行为）
func (o *Operator) ChangeDepartment(department string) {
	o.Department = department
	o.UpdatedAt = time.Now()
}
