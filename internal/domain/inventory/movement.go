package inventory

import "time"

// Movement 库存流水（只增不改）
//
// 教学要点：
// 1. 每次Ledger.Apply都写一条流水，记录变动前后结存
// 2. 关联入库单ID，冲销时可以追溯原始入库
// 3. 对账报表依赖流水：手工调整只体现在流水里
type Movement struct {
	ID         uint
	DrugID     uint
	Location   string
	ChangeType ChangeType
	Quantity   int // 正数=增加，负数=减少
	BeforeQty  int
	AfterQty   int
	DocumentID uint // 关联入库单（手工调整为0）
	OperatorID uint
	Remark     string
	CreatedAt  time.Time
}

// ChangeType 库存变动类型
type ChangeType string

const (
	ChangeTypeStockIn       ChangeType = "STOCK_IN"        // 采购入库
	ChangeTypeStockInCancel ChangeType = "STOCK_IN_CANCEL" // 入库冲销
	ChangeTypeAdjust        ChangeType = "ADJUST"          // 手工调整（领用、报损、盘盈）
)

// Reference 变动来源，随Apply一起写入流水
type Reference struct {
	ChangeType ChangeType
	DocumentID uint
	OperatorID uint
	Remark     string
}

// NewMovement 根据变动前后结存生成流水
func NewMovement(key Key, delta, before, after int, ref Reference, now time.Time) *Movement {
	return &Movement{
		DrugID:     key.DrugID,
		Location:   key.Location,
		ChangeType: ref.ChangeType,
		Quantity:   delta,
		BeforeQty:  before,
		AfterQty:   after,
		DocumentID: ref.DocumentID,
		OperatorID: ref.OperatorID,
		Remark:     ref.Remark,
		CreatedAt:  now,
	}
}
