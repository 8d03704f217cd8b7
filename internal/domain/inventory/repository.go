package inventory

import (
	"context"
)

// Ledger 库存台账仓储接口(依赖倒置原则)
//
// 教学要点：
// 1. Apply是结存非负约束的唯一执行点，业务用例不直接改写台账
// 2. 写操作通过context参与调用方的事务；没有事务时Apply自己开启事务
// 3. 实现必须防止丢失更新：行锁 + quantity = quantity + ? 原子更新
type Ledger interface {
	// GetOrCreate 查询台账记录，不存在则创建结存为0的记录
	// 在事务中调用时返回的记录已加行锁(SELECT FOR UPDATE)
	GetOrCreate(ctx context.Context, key Key) (*Record, error)

	// Apply 变动结存，delta为正表示入库，为负表示冲销/出库
	// 变动后结存为负时返回库存不足错误(附带缺口)，不做任何修改
	Apply(ctx context.Context, key Key, delta int, ref Reference) (*Record, error)

	// LockAll 按主键顺序锁定一组台账记录
	// 不存在的记录不会创建，也不会出现在返回结果中
	LockAll(ctx context.Context, keys []Key) (map[Key]*Record, error)

	// Get 查询台账记录(只读)
	Get(ctx context.Context, key Key) (*Record, error)

	// List 分页查询台账
	List(ctx context.Context, params ListParams) ([]*Record, int64, error)

	// ListMovements 分页查询某库位的库存流水
	ListMovements(ctx context.Context, key Key, page, pageSize int) ([]*Movement, int64, error)
}

// ListParams 台账列表查询参数
type ListParams struct {
	Page         int
	PageSize     int
	DrugID       uint   // 0表示不过滤
	Location     string // 空表示不过滤
	HideZero     bool   // 隐藏结存为0的记录
	WithoutLimit bool   // 导出时不分页
}

// ReconcileRow 对账结果行
// Expected = 有效入库单明细合计 + 手工调整合计
type ReconcileRow struct {
	DrugID      uint   `db:"drug_id" json:"drug_id"`
	Location    string `db:"location" json:"location"`
	Quantity    int    `db:"quantity" json:"quantity"`
	PostedIn    int    `db:"posted_in" json:"posted_in"`
	Adjustments int    `db:"adjustments" json:"adjustments"`
}

// Expected 按单据和流水推算的应有结存
func (r ReconcileRow) Expected() int {
	return r.PostedIn + r.Adjustments
}

// Balanced 台账与单据是否一致
func (r ReconcileRow) Balanced() bool {
	return r.Quantity == r.Expected()
}

// ReportRepository 库存报表查询接口(只读，走SQL直查)
type ReportRepository interface {
	// Reconcile 逐库位核对台账结存与单据、流水
	Reconcile(ctx context.Context) ([]ReconcileRow, error)
}

// Cache 库存结存缓存
// 只服务查询接口；台账写入从不读缓存，事务提交后由用例失效
type Cache interface {
	Get(ctx context.Context, key Key) (*Record, bool, error)
	Set(ctx context.Context, record *Record) error
	Invalidate(ctx context.Context, keys ...Key) error
}
