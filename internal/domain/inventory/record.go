package inventory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Key 库存台账的业务主键：药品 + 库位
// 同一药品在不同库位分别记账
type Key struct {
	DrugID   uint
	Location string
}

// NewKey 创建台账主键（库位去除首尾空白）
func NewKey(drugID uint, location string) Key {
	return Key{DrugID: drugID, Location: strings.TrimSpace(location)}
}

// String 实现Stringer接口(方便日志输出)
func (k Key) String() string {
	return fmt.Sprintf("%d@%s", k.DrugID, k.Location)
}

// Less 台账主键的全序：先按药品ID，再按库位
// 多行单据按此顺序加锁，保证并发事务的加锁顺序一致，避免死锁
func (k Key) Less(other Key) bool {
	if k.DrugID != other.DrugID {
		return k.DrugID < other.DrugID
	}
	return k.Location < other.Location
}

// SortKeys 原地排序
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// Record 库存台账记录（某药品在某库位的当前结存）
//
// 教学要点：
// 1. Quantity永远 >= 0，唯一的修改入口是Ledger.Apply
// 2. 首次入库时惰性创建，结存为0后也不删除
// 3. LastUpdatedAt在每次变动时刷新
type Record struct {
	ID            uint
	DrugID        uint
	Location      string
	Quantity      int
	LastUpdatedAt time.Time
	CreatedAt     time.Time
}

// NewRecord 创建空台账记录
func NewRecord(key Key, now time.Time) *Record {
	return &Record{
		DrugID:        key.DrugID,
		Location:      key.Location,
		Quantity:      0,
		LastUpdatedAt: now,
		CreatedAt:     now,
	}
}

// Key 返回记录的业务主键
func (r *Record) Key() Key {
	return Key{DrugID: r.DrugID, Location: r.Location}
}

// CanApply 检查变动后结存是否非负且不溢出
// 结存不足时返回带缺口明细的库存不足错误,溢出时返回ErrBalanceOverflow
func (r *Record) CanApply(delta int) error {
	if delta == 0 {
		return ErrZeroDelta
	}
	if delta > 0 && r.Quantity > math.MaxInt-delta {
		return ErrBalanceOverflow
	}
	if r.Quantity+delta < 0 {
		return NewInsufficientStockError(r.Shortage(-delta))
	}
	return nil
}

// Apply 在内存中应用变动（领域行为）
func (r *Record) Apply(delta int, now time.Time) error {
	if err := r.CanApply(delta); err != nil {
		return err
	}
	r.Quantity += delta
	r.LastUpdatedAt = now
	return nil
}

// Shortage 计算出库required件时的缺口
func (r *Record) Shortage(required int) Shortage {
	short := required - r.Quantity
	if short < 0 {
		short = 0
	}
	return Shortage{
		DrugID:   r.DrugID,
		Location: r.Location,
		OnHand:   r.Quantity,
		Required: required,
		Short:    short,
	}
}

// IsEmpty 结存是否为0
func (r *Record) IsEmpty() bool {
	return r.Quantity == 0
}
