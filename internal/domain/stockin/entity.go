package stockin

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
)

// Status 入库单状态
// 教学要点:
// 1. 只有两个状态：已入库 → 已冲销，单向且终态
// 2. 冲销不删除单据，单据和明细永久保留用于审计
type Status int

const (
	StatusPosted    Status = 1 // 已入库
	StatusCancelled Status = 2 // 已冲销
)

// String 实现Stringer接口(方便日志输出)
func (s Status) String() string {
	switch s {
	case StatusPosted:
		return "已入库"
	case StatusCancelled:
		return "已冲销"
	default:
		return "未知状态"
	}
}

// Code 对外输出的状态码
func (s Status) Code() string {
	switch s {
	case StatusPosted:
		return "POSTED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus 解析状态码(空字符串表示不过滤)
func ParseStatus(code string) (Status, bool) {
	switch code {
	case "":
		return 0, true
	case "POSTED":
		return StatusPosted, true
	case "CANCELLED":
		return StatusCancelled, true
	default:
		return 0, false
	}
}

// Document 入库单(聚合根)
// 教学要点:
// 1. Document是聚合根,Line是子实体,必须一起保存
// 2. InvoiceNo是业务唯一键(数据库唯一索引兜底)
// 3. TotalAmount由服务端按明细重新计算,不信任调用方传入的合计
type Document struct {
	ID            uint
	InvoiceNo     string          // 发票号(全局唯一,含已冲销单据)
	SupplierName  string          // 供应商
	OperatorID    uint            // 入库操作员
	OperationTime time.Time       // 业务发生时间
	TotalAmount   decimal.Decimal // 合计金额(服务端计算)
	Status        Status
	Remark        string
	Lines         []Line

	CancelledAt  *time.Time
	CancelledBy  uint
	CancelReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line 入库明细
// 教学要点:
// 1. 不是独立聚合根,必须通过Document访问
// 2. 创建后不可修改;冲销按明细原样反向扣减
type Line struct {
	ID             uint
	DocumentID     uint
	DrugID         uint
	BatchNo        string    // 批号
	ProductionDate time.Time // 生产日期(零值表示未填)
	ExpiryDate     time.Time // 有效期至(零值表示未填)
	Quantity       int
	UnitPrice      decimal.Decimal
	Subtotal       decimal.Decimal // Quantity × UnitPrice
	Location       string          // 库位
}

// Key 明细对应的台账主键
func (l Line) Key() inventory.Key {
	return inventory.NewKey(l.DrugID, l.Location)
}

// CalculateSubtotal 计算明细小计
func (l Line) CalculateSubtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewDocument 创建已入库单据(工厂方法)
// 教学要点:
// 1. 小计和合计都在这里重新计算
// 2. operationTime为零值时取当前时间
// 3. 调用方需先调用Validate完成参数校验
func NewDocument(invoiceNo, supplierName string, operatorID uint, operationTime time.Time, remark string, lines []Line, now time.Time) *Document {
	if operationTime.IsZero() {
		operationTime = now
	}

	copied := make([]Line, len(lines))
	for i, l := range lines {
		l.Location = l.Key().Location
		l.Subtotal = l.CalculateSubtotal()
		copied[i] = l
	}

	d := &Document{
		InvoiceNo:     invoiceNo,
		SupplierName:  supplierName,
		OperatorID:    operatorID,
		OperationTime: operationTime,
		Status:        StatusPosted,
		Remark:        remark,
		Lines:         copied,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	d.TotalAmount = d.CalculateTotal()
	return d
}

// CalculateTotal 按明细计算合计金额
func (d *Document) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Lines {
		total = total.Add(l.CalculateSubtotal())
	}
	return total
}

// CanTransitionTo 检查是否可以转换到目标状态
// 教学要点:状态机设计,已冲销是终态
func (d *Document) CanTransitionTo(target Status) bool {
	transitions := map[Status][]Status{
		StatusPosted:    {StatusCancelled},
		StatusCancelled: {},
	}

	for _, allowed := range transitions[d.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Cancel 冲销(领域行为)
// 重复冲销返回ErrAlreadyCancelled,不会静默成功
func (d *Document) Cancel(operatorID uint, reason string, now time.Time) error {
	if !d.CanTransitionTo(StatusCancelled) {
		return ErrAlreadyCancelled
	}
	d.Status = StatusCancelled
	d.CancelledAt = &now
	d.CancelledBy = operatorID
	d.CancelReason = reason
	d.UpdatedAt = now
	return nil
}

// IsCancelled 是否已冲销
func (d *Document) IsCancelled() bool {
	return d.Status == StatusCancelled
}

// QuantitiesByKey 按台账主键汇总明细数量
// 同一单据可能有多行落在同一库位(不同批号)
func (d *Document) QuantitiesByKey() map[inventory.Key]int {
	result := make(map[inventory.Key]int)
	for _, l := range d.Lines {
		result[l.Key()] += l.Quantity
	}
	return result
}

// SortedKeys 单据涉及的台账主键(已排序,用于加锁)
func (d *Document) SortedKeys() []inventory.Key {
	qty := d.QuantitiesByKey()
	keys := make([]inventory.Key, 0, len(qty))
	for k := range qty {
		keys = append(keys, k)
	}
	inventory.SortKeys(keys)
	return keys
}

// LineOrder 按台账主键排序后的明细下标
// 入库时按此顺序逐行Apply,与冲销的加锁顺序一致
func (d *Document) LineOrder() []int {
	idx := make([]int, len(d.Lines))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return d.Lines[idx[i]].Key().Less(d.Lines[idx[j]].Key())
	})
	return idx
}

// DrugIDs 明细引用的药品ID(去重,保持首次出现顺序)
func (d *Document) DrugIDs() []uint {
	return uniqueDrugIDs(d.Lines)
}

func uniqueDrugIDs(lines []Line) []uint {
	seen := make(map[uint]struct{}, len(lines))
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.DrugID]; ok {
			continue
		}
		seen[l.DrugID] = struct{}{}
		ids = append(ids, l.DrugID)
	}
	return ids
}
