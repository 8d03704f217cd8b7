package stockin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository 入库单仓储接口(依赖倒置原则)
// 教学要点:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
// 3. 没有Delete:单据只能冲销,不能删除
type Repository interface {
	// Create 创建入库单(表头+明细)
	// 发票号冲突时返回ErrDuplicateInvoice(唯一索引为准)
	Create(ctx context.Context, doc *Document) error

	// FindByID 根据ID查找入库单(包含明细)
	FindByID(ctx context.Context, id uint) (*Document, error)

	// LockByID 悲观锁查询入库单(SELECT FOR UPDATE表头)
	// 并发冲销同一单据时,后到的事务等待并看到已冲销状态
	LockByID(ctx context.Context, id uint) (*Document, error)

	// ExistsByInvoiceNo 发票号是否已被使用
	ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error)

	// MarkCancelled 持久化冲销状态
	// 只更新仍处于已入库状态的单据,否则返回ErrAlreadyCancelled
	MarkCancelled(ctx context.Context, doc *Document) error

	// List 分页查询入库单(不含明细)
	List(ctx context.Context, params ListParams) ([]*Document, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page      int
	PageSize  int
	Status    Status    // 0表示不过滤
	Supplier  string    // 模糊匹配
	InvoiceNo string    // 精确匹配
	From      time.Time // 业务发生时间范围(零值不过滤)
	To        time.Time
}

// ExpiringLine 近效期批次(报表读模型)
type ExpiringLine struct {
	DocumentID uint            `db:"document_id" json:"document_id"`
	InvoiceNo  string          `db:"invoice_no" json:"invoice_no"`
	DrugID     uint            `db:"drug_id" json:"drug_id"`
	BatchNo    string          `db:"batch_no" json:"batch_no"`
	ExpiryDate time.Time       `db:"expiry_date" json:"expiry_date"`
	Quantity   int             `db:"quantity" json:"quantity"`
	UnitPrice  decimal.Decimal `db:"unit_price" json:"unit_price"`
	Location   string          `db:"location" json:"location"`
}

// DaysLeft 距离过期的天数(已过期为负数)
func (e ExpiringLine) DaysLeft(now time.Time) int {
	return int(e.ExpiryDate.Sub(now).Hours() / 24)
}

// ReportRepository 入库报表查询接口(只读,走SQL直查)
type ReportRepository interface {
	// ListExpiring 有效入库单中,有效期早于before的批次
	ListExpiring(ctx context.Context, before time.Time, location string) ([]ExpiringLine, error)
}
