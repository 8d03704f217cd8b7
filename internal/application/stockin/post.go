package stockin

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	"github.com/xiebiao/pharmacy/pkg/metrics"
	"github.com/xiebiao/pharmacy/pkg/tracing"
)

// PostStockInUseCase 采购入库用例
// 教学要点:这是整个系统最核心的用例
// 涉及:前置校验、事务、按固定顺序加锁、事务后副作用
type PostStockInUseCase struct {
	tx      Transactor
	docs    stockin.Repository
	ledger  inventory.Ledger
	catalog DrugCatalog
	after   afterCommit
	logger  *zap.Logger
	now     func() time.Time
}

// NewPostStockInUseCase 创建入库用例
func NewPostStockInUseCase(
	tx Transactor,
	docs stockin.Repository,
	ledger inventory.Ledger,
	catalog DrugCatalog,
	cache inventory.Cache,
	publisher stockin.EventPublisher,
	logger *zap.Logger,
) *PostStockInUseCase {
	return &PostStockInUseCase{
		tx:      tx,
		docs:    docs,
		ledger:  ledger,
		catalog: catalog,
		after:   afterCommit{cache: cache, publisher: publisher, logger: logger},
		logger:  logger,
		now:     time.Now,
	}
}

// PostRequest 入库请求DTO
type PostRequest struct {
	InvoiceNo     string
	SupplierName  string
	OperatorID    uint      // 从JWT中提取
	OperationTime time.Time // 零值表示当前时间
	// DeclaredTotal 调用方声明的合计(可选)
	// 只用于核对,入库金额永远按明细重新计算
	DeclaredTotal *decimal.Decimal
	Remark        string
	Lines         []LineInput
}

// LineInput 入库明细输入
type LineInput struct {
	DrugID         uint
	BatchNo        string
	ProductionDate time.Time
	ExpiryDate     time.Time
	Quantity       int
	UnitPrice      decimal.Decimal
	Location       string
}

func (in LineInput) toLine() stockin.Line {
	return stockin.Line{
		DrugID:         in.DrugID,
		BatchNo:        strings.TrimSpace(in.BatchNo),
		ProductionDate: in.ProductionDate,
		ExpiryDate:     in.ExpiryDate,
		Quantity:       in.Quantity,
		UnitPrice:      in.UnitPrice,
		Location:       in.Location,
	}
}

func (r PostRequest) lines() []stockin.Line {
	lines := make([]stockin.Line, len(r.Lines))
	for i, in := range r.Lines {
		lines[i] = in.toLine()
	}
	return lines
}

// Execute 执行入库
//
// 前置校验(全部在事务之外,失败时没有任何修改):
//  1. 表头、明细非空、逐行字段校验(含长度与金额上限,一次返回所有出错字段)
//  2. 发票号未被使用(唯一索引兜底,这里只是提前返回友好错误)
//  3. 所有药品在目录中存在(一次返回所有不存在的ID)
//
// 事务内:
//  1. 写入表头和明细,拿到单据ID
//  2. 按(药品ID, 库位)升序逐行Ledger.Apply(+数量)
//     与冲销的加锁顺序一致,并发的入库/冲销不会互相死锁
//
// 任何一行失败,整个事务回滚,表头、明细、台账都不可见
func (uc *PostStockInUseCase) Execute(ctx context.Context, req PostRequest) (resp *DocumentResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "stockin.Post")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		metrics.ObserveStockIn("post", start, err)
	}()

	// ========================================
	// 步骤1:参数校验
	// ========================================
	lines := req.lines()
	header := stockin.Header{InvoiceNo: req.InvoiceNo, SupplierName: req.SupplierName, Remark: req.Remark}
	if err := stockin.Validate(header, lines); err != nil {
		return nil, err
	}

	doc := stockin.NewDocument(
		strings.TrimSpace(req.InvoiceNo),
		strings.TrimSpace(req.SupplierName),
		req.OperatorID,
		req.OperationTime,
		strings.TrimSpace(req.Remark),
		lines,
		uc.now(),
	)
	span.SetAttributes(
		attribute.String("invoice_no", doc.InvoiceNo),
		attribute.Int("line_count", len(doc.Lines)),
	)

	// 声明合计只做核对,不一致时以明细为准
	if req.DeclaredTotal != nil && !req.DeclaredTotal.Equal(doc.TotalAmount) {
		uc.logger.Warn("声明合计与明细合计不一致",
			zap.String("invoice_no", doc.InvoiceNo),
			zap.String("declared", req.DeclaredTotal.String()),
			zap.String("computed", doc.TotalAmount.String()),
		)
	}

	// ========================================
	// 步骤2:发票号唯一性
	// ========================================
	exists, err := uc.docs.ExistsByInvoiceNo(ctx, doc.InvoiceNo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, stockin.ErrDuplicateInvoice
	}

	// ========================================
	// 步骤3:药品目录校验
	// ========================================
	missing, err := uc.catalog.FindMissing(ctx, doc.DrugIDs())
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, stockin.NewUnknownDrugError(missing)
	}

	// ========================================
	// 步骤4:事务内写单据、加台账
	// ========================================
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		if err := uc.docs.Create(txCtx, doc); err != nil {
			return err
		}

		for _, i := range doc.LineOrder() {
			l := doc.Lines[i]
			_, err := uc.ledger.Apply(txCtx, l.Key(), l.Quantity, inventory.Reference{
				ChangeType: inventory.ChangeTypeStockIn,
				DocumentID: doc.ID,
				OperatorID: doc.OperatorID,
				Remark:     doc.InvoiceNo,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Warn("入库失败",
			append(tracing.LogFields(ctx),
				zap.String("invoice_no", doc.InvoiceNo),
				zap.Error(err),
			)...,
		)
		return nil, err
	}

	// ========================================
	// 步骤5:事务提交后的副作用
	// ========================================
	metrics.StockInLinesTotal.Add(float64(len(doc.Lines)))
	metrics.LedgerAppliesTotal.WithLabelValues(string(inventory.ChangeTypeStockIn)).Add(float64(len(doc.Lines)))
	uc.after.run(ctx, doc.SortedKeys(), stockin.NewPostedEvent(doc, uc.now()))

	uc.logger.Info("入库成功",
		append(tracing.LogFields(ctx),
			zap.Uint("document_id", doc.ID),
			zap.String("invoice_no", doc.InvoiceNo),
			zap.Int("lines", len(doc.Lines)),
			zap.String("total", doc.TotalAmount.String()),
		)...,
	)

	return NewDocumentResponse(doc), nil
}
