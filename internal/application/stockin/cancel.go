package stockin

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	"github.com/xiebiao/pharmacy/pkg/metrics"
	"github.com/xiebiao/pharmacy/pkg/tracing"
)

// CancelStockInUseCase 入库冲销用例
// 冲销是入库的精确逆操作:每行明细原样扣回,单据保留并标记为已冲销
type CancelStockInUseCase struct {
	tx     Transactor
	docs   stockin.Repository
	ledger inventory.Ledger
	after  afterCommit
	logger *zap.Logger
	now    func() time.Time
}

// NewCancelStockInUseCase 创建冲销用例
func NewCancelStockInUseCase(
	tx Transactor,
	docs stockin.Repository,
	ledger inventory.Ledger,
	cache inventory.Cache,
	publisher stockin.EventPublisher,
	logger *zap.Logger,
) *CancelStockInUseCase {
	return &CancelStockInUseCase{
		tx:     tx,
		docs:   docs,
		ledger: ledger,
		after:  afterCommit{cache: cache, publisher: publisher, logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

// CancelRequest 冲销请求DTO
type CancelRequest struct {
	DocumentID uint
	OperatorID uint // 从JWT中提取
	Reason     string
}

// Execute 执行冲销
//
// 核心问题:入库后药品可能已经被领用,冲销会让结存变负
// 处理流程(同一个事务):
//  1. 锁定单据表头,并发冲销同一单据时后到者看到"已冲销"
//  2. 按(药品ID, 库位)升序锁定涉及的台账记录
//  3. 在锁内逐库位计算冲销后结存,任何一个为负都整体拒绝,并报告全部缺口
//  4. 逐行Ledger.Apply(-数量),最后把单据标记为已冲销
//
// 药品目录在冲销时不再校验:已停用的药品也允许冲销
func (uc *CancelStockInUseCase) Execute(ctx context.Context, req CancelRequest) (resp *DocumentResponse, err error) {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "stockin.Cancel")
	span.SetAttributes(attribute.Int64("document_id", int64(req.DocumentID)))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		metrics.ObserveStockIn("cancel", start, err)
	}()

	if err := stockin.ValidateCancelReason(req.Reason); err != nil {
		return nil, err
	}

	var doc *stockin.Document
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		// 步骤1:锁定表头(SELECT ... FOR UPDATE)
		d, err := uc.docs.LockByID(txCtx, req.DocumentID)
		if err != nil {
			return err
		}
		if d.IsCancelled() {
			return stockin.ErrAlreadyCancelled
		}

		// 步骤2:按固定顺序锁定台账
		keys := d.SortedKeys()
		locked, err := uc.ledger.LockAll(txCtx, keys)
		if err != nil {
			return err
		}

		// 步骤3:检查所有库位,一次报告全部缺口
		// 不存在的台账记录按结存0处理
		need := d.QuantitiesByKey()
		var shortages []inventory.Shortage
		for _, k := range keys {
			rec, ok := locked[k]
			if !ok {
				rec = inventory.NewRecord(k, uc.now())
			}
			if rec.Quantity < need[k] {
				shortages = append(shortages, rec.Shortage(need[k]))
			}
		}
		if len(shortages) > 0 {
			metrics.InsufficientStockTotal.Inc()
			return inventory.NewInsufficientStockError(shortages...)
		}

		// 步骤4:逐行扣回,并标记单据
		for _, i := range d.LineOrder() {
			l := d.Lines[i]
			_, err := uc.ledger.Apply(txCtx, l.Key(), -l.Quantity, inventory.Reference{
				ChangeType: inventory.ChangeTypeStockInCancel,
				DocumentID: d.ID,
				OperatorID: req.OperatorID,
				Remark:     d.InvoiceNo,
			})
			if err != nil {
				return err
			}
		}

		if err := d.Cancel(req.OperatorID, strings.TrimSpace(req.Reason), uc.now()); err != nil {
			return err
		}
		if err := uc.docs.MarkCancelled(txCtx, d); err != nil {
			return err
		}

		doc = d
		return nil
	})
	if err != nil {
		uc.logger.Warn("冲销失败",
			append(tracing.LogFields(ctx),
				zap.Uint("document_id", req.DocumentID),
				zap.Error(err),
			)...,
		)
		return nil, err
	}

	metrics.LedgerAppliesTotal.WithLabelValues(string(inventory.ChangeTypeStockInCancel)).Add(float64(len(doc.Lines)))
	uc.after.run(ctx, doc.SortedKeys(), stockin.NewCancelledEvent(doc, uc.now()))

	uc.logger.Info("冲销成功",
		append(tracing.LogFields(ctx),
			zap.Uint("document_id", doc.ID),
			zap.String("invoice_no", doc.InvoiceNo),
			zap.Uint("operator_id", req.OperatorID),
		)...,
	)

	return NewDocumentResponse(doc), nil
}
