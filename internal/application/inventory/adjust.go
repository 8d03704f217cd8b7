package inventory

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
	"github.com/xiebiao/pharmacy/pkg/metrics"
	"github.com/xiebiao/pharmacy/pkg/tracing"
)

// DrugCatalog 药品目录查询(drug.Service实现了它)
type DrugCatalog interface {
	FindMissing(ctx context.Context, ids []uint) ([]uint, error)
}

// MaxRemarkLen 调整原因最大字符数
const MaxRemarkLen = 255

// AdjustUseCase 手工调整库存(领用、报损、盘盈)
// 教学要点:
// 1. 和入库/冲销一样走Ledger.Apply,非负约束只在一个地方执行
// 2. 只写ADJUST流水,不产生单据;对账报表会把它计入应有结存
type AdjustUseCase struct {
	ledger  inventory.Ledger
	catalog DrugCatalog
	cache   inventory.Cache
	logger  *zap.Logger
}

// NewAdjustUseCase 创建库存调整用例
func NewAdjustUseCase(ledger inventory.Ledger, catalog DrugCatalog, cache inventory.Cache, logger *zap.Logger) *AdjustUseCase {
	return &AdjustUseCase{ledger: ledger, catalog: catalog, cache: cache, logger: logger}
}

// AdjustRequest 调整请求
type AdjustRequest struct {
	DrugID     uint
	Location   string
	Delta      int // 正数盘盈,负数领用/报损
	OperatorID uint
	Remark     string // 调整原因(必填)
}

// Execute 执行调整
func (uc *AdjustUseCase) Execute(ctx context.Context, req AdjustRequest) (resp *RecordResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "application/inventory", "inventory.Adjust")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	key := inventory.NewKey(req.DrugID, req.Location)
	if err := inventory.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := inventory.ValidateDelta(req.Delta); err != nil {
		return nil, err
	}
	remark := strings.TrimSpace(req.Remark)
	if remark == "" {
		return nil, apperrors.ErrInvalidParams.WithMessage("调整原因不能为空")
	}
	// 流水备注列为varchar(255)
	if utf8.RuneCountInString(remark) > MaxRemarkLen {
		return nil, apperrors.ErrInvalidParams.WithMessage("调整原因不能超过" + strconv.Itoa(MaxRemarkLen) + "个字符")
	}

	// 增加库存时药品必须在目录中;扣减时已有台账记录即可
	if req.Delta > 0 {
		missing, err := uc.catalog.FindMissing(ctx, []uint{req.DrugID})
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, stockin.NewUnknownDrugError(missing)
		}
	}

	rec, err := uc.ledger.Apply(ctx, key, req.Delta, inventory.Reference{
		ChangeType: inventory.ChangeTypeAdjust,
		OperatorID: req.OperatorID,
		Remark:     remark,
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeInsufficientStock) {
			metrics.InsufficientStockTotal.Inc()
		}
		return nil, err
	}
	metrics.LedgerAppliesTotal.WithLabelValues(string(inventory.ChangeTypeAdjust)).Inc()

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, key); err != nil {
			uc.logger.Warn("失效库存缓存失败", zap.String("key", key.String()), zap.Error(err))
		}
	}

	uc.logger.Info("库存调整",
		zap.String("key", key.String()),
		zap.Int("delta", req.Delta),
		zap.Int("after", rec.Quantity),
		zap.Uint("operator_id", req.OperatorID),
	)
	return NewRecordResponse(rec), nil
}

// ==================== 报表 ====================

// ReconcileUseCase 对账报表
// 逐库位核对:台账结存 == 有效入库单明细合计 + 手工调整合计
type ReconcileUseCase struct {
	reports inventory.ReportRepository
	now     func() time.Time
}

// NewReconcileUseCase 创建对账用例
func NewReconcileUseCase(reports inventory.ReportRepository) *ReconcileUseCase {
	return &ReconcileUseCase{reports: reports, now: time.Now}
}

// ReconcileItem 对账行
type ReconcileItem struct {
	inventory.ReconcileRow
	Expected int  `json:"expected"`
	Balanced bool `json:"balanced"`
}

// ReconcileResponse 对账结果
type ReconcileResponse struct {
	Items      []ReconcileItem `json:"items"`
	Total      int             `json:"total"`
	Mismatched int             `json:"mismatched"`
	CheckedAt  string          `json:"checked_at"`
}

// Execute 执行对账,onlyMismatched为true时只返回不一致的行
func (uc *ReconcileUseCase) Execute(ctx context.Context, onlyMismatched bool) (*ReconcileResponse, error) {
	rows, err := uc.reports.Reconcile(ctx)
	if err != nil {
		return nil, err
	}

	resp := &ReconcileResponse{
		Items:     make([]ReconcileItem, 0, len(rows)),
		Total:     len(rows),
		CheckedAt: uc.now().Format(timeLayout),
	}
	for _, r := range rows {
		balanced := r.Balanced()
		if !balanced {
			resp.Mismatched++
		}
		if onlyMismatched && balanced {
			continue
		}
		resp.Items = append(resp.Items, ReconcileItem{ReconcileRow: r, Expected: r.Expected(), Balanced: balanced})
	}
	return resp, nil
}
