package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// stockInRepository 入库单仓储实现
// 教学要点:
// 1. Document和Line是聚合关系,必须一起保存
// 2. 查询时使用Preload预加载明细,避免N+1问题
// 3. 事务通过context传递
type stockInRepository struct {
	db *gorm.DB
}

// NewStockInRepository 创建入库单仓储
func NewStockInRepository(db *gorm.DB) stockin.Repository {
	return &stockInRepository{db: db}
}

// Create 创建入库单
// 教学要点:
// 1. GORM会自动保存关联的Lines(通过foreignKey)
// 2. 发票号唯一索引冲突翻译为ErrDuplicateInvoice(应用层的预检查只是优化)
func (r *stockInRepository) Create(ctx context.Context, doc *stockin.Document) error {
	model := toDocumentModel(doc)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return stockin.ErrDuplicateInvoice
		}
		return apperrors.WrapDB(err, "创建入库单失败")
	}

	// 回填自增ID
	doc.ID = model.ID
	for i := range doc.Lines {
		doc.Lines[i].ID = model.Lines[i].ID
		doc.Lines[i].DocumentID = model.ID
	}

	return nil
}

// FindByID 根据ID查找入库单
func (r *stockInRepository) FindByID(ctx context.Context, id uint) (*stockin.Document, error) {
	var model StockInDocumentModel
	err := getDB(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stockin.ErrDocumentNotFound
		}
		return nil, apperrors.WrapDB(err, "查询入库单失败")
	}

	return toDocumentEntity(&model), nil
}

// LockByID 悲观锁查询入库单
// 教学要点:
// 1. 只锁表头:冲销只改表头状态,明细不可变
// 2. 必须在事务中调用,否则锁在语句结束时就释放了
func (r *stockInRepository) LockByID(ctx context.Context, id uint) (*stockin.Document, error) {
	db := getDB(ctx, r.db)

	var model StockInDocumentModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stockin.ErrDocumentNotFound
		}
		return nil, apperrors.WrapDB(err, "锁定入库单失败")
	}

	if err := db.Where("document_id = ?", id).Order("id ASC").Find(&model.Lines).Error; err != nil {
		return nil, apperrors.WrapDB(err, "查询入库明细失败")
	}

	return toDocumentEntity(&model), nil
}

// ExistsByInvoiceNo 发票号是否已被使用
func (r *stockInRepository) ExistsByInvoiceNo(ctx context.Context, invoiceNo string) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&StockInDocumentModel{}).
		Where("invoice_no = ?", invoiceNo).
		Count(&count).Error
	if err != nil {
		return false, apperrors.WrapDB(err, "查询发票号失败")
	}
	return count > 0, nil
}

// MarkCancelled 持久化冲销状态
// 教学要点:WHERE status = 已入库 的条件更新,即使绕过了行锁也不会重复冲销
func (r *stockInRepository) MarkCancelled(ctx context.Context, doc *stockin.Document) error {
	result := getDB(ctx, r.db).Model(&StockInDocumentModel{}).
		Where("id = ? AND status = ?", doc.ID, int(stockin.StatusPosted)).
		Updates(map[string]interface{}{
			"status":        int(doc.Status),
			"cancelled_at":  doc.CancelledAt,
			"cancelled_by":  doc.CancelledBy,
			"cancel_reason": doc.CancelReason,
			"updated_at":    doc.UpdatedAt,
		})

	if result.Error != nil {
		return apperrors.WrapDB(result.Error, "更新入库单状态失败")
	}
	if result.RowsAffected == 0 {
		return stockin.ErrAlreadyCancelled
	}
	return nil
}

// List 分页查询入库单(不含明细)
func (r *stockInRepository) List(ctx context.Context, params stockin.ListParams) ([]*stockin.Document, int64, error) {
	var models []StockInDocumentModel
	var total int64

	query := getDB(ctx, r.db).Model(&StockInDocumentModel{})
	if params.Status != 0 {
		query = query.Where("status = ?", int(params.Status))
	}
	if params.Supplier != "" {
		query = query.Where("supplier_name LIKE ?", "%"+params.Supplier+"%")
	}
	if params.InvoiceNo != "" {
		query = query.Where("invoice_no = ?", params.InvoiceNo)
	}
	if !params.From.IsZero() {
		query = query.Where("operation_time >= ?", params.From)
	}
	if !params.To.IsZero() {
		query = query.Where("operation_time < ?", params.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询入库单总数失败")
	}

	page, pageSize := normalizePage(params.Page, params.PageSize)
	err := query.Order("operation_time DESC").Order("id DESC").
		Limit(pageSize).Offset(offsetOf(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.WrapDB(err, "查询入库单列表失败")
	}

	docs := make([]*stockin.Document, len(models))
	for i := range models {
		docs[i] = toDocumentEntity(&models[i])
	}
	return docs, total, nil
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toDocumentModel 领域实体 → GORM模型
func toDocumentModel(d *stockin.Document) *StockInDocumentModel {
	lines := make([]StockInLineModel, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = StockInLineModel{
			ID:             l.ID,
			DocumentID:     l.DocumentID,
			DrugID:         l.DrugID,
			BatchNo:        l.BatchNo,
			ProductionDate: optionalTime(l.ProductionDate),
			ExpiryDate:     optionalTime(l.ExpiryDate),
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			Subtotal:       l.Subtotal,
			Location:       l.Location,
		}
	}

	return &StockInDocumentModel{
		ID:            d.ID,
		InvoiceNo:     d.InvoiceNo,
		SupplierName:  d.SupplierName,
		OperatorID:    d.OperatorID,
		OperationTime: d.OperationTime,
		TotalAmount:   d.TotalAmount,
		Status:        int(d.Status),
		Remark:        d.Remark,
		CancelledAt:   d.CancelledAt,
		CancelledBy:   d.CancelledBy,
		CancelReason:  d.CancelReason,
		Lines:         lines,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// toDocumentEntity GORM模型 → 领域实体
func toDocumentEntity(model *StockInDocumentModel) *stockin.Document {
	lines := make([]stockin.Line, len(model.Lines))
	for i, l := range model.Lines {
		lines[i] = stockin.Line{
			ID:             l.ID,
			DocumentID:     l.DocumentID,
			DrugID:         l.DrugID,
			BatchNo:        l.BatchNo,
			ProductionDate: derefTime(l.ProductionDate),
			ExpiryDate:     derefTime(l.ExpiryDate),
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			Subtotal:       l.Subtotal,
			Location:       l.Location,
		}
	}

	return &stockin.Document{
		ID:            model.ID,
		InvoiceNo:     model.InvoiceNo,
		SupplierName:  model.SupplierName,
		OperatorID:    model.OperatorID,
		OperationTime: model.OperationTime,
		TotalAmount:   model.TotalAmount,
		Status:        stockin.Status(model.Status),
		Remark:        model.Remark,
		Lines:         lines,
		CancelledAt:   model.CancelledAt,
		CancelledBy:   model.CancelledBy,
		CancelReason:  model.CancelReason,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// optionalTime 零值时间存为NULL
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
