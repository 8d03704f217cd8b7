package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// reportRepository 报表查询(只读)
// 教学要点:
// 1. 报表是跨表聚合,手写SQL比ORM链式调用更直观
// 2. sqlx复用GORM的连接池(同一个*sql.DB),不额外建连接
// 3. SQL统一用?占位符,Rebind按方言转换(PostgreSQL为$1,$2...)
type reportRepository struct {
	db *sqlx.DB
}

// ReportRepository 同时实现库存对账与入库报表
type ReportRepository interface {
	inventory.ReportRepository
	stockin.ReportRepository
}

// NewReportRepository 创建报表仓储
func NewReportRepository(gdb *gorm.DB) (ReportRepository, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	return &reportRepository{db: sqlx.NewDb(sqlDB, sqlxDriverName(gdb.Dialector.Name()))}, nil
}

// sqlxDriverName GORM方言名 → sqlx识别的驱动名(决定占位符风格)
func sqlxDriverName(dialect string) string {
	switch dialect {
	case "sqlite":
		return "sqlite3"
	default:
		return dialect
	}
}

const reconcileSQL = `
SELECT r.drug_id, r.location, r.quantity,
	COALESCE((
		SELECT SUM(l.quantity) FROM stock_in_lines l
		JOIN stock_in_documents d ON d.id = l.document_id
		WHERE d.status = ? AND l.drug_id = r.drug_id AND l.location = r.location
	), 0) AS posted_in,
	COALESCE((
		SELECT SUM(m.quantity) FROM inventory_movements m
		WHERE m.change_type = ? AND m.drug_id = r.drug_id AND m.location = r.location
	), 0) AS adjustments
FROM inventory_records r
ORDER BY r.drug_id, r.location`

// Reconcile 逐库位核对:台账结存 = 有效入库明细合计 + 手工调整合计
func (r *reportRepository) Reconcile(ctx context.Context) ([]inventory.ReconcileRow, error) {
	var rows []inventory.ReconcileRow
	query := r.db.Rebind(reconcileSQL)
	if err := r.db.SelectContext(ctx, &rows, query, int(stockin.StatusPosted), string(inventory.ChangeTypeAdjust)); err != nil {
		return nil, apperrors.WrapDB(err, "库存对账查询失败")
	}
	return rows, nil
}

const expiringSQL = `
SELECT l.document_id, d.invoice_no, l.drug_id, l.batch_no, l.expiry_date,
	l.quantity, l.unit_price, l.location
FROM stock_in_lines l
JOIN stock_in_documents d ON d.id = l.document_id
WHERE d.status = ? AND l.expiry_date IS NOT NULL AND l.expiry_date < ?`

// ListExpiring 近效期批次:有效入库单中有效期早于before的明细
func (r *reportRepository) ListExpiring(ctx context.Context, before time.Time, location string) ([]stockin.ExpiringLine, error) {
	query := expiringSQL
	args := []interface{}{int(stockin.StatusPosted), before}
	if location != "" {
		query += " AND l.location = ?"
		args = append(args, location)
	}
	query += " ORDER BY l.expiry_date ASC, l.drug_id ASC"

	var lines []stockin.ExpiringLine
	if err := r.db.SelectContext(ctx, &lines, r.db.Rebind(query), args...); err != nil {
		return nil, apperrors.WrapDB(err, "近效期查询失败")
	}
	return lines, nil
}
