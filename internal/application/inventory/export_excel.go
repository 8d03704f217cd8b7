package inventory

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// ExportBalancesUseCase 导出库存结存为Excel
type ExportBalancesUseCase struct {
	ledger inventory.Ledger
	now    func() time.Time
}

// NewExportBalancesUseCase 创建导出用例
func NewExportBalancesUseCase(ledger inventory.Ledger) *ExportBalancesUseCase {
	return &ExportBalancesUseCase{ledger: ledger, now: time.Now}
}

// ExportResult 导出结果
type ExportResult struct {
	FileName string
	Content  *bytes.Buffer
	Rows     int
}

var exportHeader = []interface{}{"药品ID", "库位", "结存", "最后变动时间"}

// Execute 按筛选条件导出(不分页)
func (uc *ExportBalancesUseCase) Execute(ctx context.Context, drugID uint, location string, hideZero bool) (*ExportResult, error) {
	records, _, err := uc.ledger.List(ctx, inventory.ListParams{
		DrugID:       drugID,
		Location:     strings.TrimSpace(location),
		HideZero:     hideZero,
		WithoutLimit: true,
	})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, apperrors.Wrap(err, "生成表头失败")
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, apperrors.Wrap(err, "生成单元格失败")
		}
		row := []interface{}{r.DrugID, r.Location, r.Quantity, r.LastUpdatedAt.Format(timeLayout)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, apperrors.Wrap(err, "写入数据行失败")
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, apperrors.Wrap(err, "写入Excel失败")
	}

	return &ExportResult{
		FileName: fmt.Sprintf("inventory_%s.xlsx", uc.now().Format("20060102_150405")),
		Content:  buf,
		Rows:     len(records),
	}, nil
}
