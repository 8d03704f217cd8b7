package stockin

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/xiebiao/pharmacy/internal/domain/stockin"
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// ImportColumns 导入模板的列(第一行为表头,从第二行开始每行一条明细)
var ImportColumns = []string{"药品ID", "批号", "生产日期", "有效期至", "数量", "单价", "库位"}

const (
	colDrugID = iota
	colBatchNo
	colProductionDate
	colExpiryDate
	colQuantity
	colUnitPrice
	colLocation
)

// ImportStockInUseCase 从Excel导入入库单
// 表头信息(发票号、供应商)由请求参数提供,明细来自表格
// 解析完成后走与JSON提交完全相同的入库流程
type ImportStockInUseCase struct {
	post    *PostStockInUseCase
	maxRows int
}

// NewImportStockInUseCase 创建导入用例
// maxRows来自配置(stockin.import_max_rows)
func NewImportStockInUseCase(post *PostStockInUseCase, maxRows int) *ImportStockInUseCase {
	if maxRows <= 0 {
		maxRows = 500
	}
	return &ImportStockInUseCase{post: post, maxRows: maxRows}
}

// ImportRequest 导入请求
type ImportRequest struct {
	File          io.Reader
	InvoiceNo     string
	SupplierName  string
	OperatorID    uint
	OperationTime time.Time
	Remark        string
}

// Execute 解析表格并入库
func (uc *ImportStockInUseCase) Execute(ctx context.Context, req ImportRequest) (*DocumentResponse, error) {
	lines, err := uc.parse(req.File)
	if err != nil {
		return nil, err
	}

	return uc.post.Execute(ctx, PostRequest{
		InvoiceNo:     req.InvoiceNo,
		SupplierName:  req.SupplierName,
		OperatorID:    req.OperatorID,
		OperationTime: req.OperationTime,
		Remark:        req.Remark,
		Lines:         lines,
	})
}

// parse 读取当前工作表,格式错误和明细校验错误都按Excel行号一次性返回
func (uc *ImportStockInUseCase) parse(r io.Reader) ([]LineInput, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.ErrInvalidParams.WithMessage("无法读取Excel文件(文件损坏或不是.xlsx)").WithCause(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		return nil, apperrors.ErrInvalidParams.WithMessage("无法读取工作表").WithCause(err)
	}
	if len(rows) < 2 {
		return nil, stockin.ErrEmptyLines
	}
	if len(rows)-1 > uc.maxRows {
		return nil, apperrors.ErrInvalidParams.WithMessage("明细行数超过上限" + strconv.Itoa(uc.maxRows))
	}

	var (
		lines []LineInput
		errs  []stockin.FieldError
	)
	// 第1行是表头,Excel行号从1开始
	for i, row := range rows[1:] {
		rowNo := i + 2
		if blankRow(row) {
			continue
		}
		line, rowErrs := parseRow(rowNo, row)
		errs = append(errs, rowErrs...)
		lines = append(lines, line)
	}

	if len(errs) > 0 {
		return nil, stockin.NewValidationError(errs)
	}
	if len(lines) == 0 {
		return nil, stockin.ErrEmptyLines
	}
	return lines, nil
}

func parseRow(rowNo int, row []string) (LineInput, []stockin.FieldError) {
	var errs []stockin.FieldError
	fail := func(field, reason string) {
		errs = append(errs, stockin.FieldError{Line: rowNo, Field: field, Reason: reason})
	}

	var line LineInput

	if id, err := strconv.ParseUint(cell(row, colDrugID), 10, 64); err != nil {
		fail("drug_id", "药品ID必须是正整数")
	} else {
		line.DrugID = uint(id)
	}

	line.BatchNo = cell(row, colBatchNo)

	var err error
	if line.ProductionDate, err = parseDate(cell(row, colProductionDate)); err != nil {
		fail("production_date", "生产日期格式不正确")
	}
	if line.ExpiryDate, err = parseDate(cell(row, colExpiryDate)); err != nil {
		fail("expiry_date", "有效期格式不正确")
	}

	if qty, err := strconv.Atoi(cell(row, colQuantity)); err != nil {
		fail("quantity", "数量必须是整数")
	} else {
		line.Quantity = qty
	}

	price := strings.ReplaceAll(cell(row, colUnitPrice), ",", "")
	if price == "" {
		line.UnitPrice = decimal.Zero
	} else if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
		fail("unit_price", "单价格式不正确")
	}

	line.Location = cell(row, colLocation)

	// 业务规则也在这里按Excel行号校验,已报格式错误的字段不再重复
	reported := make(map[string]bool, len(errs))
	for _, e := range errs {
		reported[e.Field] = true
	}
	for _, e := range stockin.ValidateLine(rowNo, line.toLine()) {
		if !reported[e.Field] {
			errs = append(errs, e)
		}
	}
	return line, errs
}

func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006.01.02", "20060102", "01-02-06"}

// parseDate 空字符串返回零值;支持常见日期格式和Excel日期序号
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	return excelize.ExcelDateToTime(serial, false)
}
