package stockin

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/pharmacy/internal/domain/inventory"
)

// 字段上限与表结构(migrations/00003)保持一致
// 超长输入在这里拒绝,不能等到INSERT时由数据库报错
const (
	MaxInvoiceNoLen    = 64
	MaxSupplierLen     = 128
	MaxRemarkLen       = 500
	MaxCancelReasonLen = 255
	MaxBatchNoLen      = 64
	MaxPriceScale      = 4 // decimal(14,4)
)

// MaxAmount 金额上限(不含),decimal(14,4)的整数部分最多10位
var MaxAmount = decimal.New(1, 10)

// Header 入库单表头中需要校验的字段
type Header struct {
	InvoiceNo    string
	SupplierName string
	Remark       string
}

// Validate 入库单提交前的参数校验
// 校验顺序:表头 → 明细非空 → 逐行字段 → 合计
// 所有出错字段一次性返回,全部通过才允许进入事务
func Validate(h Header, lines []Line) error {
	if errs := ValidateHeader(h); len(errs) > 0 {
		return NewValidationError(errs)
	}

	if len(lines) == 0 {
		return ErrEmptyLines
	}

	var (
		errs  []FieldError
		total = decimal.Zero
	)
	for i, l := range lines {
		lineErrs := ValidateLine(i+1, l)
		errs = append(errs, lineErrs...)
		if len(lineErrs) == 0 {
			total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}
	if len(errs) == 0 && total.GreaterThanOrEqual(MaxAmount) {
		errs = append(errs, FieldError{Line: 0, Field: "total_amount", Reason: "合计金额超出上限"})
	}
	if len(errs) > 0 {
		return NewValidationError(errs)
	}
	return nil
}

// ValidateHeader 表头校验,Line固定为0
func ValidateHeader(h Header) []FieldError {
	var errs []FieldError
	add := func(field, reason string) {
		errs = append(errs, FieldError{Line: 0, Field: field, Reason: reason})
	}

	invoiceNo := strings.TrimSpace(h.InvoiceNo)
	if invoiceNo == "" {
		add("invoice_no", "发票号不能为空")
	} else if tooLong(invoiceNo, MaxInvoiceNoLen) {
		add("invoice_no", maxLenReason("发票号", MaxInvoiceNoLen))
	}
	if tooLong(strings.TrimSpace(h.SupplierName), MaxSupplierLen) {
		add("supplier_name", maxLenReason("供应商", MaxSupplierLen))
	}
	if tooLong(strings.TrimSpace(h.Remark), MaxRemarkLen) {
		add("remark", maxLenReason("备注", MaxRemarkLen))
	}
	return errs
}

// ValidateLine 单行明细校验(Excel导入与JSON提交共用)
// lineNo由调用方决定:JSON提交是明细序号,Excel导入是表格行号
func ValidateLine(lineNo int, l Line) []FieldError {
	var errs []FieldError
	add := func(field, reason string) {
		errs = append(errs, FieldError{Line: lineNo, Field: field, Reason: reason})
	}

	if l.DrugID == 0 {
		add("drug_id", "药品ID不能为空")
	}

	batchNo := strings.TrimSpace(l.BatchNo)
	if batchNo == "" {
		add("batch_no", "批号不能为空")
	} else if tooLong(batchNo, MaxBatchNoLen) {
		add("batch_no", maxLenReason("批号", MaxBatchNoLen))
	}

	qtyOK := false
	switch {
	case l.Quantity <= 0:
		add("quantity", "数量必须大于0")
	case l.Quantity > inventory.MaxDelta:
		add("quantity", "数量不能超过"+strconv.Itoa(inventory.MaxDelta))
	default:
		qtyOK = true
	}

	switch {
	case l.UnitPrice.IsNegative():
		add("unit_price", "单价不能为负数")
	case !l.UnitPrice.Equal(l.UnitPrice.Truncate(MaxPriceScale)):
		add("unit_price", "单价最多"+strconv.Itoa(MaxPriceScale)+"位小数")
	case l.UnitPrice.GreaterThanOrEqual(MaxAmount):
		add("unit_price", "单价超出上限")
	case qtyOK && l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).GreaterThanOrEqual(MaxAmount):
		add("unit_price", "小计(数量×单价)超出金额上限")
	}

	location := strings.TrimSpace(l.Location)
	if location == "" {
		add("location", "库位不能为空")
	} else if tooLong(location, inventory.MaxLocationLen) {
		add("location", maxLenReason("库位", inventory.MaxLocationLen))
	}

	if !l.ProductionDate.IsZero() && !l.ExpiryDate.IsZero() && !l.ExpiryDate.After(l.ProductionDate) {
		add("expiry_date", "有效期必须晚于生产日期")
	}
	return errs
}

// ValidateCancelReason 冲销原因可以为空,但不能超长
func ValidateCancelReason(reason string) error {
	if tooLong(strings.TrimSpace(reason), MaxCancelReasonLen) {
		return NewValidationError([]FieldError{{Line: 0, Field: "reason", Reason: maxLenReason("冲销原因", MaxCancelReasonLen)}})
	}
	return nil
}

// tooLong 按字符数计算,与MySQL utf8mb4的varchar(n)一致
func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func maxLenReason(name string, max int) string {
	return name + "不能超过" + strconv.Itoa(max) + "个字符"
}
