package stockin

import (
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// 入库单领域错误定义
var (
	// ErrDocumentNotFound 入库单不存在
	ErrDocumentNotFound = apperrors.ErrStockInNotFound

	// ErrDuplicateInvoice 发票号已被使用(含已冲销单据)
	ErrDuplicateInvoice = apperrors.ErrDuplicateInvoice

	// ErrAlreadyCancelled 重复冲销
	ErrAlreadyCancelled = apperrors.ErrAlreadyCancelled

	// ErrEmptyLines 没有明细
	ErrEmptyLines = apperrors.ErrEmptyLines
)

// FieldError 参数校验明细
// Line从1开始计数，0表示表头字段
type FieldError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NewValidationError 参数校验失败(附带全部出错字段)
func NewValidationError(errs []FieldError) *apperrors.AppError {
	return apperrors.ErrInvalidParams.WithMessage("入库单参数校验失败").WithDetails(errs)
}

// UnknownDrugDetails 引用了不存在药品的明细
type UnknownDrugDetails struct {
	DrugIDs []uint `json:"drug_ids"`
}

// NewUnknownDrugError 明细引用的药品在目录中不存在
func NewUnknownDrugError(ids []uint) *apperrors.AppError {
	return apperrors.ErrUnknownDrug.WithDetails(UnknownDrugDetails{DrugIDs: ids})
}
