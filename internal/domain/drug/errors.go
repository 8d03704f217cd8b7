package drug

import (
	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// 药品目录领域错误定义
var (
	// ErrDrugNotFound 药品不存在
	ErrDrugNotFound = apperrors.ErrDrugNotFound

	// ErrCodeDuplicate 药品编码已存在
	ErrCodeDuplicate = apperrors.ErrDrugCodeDuplicate

	// ErrInvalidCode 药品编码格式不正确
	ErrInvalidCode = apperrors.New(apperrors.ErrCodeInvalidParams, "药品编码格式不正确(2-32位字母、数字或横线)")

	// ErrInvalidName 通用名为空
	ErrInvalidName = apperrors.New(apperrors.ErrCodeInvalidParams, "药品通用名不能为空")
)
