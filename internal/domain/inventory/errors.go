package inventory

import (
	"errors"
	"strconv"
	"unicode/utf8"

	apperrors "github.com/xiebiao/pharmacy/pkg/errors"
)

// 库存领域错误定义
var (
	// ErrRecordNotFound 库存记录不存在
	ErrRecordNotFound = apperrors.ErrInventoryNotFound

	// ErrZeroDelta 变动数量为0
	ErrZeroDelta = apperrors.New(apperrors.ErrCodeInvalidParams, "库存变动数量不能为0")

	// ErrInvalidKey 药品ID或库位为空
	ErrInvalidKey = apperrors.New(apperrors.ErrCodeInvalidParams, "药品ID和库位不能为空")

	// ErrLocationTooLong 库位超过列宽
	ErrLocationTooLong = apperrors.New(apperrors.ErrCodeInvalidParams, "库位不能超过"+strconv.Itoa(MaxLocationLen)+"个字符")

	// ErrDeltaTooLarge 单次变动数量超过上限
	ErrDeltaTooLarge = apperrors.New(apperrors.ErrCodeInvalidParams, "单次变动数量不能超过"+strconv.Itoa(MaxDelta))

	// ErrBalanceOverflow 变动后结存溢出
	// 属于参数错误,不是库存不足
	ErrBalanceOverflow = apperrors.New(apperrors.ErrCodeInvalidParams, "变动后结存超出上限")
)

const (
	// MaxLocationLen 库位最大字符数(varchar(64))
	MaxLocationLen = 64
	// MaxDelta 单次变动(入库明细数量、调整数量)的绝对值上限
	MaxDelta = 1_000_000_000
)

// Shortage 库存缺口明细
// 冲销或出库会让某库位结存变负时，逐个库位报告缺多少
type Shortage struct {
	DrugID   uint   `json:"drug_id"`
	Location string `json:"location"`
	OnHand   int    `json:"on_hand"`  // 当前结存
	Required int    `json:"required"` // 需要扣减的数量
	Short    int    `json:"short"`    // 缺口 = Required - OnHand
}

// NewInsufficientStockError 库存不足错误（附带所有缺口）
func NewInsufficientStockError(shortages ...Shortage) *apperrors.AppError {
	return apperrors.ErrInsufficientStock.WithDetails(shortages)
}

// ShortagesOf 从错误中取出缺口明细
func ShortagesOf(err error) []Shortage {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	if s, ok := appErr.Details.([]Shortage); ok {
		return s
	}
	return nil
}

// ValidateKey 校验台账主键
func ValidateKey(key Key) error {
	if key.DrugID == 0 || key.Location == "" {
		return ErrInvalidKey
	}
	if utf8.RuneCountInString(key.Location) > MaxLocationLen {
		return ErrLocationTooLong
	}
	return nil
}

// ValidateDelta 校验变动数量:不能为0,绝对值不能超过MaxDelta
func ValidateDelta(delta int) error {
	if delta == 0 {
		return ErrZeroDelta
	}
	if delta > MaxDelta || delta < -MaxDelta {
		return ErrDeltaTooLarge
	}
	return nil
}
