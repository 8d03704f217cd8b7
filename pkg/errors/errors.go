package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Details是结构化的错误明细（例如出错的明细行、缺货的库位），会返回给客户端
// 4. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int         `json:"code"`              // 业务错误码
	Message string      `json:"message"`           // 用户友好的错误提示
	Details interface{} `json:"details,omitempty"` // 结构化明细
	Err     error       `json:"-"`                 // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，预定义错误附带明细后仍然可以用errors.Is判断
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetails 复制一份错误并附带明细
// 注意：预定义错误是全局变量，不能直接修改
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage 复制一份错误并替换提示信息
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithCause 复制一份错误并附带内部错误（只记录日志）
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WrapDB 包装数据库错误，调用方可以据此重试
func WrapDB(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeDatabaseError,
		Message: message,
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeOperatorNotFound  = 40401 // 操作员不存在
	ErrCodeDrugNotFound      = 40402 // 药品不存在
	ErrCodeInventoryNotFound = 40403 // 库存记录不存在
	ErrCodeStockInNotFound   = 40405 // 入库单不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError     = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock = 40001 // 库存不足
	ErrCodeUsernameDuplicate = 40003 // 用户名已存在
	ErrCodeDrugCodeDuplicate = 40004 // 药品编码已存在
	ErrCodeWeakPassword      = 40005 // 密码强度不足
	ErrCodeDuplicateInvoice  = 40006 // 发票号重复
	ErrCodeAlreadyCancelled  = 40007 // 入库单已冲销
	ErrCodeDuplicateEntry    = 40009 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
	ErrCodeEmptyLines    = 40902 // 入库明细为空
	ErrCodeUnknownDrug   = 40903 // 明细引用了不存在的药品
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "密码错误")
	ErrForbidden       = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrOperatorNotFound  = New(ErrCodeOperatorNotFound, "操作员不存在")
	ErrDrugNotFound      = New(ErrCodeDrugNotFound, "药品不存在")
	ErrInventoryNotFound = New(ErrCodeInventoryNotFound, "库存记录不存在")
	ErrStockInNotFound   = New(ErrCodeStockInNotFound, "入库单不存在")

	// 业务规则
	ErrInsufficientStock = New(ErrCodeInsufficientStock, "库存不足")
	ErrUsernameDuplicate = New(ErrCodeUsernameDuplicate, "用户名已被注册")
	ErrDrugCodeDuplicate = New(ErrCodeDrugCodeDuplicate, "药品编码已存在")
	ErrWeakPassword      = New(ErrCodeWeakPassword, "密码强度不足（需8-20位，包含字母和数字）")
	ErrDuplicateInvoice  = New(ErrCodeDuplicateInvoice, "发票号已存在")
	ErrAlreadyCancelled  = New(ErrCodeAlreadyCancelled, "入库单已冲销，不能重复冲销")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
	ErrEmptyLines    = New(ErrCodeEmptyLines, "入库明细不能为空")
	ErrUnknownDrug   = New(ErrCodeUnknownDrug, "入库明细引用了不存在的药品")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// HasCode 判断错误链中是否包含指定错误码
func HasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsRetryable 判断错误是否为暂时性错误（数据库、缓存故障）
// 业务规则错误重试没有意义
func IsRetryable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == ErrCodeDatabaseError || appErr.Code == ErrCodeRedisError
}
