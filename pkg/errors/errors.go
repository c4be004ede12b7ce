// Package errors 提供统一的错误定义
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 认证授权错误 (2xxx)
	CodeTokenExpired ErrorCode = "2001"
	CodeTokenInvalid ErrorCode = "2002"
	CodeTokenMissing ErrorCode = "2003"

	// 资源错误 (3xxx)
	CodeUserNotFound   ErrorCode = "3001"
	CodeRecordNotFound ErrorCode = "3002"

	// 业务错误 (4xxx)
	CodeGenerationFailed        ErrorCode = "4001"
	CodeInvalidMode             ErrorCode = "4002"
	CodeMissingTemplateVariable ErrorCode = "4003"
	CodeInsufficientCredits     ErrorCode = "4101"
	CodeLedgerWriteFailed       ErrorCode = "4102"

	// 外部服务错误 (5xxx)
	CodeProviderRateLimited     ErrorCode = "5001"
	CodeProviderTimeout         ErrorCode = "5002"
	CodeProviderInvalidResponse ErrorCode = "5003"
	CodeProviderUnavailable     ErrorCode = "5004"
	CodeDatabaseError           ErrorCode = "5005"
	CodeCacheError              ErrorCode = "5006"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeInvalidMode, CodeMissingTemplateVariable:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenInvalid, CodeTokenMissing:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeUserNotFound, CodeRecordNotFound:
		return http.StatusNotFound
	case CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case CodeTooManyRequests, CodeProviderRateLimited:
		return http.StatusTooManyRequests
	case CodeProviderTimeout:
		return http.StatusGatewayTimeout
	case CodeProviderInvalidResponse:
		return http.StatusBadGateway
	case CodeProviderUnavailable, CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrTooManyRequests    = New(CodeTooManyRequests, "too many requests")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrTokenExpired = New(CodeTokenExpired, "token expired")
	ErrTokenInvalid = New(CodeTokenInvalid, "token invalid")
	ErrTokenMissing = New(CodeTokenMissing, "token missing")

	ErrUserNotFound   = New(CodeUserNotFound, "user not found")
	ErrRecordNotFound = New(CodeRecordNotFound, "generation record not found")

	ErrGenerationFailed        = New(CodeGenerationFailed, "content generation failed")
	ErrInvalidMode             = New(CodeInvalidMode, "unknown generation mode")
	ErrMissingTemplateVariable = New(CodeMissingTemplateVariable, "missing template variable")
	ErrInsufficientCredits     = New(CodeInsufficientCredits, "insufficient credits")
	ErrLedgerWriteFailed       = New(CodeLedgerWriteFailed, "credit ledger write failed")

	ErrProviderRateLimited     = New(CodeProviderRateLimited, "provider rate limited")
	ErrProviderTimeout         = New(CodeProviderTimeout, "provider call timed out")
	ErrProviderInvalidResponse = New(CodeProviderInvalidResponse, "provider returned invalid response")
	ErrProviderUnavailable     = New(CodeProviderUnavailable, "provider unavailable")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// IsCode 判断错误是否携带指定错误码
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsTransient 判断错误是否属于可重试的瞬态提供商错误。
// 只有限流和超时参与阶段内重试，其余错误立即上抛。
func IsTransient(err error) bool {
	return IsCode(err, CodeProviderRateLimited) || IsCode(err, CodeProviderTimeout)
}
