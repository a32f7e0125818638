package lanzou

import (
	"errors"
	"fmt"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lanzou error: code=%s(%d), message=%s", e.Code, int(e.Code), e.Message)
}

func NewAPIError(code Code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func newAPIErrorf(code Code, format string, args ...any) *APIError {
	return NewAPIError(code, fmt.Sprintf(format, args...))
}

// ErrPartialMove 移动文件夹中途失败，网盘上可能残留 _bak 文件夹或重复文件夹
var ErrPartialMove = errors.New("folder move partially applied")

// ErrNoContentLength 直链响应没有可用的 Content-Length
var ErrNoContentLength = errors.New("missing content-length")

// CodeOf 取出错误链中的结果码，nil 视为成功，未知错误视为失败
func CodeOf(err error) Code {
	if err == nil {
		return SUCCESS
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return FAILED
}

func IsNetworkError(err error) bool {
	return err != nil && CodeOf(err) == NETWORK_ERROR
}

func IsPasswordError(err error) bool {
	return err != nil && CodeOf(err) == PASSWORD_ERROR
}

func IsLackPassword(err error) bool {
	return err != nil && CodeOf(err) == LACK_PASSWORD
}

func IsCancelled(err error) bool {
	return err != nil && CodeOf(err) == FILE_CANCELLED
}

func IsURLInvalid(err error) bool {
	return err != nil && CodeOf(err) == URL_INVALID
}

func IsZipError(err error) bool {
	return err != nil && CodeOf(err) == ZIP_ERROR
}
