// Package errors 安装器统一的结构化错误类型
// Structured error types shared by every install step, so callers can branch on
// a stable code and operators get the failing url/path in the message.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode 错误分类
type ErrorCode string

const (
	// ErrCodeConfiguration no usable source for the platform/kind combination.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	// ErrCodeNetwork connection failure, timeout or non-2xx response.
	ErrCodeNetwork ErrorCode = "NETWORK"
	// ErrCodeArchive corrupt or truncated tar/zip/msi content.
	ErrCodeArchive ErrorCode = "ARCHIVE"
	// ErrCodeFilesystem permission denied, disk full, uncreatable directory.
	ErrCodeFilesystem ErrorCode = "FILESYSTEM"
	// ErrCodeExternalTool a service manager command exited non-zero.
	ErrCodeExternalTool ErrorCode = "EXTERNAL_TOOL"
)

// StructuredError 携带错误码、原因以及上下文（url/path 等）
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface. Context keys are rendered in sorted
// order so messages are stable.
func (e *StructuredError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches another StructuredError by code only.
func (e *StructuredError) Is(target error) bool {
	t, ok := target.(*StructuredError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Context: context}
}

// Wrap wraps an existing error with a code.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// CodeOf 返回错误链中第一个 StructuredError 的错误码，没有则返回空串
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether any error in the chain carries code.
func IsCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &StructuredError{Code: code})
}

// Sentinels for errors.Is comparisons.
var (
	ErrConfiguration = &StructuredError{Code: ErrCodeConfiguration}
	ErrNetwork       = &StructuredError{Code: ErrCodeNetwork}
	ErrArchive       = &StructuredError{Code: ErrCodeArchive}
	ErrFilesystem    = &StructuredError{Code: ErrCodeFilesystem}
	ErrExternalTool  = &StructuredError{Code: ErrCodeExternalTool}
)
