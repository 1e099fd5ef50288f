package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/user/yamdb/internal/permission"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid confirmation code")
	ErrNotAuthenticated   = permission.ErrNotAuthenticated
	ErrPermissionDenied   = permission.ErrPermissionDenied
)

// NonFieldErrors 对象级校验错误的键
const NonFieldErrors = "non_field_errors"

// ValidationError 按字段聚合的校验错误
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError 创建单字段校验错误
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add 追加一条字段错误
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty 没有任何错误
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil 没有错误时返回 nil
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
