package fitness

import (
	"errors"
	"fmt"
)

var (
	// ErrShape 表示顶层输入不符合任何已知结构
	ErrShape = errors.New("unrecognized import shape")
	// ErrValidation 表示某条记录缺少必需字段
	ErrValidation = errors.New("import validation failed")
	// ErrInvariant 表示强制转换后的记录违反了规范约束，属于内部错误
	ErrInvariant = errors.New("canonical record invariant violated")
)

// ImportError 是导入管线返回的结构化失败
type ImportError struct {
	Kind    error
	Record  RecordKind
	Index   int
	Field   string
	Message string
}

func (e *ImportError) Error() string {
	return e.Message
}

// Unwrap 让 errors.Is(err, ErrShape) 等判断可用
func (e *ImportError) Unwrap() error {
	return e.Kind
}

func newShapeError(reason string) *ImportError {
	return &ImportError{Kind: ErrShape, Message: reason}
}

func newMissingFieldError(kind RecordKind, index int, field string) *ImportError {
	return &ImportError{
		Kind:    ErrValidation,
		Record:  kind,
		Index:   index,
		Field:   field,
		Message: fmt.Sprintf("%s entry #%d is missing required field: %s", kind.Label(), index, field),
	}
}

func newInvalidDateError(kind RecordKind, index int, value string) *ImportError {
	return &ImportError{
		Kind:    ErrValidation,
		Record:  kind,
		Index:   index,
		Field:   "Date",
		Message: fmt.Sprintf("%s entry #%d has an invalid date: %s", kind.Label(), index, value),
	}
}
