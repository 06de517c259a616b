package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
	// ErrShiftHolderChanged 班次持有人与预期不符（比较并交换失败）
	ErrShiftHolderChanged = errors.New("班次持有人已变更")
)

// Kind 业务错误分类，决定 HTTP 状态码与是否可重试
type Kind int

const (
	KindInternal      Kind = iota
	KindValidation         // 400，输入非法或引用不存在，不自动重试
	KindAuthorization      // 403，角色或归属不匹配，不自动重试
	KindNotFound           // 404
	KindConflict           // 409，非法状态迁移 / 版本冲突，调用方可刷新后重新发起
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// AppError 带分类与业务码的错误
type AppError struct {
	Kind    Kind
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 同一 Kind + Code 视为同一类错误，便于 errors.Is 比较哨兵错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap 以当前错误为模板附加底层原因
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: err}
}

// ── 构造函数 ──

func NewValidation(code int, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

func NewAuthorization(code int, message string) *AppError {
	return &AppError{Kind: KindAuthorization, Code: code, Message: message}
}

func NewNotFound(code int, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflict(code int, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// KindOf 提取错误分类，非 AppError 一律视为内部错误
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As 提取 AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
