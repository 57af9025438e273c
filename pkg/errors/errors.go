package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── 错误分类 ──
//
// Repository 只返回以下几类错误，Service 原样透传，Handler 按类别映射 HTTP 状态码。

var (
	// ErrValidation 必填字段缺失或取值非法（400）
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 查询的记录不存在（404）
	ErrNotFound = errors.New("记录不存在")
	// ErrConflict 唯一键冲突（409）
	ErrConflict = errors.New("记录已存在")
	// ErrPersistence 存储不可达或写入失败（500）
	ErrPersistence = errors.New("存储层操作失败")
)

// Error 携带分类、操作名与底层原因的错误
// errors.Is 可同时匹配 Kind 与 Err
type Error struct {
	Kind   error
	Op     string
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap 返回分类与原因，供 errors.Is / errors.As 遍历
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Validation 构造校验错误，fields 为缺失或非法的字段名
func Validation(op string, fields ...string) error {
	return &Error{Kind: ErrValidation, Op: op, Fields: fields}
}

// NotFound 构造记录不存在错误
func NotFound(op string, err error) error {
	return &Error{Kind: ErrNotFound, Op: op, Err: err}
}

// Conflict 构造唯一键冲突错误
func Conflict(op string, err error) error {
	return &Error{Kind: ErrConflict, Op: op, Err: err}
}

// Persistence 构造存储层错误
func Persistence(op string, err error) error {
	return &Error{Kind: ErrPersistence, Op: op, Err: err}
}

// FieldsOf 提取校验错误中的字段列表
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
