package domain

import (
	"errors"
	"fmt"
)

// 错误分类：transport 层统一映射成 400 / 409 / 403 / 404

// ValidationError 入参不合法（数量为负、缺必填字段等）→ 400
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// ReferentialError 指向缺失/受保护的引用，或删除仍被引用的记录 → 409
type ReferentialError struct {
	Msg string
}

func (e *ReferentialError) Error() string { return e.Msg }

func Referential(format string, args ...any) error {
	return &ReferentialError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError 角色不匹配 → 403
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func Forbidden(msg string) error { return &AuthorizationError{Msg: msg} }

// NotFoundError 记录不存在（或在当前 scope 下不可见）→ 404
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

// ErrInvalidCredentials 登录失败 → 401
var ErrInvalidCredentials = errors.New("invalid credentials")
